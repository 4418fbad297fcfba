package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/atlas-learn/atlasai/internal/domain"
	"github.com/atlas-learn/atlasai/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockProjectService struct {
	mock.Mock
}

func (m *MockProjectService) Create(ctx context.Context, input service.CreateProjectInput) (*domain.Project, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Project), args.Error(1)
}

func (m *MockProjectService) Get(ctx context.Context, userID, id string) (*domain.Project, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Project), args.Error(1)
}

func (m *MockProjectService) List(ctx context.Context, userID string) ([]*domain.Project, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Project), args.Error(1)
}

func (m *MockProjectService) Update(ctx context.Context, input service.UpdateProjectInput) (*domain.Project, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Project), args.Error(1)
}

func (m *MockProjectService) Delete(ctx context.Context, userID, id string) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func newTestProject() *domain.Project {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return &domain.Project{
		ID:         "proj-789",
		UserID:     "user-456",
		Name:       "Thesis Research",
		GroupLabel: "school",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func requestWithProjectID(req *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestProjectHandler_Create_Success(t *testing.T) {
	mockSvc := new(MockProjectService)
	handler := NewProjectHandler(mockSvc)

	mockSvc.On("Create", mock.Anything, mock.MatchedBy(func(input service.CreateProjectInput) bool {
		return input.UserID == "user-456" && input.Name == "Thesis Research" && input.GroupLabel == "school"
	})).Return(newTestProject(), nil)

	body := `{"name":"Thesis Research","groupLabel":"school"}`
	req := requestWithUserID(http.MethodPost, "/api/projects", []byte(body))
	w := httptest.NewRecorder()

	handler.Create(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "proj-789", data["id"])
	assert.Equal(t, "school", data["groupLabel"])
	mockSvc.AssertExpectations(t)
}

func TestProjectHandler_Create_MissingName(t *testing.T) {
	handler := NewProjectHandler(new(MockProjectService))

	req := requestWithUserID(http.MethodPost, "/api/projects", []byte(`{"groupLabel":"school"}`))
	w := httptest.NewRecorder()

	handler.Create(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "name is required")
}

func TestProjectHandler_Get_Success(t *testing.T) {
	mockSvc := new(MockProjectService)
	handler := NewProjectHandler(mockSvc)

	mockSvc.On("Get", mock.Anything, "user-456", "proj-789").Return(newTestProject(), nil)

	req := requestWithProjectID(requestWithUserID(http.MethodGet, "/api/projects/proj-789", nil), "proj-789")
	w := httptest.NewRecorder()

	handler.Get(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockSvc.AssertExpectations(t)
}

func TestProjectHandler_Get_NotFound(t *testing.T) {
	mockSvc := new(MockProjectService)
	handler := NewProjectHandler(mockSvc)

	mockSvc.On("Get", mock.Anything, "user-456", "proj-999").Return(nil, domain.ErrProjectNotFound)

	req := requestWithProjectID(requestWithUserID(http.MethodGet, "/api/projects/proj-999", nil), "proj-999")
	w := httptest.NewRecorder()

	handler.Get(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	mockSvc.AssertExpectations(t)
}

func TestProjectHandler_List_Success(t *testing.T) {
	mockSvc := new(MockProjectService)
	handler := NewProjectHandler(mockSvc)

	mockSvc.On("List", mock.Anything, "user-456").Return([]*domain.Project{newTestProject()}, nil)

	req := requestWithUserID(http.MethodGet, "/api/projects", nil)
	w := httptest.NewRecorder()

	handler.List(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	items := resp["data"].([]interface{})
	assert.Len(t, items, 1)
	mockSvc.AssertExpectations(t)
}

func TestProjectHandler_Update_Success(t *testing.T) {
	mockSvc := new(MockProjectService)
	handler := NewProjectHandler(mockSvc)

	updated := newTestProject()
	updated.Name = "Renamed"
	mockSvc.On("Update", mock.Anything, mock.MatchedBy(func(input service.UpdateProjectInput) bool {
		return input.ProjectID == "proj-789" && input.Name == "Renamed"
	})).Return(updated, nil)

	body := `{"name":"Renamed"}`
	req := requestWithProjectID(requestWithUserID(http.MethodPut, "/api/projects/proj-789", []byte(body)), "proj-789")
	w := httptest.NewRecorder()

	handler.Update(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "Renamed", data["name"])
	mockSvc.AssertExpectations(t)
}

func TestProjectHandler_Delete_Success(t *testing.T) {
	mockSvc := new(MockProjectService)
	handler := NewProjectHandler(mockSvc)

	mockSvc.On("Delete", mock.Anything, "user-456", "proj-789").Return(nil)

	req := requestWithProjectID(requestWithUserID(http.MethodDelete, "/api/projects/proj-789", nil), "proj-789")
	w := httptest.NewRecorder()

	handler.Delete(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	mockSvc.AssertExpectations(t)
}

func TestProjectHandler_Delete_NotFound(t *testing.T) {
	mockSvc := new(MockProjectService)
	handler := NewProjectHandler(mockSvc)

	mockSvc.On("Delete", mock.Anything, "user-456", "proj-999").Return(domain.ErrProjectNotFound)

	req := requestWithProjectID(requestWithUserID(http.MethodDelete, "/api/projects/proj-999", nil), "proj-999")
	w := httptest.NewRecorder()

	handler.Delete(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	mockSvc.AssertExpectations(t)
}
