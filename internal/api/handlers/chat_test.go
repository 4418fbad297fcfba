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

type MockChatService struct {
	mock.Mock
}

func (m *MockChatService) SendMessage(ctx context.Context, userID, projectID, message string) (*service.ChatExchange, error) {
	args := m.Called(ctx, userID, projectID, message)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ChatExchange), args.Error(1)
}

func (m *MockChatService) History(ctx context.Context, userID, projectID string) ([]*domain.ChatMessage, error) {
	args := m.Called(ctx, userID, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ChatMessage), args.Error(1)
}

func newTestExchange() *service.ChatExchange {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return &service.ChatExchange{
		UserMessage: &domain.ChatMessage{
			ID: "msg-1", UserID: "user-456", ProjectID: "proj-789",
			Role: domain.ChatRoleUser, Content: "What is attention?", CreatedAt: at,
		},
		AssistantMessage: &domain.ChatMessage{
			ID: "msg-2", UserID: "user-456", ProjectID: "proj-789",
			Role: domain.ChatRoleAssistant, Content: "Attention weighs token relevance.", CreatedAt: at,
		},
	}
}

func TestChatHandler_Send_Success(t *testing.T) {
	mockSvc := new(MockChatService)
	handler := NewChatHandler(mockSvc)

	mockSvc.On("SendMessage", mock.Anything, "user-456", "proj-789", "What is attention?").
		Return(newTestExchange(), nil)

	body := `{"projectId":"proj-789","message":"What is attention?"}`
	req := requestWithUserID(http.MethodPost, "/api/chat/message", []byte(body))
	w := httptest.NewRecorder()

	handler.Send(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	userMsg := data["userMessage"].(map[string]interface{})
	assistantMsg := data["assistantMessage"].(map[string]interface{})
	assert.Equal(t, "user", userMsg["role"])
	assert.Equal(t, "assistant", assistantMsg["role"])
	assert.Equal(t, "Attention weighs token relevance.", assistantMsg["content"])
	mockSvc.AssertExpectations(t)
}

func TestChatHandler_Send_MissingProjectID(t *testing.T) {
	handler := NewChatHandler(new(MockChatService))

	body := `{"message":"hello"}`
	req := requestWithUserID(http.MethodPost, "/api/chat/message", []byte(body))
	w := httptest.NewRecorder()

	handler.Send(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "projectId is required")
}

func TestChatHandler_Send_ProjectNotFound(t *testing.T) {
	mockSvc := new(MockChatService)
	handler := NewChatHandler(mockSvc)

	mockSvc.On("SendMessage", mock.Anything, "user-456", "proj-999", "hello").
		Return(nil, domain.ErrProjectNotFound)

	body := `{"projectId":"proj-999","message":"hello"}`
	req := requestWithUserID(http.MethodPost, "/api/chat/message", []byte(body))
	w := httptest.NewRecorder()

	handler.Send(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	mockSvc.AssertExpectations(t)
}

func TestChatHandler_Send_GenerationFailure(t *testing.T) {
	mockSvc := new(MockChatService)
	handler := NewChatHandler(mockSvc)

	mockSvc.On("SendMessage", mock.Anything, "user-456", "proj-789", "hello").
		Return(nil, domain.NewDomainError(domain.ErrCodeGeneration, "model unavailable"))

	body := `{"projectId":"proj-789","message":"hello"}`
	req := requestWithUserID(http.MethodPost, "/api/chat/message", []byte(body))
	w := httptest.NewRecorder()

	handler.Send(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	mockSvc.AssertExpectations(t)
}

func TestChatHandler_History_Success(t *testing.T) {
	mockSvc := new(MockChatService)
	handler := NewChatHandler(mockSvc)

	exchange := newTestExchange()
	mockSvc.On("History", mock.Anything, "user-456", "proj-789").
		Return([]*domain.ChatMessage{exchange.UserMessage, exchange.AssistantMessage}, nil)

	req := requestWithUserID(http.MethodGet, "/api/chat/proj-789", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("projectId", "proj-789")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	w := httptest.NewRecorder()

	handler.History(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	messages := resp["data"].([]interface{})
	require.Len(t, messages, 2)
	first := messages[0].(map[string]interface{})
	assert.Equal(t, "msg-1", first["id"])
	mockSvc.AssertExpectations(t)
}

func TestChatHandler_History_EmptyThread(t *testing.T) {
	mockSvc := new(MockChatService)
	handler := NewChatHandler(mockSvc)

	mockSvc.On("History", mock.Anything, "user-456", "proj-789").
		Return([]*domain.ChatMessage{}, nil)

	req := requestWithUserID(http.MethodGet, "/api/chat/proj-789", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("projectId", "proj-789")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	w := httptest.NewRecorder()

	handler.History(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"data":[]`)
	mockSvc.AssertExpectations(t)
}
