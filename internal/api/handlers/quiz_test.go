package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/atlas-learn/atlasai/internal/domain"
	"github.com/atlas-learn/atlasai/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockQuizService struct {
	mock.Mock
}

func (m *MockQuizService) Generate(ctx context.Context, input service.GenerateQuizInput) (*domain.Quiz, *service.QuizMetadata, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*domain.Quiz), args.Get(1).(*service.QuizMetadata), args.Error(2)
}

func TestQuizHandler_Generate_Success(t *testing.T) {
	mockSvc := new(MockQuizService)
	handler := NewQuizHandler(mockSvc)

	quiz := &domain.Quiz{Questions: []domain.QuizQuestion{{
		ID:          "q1",
		Question:    "What does backpropagation compute?",
		Options:     []string{"Gradients", "Hashes", "Embeddings", "Tokens"},
		AnswerIndex: 0,
	}}}
	meta := &service.QuizMetadata{DocumentID: "doc-123", Difficulty: "medium", QuestionCount: 1, ChunksUsed: 3}
	mockSvc.On("Generate", mock.Anything, mock.MatchedBy(func(input service.GenerateQuizInput) bool {
		return input.UserID == "user-456" && input.DocumentID == "doc-123" && input.QuestionCount == 5
	})).Return(quiz, meta, nil)

	body := `{"documentId":"doc-123","difficulty":"medium","questionCount":5}`
	req := requestWithUserID(http.MethodPost, "/api/quiz/generate", []byte(body))
	w := httptest.NewRecorder()

	handler.Generate(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	quizData := data["quiz"].(map[string]interface{})
	assert.Len(t, quizData["questions"], 1)
	metaData := data["metadata"].(map[string]interface{})
	assert.Equal(t, "doc-123", metaData["documentId"])
	assert.Equal(t, float64(3), metaData["chunksUsed"])
	mockSvc.AssertExpectations(t)
}

func TestQuizHandler_Generate_DocumentNotFound(t *testing.T) {
	mockSvc := new(MockQuizService)
	handler := NewQuizHandler(mockSvc)

	mockSvc.On("Generate", mock.Anything, mock.Anything).
		Return(nil, nil, domain.ErrDocumentNotFound)

	body := `{"documentId":"doc-999"}`
	req := requestWithUserID(http.MethodPost, "/api/quiz/generate", []byte(body))
	w := httptest.NewRecorder()

	handler.Generate(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	mockSvc.AssertExpectations(t)
}

func TestQuizHandler_Generate_InvalidJSON(t *testing.T) {
	handler := NewQuizHandler(new(MockQuizService))

	req := requestWithUserID(http.MethodPost, "/api/quiz/generate", []byte(`{invalid`))
	w := httptest.NewRecorder()

	handler.Generate(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid request body")
}

func TestQuizHandler_Generate_Unauthorized(t *testing.T) {
	handler := NewQuizHandler(new(MockQuizService))

	req := httptest.NewRequest(http.MethodPost, "/api/quiz/generate", nil)
	w := httptest.NewRecorder()

	handler.Generate(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
