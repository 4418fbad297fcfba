package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/atlas-learn/atlasai/internal/api"
	"github.com/atlas-learn/atlasai/internal/api/middleware"
	"github.com/atlas-learn/atlasai/internal/domain"
	"github.com/atlas-learn/atlasai/internal/service"
)

type QuizService interface {
	Generate(ctx context.Context, input service.GenerateQuizInput) (*domain.Quiz, *service.QuizMetadata, error)
}

type QuizHandler struct {
	svc QuizService
}

func NewQuizHandler(svc QuizService) *QuizHandler {
	return &QuizHandler{svc: svc}
}

type GenerateQuizRequest struct {
	DocumentID    string `json:"documentId"`
	Difficulty    string `json:"difficulty"`
	QuestionCount int    `json:"questionCount"`
}

type GenerateQuizResponse struct {
	Quiz     *domain.Quiz          `json:"quiz"`
	Metadata *service.QuizMetadata `json:"metadata"`
}

// Generate handles POST /api/quiz/generate.
func (h *QuizHandler) Generate(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req GenerateQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	quiz, meta, err := h.svc.Generate(r.Context(), service.GenerateQuizInput{
		UserID:        userID,
		DocumentID:    req.DocumentID,
		Difficulty:    req.Difficulty,
		QuestionCount: req.QuestionCount,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, &GenerateQuizResponse{Quiz: quiz, Metadata: meta})
}
