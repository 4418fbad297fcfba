package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/atlas-learn/atlasai/internal/api"
	"github.com/atlas-learn/atlasai/internal/api/middleware"
	"github.com/atlas-learn/atlasai/internal/domain"
	"github.com/atlas-learn/atlasai/internal/service"
	"github.com/go-chi/chi/v5"
)

type ChatService interface {
	SendMessage(ctx context.Context, userID, projectID, message string) (*service.ChatExchange, error)
	History(ctx context.Context, userID, projectID string) ([]*domain.ChatMessage, error)
}

type ChatHandler struct {
	svc ChatService
}

func NewChatHandler(svc ChatService) *ChatHandler {
	return &ChatHandler{svc: svc}
}

type SendMessageRequest struct {
	ProjectID string `json:"projectId"`
	Message   string `json:"message"`
}

type ChatMessageResponse struct {
	ID        string `json:"id"`
	ProjectID string `json:"projectId"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt string `json:"createdAt"`
}

func chatMessageToResponse(m *domain.ChatMessage) *ChatMessageResponse {
	return &ChatMessageResponse{
		ID:        m.ID,
		ProjectID: m.ProjectID,
		Role:      string(m.Role),
		Content:   m.Content,
		CreatedAt: m.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}

type SendMessageResponse struct {
	UserMessage      *ChatMessageResponse `json:"userMessage"`
	AssistantMessage *ChatMessageResponse `json:"assistantMessage"`
}

// Send handles POST /api/chat/message.
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ProjectID == "" {
		api.Error(w, http.StatusBadRequest, "projectId is required")
		return
	}

	exchange, err := h.svc.SendMessage(r.Context(), userID, req.ProjectID, req.Message)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, &SendMessageResponse{
		UserMessage:      chatMessageToResponse(exchange.UserMessage),
		AssistantMessage: chatMessageToResponse(exchange.AssistantMessage),
	})
}

// History handles GET /api/chat/{projectId}.
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	projectID := chi.URLParam(r, "projectId")
	if projectID == "" {
		api.Error(w, http.StatusBadRequest, "projectId is required")
		return
	}

	thread, err := h.svc.History(r.Context(), userID, projectID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	messages := make([]*ChatMessageResponse, 0, len(thread))
	for _, m := range thread {
		messages = append(messages, chatMessageToResponse(m))
	}

	api.Success(w, http.StatusOK, messages)
}
