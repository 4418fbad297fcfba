package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/atlas-learn/atlasai/internal/api"
	"github.com/atlas-learn/atlasai/internal/api/middleware"
	"github.com/atlas-learn/atlasai/internal/domain"
)

type YouTubeHandler struct {
	svc IngestionService
}

func NewYouTubeHandler(svc IngestionService) *YouTubeHandler {
	return &YouTubeHandler{svc: svc}
}

type ProcessVideoRequest struct {
	URL string `json:"url"`
}

type ProcessVideoResponse struct {
	Concepts   domain.ConceptGraph    `json:"concepts"`
	Timeline   []domain.TimelineEvent `json:"timeline"`
	ActionPlan domain.ActionPlan      `json:"actionPlan"`
	Chunks     []string               `json:"chunks,omitempty"`
	VideoID    string                 `json:"videoId"`
	DocumentID string                 `json:"documentId"`
	Cached     bool                   `json:"cached"`
}

// Process handles POST /api/youtube/process.
func (h *YouTubeHandler) Process(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req ProcessVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.URL == "" {
		api.HandleError(w, domain.ErrMissingURL)
		return
	}

	result, videoID, err := h.svc.IngestYouTube(r.Context(), userID, req.URL)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	doc := result.Document
	resp := &ProcessVideoResponse{
		Concepts:   doc.Concepts,
		Timeline:   doc.Timeline.Events,
		ActionPlan: doc.ActionPlan,
		VideoID:    videoID,
		DocumentID: doc.ID,
		Cached:     result.Cached,
	}
	for _, chunk := range result.Chunks {
		resp.Chunks = append(resp.Chunks, chunk.Content)
	}

	api.Success(w, http.StatusOK, resp)
}
