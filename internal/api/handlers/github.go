package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/atlas-learn/atlasai/internal/api"
	"github.com/atlas-learn/atlasai/internal/api/middleware"
	"github.com/atlas-learn/atlasai/internal/domain"
)

type GitHubHandler struct {
	svc IngestionService
}

func NewGitHubHandler(svc IngestionService) *GitHubHandler {
	return &GitHubHandler{svc: svc}
}

type ProcessRepoRequest struct {
	URL string `json:"url"`
}

type ProcessRepoResponse struct {
	Nodes      []domain.ConceptNode   `json:"nodes"`
	Edges      []domain.ConceptEdge   `json:"edges"`
	Timeline   []domain.TimelineEvent `json:"timeline"`
	ActionPlan domain.ActionPlan      `json:"actionPlan"`
	DocumentID string                 `json:"documentId"`
	RepoName   string                 `json:"repoName"`
}

// Process handles POST /api/github/process.
func (h *GitHubHandler) Process(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req ProcessRepoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.URL == "" {
		api.HandleError(w, domain.ErrMissingURL)
		return
	}

	result, repoName, err := h.svc.IngestGitHub(r.Context(), userID, req.URL)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	doc := result.Document
	api.Success(w, http.StatusOK, &ProcessRepoResponse{
		Nodes:      doc.Concepts.Nodes,
		Edges:      doc.Concepts.Edges,
		Timeline:   doc.Timeline.Events,
		ActionPlan: doc.ActionPlan,
		DocumentID: doc.ID,
		RepoName:   repoName,
	})
}
