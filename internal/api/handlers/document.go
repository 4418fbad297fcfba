package handlers

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/atlas-learn/atlasai/internal/api"
	"github.com/atlas-learn/atlasai/internal/api/middleware"
	"github.com/atlas-learn/atlasai/internal/domain"
	"github.com/atlas-learn/atlasai/internal/service"
	"github.com/go-chi/chi/v5"
)

// maxUploadBytes caps PDF uploads at 10MB.
const maxUploadBytes = 10 << 20

type IngestionService interface {
	IngestPDF(ctx context.Context, userID, fileName string, data []byte) (*service.IngestResult, error)
	IngestYouTube(ctx context.Context, userID, rawURL string) (*service.IngestResult, string, error)
	IngestGitHub(ctx context.Context, userID, rawURL string) (*service.IngestResult, string, error)
	GetDocument(ctx context.Context, userID, documentID string) (*domain.Document, error)
	ListDocuments(ctx context.Context, input service.ListDocumentsInput) (*service.ListDocumentsOutput, error)
}

type DocumentHandler struct {
	svc IngestionService
}

func NewDocumentHandler(svc IngestionService) *DocumentHandler {
	return &DocumentHandler{svc: svc}
}

// IngestResponse is the uniform ingestion payload: the concept graph split
// into top-level nodes/edges, the timeline events, and the action plan.
type IngestResponse struct {
	Nodes      []domain.ConceptNode    `json:"nodes"`
	Edges      []domain.ConceptEdge    `json:"edges"`
	Timeline   []domain.TimelineEvent  `json:"timeline"`
	ActionPlan domain.ActionPlan       `json:"actionPlan"`
	Chunks     []string                `json:"chunks,omitempty"`
	DocumentID string                  `json:"documentId"`
	Cached     bool                    `json:"cached"`
}

func ingestToResponse(result *service.IngestResult) *IngestResponse {
	doc := result.Document
	resp := &IngestResponse{
		Nodes:      doc.Concepts.Nodes,
		Edges:      doc.Concepts.Edges,
		Timeline:   doc.Timeline.Events,
		ActionPlan: doc.ActionPlan,
		DocumentID: doc.ID,
		Cached:     result.Cached,
	}
	// Legacy records without usable concepts fall back to raw chunk text.
	for _, chunk := range result.Chunks {
		resp.Chunks = append(resp.Chunks, chunk.Content)
	}
	return resp
}

// Upload handles POST /api/documents/upload (multipart, field "file").
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		api.HandleError(w, domain.ErrMissingFile)
		return
	}
	defer file.Close()

	if header.Size > maxUploadBytes {
		api.HandleError(w, domain.ErrFileTooLarge)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		api.Error(w, http.StatusBadRequest, "failed to read uploaded file")
		return
	}
	if len(data) > maxUploadBytes {
		api.HandleError(w, domain.ErrFileTooLarge)
		return
	}

	fileName := header.Filename
	if fileName == "" {
		fileName = "upload.pdf"
	}

	result, err := h.svc.IngestPDF(r.Context(), userID, fileName, data)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, ingestToResponse(result))
}

// Get handles GET /api/documents/{id}.
func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	doc, err := h.svc.GetDocument(r.Context(), userID, id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, documentToResponse(doc))
}

// DocumentResponse is the stored-document payload for reads and listings.
type DocumentResponse struct {
	ID         string                 `json:"id"`
	FileName   string                 `json:"fileName"`
	SourceType string                 `json:"sourceType"`
	Nodes      []domain.ConceptNode   `json:"nodes"`
	Edges      []domain.ConceptEdge   `json:"edges"`
	Timeline   []domain.TimelineEvent `json:"timeline"`
	ActionPlan domain.ActionPlan      `json:"actionPlan"`
	CreatedAt  string                 `json:"createdAt"`
}

func documentToResponse(doc *domain.Document) *DocumentResponse {
	return &DocumentResponse{
		ID:         doc.ID,
		FileName:   doc.FileName,
		SourceType: string(doc.SourceType),
		Nodes:      doc.Concepts.Nodes,
		Edges:      doc.Concepts.Edges,
		Timeline:   doc.Timeline.Events,
		ActionPlan: doc.ActionPlan,
		CreatedAt:  doc.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}

type ListDocumentsResponse struct {
	Items   []*DocumentResponse `json:"items"`
	Cursor  string              `json:"cursor,omitempty"`
	HasMore bool                `json:"has_more"`
}

// List handles GET /api/documents with cursor pagination.
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			api.Error(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	out, err := h.svc.ListDocuments(r.Context(), service.ListDocumentsInput{
		UserID: userID,
		Cursor: r.URL.Query().Get("cursor"),
		Limit:  limit,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := &ListDocumentsResponse{
		Items:   make([]*DocumentResponse, 0, len(out.Items)),
		Cursor:  out.Cursor,
		HasMore: out.HasMore,
	}
	for _, doc := range out.Items {
		resp.Items = append(resp.Items, documentToResponse(doc))
	}

	api.Success(w, http.StatusOK, resp)
}
