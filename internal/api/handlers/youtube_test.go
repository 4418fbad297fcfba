package handlers

import (
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

func TestYouTubeHandler_Process_Success(t *testing.T) {
	mockSvc := new(MockIngestionService)
	handler := NewYouTubeHandler(mockSvc)

	doc := newTestDocument()
	doc.SourceType = domain.SourceTypeYouTube
	result := &service.IngestResult{Document: doc, Cached: true}
	mockSvc.On("IngestYouTube", mock.Anything, "user-456", "https://youtu.be/dQw4w9WgXcQ").
		Return(result, "dQw4w9WgXcQ", nil)

	body := `{"url":"https://youtu.be/dQw4w9WgXcQ"}`
	req := requestWithUserID(http.MethodPost, "/api/youtube/process", []byte(body))
	w := httptest.NewRecorder()

	handler.Process(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "dQw4w9WgXcQ", data["videoId"])
	assert.Equal(t, true, data["cached"])
	concepts := data["concepts"].(map[string]interface{})
	assert.Len(t, concepts["nodes"], 1)
	mockSvc.AssertExpectations(t)
}

func TestYouTubeHandler_Process_LegacyChunks(t *testing.T) {
	mockSvc := new(MockIngestionService)
	handler := NewYouTubeHandler(mockSvc)

	doc := newTestDocument()
	doc.SourceType = domain.SourceTypeYouTube
	doc.Concepts = domain.ConceptGraph{}
	doc.Normalize()
	result := &service.IngestResult{
		Document: doc,
		Chunks: []*domain.DocumentChunk{
			{Content: "first segment"},
			{Content: "second segment"},
		},
		Cached: true,
	}
	mockSvc.On("IngestYouTube", mock.Anything, "user-456", "https://youtu.be/dQw4w9WgXcQ").
		Return(result, "dQw4w9WgXcQ", nil)

	body := `{"url":"https://youtu.be/dQw4w9WgXcQ"}`
	req := requestWithUserID(http.MethodPost, "/api/youtube/process", []byte(body))
	w := httptest.NewRecorder()

	handler.Process(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	chunks := data["chunks"].([]interface{})
	assert.Equal(t, []interface{}{"first segment", "second segment"}, chunks)
	mockSvc.AssertExpectations(t)
}

func TestYouTubeHandler_Process_NoTranscript(t *testing.T) {
	mockSvc := new(MockIngestionService)
	handler := NewYouTubeHandler(mockSvc)

	mockSvc.On("IngestYouTube", mock.Anything, "user-456", "https://youtu.be/silent").
		Return(nil, "", domain.ErrTranscriptNotFound)

	body := `{"url":"https://youtu.be/silent"}`
	req := requestWithUserID(http.MethodPost, "/api/youtube/process", []byte(body))
	w := httptest.NewRecorder()

	handler.Process(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	mockSvc.AssertExpectations(t)
}

func TestYouTubeHandler_Process_MissingURL(t *testing.T) {
	handler := NewYouTubeHandler(new(MockIngestionService))

	req := requestWithUserID(http.MethodPost, "/api/youtube/process", []byte(`{"url":""}`))
	w := httptest.NewRecorder()

	handler.Process(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "url is required")
}
