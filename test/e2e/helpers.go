//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/atlas-learn/atlasai/internal/api/handlers"
	"github.com/atlas-learn/atlasai/internal/extract"
	"github.com/atlas-learn/atlasai/internal/repository"
	"github.com/atlas-learn/atlasai/internal/server"
	"github.com/atlas-learn/atlasai/internal/service"
	"github.com/atlas-learn/atlasai/internal/storage"
	"github.com/atlas-learn/atlasai/internal/testutil"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	e2eJWTSecret = "e2e-test-secret"
	e2eUserID    = "e2e-user"

	// embeddingDims must match the vector column width in the migrations.
	embeddingDims = 768
)

// E2ETestEnv holds all resources needed for E2E tests
type E2ETestEnv struct {
	T            *testing.T
	Ctx          context.Context
	PostgresC    *testutil.PostgresContainer
	RustFSC      *testutil.RustFSContainer
	Pool         *pgxpool.Pool
	ServerURL    string
	ServerCloser func()
	S3Client     *storage.S3Client
	BinaryDir    string
	AuthToken    string
	HTTPClient   *http.Client
}

// SetupE2EEnv creates a full E2E test environment with containers and server.
// LLM completion, embedding, transcript, and repository fetching are stubbed
// in-process; everything else (router, auth, services, repositories, storage)
// is the real wiring.
func SetupE2EEnv(t *testing.T) *E2ETestEnv {
	ctx := context.Background()

	// Start PostgreSQL container
	pgC := testutil.NewPostgresContainer(ctx, t)

	// Start RustFS container
	s3C := testutil.NewRustFSContainer(ctx, t)

	// Create connection pool and run migrations
	pool := testutil.NewTestPool(ctx, t, pgC, "../../migrations")

	// Create S3 client
	s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
		Endpoint:        s3C.Endpoint(),
		Region:          "us-east-1",
		AccessKeyID:     "rustfsadmin",
		SecretAccessKey: "rustfsadmin",
		Bucket:          "test-archive",
		UsePathStyle:    true,
	})
	if err != nil {
		t.Fatalf("failed to create S3 client: %v", err)
	}

	if err := s3Client.EnsureBucket(ctx); err != nil {
		t.Fatalf("failed to create bucket: %v", err)
	}

	// Find free port for server
	port, err := getFreePort()
	if err != nil {
		t.Fatalf("failed to get free port: %v", err)
	}

	// Start HTTP server
	serverURL, serverCloser := startServer(t, pool, s3Client, port)

	token, err := service.NewJWTService(e2eJWTSecret).Issue(e2eUserID, time.Hour)
	if err != nil {
		t.Fatalf("failed to issue auth token: %v", err)
	}

	return &E2ETestEnv{
		T:            t,
		Ctx:          ctx,
		PostgresC:    pgC,
		RustFSC:      s3C,
		Pool:         pool,
		ServerURL:    serverURL,
		ServerCloser: serverCloser,
		S3Client:     s3Client,
		AuthToken:    token,
		HTTPClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Cleanup releases all resources
func (e *E2ETestEnv) Cleanup() {
	if e.ServerCloser != nil {
		e.ServerCloser()
	}
	if e.Pool != nil {
		e.Pool.Close()
	}
	if e.RustFSC != nil {
		e.RustFSC.Terminate(e.Ctx)
	}
	if e.PostgresC != nil {
		e.PostgresC.Terminate(e.Ctx)
	}
	if e.BinaryDir != "" {
		os.RemoveAll(e.BinaryDir)
	}
}

// BuildBinary builds the atlasd binary into a temp dir.
func (e *E2ETestEnv) BuildBinary() {
	tmpDir, err := os.MkdirTemp("", "atlasd-e2e-*")
	if err != nil {
		e.T.Fatalf("failed to create temp dir: %v", err)
	}
	e.BinaryDir = tmpDir

	cmd := exec.Command("go", "build", "-o", filepath.Join(tmpDir, "atlasd"), "./cmd/atlasd")
	cmd.Dir = "../.."
	if out, err := cmd.CombinedOutput(); err != nil {
		e.T.Fatalf("failed to build atlasd: %v\n%s", err, out)
	}
}

// RunAtlasd runs the atlasd binary with the test environment's database and
// JWT secret configured.
func (e *E2ETestEnv) RunAtlasd(args ...string) (string, error) {
	cmd := exec.Command(filepath.Join(e.BinaryDir, "atlasd"), args...)
	cmd.Env = append(os.Environ(),
		fmt.Sprintf("ATLAS_DATABASE_URL=%s", e.PostgresC.ConnectionString()),
		fmt.Sprintf("ATLAS_JWT_SECRET=%s", e2eJWTSecret),
	)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// APIResponse represents a standard API response
type APIResponse struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error,omitempty"`
}

// Get performs a GET request
func (e *E2ETestEnv) Get(path, authToken string) (*APIResponse, error) {
	return e.doRequest("GET", path, nil, authToken)
}

// Post performs a POST request
func (e *E2ETestEnv) Post(path string, body interface{}, authToken string) (*APIResponse, error) {
	return e.doRequest("POST", path, body, authToken)
}

// Put performs a PUT request
func (e *E2ETestEnv) Put(path string, body interface{}, authToken string) (*APIResponse, error) {
	return e.doRequest("PUT", path, body, authToken)
}

// Delete performs a DELETE request
func (e *E2ETestEnv) Delete(path, authToken string) (*APIResponse, error) {
	return e.doRequest("DELETE", path, nil, authToken)
}

func (e *E2ETestEnv) doRequest(method, path string, body interface{}, authToken string) (*APIResponse, error) {
	url := e.ServerURL + path

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return nil, err
	}

	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	// DELETE returns 204 with no body.
	if len(bytes.TrimSpace(respBody)) == 0 {
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
		}
		return &APIResponse{}, nil
	}

	var apiResp APIResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
		}
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, apiResp.Error)
	}

	return &apiResp, nil
}

// startServer starts the HTTP server with real services over stubbed
// LLM, embedding, transcript, and GitHub clients.
func startServer(t *testing.T, pool *pgxpool.Pool, s3Client *storage.S3Client, port int) (string, func()) {
	docRepo := repository.NewDocumentRepository(pool)
	chunkRepo := repository.NewDocumentChunkRepository(pool)
	projectRepo := repository.NewProjectRepository(pool)
	chatRepo := repository.NewChatMessageRepository(pool)
	txRunner := repository.NewTxRunner(pool)

	generatorSvc := service.NewGeneratorService(&stubCompletionClient{})
	embeddingSvc := service.NewEmbeddingService(&stubEmbeddingClient{})
	cache := service.NewMemoryCache(time.Hour, 64)

	ingestionSvc := service.NewIngestionService(service.IngestionConfig{
		Generator:   generatorSvc,
		Embedder:    embeddingSvc,
		Documents:   docRepo,
		Chunks:      chunkRepo,
		TxRunner:    txRunner,
		Transcripts: &stubTranscriptFetcher{},
		GitHub:      &stubRepositoryFetcher{},
		Archiver:    s3Client,
		Cache:       cache,
	})
	projectSvc := service.NewProjectService(projectRepo)
	quizSvc := service.NewQuizService(docRepo, chunkRepo, generatorSvc)
	chatSvc := service.NewChatService(chatRepo, projectRepo, chunkRepo, embeddingSvc, generatorSvc)
	jwtSvc := service.NewJWTService(e2eJWTSecret)

	router := server.NewRouter(server.RouterConfig{
		TokenValidator:  jwtSvc,
		AllowedOrigins:  []string{"*"},
		DocumentHandler: handlers.NewDocumentHandler(ingestionSvc),
		YouTubeHandler:  handlers.NewYouTubeHandler(ingestionSvc),
		GitHubHandler:   handlers.NewGitHubHandler(ingestionSvc),
		QuizHandler:     handlers.NewQuizHandler(quizSvc),
		ChatHandler:     handlers.NewChatHandler(chatSvc),
		ProjectHandler:  handlers.NewProjectHandler(projectSvc),
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			t.Logf("server error: %v", err)
		}
	}()

	serverURL := fmt.Sprintf("http://localhost:%d", port)
	waitForServer(t, serverURL, 10*time.Second)

	return serverURL, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
}

func waitForServer(t *testing.T, url string, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("server did not start within %v", timeout)
}

func getFreePort() (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}

	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

const stubContentJSON = `{
  "concepts": {
    "nodes": [
      {"id": "1", "label": "Photosynthesis", "description": "Conversion of light to chemical energy", "excerpt": "plants convert sunlight"},
      {"id": "2", "label": "Chlorophyll", "description": "Light-absorbing pigment", "excerpt": "green pigment"}
    ],
    "edges": [
      {"source": "2", "target": "1", "label": "enables"}
    ]
  },
  "timeline": {
    "events": [
      {"id": "1", "date": "1771", "title": "Priestley's experiment", "description": "Plants restore air", "category": "discovery", "importance": "high"}
    ]
  },
  "actionPlan": {
    "phases": [
      {"id": "1", "name": "Foundations", "description": "Core terminology", "steps": [
        {"id": "1", "text": "Review the light reactions", "effort": "30m", "priority": "high"}
      ]}
    ]
  }
}`

const stubQuizJSON = `{
  "questions": [
    {"id": "1", "question": "What does chlorophyll absorb?", "options": ["Light", "Water", "Nitrogen", "Carbon"], "answerIndex": 0, "explanation": "Chlorophyll is the light-absorbing pigment."},
    {"id": "2", "question": "What does photosynthesis produce?", "options": ["Heat", "Chemical energy", "Sound", "Nothing"], "answerIndex": 1, "explanation": "It converts light into chemical energy."}
  ]
}`

// stubCompletionClient returns canned JSON for generation prompts so E2E
// flows run without a live LLM endpoint.
type stubCompletionClient struct{}

func (c *stubCompletionClient) CompleteJSON(_ context.Context, systemPrompt, _ string) (string, error) {
	if strings.Contains(systemPrompt, "quiz generator") {
		return stubQuizJSON, nil
	}
	return stubContentJSON, nil
}

func (c *stubCompletionClient) Complete(_ context.Context, _, _ string) (string, error) {
	return "Chlorophyll absorbs light and enables photosynthesis.", nil
}

// stubEmbeddingClient returns a constant unit-direction vector, so every
// stored chunk is maximally similar to every query and retrieval always
// surfaces context.
type stubEmbeddingClient struct{}

func (c *stubEmbeddingClient) GenerateEmbedding(_ context.Context, _ string) ([]float32, error) {
	vec := make([]float32, embeddingDims)
	for i := range vec {
		vec[i] = 1
	}
	return vec, nil
}

type stubTranscriptFetcher struct{}

func (f *stubTranscriptFetcher) FetchTranscript(_ context.Context, videoID string) (string, error) {
	return fmt.Sprintf("Transcript for %s. Plants convert sunlight into chemical energy. "+
		"Chlorophyll is the green pigment that absorbs light.", videoID), nil
}

type stubRepositoryFetcher struct{}

func (f *stubRepositoryFetcher) FetchRepository(_ context.Context, owner, repo string) (*extract.RepoContent, error) {
	return &extract.RepoContent{
		Owner:  owner,
		Repo:   repo,
		Readme: "A small library for mapping concepts in study material.",
		Files: []extract.RepoFile{
			{Path: "README.md", Size: 58},
			{Path: "cmd/main.go", Size: 412},
			{Path: "internal/graph/graph.go", Size: 2048},
		},
		Commits: []extract.RepoCommit{
			{SHA: "a1b2c3d4e5f6", Message: "Initial commit", Author: "dev", Date: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)},
			{SHA: "f6e5d4c3b2a1", Message: "Add graph builder", Author: "dev", Date: time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)},
		},
	}, nil
}
