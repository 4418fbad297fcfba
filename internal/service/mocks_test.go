package service

import (
	"context"
	"fmt"

	"github.com/atlas-learn/atlasai/internal/domain"
	"github.com/atlas-learn/atlasai/internal/extract"
	"github.com/atlas-learn/atlasai/internal/pagination"
	"github.com/stretchr/testify/mock"
)

// MockDocumentRepository is a mock implementation of DocumentRepositoryInterface
type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockDocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

func (m *MockDocumentRepository) GetByUserAndHash(ctx context.Context, userID, fileHash string) (*domain.Document, error) {
	args := m.Called(ctx, userID, fileHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

func (m *MockDocumentRepository) ListByUserWithCursor(ctx context.Context, userID string, cursor *pagination.Cursor, limit int) (*DocumentPageResult, error) {
	args := m.Called(ctx, userID, cursor, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*DocumentPageResult), args.Error(1)
}

// MockDocumentChunkRepository is a mock implementation of DocumentChunkRepositoryInterface
type MockDocumentChunkRepository struct {
	mock.Mock
}

func (m *MockDocumentChunkRepository) CreateBatch(ctx context.Context, chunks []*domain.DocumentChunk) error {
	args := m.Called(ctx, chunks)
	return args.Error(0)
}

func (m *MockDocumentChunkRepository) ListByDocument(ctx context.Context, documentID string) ([]*domain.DocumentChunk, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.DocumentChunk), args.Error(1)
}

func (m *MockDocumentChunkRepository) SearchByUser(ctx context.Context, userID string, embedding []float32, limit int) ([]*domain.DocumentChunk, error) {
	args := m.Called(ctx, userID, embedding, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.DocumentChunk), args.Error(1)
}

// MockProjectRepository is a mock implementation of ProjectRepositoryInterface
type MockProjectRepository struct {
	mock.Mock
}

func (m *MockProjectRepository) Create(ctx context.Context, project *domain.Project) error {
	args := m.Called(ctx, project)
	return args.Error(0)
}

func (m *MockProjectRepository) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Project), args.Error(1)
}

func (m *MockProjectRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Project, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Project), args.Error(1)
}

func (m *MockProjectRepository) Update(ctx context.Context, project *domain.Project) error {
	args := m.Called(ctx, project)
	return args.Error(0)
}

func (m *MockProjectRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockChatMessageRepository is a mock implementation of ChatMessageRepositoryInterface
type MockChatMessageRepository struct {
	mock.Mock
}

func (m *MockChatMessageRepository) Create(ctx context.Context, msg *domain.ChatMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockChatMessageRepository) ListByProject(ctx context.Context, userID, projectID string) ([]*domain.ChatMessage, error) {
	args := m.Called(ctx, userID, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ChatMessage), args.Error(1)
}

// fakeTxRunner runs the transaction body against plain repositories.
type fakeTxRunner struct {
	docs   DocumentRepositoryInterface
	chunks DocumentChunkRepositoryInterface
	err    error
}

func (f *fakeTxRunner) WithTx(_ context.Context, fn func(repos TxRepositories) error) error {
	if f.err != nil {
		return f.err
	}
	return fn(f)
}

func (f *fakeTxRunner) Documents() DocumentRepositoryInterface { return f.docs }

func (f *fakeTxRunner) DocumentChunks() DocumentChunkRepositoryInterface { return f.chunks }

// stubGenerator returns canned artifacts without an LLM.
type stubGenerator struct {
	content  *GeneratedContent
	plan     domain.ActionPlan
	quiz     *domain.Quiz
	reply    string
	err      error
	lastText string
}

func (g *stubGenerator) GenerateContent(_ context.Context, source string) (*GeneratedContent, error) {
	g.lastText = source
	if g.err != nil {
		return nil, g.err
	}
	return g.content, nil
}

func (g *stubGenerator) GenerateRepoActionPlan(_ context.Context, _ string) domain.ActionPlan {
	return g.plan
}

func (g *stubGenerator) GenerateQuiz(_ context.Context, source, _ string, _ int) (*domain.Quiz, error) {
	g.lastText = source
	if g.err != nil {
		return nil, g.err
	}
	return g.quiz, nil
}

func (g *stubGenerator) GenerateChatReply(_ context.Context, contextText, _ string) (string, error) {
	g.lastText = contextText
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

// stubEmbedder returns fixed-dimension vectors without a provider.
type stubEmbedder struct {
	vector []float32
	err    error
}

func (e *stubEmbedder) EmbedText(_ context.Context, _ string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.vector, nil
}

func (e *stubEmbedder) EmbedChunks(_ context.Context, chunks []string) ([][]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(chunks))
	for i := range chunks {
		out[i] = e.vector
	}
	return out, nil
}

// stubTranscripts serves a fixed transcript and counts fetches.
type stubTranscripts struct {
	transcript string
	err        error
	calls      int
}

func (s *stubTranscripts) FetchTranscript(_ context.Context, _ string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.transcript, nil
}

// stubGitHub serves a fixed repository listing.
type stubGitHub struct {
	content *extract.RepoContent
	err     error
}

func (s *stubGitHub) FetchRepository(_ context.Context, owner, repo string) (*extract.RepoContent, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.content, nil
}

// seqUUIDGen hands out predictable ids.
type seqUUIDGen struct {
	n int
}

func (g *seqUUIDGen) NewString() string {
	g.n++
	return fmt.Sprintf("id-%d", g.n)
}
