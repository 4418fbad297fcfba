package service

import (
	"context"
	"strings"

	"github.com/atlas-learn/atlasai/internal/domain"
	"github.com/atlas-learn/atlasai/internal/telemetry"
)

// quizChunkLimit caps how many stored chunks feed one quiz prompt.
const quizChunkLimit = 12

// QuizGenerator produces a quiz from source text.
type QuizGenerator interface {
	GenerateQuiz(ctx context.Context, source, difficulty string, questionCount int) (*domain.Quiz, error)
}

// QuizService generates quizzes on demand from a document's stored chunks.
// Quizzes are never persisted.
type QuizService struct {
	docRepo   DocumentRepositoryInterface
	chunkRepo DocumentChunkRepositoryInterface
	generator QuizGenerator
}

// NewQuizService creates a new QuizService instance.
func NewQuizService(
	docRepo DocumentRepositoryInterface,
	chunkRepo DocumentChunkRepositoryInterface,
	generator QuizGenerator,
) *QuizService {
	return &QuizService{docRepo: docRepo, chunkRepo: chunkRepo, generator: generator}
}

type GenerateQuizInput struct {
	UserID        string
	DocumentID    string
	Difficulty    string
	QuestionCount int
}

// QuizMetadata describes what the quiz was built from.
type QuizMetadata struct {
	DocumentID    string `json:"documentId"`
	Difficulty    string `json:"difficulty"`
	QuestionCount int    `json:"questionCount"`
	ChunksUsed    int    `json:"chunksUsed"`
}

// Generate builds a quiz from the document's stored chunk text. The caller
// must own the document.
func (s *QuizService) Generate(ctx context.Context, input GenerateQuizInput) (*domain.Quiz, *QuizMetadata, error) {
	ctx, span := telemetry.StartSpan(ctx, "QuizService.Generate", telemetry.SpanAttributes{
		UserID:     input.UserID,
		DocumentID: input.DocumentID,
		Operation:  "quiz_generate",
	})
	defer span.End()

	if input.DocumentID == "" {
		return nil, nil, domain.NewDomainError(domain.ErrCodeValidation, "documentId is required")
	}

	doc, err := s.docRepo.GetByID(ctx, input.DocumentID)
	if err != nil {
		return nil, nil, err
	}
	if doc.UserID != input.UserID {
		return nil, nil, domain.ErrDocumentNotFound
	}

	chunks, err := s.chunkRepo.ListByDocument(ctx, doc.ID)
	if err != nil {
		return nil, nil, err
	}
	if len(chunks) > quizChunkLimit {
		chunks = chunks[:quizChunkLimit]
	}
	if len(chunks) == 0 {
		return nil, nil, domain.NewDomainError(domain.ErrCodeValidation, "document has no stored content to quiz on")
	}

	parts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		parts = append(parts, chunk.Content)
	}

	quiz, err := s.generator.GenerateQuiz(ctx, strings.Join(parts, "\n\n"), input.Difficulty, input.QuestionCount)
	if err != nil {
		span.SetError(err)
		return nil, nil, err
	}

	difficulty := input.Difficulty
	if difficulty == "" {
		difficulty = "medium"
	}

	meta := &QuizMetadata{
		DocumentID:    doc.ID,
		Difficulty:    difficulty,
		QuestionCount: len(quiz.Questions),
		ChunksUsed:    len(chunks),
	}
	return quiz, meta, nil
}
