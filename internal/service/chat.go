package service

import (
	"context"
	"strings"
	"time"

	"github.com/atlas-learn/atlasai/internal/domain"
	"github.com/atlas-learn/atlasai/internal/telemetry"
)

// chatRetrievalLimit caps how many stored chunks ground one reply.
const chatRetrievalLimit = 6

// chatMinSimilarity drops retrieved chunks that are barely related to the
// question; they add noise, not grounding.
const chatMinSimilarity = 0.3

// QueryEmbedder embeds a single query text.
type QueryEmbedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// ReplyGenerator produces the assistant reply for one message.
type ReplyGenerator interface {
	GenerateChatReply(ctx context.Context, contextText, message string) (string, error)
}

// ChatMessageRepositoryInterface defines the repository interface for chat persistence.
type ChatMessageRepositoryInterface interface {
	Create(ctx context.Context, msg *domain.ChatMessage) error
	ListByProject(ctx context.Context, userID, projectID string) ([]*domain.ChatMessage, error)
}

// ChatService runs retrieval-augmented chat threads scoped to a project.
type ChatService struct {
	msgRepo     ChatMessageRepositoryInterface
	projectRepo ProjectRepositoryInterface
	chunkRepo   DocumentChunkRepositoryInterface
	embedder    QueryEmbedder
	generator   ReplyGenerator
	uuidGen     UUIDGenerator
	now         func() time.Time
}

// NewChatService creates a new ChatService instance.
func NewChatService(
	msgRepo ChatMessageRepositoryInterface,
	projectRepo ProjectRepositoryInterface,
	chunkRepo DocumentChunkRepositoryInterface,
	embedder QueryEmbedder,
	generator ReplyGenerator,
) *ChatService {
	return &ChatService{
		msgRepo:     msgRepo,
		projectRepo: projectRepo,
		chunkRepo:   chunkRepo,
		embedder:    embedder,
		generator:   generator,
		uuidGen:     &DefaultUUIDGenerator{},
		now:         time.Now,
	}
}

// ChatExchange is the persisted two-message result of one SendMessage call.
type ChatExchange struct {
	UserMessage      *domain.ChatMessage
	AssistantMessage *domain.ChatMessage
}

// SendMessage persists the user message, retrieves the most relevant stored
// chunks across the user's documents, generates a grounded reply, and
// persists that too. The user message survives even when generation fails,
// so the thread shows what was asked.
func (s *ChatService) SendMessage(ctx context.Context, userID, projectID, message string) (*ChatExchange, error) {
	ctx, span := telemetry.StartSpan(ctx, "ChatService.SendMessage", telemetry.SpanAttributes{
		UserID:    userID,
		ProjectID: projectID,
		Operation: "chat_send",
	})
	defer span.End()

	message = strings.TrimSpace(message)
	if message == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "message is required")
	}

	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.UserID != userID {
		return nil, domain.ErrProjectNotFound
	}

	userMsg := &domain.ChatMessage{
		ID:        s.uuidGen.NewString(),
		UserID:    userID,
		ProjectID: projectID,
		Role:      domain.ChatRoleUser,
		Content:   message,
		CreatedAt: s.now().UTC(),
	}
	if err := s.msgRepo.Create(ctx, userMsg); err != nil {
		return nil, err
	}

	contextText, err := s.retrieveContext(ctx, userID, message)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	reply, err := s.generator.GenerateChatReply(ctx, contextText, message)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	assistantMsg := &domain.ChatMessage{
		ID:        s.uuidGen.NewString(),
		UserID:    userID,
		ProjectID: projectID,
		Role:      domain.ChatRoleAssistant,
		Content:   reply,
		CreatedAt: s.now().UTC(),
	}
	if err := s.msgRepo.Create(ctx, assistantMsg); err != nil {
		return nil, err
	}

	return &ChatExchange{UserMessage: userMsg, AssistantMessage: assistantMsg}, nil
}

// History returns the project's thread, oldest first.
func (s *ChatService) History(ctx context.Context, userID, projectID string) ([]*domain.ChatMessage, error) {
	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.UserID != userID {
		return nil, domain.ErrProjectNotFound
	}
	return s.msgRepo.ListByProject(ctx, userID, projectID)
}

// retrieveContext embeds the question and pulls the nearest stored chunks.
// The SQL ranking is approximate; a similarity floor is applied client-side
// to drop unrelated chunks when the user has few documents.
func (s *ChatService) retrieveContext(ctx context.Context, userID, message string) (string, error) {
	queryVec, err := s.embedder.EmbedText(ctx, message)
	if err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeEmbedding, "failed to embed chat query", err)
	}

	chunks, err := s.chunkRepo.SearchByUser(ctx, userID, queryVec, chatRetrievalLimit)
	if err != nil {
		return "", err
	}

	var parts []string
	for _, scored := range SearchTopK(queryVec, chunks, chatRetrievalLimit) {
		if scored.Score < chatMinSimilarity {
			continue
		}
		parts = append(parts, scored.Chunk.Content)
	}

	return strings.Join(parts, "\n---\n"), nil
}
