package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/atlas-learn/atlasai/internal/domain"
	"github.com/atlas-learn/atlasai/internal/extract"
	"github.com/atlas-learn/atlasai/internal/pagination"
	"github.com/atlas-learn/atlasai/internal/telemetry"
	"github.com/google/uuid"
)

// DocumentRepositoryInterface defines the repository interface for document persistence.
type DocumentRepositoryInterface interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	GetByUserAndHash(ctx context.Context, userID, fileHash string) (*domain.Document, error)
	ListByUserWithCursor(ctx context.Context, userID string, cursor *pagination.Cursor, limit int) (*DocumentPageResult, error)
}

// DocumentChunkRepositoryInterface defines the repository interface for chunk persistence.
type DocumentChunkRepositoryInterface interface {
	CreateBatch(ctx context.Context, chunks []*domain.DocumentChunk) error
	ListByDocument(ctx context.Context, documentID string) ([]*domain.DocumentChunk, error)
	SearchByUser(ctx context.Context, userID string, embedding []float32, limit int) ([]*domain.DocumentChunk, error)
}

type DocumentPageResult struct {
	Items      []*domain.Document
	NextCursor string
	HasMore    bool
}

// ContentGenerator produces graph/timeline/plan artifacts from source text.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, source string) (*GeneratedContent, error)
	GenerateRepoActionPlan(ctx context.Context, repoSummary string) domain.ActionPlan
}

// ChunkEmbedder embeds a batch of chunk texts.
type ChunkEmbedder interface {
	EmbedChunks(ctx context.Context, chunks []string) ([][]float32, error)
}

// TranscriptFetcher fetches a video's caption text.
type TranscriptFetcher interface {
	FetchTranscript(ctx context.Context, videoID string) (string, error)
}

// RepositoryFetcher fetches a repository's structural listing.
type RepositoryFetcher interface {
	FetchRepository(ctx context.Context, owner, repo string) (*extract.RepoContent, error)
}

// UploadArchiver stores raw uploaded bytes in object storage. Archival is
// best effort; an archiver failure never fails the ingestion.
type UploadArchiver interface {
	ArchiveUpload(ctx context.Context, userID, fileHash string, data []byte) error
}

// UUIDGenerator defines interface for UUID generation (for testing).
type UUIDGenerator interface {
	NewString() string
}

// DefaultUUIDGenerator is the default UUID generator using google/uuid.
type DefaultUUIDGenerator struct{}

// NewString generates a new UUID string.
func (g *DefaultUUIDGenerator) NewString() string {
	return uuid.NewString()
}

// IngestResult is the outcome of one ingestion request. Chunks is only
// populated on a cache hit against a legacy record whose stored concepts
// are unusable; callers fall back to returning raw chunk text then.
type IngestResult struct {
	Document *domain.Document
	Chunks   []*domain.DocumentChunk
	Cached   bool
}

// IngestionService runs the pipeline shared by all three sources:
// extract, fingerprint, dedup check, generate, embed, persist.
type IngestionService struct {
	generator   ContentGenerator
	embedder    ChunkEmbedder
	docRepo     DocumentRepositoryInterface
	chunkRepo   DocumentChunkRepositoryInterface
	txRunner    TxRunner
	transcripts TranscriptFetcher
	github      RepositoryFetcher
	archiver    UploadArchiver
	cache       Cache
	uuidGen     UUIDGenerator
	chunkCfg    ChunkConfig
	now         func() time.Time
}

// IngestionConfig wires the pipeline's collaborators. Archiver and Cache
// are optional; everything else is required.
type IngestionConfig struct {
	Generator   ContentGenerator
	Embedder    ChunkEmbedder
	Documents   DocumentRepositoryInterface
	Chunks      DocumentChunkRepositoryInterface
	TxRunner    TxRunner
	Transcripts TranscriptFetcher
	GitHub      RepositoryFetcher
	Archiver    UploadArchiver
	Cache       Cache
}

// NewIngestionService creates a new IngestionService instance.
func NewIngestionService(cfg IngestionConfig) *IngestionService {
	return &IngestionService{
		generator:   cfg.Generator,
		embedder:    cfg.Embedder,
		docRepo:     cfg.Documents,
		chunkRepo:   cfg.Chunks,
		txRunner:    cfg.TxRunner,
		transcripts: cfg.Transcripts,
		github:      cfg.GitHub,
		archiver:    cfg.Archiver,
		cache:       cfg.Cache,
		uuidGen:     &DefaultUUIDGenerator{},
		chunkCfg:    DefaultChunkConfig(),
		now:         time.Now,
	}
}

// IngestPDF processes an uploaded PDF: extract text, dedup on the content
// hash, then generate, embed, and persist on a miss.
func (s *IngestionService) IngestPDF(ctx context.Context, userID, fileName string, data []byte) (*IngestResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "IngestionService.IngestPDF", telemetry.SpanAttributes{
		UserID:    userID,
		Operation: "ingest_pdf",
	})
	defer span.End()

	if len(data) == 0 {
		return nil, domain.ErrMissingFile
	}

	text, err := extract.PDFText(data)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	hash := PDFHash(data)
	if result, ok, err := s.lookupExisting(ctx, userID, hash); err != nil {
		return nil, err
	} else if ok {
		return result, nil
	}

	result, err := s.generateAndPersist(ctx, userID, fileName, hash, domain.SourceTypePDF, text, nil)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	if s.archiver != nil {
		if err := s.archiver.ArchiveUpload(ctx, userID, hash, data); err != nil {
			log.Printf("ingestion: archive upload failed for document %s: %v", result.Document.ID, err)
		}
	}

	return result, nil
}

// IngestYouTube processes a video URL. The fingerprint comes from the video
// id, so the dedup check runs before the transcript fetch.
func (s *IngestionService) IngestYouTube(ctx context.Context, userID, rawURL string) (*IngestResult, string, error) {
	ctx, span := telemetry.StartSpan(ctx, "IngestionService.IngestYouTube", telemetry.SpanAttributes{
		UserID:    userID,
		Operation: "ingest_youtube",
	})
	defer span.End()

	videoID, err := extract.ParseVideoID(rawURL)
	if err != nil {
		return nil, "", err
	}

	hash := YouTubeHash(videoID, userID)
	if result, ok, err := s.lookupExisting(ctx, userID, hash); err != nil {
		return nil, "", err
	} else if ok {
		return result, videoID, nil
	}

	transcript, err := s.fetchTranscriptCached(ctx, videoID)
	if err != nil {
		span.SetError(err)
		return nil, "", err
	}

	result, err := s.generateAndPersist(ctx, userID, "youtube:"+videoID, hash, domain.SourceTypeYouTube, transcript, nil)
	if err != nil {
		span.SetError(err)
		return nil, "", err
	}
	return result, videoID, nil
}

// IngestGitHub processes a repository URL. The stored hash carries a
// timestamp so repeated runs always produce a fresh document: repositories
// change between runs, and re-processing is intentionally not deduplicated.
func (s *IngestionService) IngestGitHub(ctx context.Context, userID, rawURL string) (*IngestResult, string, error) {
	ctx, span := telemetry.StartSpan(ctx, "IngestionService.IngestGitHub", telemetry.SpanAttributes{
		UserID:    userID,
		Operation: "ingest_github",
	})
	defer span.End()

	owner, repo, err := extract.ParseRepoURL(rawURL)
	if err != nil {
		return nil, "", err
	}

	content, err := s.github.FetchRepository(ctx, owner, repo)
	if err != nil {
		span.SetError(err)
		return nil, "", err
	}

	summary := content.Summary()
	hash := GitHubKey(owner, repo, s.now())

	// The repo onboarding plan comes from its own helper, which degrades
	// to a static plan rather than failing the whole request.
	plan := s.generator.GenerateRepoActionPlan(ctx, summary)

	result, err := s.generateAndPersist(ctx, userID, content.FullName(), hash, domain.SourceTypeGitHub, summary, &plan)
	if err != nil {
		span.SetError(err)
		return nil, "", err
	}
	return result, content.FullName(), nil
}

// GetDocument returns a stored document, normalized.
func (s *IngestionService) GetDocument(ctx context.Context, userID, documentID string) (*domain.Document, error) {
	doc, err := s.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.UserID != userID {
		return nil, domain.ErrDocumentNotFound
	}
	doc.Normalize()
	return doc, nil
}

type ListDocumentsInput struct {
	UserID string
	Cursor string
	Limit  int
}

type ListDocumentsOutput struct {
	Items   []*domain.Document
	Cursor  string
	HasMore bool
}

// ListDocuments returns the user's documents, newest first, cursor-paginated.
func (s *IngestionService) ListDocuments(ctx context.Context, input ListDocumentsInput) (*ListDocumentsOutput, error) {
	limit := input.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	cursor, err := pagination.DecodeCursor(input.Cursor)
	if err != nil {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "invalid cursor")
	}

	page, err := s.docRepo.ListByUserWithCursor(ctx, input.UserID, cursor, limit)
	if err != nil {
		return nil, err
	}

	for _, doc := range page.Items {
		doc.Normalize()
	}

	return &ListDocumentsOutput{
		Items:   page.Items,
		Cursor:  page.NextCursor,
		HasMore: page.HasMore,
	}, nil
}

// lookupExisting implements the dedup check. A hit with usable concepts
// returns the stored record; a hit against a legacy record with no nodes
// falls back to the raw stored chunks. Normalization on the read path is
// mandatory because older rows may predate optional fields.
func (s *IngestionService) lookupExisting(ctx context.Context, userID, hash string) (*IngestResult, bool, error) {
	doc, err := s.docRepo.GetByUserAndHash(ctx, userID, hash)
	if err != nil {
		if errors.Is(err, domain.ErrDocumentNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}

	doc.Normalize()
	result := &IngestResult{Document: doc, Cached: true}

	if len(doc.Concepts.Nodes) == 0 {
		chunks, err := s.chunkRepo.ListByDocument(ctx, doc.ID)
		if err != nil {
			return nil, false, err
		}
		result.Chunks = chunks
	}

	return result, true, nil
}

func (s *IngestionService) generateAndPersist(
	ctx context.Context,
	userID, fileName, hash string,
	sourceType domain.SourceType,
	text string,
	planOverride *domain.ActionPlan,
) (*IngestResult, error) {
	content, err := s.generator.GenerateContent(ctx, text)
	if err != nil {
		return nil, err
	}
	if planOverride != nil {
		content.ActionPlan = *planOverride
	}

	chunkTexts := ChunkText(text, s.chunkCfg)
	vectors, err := s.embedder.EmbedChunks(ctx, chunkTexts)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeEmbedding, "failed to embed chunks", err)
	}

	createdAt := s.now().UTC()
	doc := &domain.Document{
		ID:         s.uuidGen.NewString(),
		UserID:     userID,
		FileName:   fileName,
		FileHash:   hash,
		SourceType: sourceType,
		Concepts:   content.Concepts,
		Timeline:   content.Timeline,
		ActionPlan: content.ActionPlan,
		CreatedAt:  createdAt,
	}
	doc.Normalize()

	if err := domain.ValidateDocument(doc); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInternal, "built an invalid document", err)
	}

	chunks := make([]*domain.DocumentChunk, 0, len(chunkTexts))
	for i, chunkText := range chunkTexts {
		chunks = append(chunks, &domain.DocumentChunk{
			ID:         s.uuidGen.NewString(),
			DocumentID: doc.ID,
			UserID:     userID,
			ChunkIndex: i,
			Content:    chunkText,
			Embedding:  vectors[i],
			CreatedAt:  createdAt,
		})
	}

	// Document and chunks land atomically; a failed chunk write must not
	// leave a document row that dedup would later treat as complete.
	err = s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
		if err := repos.Documents().Create(ctx, doc); err != nil {
			return err
		}
		return repos.DocumentChunks().CreateBatch(ctx, chunks)
	})
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodePersistence, "failed to persist document", err)
	}

	return &IngestResult{Document: doc, Cached: false}, nil
}

func (s *IngestionService) fetchTranscriptCached(ctx context.Context, videoID string) (string, error) {
	key := "transcript:" + videoID
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			return cached, nil
		}
	}

	transcript, err := s.transcripts.FetchTranscript(ctx, videoID)
	if err != nil {
		return "", err
	}

	if s.cache != nil {
		s.cache.Set(key, transcript)
	}
	return transcript, nil
}
