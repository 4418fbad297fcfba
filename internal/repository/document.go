package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/atlas-learn/atlasai/internal/domain"
	"github.com/atlas-learn/atlasai/internal/pagination"
	"github.com/atlas-learn/atlasai/internal/service"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DocumentRepository struct {
	db dbtx
}

func NewDocumentRepository(pool *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{db: pool}
}

func NewDocumentRepositoryWithTx(tx pgx.Tx) *DocumentRepository {
	return &DocumentRepository{db: tx}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	concepts, timeline, plan, err := marshalArtifacts(doc)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO documents (id, user_id, file_name, file_hash, source_type, concepts, timeline, action_plan, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		doc.ID, doc.UserID, doc.FileName, doc.FileHash, doc.SourceType, concepts, timeline, plan, doc.CreatedAt,
	)
	return err
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, user_id, file_name, file_hash, source_type, concepts, timeline, action_plan, created_at
		 FROM documents WHERE id = $1`,
		id,
	)
	return scanDocument(row)
}

// GetByUserAndHash is the dedup lookup. Concurrent ingestions of identical
// content can insert duplicate rows (there is no unique constraint on the
// pair), so the newest row wins.
func (r *DocumentRepository) GetByUserAndHash(ctx context.Context, userID, fileHash string) (*domain.Document, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, user_id, file_name, file_hash, source_type, concepts, timeline, action_plan, created_at
		 FROM documents
		 WHERE user_id = $1 AND file_hash = $2
		 ORDER BY created_at DESC
		 LIMIT 1`,
		userID, fileHash,
	)
	return scanDocument(row)
}

func (r *DocumentRepository) ListByUserWithCursor(ctx context.Context, userID string, cursor *pagination.Cursor, limit int) (*service.DocumentPageResult, error) {
	if limit <= 0 {
		limit = 20
	}

	var rows pgx.Rows
	var err error

	if cursor != nil {
		rows, err = r.db.Query(ctx,
			`SELECT id, user_id, file_name, file_hash, source_type, concepts, timeline, action_plan, created_at
			 FROM documents
			 WHERE user_id = $1 AND (created_at, id) < ($2, $3)
			 ORDER BY created_at DESC, id DESC
			 LIMIT $4`,
			userID, cursor.Timestamp, cursor.LastID, limit+1,
		)
	} else {
		rows, err = r.db.Query(ctx,
			`SELECT id, user_id, file_name, file_hash, source_type, concepts, timeline, action_plan, created_at
			 FROM documents
			 WHERE user_id = $1
			 ORDER BY created_at DESC, id DESC
			 LIMIT $2`,
			userID, limit+1,
		)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items, err := scanDocumentRows(rows)
	if err != nil {
		return nil, err
	}

	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}

	var nextCursor string
	if hasMore && len(items) > 0 {
		lastItem := items[len(items)-1]
		nextCursor = pagination.EncodeCursor(lastItem.ID, lastItem.CreatedAt)
	}

	return &service.DocumentPageResult{
		Items:      items,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

func marshalArtifacts(doc *domain.Document) ([]byte, []byte, []byte, error) {
	concepts, err := json.Marshal(doc.Concepts)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal concepts: %w", err)
	}
	timeline, err := json.Marshal(doc.Timeline)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal timeline: %w", err)
	}
	plan, err := json.Marshal(doc.ActionPlan)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal action plan: %w", err)
	}
	return concepts, timeline, plan, nil
}

func scanDocument(row pgx.Row) (*domain.Document, error) {
	var doc domain.Document
	var concepts, timeline, plan []byte

	err := row.Scan(&doc.ID, &doc.UserID, &doc.FileName, &doc.FileHash, &doc.SourceType, &concepts, &timeline, &plan, &doc.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, err
	}

	if err := unmarshalArtifacts(&doc, concepts, timeline, plan); err != nil {
		return nil, err
	}
	return &doc, nil
}

func scanDocumentRows(rows pgx.Rows) ([]*domain.Document, error) {
	var documents []*domain.Document
	for rows.Next() {
		var doc domain.Document
		var concepts, timeline, plan []byte
		if err := rows.Scan(&doc.ID, &doc.UserID, &doc.FileName, &doc.FileHash, &doc.SourceType, &concepts, &timeline, &plan, &doc.CreatedAt); err != nil {
			return nil, err
		}
		if err := unmarshalArtifacts(&doc, concepts, timeline, plan); err != nil {
			return nil, err
		}
		documents = append(documents, &doc)
	}
	return documents, rows.Err()
}

// unmarshalArtifacts tolerates null columns: legacy rows may have been
// written before a given artifact existed.
func unmarshalArtifacts(doc *domain.Document, concepts, timeline, plan []byte) error {
	if len(concepts) > 0 {
		if err := json.Unmarshal(concepts, &doc.Concepts); err != nil {
			return fmt.Errorf("failed to unmarshal concepts for document %s: %w", doc.ID, err)
		}
	}
	if len(timeline) > 0 {
		if err := json.Unmarshal(timeline, &doc.Timeline); err != nil {
			return fmt.Errorf("failed to unmarshal timeline for document %s: %w", doc.ID, err)
		}
	}
	if len(plan) > 0 {
		if err := json.Unmarshal(plan, &doc.ActionPlan); err != nil {
			return fmt.Errorf("failed to unmarshal action plan for document %s: %w", doc.ID, err)
		}
	}
	return nil
}
