package store

import (
	"context"
	"fmt"

	"urdf/internal/utils"
	"urdf/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

const documentTableName = "urdf.application_documents"

var documentTableColumns = utils.StructTagValues(types.ApplicationDocument{})

type DocumentRepository struct {
	pool *pgxpool.Pool
}

func NewDocumentRepository(pool *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{pool: pool}
}

// Document retrieves a single document scoped to its application
func (r *DocumentRepository) Document(ctx context.Context, applicationID, documentID string) (*types.ApplicationDocument, error) {
	query, args, err := psql().
		Select(documentTableColumns...).
		From(documentTableName).
		Where(sq.Eq{"id": documentID, "application_id": applicationID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate document query: %w", err)
	}

	var doc = new(types.ApplicationDocument)
	err = pgxscan.Get(ctx, r.pool, doc, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to fetch document: %w", err)
	}

	return doc, nil
}

// DocumentsByApplicationID retrieves all documents for an application
func (r *DocumentRepository) DocumentsByApplicationID(ctx context.Context, applicationID string) ([]*types.ApplicationDocument, error) {
	query, args, err := psql().
		Select(documentTableColumns...).
		From(documentTableName).
		Where(sq.Eq{"application_id": applicationID}).
		OrderBy("uploaded_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate documents query: %w", err)
	}

	docs := make([]*types.ApplicationDocument, 0)
	err = pgxscan.Select(ctx, r.pool, &docs, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents for application %s: %w", applicationID, err)
	}

	return docs, nil
}

// CreateDocument inserts a new document record
func (r *DocumentRepository) CreateDocument(ctx context.Context, doc *types.ApplicationDocument) error {
	query, args, err := psql().
		Insert(documentTableName).
		SetMap(utils.StructToMap(doc)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert document query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to create document")
}
