package store

import (
	"context"
	"fmt"
	"strings"

	"urdf/internal/utils"
	"urdf/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

const applicationTableName = "urdf.applications"

var (
	applicationColumns = utils.StructTagValues(types.Application{})
	publicViewColumns  = utils.StructTagValues(types.PublicView{})
)

type ApplicationRepository struct {
	pool *pgxpool.Pool
}

func NewApplicationRepository(pool *pgxpool.Pool) *ApplicationRepository {
	return &ApplicationRepository{pool: pool}
}

func publicViewsByReferenceQuery(referenceNumber string) (string, []any, error) {
	// Limit 2 so a duplicated reference is detected rather than hidden.
	return psql().
		Select(publicViewColumns...).
		From(applicationTableName).
		Where(sq.Eq{"reference_number": referenceNumber}).
		Limit(2).
		ToSql()
}

// PublicViewsByReference returns every application whose reference number
// matches exactly. Callers expect zero or one row.
func (r *ApplicationRepository) PublicViewsByReference(ctx context.Context, referenceNumber string) ([]*types.PublicView, error) {
	query, args, err := publicViewsByReferenceQuery(referenceNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to generate reference lookup query: %w", err)
	}

	views := make([]*types.PublicView, 0, 1)
	err = pgxscan.Select(ctx, r.pool, &views, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to lookup application by reference: %w", err)
	}

	for _, view := range views {
		if !view.Status.Valid() {
			return nil, fmt.Errorf("application %s: %w: %q", view.ReferenceNumber, types.ErrInvalidStatus, view.Status)
		}
	}

	return views, nil
}

func (r *ApplicationRepository) Application(ctx context.Context, applicationID string) (*types.Application, error) {
	query, args, err := psql().
		Select(applicationColumns...).
		From(applicationTableName).
		Where(sq.Eq{"id": applicationID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate application query: %w", err)
	}

	var app = new(types.Application)
	err = pgxscan.Get(ctx, r.pool, app, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrApplicationNotFound
		}
		return nil, fmt.Errorf("failed to fetch application: %w", err)
	}

	if err := validateStatus(app); err != nil {
		return nil, err
	}

	return app, nil
}

func applicationsQuery(filter types.ApplicationListFilter) (string, []any, error) {
	q := psql().
		Select(applicationColumns...).
		From(applicationTableName).
		OrderBy("created_at DESC", "id DESC")

	if filter.Search != "" {
		pattern := containsPattern(filter.Search)
		q = q.Where(sq.Or{
			sq.ILike{"reference_number": pattern},
			sq.ILike{"organization_name": pattern},
			sq.ILike{"applicant_name": pattern},
			sq.ILike{"email": pattern},
		})
	}

	if filter.Status != "" {
		q = q.Where(sq.Eq{"status": filter.Status})
	}

	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	return q.ToSql()
}

// Applications returns full records ordered most recent first.
func (r *ApplicationRepository) Applications(ctx context.Context, filter types.ApplicationListFilter) ([]*types.Application, error) {
	query, args, err := applicationsQuery(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to generate applications query: %w", err)
	}

	apps := make([]*types.Application, 0)
	err = pgxscan.Select(ctx, r.pool, &apps, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}

	for _, app := range apps {
		if err := validateStatus(app); err != nil {
			return nil, err
		}
	}

	return apps, nil
}

func (r *ApplicationRepository) StatusCounts(ctx context.Context) ([]*types.ApplicationStatusCount, error) {
	query, args, err := psql().
		Select("status", "count(*) AS count").
		From(applicationTableName).
		GroupBy("status").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate status count query: %w", err)
	}

	counts := make([]*types.ApplicationStatusCount, 0, len(types.ApplicationStatuses))
	err = pgxscan.Select(ctx, r.pool, &counts, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count applications by status: %w", err)
	}

	return counts, nil
}

func (r *ApplicationRepository) CreateApplication(ctx context.Context, app *types.Application) error {
	query, args, err := psql().
		Insert(applicationTableName).
		SetMap(utils.StructToMap(app)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert application query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err, "reference_number") {
			return types.ErrReferenceConflict
		}
		return fmt.Errorf("failed to create application: %w", err)
	}

	return nil
}

// EnsureApplication inserts app unless a row with the same id exists. It
// reports whether a row was written.
func (r *ApplicationRepository) EnsureApplication(ctx context.Context, app *types.Application) (bool, error) {
	query, args, err := psql().
		Insert(applicationTableName).
		SetMap(utils.StructToMap(app)).
		Suffix("ON CONFLICT (id) DO NOTHING").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to generate ensure application query: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err, "reference_number") {
			return false, types.ErrReferenceConflict
		}
		return false, fmt.Errorf("failed to ensure application %s: %w", app.ID, err)
	}

	return tag.RowsAffected() > 0, nil
}

// DeleteApplicationsByDescriptionPrefix removes rows whose project description
// starts with prefix and returns how many were deleted.
func (r *ApplicationRepository) DeleteApplicationsByDescriptionPrefix(ctx context.Context, prefix string) (int64, error) {
	query, args, err := psql().
		Delete(applicationTableName).
		Where(sq.Like{"project_description": likeEscaper.Replace(prefix) + "%"}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to generate delete applications query: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete applications: %w", err)
	}

	return tag.RowsAffected(), nil
}

func reviewApplicationQuery(applicationID string, review types.ApplicationReview) (string, []any, error) {
	q := psql().
		Update(applicationTableName).
		Set("status", review.Status).
		// updated_at must move forward even when two reviews share a timestamp.
		Set("updated_at", sq.Expr("GREATEST(?::timestamptz, updated_at + interval '1 microsecond')", review.ReviewedAt))

	if !review.KeepNotes {
		q = q.Set("admin_notes", review.AdminNotes)
	}

	return q.
		Where(sq.Eq{"id": applicationID}).
		Suffix("RETURNING " + strings.Join(applicationColumns, ", ")).
		ToSql()
}

// ReviewApplication writes status, admin_notes and updated_at in a single
// statement and returns the updated row. Concurrent reviews are last write wins.
func (r *ApplicationRepository) ReviewApplication(ctx context.Context, applicationID string, review types.ApplicationReview) (*types.Application, error) {
	query, args, err := reviewApplicationQuery(applicationID, review)
	if err != nil {
		return nil, fmt.Errorf("failed to generate review application query for %s: %w", applicationID, err)
	}

	var app = new(types.Application)
	err = pgxscan.Get(ctx, r.pool, app, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrApplicationNotFound
		}
		return nil, fmt.Errorf("failed to review application %s: %w", applicationID, err)
	}

	if err := validateStatus(app); err != nil {
		return nil, err
	}

	return app, nil
}

func validateStatus(app *types.Application) error {
	if !app.Status.Valid() {
		return fmt.Errorf("application %s: %w: %q", app.ID, types.ErrInvalidStatus, app.Status)
	}
	return nil
}
