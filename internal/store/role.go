package store

import (
	"context"
	"fmt"
	"time"

	"urdf/internal/utils"
	"urdf/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userRoleTableName = "urdf.user_roles"

var userRoleColumns = utils.StructTagValues(types.UserRole{})

type RoleRepository struct {
	pool *pgxpool.Pool
}

func NewRoleRepository(pool *pgxpool.Pool) *RoleRepository {
	return &RoleRepository{pool: pool}
}

func hasRoleQuery(userID string, role types.Role) (string, []any, error) {
	return psql().
		Select("1").
		Prefix("SELECT EXISTS (").
		From(userRoleTableName).
		Where(sq.Eq{"user_id": userID, "role": role}).
		Suffix(")").
		ToSql()
}

func (r *RoleRepository) HasRole(ctx context.Context, userID string, role types.Role) (bool, error) {
	query, args, err := hasRoleQuery(userID, role)
	if err != nil {
		return false, fmt.Errorf("failed to generate has role query: %w", err)
	}

	var exists bool
	err = r.pool.QueryRow(ctx, query, args...).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check role %s for user %s: %w", role, userID, err)
	}

	return exists, nil
}

func (r *RoleRepository) RolesByUser(ctx context.Context, userID string) ([]*types.UserRole, error) {
	query, args, err := psql().
		Select(userRoleColumns...).
		From(userRoleTableName).
		Where(sq.Eq{"user_id": userID}).
		OrderBy("role ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate roles by user query: %w", err)
	}

	roles := make([]*types.UserRole, 0)
	err = pgxscan.Select(ctx, r.pool, &roles, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch roles for user %s: %w", userID, err)
	}

	return roles, nil
}

func (r *RoleRepository) GrantRole(ctx context.Context, userID string, role types.Role) error {
	query, args, err := psql().
		Insert(userRoleTableName).
		Columns("user_id", "role", "created_at").
		Values(userID, role, time.Now()).
		Suffix("ON CONFLICT (user_id, role) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate grant role query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to grant role")
}

func (r *RoleRepository) RevokeRole(ctx context.Context, userID string, role types.Role) error {
	query, args, err := psql().
		Delete(userRoleTableName).
		Where(sq.Eq{"user_id": userID, "role": role}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate revoke role query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to revoke role")
}
