package store

import (
	"context"
	"fmt"
	"time"

	"urdf/internal/utils"
	"urdf/pkg/types"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	contactMessageTableName     = "urdf.contact_messages"
	partnershipInquiryTableName = "urdf.partnership_inquiries"
)

type FormsRepository struct {
	pool *pgxpool.Pool
}

func NewFormsRepository(pool *pgxpool.Pool) *FormsRepository {
	return &FormsRepository{pool: pool}
}

func (r *FormsRepository) CreateContactMessage(ctx context.Context, msg *types.ContactMessage) error {
	msg.ID = utils.NanoID()
	msg.CreatedAt = time.Now()

	query, args, err := psql().
		Insert(contactMessageTableName).
		SetMap(utils.StructToMap(msg)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build contact message insert: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("insert contact message: %w", err)
	}

	return nil
}

func (r *FormsRepository) CreatePartnershipInquiry(ctx context.Context, inquiry *types.PartnershipInquiry) error {
	inquiry.ID = utils.NanoID()
	inquiry.CreatedAt = time.Now()

	query, args, err := psql().
		Insert(partnershipInquiryTableName).
		Columns("id", "organization_name", "contact_name", "email", "phone", "website", "partnership_type", "message", "created_at").
		Values(
			inquiry.ID,
			inquiry.OrganizationName,
			inquiry.ContactName,
			inquiry.Email,
			nullable(utils.PtrString(inquiry.Phone)),
			nullable(utils.PtrString(inquiry.Website)),
			inquiry.PartnershipType,
			inquiry.Message,
			inquiry.CreatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build partnership inquiry insert: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("insert partnership inquiry: %w", err)
	}

	return nil
}

func (r *FormsRepository) LatestContactMessages(ctx context.Context, limit uint64) ([]*types.ContactMessage, error) {
	query, args, err := psql().
		Select(utils.StructTagValues(types.ContactMessage{})...).
		From(contactMessageTableName).
		OrderBy("created_at DESC").
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build latest contact messages query: %w", err)
	}

	out := make([]*types.ContactMessage, 0)
	if err := pgxscan.Select(ctx, r.pool, &out, query, args...); err != nil {
		return nil, fmt.Errorf("select latest contact messages: %w", err)
	}

	return out, nil
}

func (r *FormsRepository) LatestPartnershipInquiries(ctx context.Context, limit uint64) ([]*types.PartnershipInquiry, error) {
	query, args, err := psql().
		Select(utils.StructTagValues(types.PartnershipInquiry{})...).
		From(partnershipInquiryTableName).
		OrderBy("created_at DESC").
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build latest partnership inquiries query: %w", err)
	}

	out := make([]*types.PartnershipInquiry, 0)
	if err := pgxscan.Select(ctx, r.pool, &out, query, args...); err != nil {
		return nil, fmt.Errorf("select latest partnership inquiries: %w", err)
	}

	return out, nil
}
