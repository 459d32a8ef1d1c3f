package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"

	"dealmint/internal/domain"
	"dealmint/internal/domain/entity"
	"dealmint/internal/domain/value"
	"dealmint/pkg/errcodes"
)

const (
	dealColumns = `id, slug, title, amount, allow_negotiation, status, creator_address, created_at, updated_at`

	dealSlugConstraint = "deals_slug_key"
)

type DealRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewDealRepository(db *sqlx.DB) *DealRepository {
	return &DealRepository{db: db, now: time.Now}
}

// Create сохраняет сделку. Занятый слаг возвращается как SlugAlreadyInUse,
// чтобы вызывающий попробовал следующий.
func (r *DealRepository) Create(ctx context.Context, deal *entity.Deal) error {
	schema := fromDeal(deal)
	if schema.CreatedAt.IsZero() {
		schema.CreatedAt = r.now()
	}
	schema.UpdatedAt = schema.CreatedAt

	query := `
		INSERT INTO deals (` + dealColumns + `)
		VALUES (
			:id, :slug, :title, :amount, :allow_negotiation, :status,
			:creator_address, :created_at, :updated_at
		)`

	if _, err := r.db.NamedExecContext(ctx, query, schema); err != nil {
		if isUniqueViolation(err, dealSlugConstraint) {
			return domain.WrapError(err, errcodes.SlugAlreadyInUse, "slug already in use")
		}
		return domain.WrapError(err, errcodes.InternalServerError, "failed to create deal")
	}

	deal.CreatedAt = schema.CreatedAt
	deal.UpdatedAt = schema.UpdatedAt

	return nil
}

func (r *DealRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Deal, error) {
	return r.get(ctx, `SELECT `+dealColumns+` FROM deals WHERE id = $1`, id)
}

func (r *DealRepository) GetBySlug(ctx context.Context, slug string) (*entity.Deal, error) {
	return r.get(ctx, `SELECT `+dealColumns+` FROM deals WHERE slug = $1`, slug)
}

func (r *DealRepository) get(ctx context.Context, query string, arg any) (*entity.Deal, error) {
	var schema dealSchema
	if err := r.db.GetContext(ctx, &schema, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewError(errcodes.DealNotFound, "deal not found")
		}
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to get deal")
	}

	deal, err := schema.toDomain()
	if err != nil {
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to decode deal")
	}

	return deal, nil
}

// SlugsWithBase возвращает слаги, равные base или начинающиеся с base и дефиса.
// Базовый слаг состоит из [a-z0-9-], экранирование для LIKE не нужно.
func (r *DealRepository) SlugsWithBase(ctx context.Context, base string) ([]string, error) {
	query := `SELECT slug FROM deals WHERE slug = $1 OR slug LIKE $1 || '-%'`

	slugs := make([]string, 0)
	if err := r.db.SelectContext(ctx, &slugs, query, base); err != nil {
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to list slugs")
	}

	return slugs, nil
}

// List возвращает сделки, начиная с последних созданных.
func (r *DealRepository) List(ctx context.Context, limit int) ([]entity.Deal, error) {
	query := `SELECT ` + dealColumns + ` FROM deals ORDER BY created_at DESC, id LIMIT $1`

	var schemas []dealSchema
	if err := r.db.SelectContext(ctx, &schemas, query, limit); err != nil {
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to list deals")
	}

	result := make([]entity.Deal, 0, len(schemas))
	for _, s := range schemas {
		deal, err := s.toDomain()
		if err != nil {
			return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to decode deal")
		}
		result = append(result, *deal)
	}

	return result, nil
}

// AdvanceStatus переводит сделку в next, если текущий статус ему предшествует.
// Иначе сделка возвращается без изменений с advanced = false.
func (r *DealRepository) AdvanceStatus(
	ctx context.Context,
	id uuid.UUID,
	next value.DealStatus,
) (deal *entity.Deal, advanced bool, err error) {
	from := lo.Map(next.Predecessors(), func(s value.DealStatus, _ int) string { return s.String() })
	if len(from) == 0 {
		deal, err = r.GetByID(ctx, id)
		return deal, false, err
	}

	query, args, err := sqlx.In(`
		UPDATE deals SET status = ?, updated_at = ?
		WHERE id = ? AND status IN (?)
		RETURNING `+dealColumns, next.String(), r.now(), id, from)
	if err != nil {
		return nil, false, domain.WrapError(err, errcodes.InternalServerError, "failed to build status update")
	}

	var schema dealSchema
	if err := r.db.GetContext(ctx, &schema, r.db.Rebind(query), args...); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, false, domain.WrapError(err, errcodes.InternalServerError, "failed to advance deal status")
		}

		deal, err = r.GetByID(ctx, id)
		return deal, false, err
	}

	deal, err = schema.toDomain()
	if err != nil {
		return nil, false, domain.WrapError(err, errcodes.InternalServerError, "failed to decode deal")
	}

	return deal, true, nil
}
