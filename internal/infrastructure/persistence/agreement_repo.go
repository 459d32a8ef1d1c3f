package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"dealmint/internal/domain"
	"dealmint/internal/domain/entity"
	"dealmint/pkg/errcodes"
)

const agreementColumns = `id, deal_id, final_amount, deadline, mandate, transcript, created_at`

type AgreementRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewAgreementRepository(db *sqlx.DB) *AgreementRepository {
	return &AgreementRepository{db: db, now: time.Now}
}

func (r *AgreementRepository) GetByDealID(ctx context.Context, dealID uuid.UUID) (*entity.Agreement, error) {
	var schema agreementSchema

	query := `SELECT ` + agreementColumns + ` FROM agreements WHERE deal_id = $1`
	if err := r.db.GetContext(ctx, &schema, query, dealID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewError(errcodes.AgreementNotFound, "agreement not found")
		}
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to get agreement")
	}

	return schema.toDomain(), nil
}

// CreateOnce сохраняет соглашение, если его ещё нет. Иначе возвращает
// сохранённое с created = false.
func (r *AgreementRepository) CreateOnce(
	ctx context.Context,
	agreement *entity.Agreement,
) (stored *entity.Agreement, created bool, err error) {
	schema := fromAgreement(agreement)
	if schema.CreatedAt.IsZero() {
		schema.CreatedAt = r.now()
	}

	err = withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		query, args, err := tx.BindNamed(`
			INSERT INTO agreements (`+agreementColumns+`)
			VALUES (:id, :deal_id, :final_amount, :deadline, :mandate, :transcript, :created_at)
			ON CONFLICT (deal_id) DO NOTHING
			RETURNING `+agreementColumns, schema)
		if err != nil {
			return domain.WrapError(err, errcodes.InternalServerError, "failed to bind agreement")
		}

		var inserted agreementSchema
		err = tx.GetContext(ctx, &inserted, query, args...)
		switch {
		case err == nil:
			stored, created = inserted.toDomain(), true
			return nil
		case !errors.Is(err, sql.ErrNoRows):
			return domain.WrapError(err, errcodes.InternalServerError, "failed to create agreement")
		}

		var existing agreementSchema
		if err := tx.GetContext(ctx, &existing,
			`SELECT `+agreementColumns+` FROM agreements WHERE deal_id = $1`, schema.DealID); err != nil {
			return domain.WrapError(err, errcodes.InternalServerError, "failed to get agreement")
		}

		stored = existing.toDomain()
		return nil
	})

	return stored, created, err
}
