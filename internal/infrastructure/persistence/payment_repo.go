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

const paymentColumns = `id, deal_id, token, amount, tx_hash, network, explorer_url, status, created_at`

type PaymentRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db, now: time.Now}
}

// CreateOnce сохраняет платёж, если платежа с тем же хешем по сделке ещё нет.
func (r *PaymentRepository) CreateOnce(
	ctx context.Context,
	payment *entity.Payment,
) (stored *entity.Payment, created bool, err error) {
	schema := fromPayment(payment)
	if schema.CreatedAt.IsZero() {
		schema.CreatedAt = r.now()
	}

	err = withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		query, args, err := tx.BindNamed(`
			INSERT INTO payments (`+paymentColumns+`)
			VALUES (
				:id, :deal_id, :token, :amount, :tx_hash, :network,
				:explorer_url, :status, :created_at
			)
			ON CONFLICT (deal_id, tx_hash) DO NOTHING
			RETURNING `+paymentColumns, schema)
		if err != nil {
			return domain.WrapError(err, errcodes.InternalServerError, "failed to bind payment")
		}

		var inserted paymentSchema
		err = tx.GetContext(ctx, &inserted, query, args...)
		switch {
		case err == nil:
			stored, created = inserted.toDomain(), true
			return nil
		case !errors.Is(err, sql.ErrNoRows):
			return domain.WrapError(err, errcodes.InternalServerError, "failed to create payment")
		}

		existing, err := r.getByTxHash(ctx, tx, schema.DealID, schema.TxHash)
		if err != nil {
			return err
		}

		stored = existing
		return nil
	})

	return stored, created, err
}

func (r *PaymentRepository) GetByTxHash(ctx context.Context, dealID uuid.UUID, txHash string) (*entity.Payment, error) {
	return r.getByTxHash(ctx, r.db, dealID, txHash)
}

func (r *PaymentRepository) getByTxHash(
	ctx context.Context,
	q sqlx.QueryerContext,
	dealID uuid.UUID,
	txHash string,
) (*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE deal_id = $1 AND tx_hash = $2`

	var schema paymentSchema
	if err := sqlx.GetContext(ctx, q, &schema, query, dealID, txHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewError(errcodes.PaymentNotFound, "payment not found")
		}
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to get payment")
	}

	return schema.toDomain(), nil
}

func (r *PaymentRepository) ListByDeal(ctx context.Context, dealID uuid.UUID) ([]entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE deal_id = $1 ORDER BY created_at, id`

	var schemas []paymentSchema
	if err := r.db.SelectContext(ctx, &schemas, query, dealID); err != nil {
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to list payments")
	}

	result := make([]entity.Payment, 0, len(schemas))
	for _, s := range schemas {
		result = append(result, *s.toDomain())
	}

	return result, nil
}
