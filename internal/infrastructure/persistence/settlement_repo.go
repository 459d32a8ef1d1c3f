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

const settlementColumns = `id, deal_id, source_network, dest_network, dest_token, intent_id, status, detail, created_at, updated_at`

type SettlementRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewSettlementRepository(db *sqlx.DB) *SettlementRepository {
	return &SettlementRepository{db: db, now: time.Now}
}

// CreateOnce сохраняет расчёт, если у сделки его ещё нет. Строка сделки
// блокируется, чтобы параллельные вызовы шли по очереди.
func (r *SettlementRepository) CreateOnce(
	ctx context.Context,
	settlement *entity.Settlement,
) (stored *entity.Settlement, created bool, err error) {
	schema, err := fromSettlement(settlement)
	if err != nil {
		return nil, false, domain.WrapError(err, errcodes.InternalServerError, "failed to encode settlement")
	}

	if schema.CreatedAt.IsZero() {
		schema.CreatedAt = r.now()
	}
	schema.UpdatedAt = schema.CreatedAt

	err = withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var dealID uuid.UUID
		if err := tx.GetContext(ctx, &dealID, `SELECT id FROM deals WHERE id = $1 FOR UPDATE`, schema.DealID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.NewError(errcodes.DealNotFound, "deal not found")
			}
			return domain.WrapError(err, errcodes.InternalServerError, "failed to lock deal")
		}

		existing, err := r.latestByDeal(ctx, tx, schema.DealID)
		switch {
		case err == nil:
			stored = existing
			return nil
		case !domain.HasCode(err, errcodes.SettlementNotFound):
			return err
		}

		query := `
			INSERT INTO settlements (` + settlementColumns + `)
			VALUES (
				:id, :deal_id, :source_network, :dest_network, :dest_token,
				:intent_id, :status, :detail, :created_at, :updated_at
			)`

		if _, err := tx.NamedExecContext(ctx, query, schema); err != nil {
			return domain.WrapError(err, errcodes.InternalServerError, "failed to create settlement")
		}

		stored, err = schema.toDomain()
		if err != nil {
			return domain.WrapError(err, errcodes.InternalServerError, "failed to decode settlement")
		}

		created = true
		return nil
	})

	return stored, created, err
}

func (r *SettlementRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Settlement, error) {
	var schema settlementSchema

	query := `SELECT ` + settlementColumns + ` FROM settlements WHERE id = $1`
	if err := r.db.GetContext(ctx, &schema, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewError(errcodes.SettlementNotFound, "settlement not found")
		}
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to get settlement")
	}

	return decodeSettlement(&schema)
}

// LatestByDeal возвращает последний расчёт по сделке.
func (r *SettlementRepository) LatestByDeal(ctx context.Context, dealID uuid.UUID) (*entity.Settlement, error) {
	return r.latestByDeal(ctx, r.db, dealID)
}

func (r *SettlementRepository) latestByDeal(
	ctx context.Context,
	q sqlx.QueryerContext,
	dealID uuid.UUID,
) (*entity.Settlement, error) {
	query := `
		SELECT ` + settlementColumns + ` FROM settlements
		WHERE deal_id = $1
		ORDER BY created_at DESC, id
		LIMIT 1`

	var schema settlementSchema
	if err := sqlx.GetContext(ctx, q, &schema, query, dealID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewError(errcodes.SettlementNotFound, "settlement not found")
		}
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to get settlement")
	}

	return decodeSettlement(&schema)
}

// UpdateStatus сохраняет статус и детали расчёта.
func (r *SettlementRepository) UpdateStatus(ctx context.Context, settlement *entity.Settlement) error {
	schema, err := fromSettlement(settlement)
	if err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to encode settlement")
	}
	schema.UpdatedAt = r.now()

	query := `
		UPDATE settlements SET
			status = :status,
			detail = :detail,
			updated_at = :updated_at
		WHERE id = :id`

	res, err := r.db.NamedExecContext(ctx, query, schema)
	if err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to update settlement")
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to check rows")
	}

	if rows == 0 {
		return domain.NewError(errcodes.SettlementNotFound, "settlement not found")
	}

	settlement.UpdatedAt = schema.UpdatedAt

	return nil
}

// ListOpen возвращает нефинальные расчёты, не обновлявшиеся с before.
func (r *SettlementRepository) ListOpen(ctx context.Context, before time.Time, limit int) ([]entity.Settlement, error) {
	query := `
		SELECT ` + settlementColumns + ` FROM settlements
		WHERE status NOT IN ('completed', 'failed') AND updated_at < $1
		ORDER BY updated_at
		LIMIT $2`

	var schemas []settlementSchema
	if err := r.db.SelectContext(ctx, &schemas, query, before, limit); err != nil {
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to list settlements")
	}

	result := make([]entity.Settlement, 0, len(schemas))
	for i := range schemas {
		s, err := decodeSettlement(&schemas[i])
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}

	return result, nil
}

func decodeSettlement(schema *settlementSchema) (*entity.Settlement, error) {
	s, err := schema.toDomain()
	if err != nil {
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to decode settlement")
	}

	return s, nil
}
