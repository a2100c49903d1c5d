package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.BatchRepository = (*BatchRepo)(nil)

// BatchRepo implementación de BatchRepository sobre PostgreSQL (usable con pool o tx).
type BatchRepo struct {
	q Querier
}

// NewBatchRepository construye el adaptador de lotes. Pasar pool o tx (Querier).
func NewBatchRepository(q Querier) *BatchRepo {
	return &BatchRepo{q: q}
}

const (
	batchColumns = `id, lot_no, material_id, store_id, received_at, expiration_date,
		received_quantity, remaining_quantity, unit_price, created_at`
	// Orden FIFO canónico: vencimiento asc (sin vencimiento al final), recepción asc, id asc.
	fifoOrder = `ORDER BY expiration_date ASC NULLS LAST, received_at ASC, id ASC`
)

func scanBatch(row pgx.Row) (entity.Batch, error) {
	var b entity.Batch
	err := row.Scan(&b.ID, &b.LotNo, &b.MaterialID, &b.StoreID, &b.ReceivedAt, &b.ExpirationDate,
		&b.ReceivedQuantity, &b.RemainingQuantity, &b.UnitPrice, &b.CreatedAt)
	return b, err
}

// Create inserta el lote. ON CONFLICT evita abortar la transacción si el LotNo ya existe:
// el llamador recibe ErrDuplicate y puede reintentar con otro número dentro de la misma tx.
func (r *BatchRepo) Create(ctx context.Context, b *entity.Batch) error {
	query := `
		INSERT INTO batches (` + batchColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (lot_no) DO NOTHING`
	tag, err := r.q.Exec(ctx, query,
		b.ID, b.LotNo, b.MaterialID, b.StoreID, b.ReceivedAt, b.ExpirationDate,
		b.ReceivedQuantity, b.RemainingQuantity, b.UnitPrice, b.CreatedAt,
	)
	if err != nil {
		return mapError("insert batch", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDuplicate
	}
	return nil
}

// ExistsLotNo indica si el número de lote ya fue usado.
func (r *BatchRepo) ExistsLotNo(ctx context.Context, lotNo string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM batches WHERE lot_no = $1)`, lotNo).Scan(&exists)
	if err != nil {
		return false, mapError("exists lot", err)
	}
	return exists, nil
}

// GetByID obtiene un lote por ID.
func (r *BatchRepo) GetByID(ctx context.Context, id string) (*entity.Batch, error) {
	b, err := scanBatch(r.q.QueryRow(ctx, `SELECT `+batchColumns+` FROM batches WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("get batch", err)
	}
	return &b, nil
}

// ListFIFOCandidates lotes con saldo en orden FIFO; con forUpdate bloquea las filas en ese mismo orden.
func (r *BatchRepo) ListFIFOCandidates(ctx context.Context, key entity.OwnerKey, forUpdate bool) ([]entity.Batch, error) {
	query := `
		SELECT ` + batchColumns + `
		FROM batches
		WHERE material_id = $1 AND store_id = $2 AND remaining_quantity > 0
		` + fifoOrder
	if forUpdate {
		query += ` FOR UPDATE`
	}
	return r.list(ctx, "list fifo candidates", query, key.MaterialID, key.StoreID)
}

// ListByKey todos los lotes de la llave, incluidos los agotados.
func (r *BatchRepo) ListByKey(ctx context.Context, key entity.OwnerKey) ([]entity.Batch, error) {
	query := `
		SELECT ` + batchColumns + `
		FROM batches
		WHERE material_id = $1 AND store_id = $2
		` + fifoOrder
	return r.list(ctx, "list batches", query, key.MaterialID, key.StoreID)
}

// Decrement resta amount solo si alcanza el saldo; nunca recorta en silencio.
func (r *BatchRepo) Decrement(ctx context.Context, batchID string, amount decimal.Decimal) error {
	query := `
		UPDATE batches SET remaining_quantity = remaining_quantity - $2
		WHERE id = $1 AND remaining_quantity >= $2`
	tag, err := r.q.Exec(ctx, query, batchID, amount)
	if err != nil {
		return mapError("decrement batch", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBatchUnderflow
	}
	return nil
}

// SumRemaining suma de saldos de la llave.
func (r *BatchRepo) SumRemaining(ctx context.Context, key entity.OwnerKey) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.q.QueryRow(ctx,
		`SELECT COALESCE(SUM(remaining_quantity), 0) FROM batches WHERE material_id = $1 AND store_id = $2`,
		key.MaterialID, key.StoreID,
	).Scan(&sum)
	if err != nil {
		return decimal.Zero, mapError("sum batches", err)
	}
	return sum, nil
}

func (r *BatchRepo) list(ctx context.Context, op, query string, args ...any) ([]entity.Batch, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(op, err)
	}
	defer rows.Close()

	var list []entity.Batch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, mapError(op, err)
		}
		list = append(list, b)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(op, err)
	}
	return list, nil
}
