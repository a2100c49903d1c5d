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

var (
	_ repository.InboundRepository    = (*InboundRepo)(nil)
	_ repository.OutboundRepository   = (*OutboundRepo)(nil)
	_ repository.AdjustmentRepository = (*AdjustmentRepo)(nil)
)

// InboundRepo registros de entrada sobre PostgreSQL.
type InboundRepo struct {
	q Querier
}

// NewInboundRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInboundRepository(q Querier) *InboundRepo {
	return &InboundRepo{q: q}
}

// Create persiste la entrada.
func (r *InboundRepo) Create(ctx context.Context, rec *entity.InboundRecord) error {
	query := `
		INSERT INTO inbound_records (id, material_id, store_id, quantity, unit_price, selling_price, lot_no, in_at, stock_after, memo, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		rec.ID, rec.MaterialID, rec.StoreID, rec.Quantity, rec.UnitPrice, rec.SellingPrice,
		rec.LotNo, rec.InAt, rec.StockAfter, rec.Memo, rec.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return mapError("insert inbound", err)
	}
	return nil
}

// GetByID obtiene una entrada por ID.
func (r *InboundRepo) GetByID(ctx context.Context, id string) (*entity.InboundRecord, error) {
	query := `
		SELECT id, material_id, store_id, quantity, unit_price, selling_price, lot_no, in_at, stock_after, memo, created_at
		FROM inbound_records WHERE id = $1`
	var rec entity.InboundRecord
	err := r.q.QueryRow(ctx, query, id).Scan(
		&rec.ID, &rec.MaterialID, &rec.StoreID, &rec.Quantity, &rec.UnitPrice, &rec.SellingPrice,
		&rec.LotNo, &rec.InAt, &rec.StockAfter, &rec.Memo, &rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("get inbound", err)
	}
	return &rec, nil
}

// ExistsLotNo indica si alguna entrada ya usó el número de lote.
func (r *InboundRepo) ExistsLotNo(ctx context.Context, lotNo string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM inbound_records WHERE lot_no = $1)`, lotNo).Scan(&exists)
	if err != nil {
		return false, mapError("exists inbound lot", err)
	}
	return exists, nil
}

// OutboundRepo despachos y líneas de asignación sobre PostgreSQL.
type OutboundRepo struct {
	q Querier
}

// NewOutboundRepository construye el adaptador. Pasar pool o tx (Querier).
func NewOutboundRepository(q Querier) *OutboundRepo {
	return &OutboundRepo{q: q}
}

// Create persiste la cabecera del despacho.
func (r *OutboundRepo) Create(ctx context.Context, rec *entity.OutboundRecord) error {
	query := `
		INSERT INTO outbound_records (id, material_id, store_id, quantity, unit_price, stock_after, status, reversal_for, memo, out_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		rec.ID, rec.MaterialID, rec.StoreID, rec.Quantity, rec.UnitPrice, rec.StockAfter,
		rec.Status, rec.ReversalFor, rec.Memo, rec.OutAt, rec.CreatedAt,
	)
	if err != nil {
		return mapError("insert outbound", err)
	}
	return nil
}

// CreateLine persiste una línea lote→despacho.
func (r *OutboundRepo) CreateLine(ctx context.Context, line *entity.AllocationLine) error {
	query := `INSERT INTO allocation_lines (id, outbound_id, batch_id, quantity) VALUES ($1, $2, $3, $4)`
	if _, err := r.q.Exec(ctx, query, line.ID, line.OutboundID, line.BatchID, line.Quantity); err != nil {
		return mapError("insert allocation line", err)
	}
	return nil
}

// GetByID obtiene un despacho por ID.
func (r *OutboundRepo) GetByID(ctx context.Context, id string) (*entity.OutboundRecord, error) {
	query := `
		SELECT id, material_id, store_id, quantity, unit_price, stock_after, status, reversal_for, memo, out_at, created_at
		FROM outbound_records WHERE id = $1`
	var rec entity.OutboundRecord
	err := r.q.QueryRow(ctx, query, id).Scan(
		&rec.ID, &rec.MaterialID, &rec.StoreID, &rec.Quantity, &rec.UnitPrice, &rec.StockAfter,
		&rec.Status, &rec.ReversalFor, &rec.Memo, &rec.OutAt, &rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("get outbound", err)
	}
	return &rec, nil
}

const allocationViewSelect = `
	SELECT l.id, l.outbound_id, l.batch_id, l.quantity, b.lot_no, b.remaining_quantity, o.out_at, o.store_id
	FROM allocation_lines l
	JOIN batches b ON b.id = l.batch_id
	JOIN outbound_records o ON o.id = l.outbound_id`

// ListLines líneas del despacho en el orden en que se consumieron.
func (r *OutboundRepo) ListLines(ctx context.Context, outboundID string) ([]entity.AllocationLineView, error) {
	query := allocationViewSelect + `
	WHERE l.outbound_id = $1
	ORDER BY b.expiration_date ASC NULLS LAST, b.received_at ASC, b.id ASC`
	return r.listViews(ctx, "list allocation lines", query, outboundID)
}

// ListLinesByBatch historial de consumo de un lote, más reciente primero.
func (r *OutboundRepo) ListLinesByBatch(ctx context.Context, batchID string, limit, offset int) ([]entity.AllocationLineView, error) {
	query := allocationViewSelect + `
	WHERE l.batch_id = $1
	ORDER BY o.out_at DESC, o.id DESC
	LIMIT $2 OFFSET $3`
	return r.listViews(ctx, "list batch outbounds", query, batchID, limit, offset)
}

// LastUnitPrice precio del despacho más reciente del material.
func (r *OutboundRepo) LastUnitPrice(ctx context.Context, materialID string) (*decimal.Decimal, error) {
	query := `
		SELECT unit_price FROM outbound_records
		WHERE material_id = $1 AND status = $2
		ORDER BY out_at DESC, id DESC
		LIMIT 1`
	var price decimal.Decimal
	err := r.q.QueryRow(ctx, query, materialID, entity.OutboundStatusConfirmed).Scan(&price)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("last outbound price", err)
	}
	return &price, nil
}

func (r *OutboundRepo) listViews(ctx context.Context, op, query string, args ...any) ([]entity.AllocationLineView, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(op, err)
	}
	defer rows.Close()

	var list []entity.AllocationLineView
	for rows.Next() {
		var v entity.AllocationLineView
		if err := rows.Scan(&v.ID, &v.OutboundID, &v.BatchID, &v.Quantity, &v.LotNo, &v.BatchRemaining, &v.OutAt, &v.StoreID); err != nil {
			return nil, mapError(op, err)
		}
		list = append(list, v)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(op, err)
	}
	return list, nil
}

// AdjustmentRepo registros de ajuste sobre PostgreSQL.
type AdjustmentRepo struct {
	q Querier
}

// NewAdjustmentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAdjustmentRepository(q Querier) *AdjustmentRepo {
	return &AdjustmentRepo{q: q}
}

// Create persiste el ajuste.
func (r *AdjustmentRepo) Create(ctx context.Context, rec *entity.AdjustmentRecord) error {
	query := `
		INSERT INTO adjustment_records (id, stock_level_id, material_id, store_id, quantity_before, quantity_after, difference, unit_price, reason, memo, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		rec.ID, rec.StockLevelID, rec.MaterialID, rec.StoreID, rec.QuantityBefore, rec.QuantityAfter,
		rec.Difference, rec.UnitPrice, rec.Reason, rec.Memo, rec.CreatedAt,
	)
	if err != nil {
		return mapError("insert adjustment", err)
	}
	return nil
}

// GetByID obtiene un ajuste por ID.
func (r *AdjustmentRepo) GetByID(ctx context.Context, id string) (*entity.AdjustmentRecord, error) {
	query := `
		SELECT id, stock_level_id, material_id, store_id, quantity_before, quantity_after, difference, unit_price, reason, memo, created_at
		FROM adjustment_records WHERE id = $1`
	var rec entity.AdjustmentRecord
	err := r.q.QueryRow(ctx, query, id).Scan(
		&rec.ID, &rec.StockLevelID, &rec.MaterialID, &rec.StoreID, &rec.QuantityBefore, &rec.QuantityAfter,
		&rec.Difference, &rec.UnitPrice, &rec.Reason, &rec.Memo, &rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("get adjustment", err)
	}
	return &rec, nil
}
