package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.StockLevelRepository = (*StockLevelRepo)(nil)

// StockLevelRepo implementación de StockLevelRepository sobre PostgreSQL (usable con pool o tx).
type StockLevelRepo struct {
	q Querier
}

// NewStockLevelRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockLevelRepository(q Querier) *StockLevelRepo {
	return &StockLevelRepo{q: q}
}

const stockLevelColumns = `id, material_id, store_id, quantity, optimal_quantity, status, updated_at`

func scanStockLevel(row pgx.Row) (*entity.StockLevel, error) {
	var s entity.StockLevel
	err := row.Scan(&s.ID, &s.Key.MaterialID, &s.Key.StoreID, &s.Quantity, &s.OptimalQuantity, &s.Status, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Get obtiene el agregado sin bloqueo; si no existe devuelve uno en cero.
func (r *StockLevelRepo) Get(ctx context.Context, key entity.OwnerKey) (*entity.StockLevel, error) {
	query := `SELECT ` + stockLevelColumns + ` FROM stock_levels WHERE material_id = $1 AND store_id = $2`
	s, err := scanStockLevel(r.q.QueryRow(ctx, query, key.MaterialID, key.StoreID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &entity.StockLevel{Key: key, Quantity: decimal.Zero, Status: entity.StockStatusShortage}, nil
		}
		return nil, mapError("get stock level", err)
	}
	return s, nil
}

// GetByID obtiene el agregado por ID.
func (r *StockLevelRepo) GetByID(ctx context.Context, id string) (*entity.StockLevel, error) {
	query := `SELECT ` + stockLevelColumns + ` FROM stock_levels WHERE id = $1`
	s, err := scanStockLevel(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("get stock level by id", err)
	}
	return s, nil
}

// LockOrCreate inserta la fila en cero si falta (ON CONFLICT DO NOTHING: dos creadores concurrentes
// terminan sobre la misma fila) y la bloquea con SELECT FOR UPDATE.
func (r *StockLevelRepo) LockOrCreate(ctx context.Context, key entity.OwnerKey, optimal *decimal.Decimal) (*entity.StockLevel, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generar id: %w", err)
	}
	insert := `
		INSERT INTO stock_levels (id, material_id, store_id, quantity, optimal_quantity, status, updated_at)
		VALUES ($1, $2, $3, 0, $4, $5, now())
		ON CONFLICT (material_id, store_id) DO NOTHING`
	if _, err := r.q.Exec(ctx, insert, id.String(), key.MaterialID, key.StoreID, optimal, entity.StockStatusShortage); err != nil {
		return nil, mapError("create stock level", err)
	}

	query := `SELECT ` + stockLevelColumns + ` FROM stock_levels WHERE material_id = $1 AND store_id = $2 FOR UPDATE`
	s, err := scanStockLevel(r.q.QueryRow(ctx, query, key.MaterialID, key.StoreID))
	if err != nil {
		return nil, mapError("lock stock level", err)
	}
	return s, nil
}

// LockByID bloquea una fila existente (SELECT FOR UPDATE).
func (r *StockLevelRepo) LockByID(ctx context.Context, id string) (*entity.StockLevel, error) {
	query := `SELECT ` + stockLevelColumns + ` FROM stock_levels WHERE id = $1 FOR UPDATE`
	s, err := scanStockLevel(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, mapError("lock stock level by id", err)
	}
	return s, nil
}

// Save persiste cantidad, estado y fecha.
func (r *StockLevelRepo) Save(ctx context.Context, level *entity.StockLevel) error {
	query := `UPDATE stock_levels SET quantity = $2, status = $3, updated_at = $4 WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, level.ID, level.Quantity, level.Status, level.UpdatedAt)
	if err != nil {
		return mapError("save stock level", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByStatus filtra por estados; storeID nil = todos los dueños.
func (r *StockLevelRepo) ListByStatus(ctx context.Context, statuses []string, storeID *string, limit, offset int) ([]*entity.StockLevel, error) {
	query := `
		SELECT ` + stockLevelColumns + `
		FROM stock_levels
		WHERE status = ANY($1) AND ($2::text IS NULL OR store_id = $2)
		ORDER BY material_id, store_id
		LIMIT $3 OFFSET $4`
	rows, err := r.q.Query(ctx, query, statuses, storeID, limit, offset)
	if err != nil {
		return nil, mapError("list stock levels", err)
	}
	defer rows.Close()

	var list []*entity.StockLevel
	for rows.Next() {
		s, err := scanStockLevel(rows)
		if err != nil {
			return nil, mapError("scan stock level", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}
