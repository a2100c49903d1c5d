package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.PriceRepository = (*PriceRepo)(nil)

// PriceRepo historial de precios sobre PostgreSQL (usable con pool o tx).
type PriceRepo struct {
	q Querier
}

// NewPriceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPriceRepository(q Querier) *PriceRepo {
	return &PriceRepo{q: q}
}

const priceColumns = `id, material_id, type, amount, valid_from, valid_to, created_at`

func scanPrice(row pgx.Row) (*entity.PriceEntry, error) {
	var p entity.PriceEntry
	if err := row.Scan(&p.ID, &p.MaterialID, &p.Type, &p.Amount, &p.ValidFrom, &p.ValidTo, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// Create persiste la entrada.
func (r *PriceRepo) Create(ctx context.Context, p *entity.PriceEntry) error {
	query := `INSERT INTO price_entries (` + priceColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := r.q.Exec(ctx, query, p.ID, p.MaterialID, p.Type, p.Amount, p.ValidFrom, p.ValidTo, p.CreatedAt); err != nil {
		return mapError("insert price", err)
	}
	return nil
}

// GetByID obtiene una entrada por ID.
func (r *PriceRepo) GetByID(ctx context.Context, id string) (*entity.PriceEntry, error) {
	p, err := scanPrice(r.q.QueryRow(ctx, `SELECT `+priceColumns+` FROM price_entries WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("get price", err)
	}
	return p, nil
}

// UpdateAmount cambia solo el monto.
func (r *PriceRepo) UpdateAmount(ctx context.Context, id string, amount decimal.Decimal) error {
	tag, err := r.q.Exec(ctx, `UPDATE price_entries SET amount = $2 WHERE id = $1`, id, amount)
	if err != nil {
		return mapError("update price", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// LatestAt entrada vigente en ts. Entre solapadas gana valid_from más reciente y luego id mayor.
func (r *PriceRepo) LatestAt(ctx context.Context, materialID, priceType string, ts time.Time) (*entity.PriceEntry, error) {
	query := `
		SELECT ` + priceColumns + `
		FROM price_entries
		WHERE material_id = $1 AND type = $2
		  AND valid_from <= $3 AND (valid_to IS NULL OR valid_to > $3)
		ORDER BY valid_from DESC, id DESC
		LIMIT 1`
	p, err := scanPrice(r.q.QueryRow(ctx, query, materialID, priceType, ts))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("latest price", err)
	}
	return p, nil
}

// History últimas entradas, valid_from desc.
func (r *PriceRepo) History(ctx context.Context, materialID, priceType string, limit int) ([]*entity.PriceEntry, error) {
	query := `
		SELECT ` + priceColumns + `
		FROM price_entries
		WHERE material_id = $1 AND type = $2
		ORDER BY valid_from DESC, id DESC
		LIMIT $3`
	rows, err := r.q.Query(ctx, query, materialID, priceType, limit)
	if err != nil {
		return nil, mapError("price history", err)
	}
	defer rows.Close()

	var list []*entity.PriceEntry
	for rows.Next() {
		p, err := scanPrice(rows)
		if err != nil {
			return nil, mapError("price history", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}
