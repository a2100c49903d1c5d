package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// StockLevelRepository define el puerto del agregado de stock por dueño+material.
// Los métodos Lock* solo tienen sentido dentro de una transacción: el bloqueo vive hasta Commit/Rollback.
type StockLevelRepository interface {
	// Get lectura sin bloqueo; devuelve un agregado en cero (sin ID) si la fila no existe.
	Get(ctx context.Context, key entity.OwnerKey) (*entity.StockLevel, error)
	// GetByID devuelve nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.StockLevel, error)
	// LockOrCreate crea la fila en cero si falta (con el óptimo indicado) y la bloquea (SELECT FOR UPDATE).
	LockOrCreate(ctx context.Context, key entity.OwnerKey, optimal *decimal.Decimal) (*entity.StockLevel, error)
	// LockByID bloquea una fila existente; ErrNotFound si no existe.
	LockByID(ctx context.Context, id string) (*entity.StockLevel, error)
	// Save persiste cantidad, estado y fecha de una fila ya bloqueada.
	Save(ctx context.Context, level *entity.StockLevel) error
	// ListByStatus filtra por estados; storeID nil = todos los dueños.
	ListByStatus(ctx context.Context, statuses []string, storeID *string, limit, offset int) ([]*entity.StockLevel, error)
}
