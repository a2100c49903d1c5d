package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// MaterialRepository define el puerto de lectura del maestro de materiales.
// El maestro se administra fuera del libro; Create existe para cargas iniciales y pruebas.
type MaterialRepository interface {
	Create(ctx context.Context, material *entity.Material) error
	// GetByID devuelve nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.Material, error)
}
