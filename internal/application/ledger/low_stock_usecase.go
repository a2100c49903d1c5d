package ledger

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// LowStockUseCase genera la lista de reposición: agregados en LOW o SHORTAGE con la cantidad sugerida.
type LowStockUseCase struct {
	core
}

// NewLowStockUseCase construye el caso de uso de reposición.
func NewLowStockUseCase(d Deps) *LowStockUseCase {
	return &LowStockUseCase{core: newCore(d)}
}

// LowStock devuelve los agregados bajo el óptimo. storeID nil = todos los dueños; "" = solo sede central.
// Sugerido = óptimo - cantidad (mínimo 0). Orden: mayor déficit primero, luego código de material.
func (uc *LowStockUseCase) LowStock(ctx context.Context, storeID *string, limit int) ([]dto.LowStockItemDTO, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	// 1. Agregados en estado LOW o SHORTAGE
	levels, err := uc.repos.Levels.ListByStatus(ctx,
		[]string{entity.StockStatusLow, entity.StockStatusShortage}, storeID, limit, 0)
	if err != nil {
		return nil, err
	}
	if len(levels) == 0 {
		return []dto.LowStockItemDTO{}, nil
	}

	// 2. Enriquecer con el maestro (un material puede repetirse entre tiendas)
	materials := make(map[string]*entity.Material, len(levels))
	items := make([]dto.LowStockItemDTO, 0, len(levels))
	for _, lv := range levels {
		m, ok := materials[lv.Key.MaterialID]
		if !ok {
			m, err = uc.repos.Materials.GetByID(ctx, lv.Key.MaterialID)
			if err != nil {
				return nil, err
			}
			materials[lv.Key.MaterialID] = m
		}

		optimal := lv.OptimalQuantity
		item := dto.LowStockItemDTO{
			StockLevelID: lv.ID,
			MaterialID:   lv.Key.MaterialID,
			StoreID:      lv.Key.StoreID,
			Quantity:     lv.Quantity,
			Status:       lv.Status,
		}
		if m != nil {
			item.MaterialCode = m.Code
			item.MaterialName = m.Name
			if optimal == nil {
				optimal = m.OptimalQuantity
			}
		}
		item.OptimalQuantity = decimal.Zero
		item.SuggestedQty = decimal.Zero
		if optimal != nil {
			item.OptimalQuantity = *optimal
			if s := optimal.Sub(lv.Quantity); s.IsPositive() {
				item.SuggestedQty = s
			}
		}
		items = append(items, item)
	}

	// 3. Mayor déficit primero
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if !a.SuggestedQty.Equal(b.SuggestedQty) {
			return a.SuggestedQty.GreaterThan(b.SuggestedQty)
		}
		return a.MaterialCode < b.MaterialCode
	})

	// 4. Prioridad (1 = más urgente)
	for i := range items {
		items[i].Priority = i + 1
	}
	return items, nil
}
