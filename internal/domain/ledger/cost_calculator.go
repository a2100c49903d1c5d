package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// CostCalculator implementa la lógica de costo promedio ponderado entre dos capas (servicio de dominio).
// NuevoCosto = ((StockActual * CostoActual) + (CantEntrada * CostoEntrada)) / (StockActual + CantEntrada)
func CostCalculator(stockActual, costoActual, cantEntrada, costoEntrada decimal.Decimal) decimal.Decimal {
	sum := stockActual.Add(cantEntrada)
	if sum.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	num := stockActual.Mul(costoActual).Add(cantEntrada.Mul(costoEntrada))
	return num.Div(sum)
}

// WeightedAverageCost costo promedio del saldo vivo, acumulando lote a lote con CostCalculator.
// Lotes agotados no aportan.
func WeightedAverageCost(batches []entity.Batch) decimal.Decimal {
	qty := decimal.Zero
	cost := decimal.Zero
	for i := range batches {
		b := &batches[i]
		if !b.RemainingQuantity.IsPositive() {
			continue
		}
		cost = CostCalculator(qty, cost, b.RemainingQuantity, b.UnitPrice)
		qty = qty.Add(b.RemainingQuantity)
	}
	return Normalize(cost)
}
