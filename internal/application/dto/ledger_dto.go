package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// PreviewOutboundRequest parámetros de GET /api/ledger/outbounds/preview.
type PreviewOutboundRequest struct {
	MaterialID string          `json:"material_id" validate:"required,uuid"`
	StoreID    string          `json:"store_id" validate:"omitempty,uuid"`
	Quantity   decimal.Decimal `json:"quantity" validate:"dec_gt0"`
}

// ConfirmOutboundRequest body para POST /api/ledger/outbounds.
type ConfirmOutboundRequest struct {
	MaterialID string          `json:"material_id" validate:"required,uuid"`
	StoreID    string          `json:"store_id" validate:"omitempty,uuid"`
	Quantity   decimal.Decimal `json:"quantity" validate:"dec_gt0"`
	OutAt      *time.Time      `json:"out_at,omitempty"`
	Memo       string          `json:"memo" validate:"max=500"`
}

// OrderLineRequest renglón de pedido; cantidades <= 0 se omiten.
type OrderLineRequest struct {
	MaterialID string          `json:"material_id" validate:"required,uuid"`
	Quantity   decimal.Decimal `json:"quantity"`
}

// ConfirmOrderOutboundRequest body para POST /api/ledger/outbounds/order.
type ConfirmOrderOutboundRequest struct {
	OrderCode string             `json:"order_code" validate:"required,max=64"`
	StoreID   string             `json:"store_id" validate:"omitempty,uuid"`
	OutAt     *time.Time         `json:"out_at,omitempty"`
	Lines     []OrderLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// RegisterInboundRequest body para POST /api/ledger/inbounds.
type RegisterInboundRequest struct {
	MaterialID     string           `json:"material_id" validate:"required,uuid"`
	StoreID        string           `json:"store_id" validate:"omitempty,uuid"`
	Quantity       decimal.Decimal  `json:"quantity" validate:"dec_gt0"`
	UnitPrice      decimal.Decimal  `json:"unit_price" validate:"dec_gte0"`
	SellingPrice   *decimal.Decimal `json:"selling_price,omitempty" validate:"omitempty,dec_gte0"`
	ExpirationDate *time.Time       `json:"expiration_date,omitempty"`
	InAt           *time.Time       `json:"in_at,omitempty"`
	Memo           string           `json:"memo" validate:"max=500"`
}

// AdjustStockRequest body para POST /api/ledger/stock-levels/:id/adjust.
type AdjustStockRequest struct {
	QuantityAfter decimal.Decimal `json:"quantity_after" validate:"dec_gte0"`
	Reason        string          `json:"reason" validate:"omitempty,oneof=MANUAL DAMAGE LOSS ERROR"`
	Memo          string          `json:"memo" validate:"max=500"`
}

// RegisterPriceRequest body para POST /api/ledger/prices.
type RegisterPriceRequest struct {
	MaterialID string          `json:"material_id" validate:"required,uuid"`
	Type       string          `json:"type" validate:"required,oneof=PURCHASE SELLING"`
	Amount     decimal.Decimal `json:"amount" validate:"dec_gte0"`
	ValidFrom  *time.Time      `json:"valid_from,omitempty"`
	ValidTo    *time.Time      `json:"valid_to,omitempty"`
}

// UpdatePriceRequest body para PATCH /api/ledger/prices/:id.
type UpdatePriceRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"dec_gte0"`
}

// PlanLineResponse porción asignada a un lote.
type PlanLineResponse struct {
	BatchID        string          `json:"batch_id"`
	LotNo          string          `json:"lot_no"`
	ExpirationDate *time.Time      `json:"expiration_date,omitempty"`
	Quantity       decimal.Decimal `json:"quantity"`
}

// PlanResponse vista previa FIFO.
type PlanResponse struct {
	Requested decimal.Decimal    `json:"requested"`
	Lines     []PlanLineResponse `json:"lines"`
}

// OutboundResponse despacho confirmado.
type OutboundResponse struct {
	ID          string             `json:"id"`
	MaterialID  string             `json:"material_id"`
	StoreID     string             `json:"store_id,omitempty"`
	Quantity    decimal.Decimal    `json:"quantity"`
	UnitPrice   decimal.Decimal    `json:"unit_price"`
	StockAfter  decimal.Decimal    `json:"stock_after"`
	Status      string             `json:"status"`
	Memo        string             `json:"memo,omitempty"`
	OutAt       time.Time          `json:"out_at"`
	PriceSource string             `json:"price_source,omitempty"`
	Lines       []PlanLineResponse `json:"lines"`
}

// OrderOutboundResponse IDs de despacho en el orden de los renglones aplicados.
type OrderOutboundResponse struct {
	OutboundIDs []string `json:"outbound_ids"`
}

// AllocationLineResponse línea de despacho vista desde el lote o la cabecera.
type AllocationLineResponse struct {
	ID             string          `json:"id"`
	OutboundID     string          `json:"outbound_id"`
	BatchID        string          `json:"batch_id"`
	LotNo          string          `json:"lot_no"`
	Quantity       decimal.Decimal `json:"quantity"`
	BatchRemaining decimal.Decimal `json:"batch_remaining"`
	OutAt          time.Time       `json:"out_at"`
	StoreID        string          `json:"store_id,omitempty"`
}

// OutboundDetailResponse cabecera con líneas por lote.
type OutboundDetailResponse struct {
	OutboundResponse
	Allocations []AllocationLineResponse `json:"allocations"`
}

// InboundResponse entrada registrada.
type InboundResponse struct {
	ID             string           `json:"id"`
	BatchID        string           `json:"batch_id"`
	LotNo          string           `json:"lot_no"`
	MaterialID     string           `json:"material_id"`
	StoreID        string           `json:"store_id,omitempty"`
	Quantity       decimal.Decimal  `json:"quantity"`
	UnitPrice      decimal.Decimal  `json:"unit_price"`
	SellingPrice   *decimal.Decimal `json:"selling_price,omitempty"`
	StockAfter     decimal.Decimal  `json:"stock_after"`
	ExpirationDate *time.Time       `json:"expiration_date,omitempty"`
	InAt           time.Time        `json:"in_at"`
}

// StockLevelResponse agregado de stock.
type StockLevelResponse struct {
	ID              string           `json:"id"`
	MaterialID      string           `json:"material_id"`
	StoreID         string           `json:"store_id,omitempty"`
	Quantity        decimal.Decimal  `json:"quantity"`
	OptimalQuantity *decimal.Decimal `json:"optimal_quantity,omitempty"`
	Status          string           `json:"status"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// AdjustmentResponse registro de ajuste.
type AdjustmentResponse struct {
	ID             string          `json:"id"`
	StockLevelID   string          `json:"stock_level_id"`
	MaterialID     string          `json:"material_id"`
	StoreID        string          `json:"store_id,omitempty"`
	QuantityBefore decimal.Decimal `json:"quantity_before"`
	QuantityAfter  decimal.Decimal `json:"quantity_after"`
	Difference     decimal.Decimal `json:"difference"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	Reason         string          `json:"reason"`
	Memo           string          `json:"memo,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// BatchResponse lote.
type BatchResponse struct {
	ID                string          `json:"id"`
	LotNo             string          `json:"lot_no"`
	MaterialID        string          `json:"material_id"`
	StoreID           string          `json:"store_id,omitempty"`
	ReceivedAt        time.Time       `json:"received_at"`
	ExpirationDate    *time.Time      `json:"expiration_date,omitempty"`
	ReceivedQuantity  decimal.Decimal `json:"received_quantity"`
	RemainingQuantity decimal.Decimal `json:"remaining_quantity"`
	ConsumedQuantity  decimal.Decimal `json:"consumed_quantity"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
}

// BatchStatusResponse lotes de un material frente a su agregado.
type BatchStatusResponse struct {
	MaterialID      string          `json:"material_id"`
	StoreID         string          `json:"store_id,omitempty"`
	StockQuantity   decimal.Decimal `json:"stock_quantity"`
	BatchRemaining  decimal.Decimal `json:"batch_remaining"`
	InSync          bool            `json:"in_sync"`
	AverageUnitCost decimal.Decimal `json:"average_unit_cost"`
	Batches         []BatchResponse `json:"batches"`
}

// LotDetailResponse detalle de lote con datos del material.
type LotDetailResponse struct {
	BatchResponse
	MaterialCode    string `json:"material_code"`
	MaterialName    string `json:"material_name"`
	DaysUntilExpiry *int   `json:"days_until_expiry,omitempty"`
}

// PriceResponse entrada del historial de precios.
type PriceResponse struct {
	ID         string          `json:"id"`
	MaterialID string          `json:"material_id"`
	Type       string          `json:"type"`
	Amount     decimal.Decimal `json:"amount"`
	ValidFrom  time.Time       `json:"valid_from"`
	ValidTo    *time.Time      `json:"valid_to,omitempty"`
}

// LowStockItemDTO agregado por debajo del óptimo con la cantidad sugerida de reposición.
type LowStockItemDTO struct {
	StockLevelID    string          `json:"stock_level_id"`
	MaterialID      string          `json:"material_id"`
	MaterialCode    string          `json:"material_code"`
	MaterialName    string          `json:"material_name"`
	StoreID         string          `json:"store_id,omitempty"`
	Quantity        decimal.Decimal `json:"quantity"`
	OptimalQuantity decimal.Decimal `json:"optimal_quantity"`
	SuggestedQty    decimal.Decimal `json:"suggested_qty"` // óptimo - cantidad, mínimo 0
	Status          string          `json:"status"`
	Priority        int             `json:"priority"` // 1 = más urgente
}
