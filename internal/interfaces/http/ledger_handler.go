package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/ledger"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// LedgerHandler maneja las peticiones HTTP del libro de stock (protegido).
type LedgerHandler struct {
	inbound    *ledger.InboundUseCase
	outbound   *ledger.OutboundUseCase
	adjustment *ledger.AdjustmentUseCase
	prices     *ledger.PriceLedgerUseCase
	queries    *ledger.QueryUseCase
	lowStock   *ledger.LowStockUseCase
}

// LedgerUseCases casos de uso que atiende el handler.
type LedgerUseCases struct {
	Inbound    *ledger.InboundUseCase
	Outbound   *ledger.OutboundUseCase
	Adjustment *ledger.AdjustmentUseCase
	Prices     *ledger.PriceLedgerUseCase
	Queries    *ledger.QueryUseCase
	LowStock   *ledger.LowStockUseCase
}

// NewLedgerHandler construye el handler.
func NewLedgerHandler(uc LedgerUseCases) *LedgerHandler {
	return &LedgerHandler{
		inbound:    uc.Inbound,
		outbound:   uc.Outbound,
		adjustment: uc.Adjustment,
		prices:     uc.Prices,
		queries:    uc.Queries,
		lowStock:   uc.LowStock,
	}
}

// ownerStore resuelve el dueño del stock. Un usuario de tienda solo opera sobre su tienda;
// si omite store_id se usa la del token. Usuarios de sede central eligen libremente ("" = sede central).
func ownerStore(c *fiber.Ctx, requested string) (string, error) {
	tokenStore := GetStoreID(c)
	if tokenStore == "" {
		return requested, nil
	}
	if requested == "" || requested == tokenStore {
		return tokenStore, nil
	}
	return "", domain.ErrForbidden
}

// scopedStore rechaza registros de otro dueño cuando el token pertenece a una tienda.
func scopedStore(c *fiber.Ctx, storeID string) error {
	if tokenStore := GetStoreID(c); tokenStore != "" && storeID != tokenStore {
		return domain.ErrForbidden
	}
	return nil
}

// PreviewOutbound godoc
// @Summary      Vista previa FIFO de un despacho
// @Description  Calcula qué lotes se consumirían sin modificar nada.
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Param        material_id  query  string  true   "Material (UUID)"
// @Param        store_id     query  string  false  "Dueño del stock; vacío = sede central"
// @Param        quantity     query  string  true   "Cantidad solicitada"
// @Success      200  {object}  dto.PlanResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/ledger/outbounds/preview [get]
func (h *LedgerHandler) PreviewOutbound(c *fiber.Ctx) error {
	qty, err := decimal.NewFromString(c.Query("quantity"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "quantity inválida"})
	}
	in := dto.PreviewOutboundRequest{MaterialID: c.Query("material_id"), StoreID: c.Query("store_id"), Quantity: qty}
	if failed, err := validationFailed(c, &in); failed {
		return err
	}
	storeID, err := ownerStore(c, in.StoreID)
	if err != nil {
		return writeError(c, err)
	}
	plan, err := h.outbound.PreviewOutbound(c.Context(), in.MaterialID, storeID, in.Quantity)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toPlan(plan))
}

// ConfirmOutbound godoc
// @Summary      Confirmar despacho
// @Description  Descuenta agregado y lotes FIFO en una sola transacción.
// @Tags         ledger
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ConfirmOutboundRequest  true  "material_id, store_id, quantity"
// @Success      201  {object}  dto.OutboundResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/ledger/outbounds [post]
func (h *LedgerHandler) ConfirmOutbound(c *fiber.Ctx) error {
	var in dto.ConfirmOutboundRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if failed, err := validationFailed(c, &in); failed {
		return err
	}
	storeID, err := ownerStore(c, in.StoreID)
	if err != nil {
		return writeError(c, err)
	}
	res, err := h.outbound.ConfirmOutbound(c.Context(), ledger.OutboundInput{
		MaterialID: in.MaterialID,
		StoreID:    storeID,
		Quantity:   in.Quantity,
		OutAt:      in.OutAt,
		Memo:       in.Memo,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toOutboundResult(res))
}

// ConfirmOrderOutbound godoc
// @Summary      Despachar un pedido completo
// @Description  Todos los renglones en una transacción; renglones con cantidad <= 0 se omiten.
// @Tags         ledger
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ConfirmOrderOutboundRequest  true  "order_code, store_id, lines"
// @Success      201  {object}  dto.OrderOutboundResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/ledger/outbounds/order [post]
func (h *LedgerHandler) ConfirmOrderOutbound(c *fiber.Ctx) error {
	var in dto.ConfirmOrderOutboundRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if failed, err := validationFailed(c, &in); failed {
		return err
	}
	storeID, err := ownerStore(c, in.StoreID)
	if err != nil {
		return writeError(c, err)
	}
	lines := make([]ledger.OrderLine, 0, len(in.Lines))
	for _, l := range in.Lines {
		lines = append(lines, ledger.OrderLine{MaterialID: l.MaterialID, Quantity: l.Quantity})
	}
	ids, err := h.outbound.ConfirmOrderOutbound(c.Context(), ledger.OrderOutboundInput{
		OrderCode: in.OrderCode,
		StoreID:   storeID,
		Lines:     lines,
		OutAt:     in.OutAt,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.OrderOutboundResponse{OutboundIDs: ids})
}

// GetOutbound godoc
// @Summary      Detalle de despacho
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Despacho (UUID)"
// @Success      200  {object}  dto.OutboundDetailResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/ledger/outbounds/{id} [get]
func (h *LedgerHandler) GetOutbound(c *fiber.Ctx) error {
	d, err := h.outbound.OutboundDetail(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	if err := scopedStore(c, d.Record.StoreID); err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.OutboundDetailResponse{
		OutboundResponse: toOutbound(d.Record),
		Allocations:      toAllocationLines(d.Lines),
	})
}

// RegisterInbound godoc
// @Summary      Registrar recepción
// @Description  Suma al agregado, crea el lote con su número LOT y registra precios vigentes.
// @Tags         ledger
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterInboundRequest  true  "material_id, quantity, unit_price"
// @Success      201  {object}  dto.InboundResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/ledger/inbounds [post]
func (h *LedgerHandler) RegisterInbound(c *fiber.Ctx) error {
	var in dto.RegisterInboundRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if failed, err := validationFailed(c, &in); failed {
		return err
	}
	storeID, err := ownerStore(c, in.StoreID)
	if err != nil {
		return writeError(c, err)
	}
	res, err := h.inbound.RegisterInbound(c.Context(), ledger.InboundInput{
		MaterialID:     in.MaterialID,
		StoreID:        storeID,
		Quantity:       in.Quantity,
		UnitPrice:      in.UnitPrice,
		SellingPrice:   in.SellingPrice,
		ExpirationDate: in.ExpirationDate,
		InAt:           in.InAt,
		Memo:           in.Memo,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toInbound(res))
}

// GetStockLevel godoc
// @Summary      Agregado de stock
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Agregado (UUID)"
// @Success      200  {object}  dto.StockLevelResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/ledger/stock-levels/{id} [get]
func (h *LedgerHandler) GetStockLevel(c *fiber.Ctx) error {
	level, err := h.scopedLevel(c, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toStockLevel(level))
}

// scopedLevel agregado por ID; un usuario de tienda solo ve los de su tienda.
func (h *LedgerHandler) scopedLevel(c *fiber.Ctx, id string) (*entity.StockLevel, error) {
	level, err := h.queries.StockLevel(c.Context(), id)
	if err != nil {
		return nil, err
	}
	if err := scopedStore(c, level.Key.StoreID); err != nil {
		return nil, err
	}
	return level, nil
}

// AdjustStock godoc
// @Summary      Ajuste manual de stock
// @Description  Fija la cantidad absoluta; crea lote ADJ o descuenta lotes FIFO por la diferencia.
// @Tags         ledger
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true  "Agregado (UUID)"
// @Param        body  body  dto.AdjustStockRequest  true  "quantity_after, reason"
// @Success      201  {object}  dto.AdjustmentResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/ledger/stock-levels/{id}/adjust [post]
func (h *LedgerHandler) AdjustStock(c *fiber.Ctx) error {
	var in dto.AdjustStockRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if failed, err := validationFailed(c, &in); failed {
		return err
	}
	if _, err := h.scopedLevel(c, c.Params("id")); err != nil {
		return writeError(c, err)
	}
	rec, err := h.adjustment.AdjustStock(c.Context(), ledger.AdjustInput{
		StockLevelID:  c.Params("id"),
		QuantityAfter: in.QuantityAfter,
		Reason:        in.Reason,
		Memo:          in.Memo,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toAdjustment(rec))
}

// GetLowStock godoc
// @Summary      Lista de reposición
// @Description  Agregados en LOW o SHORTAGE con la cantidad sugerida; mayor déficit primero.
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Param        store_id  query  string  false  "Filtrar por dueño; presente y vacío = sede central"
// @Param        limit     query  int     false  "Máximo de filas (100 por defecto)"
// @Success      200  {object}  map[string]interface{}  "total, items ([]dto.LowStockItemDTO)"
// @Router       /api/ledger/stock-levels/low [get]
func (h *LedgerHandler) GetLowStock(c *fiber.Ctx) error {
	var storeID *string
	if tokenStore := GetStoreID(c); tokenStore != "" {
		storeID = &tokenStore
	} else if c.Request().URI().QueryArgs().Has("store_id") {
		s := c.Query("store_id")
		storeID = &s
	}
	list, err := h.lowStock.LowStock(c.Context(), storeID, c.QueryInt("limit", 100))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"total": len(list),
		"items": list,
	})
}

// GetAdjustment godoc
// @Summary      Detalle de ajuste
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Ajuste (UUID)"
// @Success      200  {object}  dto.AdjustmentResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/ledger/adjustments/{id} [get]
func (h *LedgerHandler) GetAdjustment(c *fiber.Ctx) error {
	rec, err := h.adjustment.AdjustmentDetail(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	if err := scopedStore(c, rec.StoreID); err != nil {
		return writeError(c, err)
	}
	return c.JSON(toAdjustment(rec))
}

// GetBatchStatus godoc
// @Summary      Lotes de un material
// @Description  Todos los lotes del dueño (incluye agotados) frente al agregado, con costo promedio.
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Param        id        path   string  true   "Material (UUID)"
// @Param        store_id  query  string  false  "Dueño; vacío = sede central"
// @Success      200  {object}  dto.BatchStatusResponse
// @Router       /api/ledger/materials/{id}/batches [get]
func (h *LedgerHandler) GetBatchStatus(c *fiber.Ctx) error {
	storeID, err := ownerStore(c, c.Query("store_id"))
	if err != nil {
		return writeError(c, err)
	}
	report, err := h.queries.BatchStatus(c.Context(), c.Params("id"), storeID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toBatchStatus(report))
}

// GetBatch godoc
// @Summary      Detalle de lote
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Lote (UUID)"
// @Success      200  {object}  dto.LotDetailResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/ledger/batches/{id} [get]
func (h *LedgerHandler) GetBatch(c *fiber.Ctx) error {
	d, err := h.scopedLot(c, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.LotDetailResponse{
		BatchResponse:   toBatch(d.Batch),
		MaterialCode:    d.Material.Code,
		MaterialName:    d.Material.Name,
		DaysUntilExpiry: d.DaysUntilExpiry,
	})
}

// scopedLot lote por ID; un usuario de tienda solo ve los de su tienda.
func (h *LedgerHandler) scopedLot(c *fiber.Ctx, id string) (*ledger.LotDetail, error) {
	d, err := h.queries.LotDetail(c.Context(), id)
	if err != nil {
		return nil, err
	}
	if err := scopedStore(c, d.Batch.StoreID); err != nil {
		return nil, err
	}
	return d, nil
}

// GetBatchOutbounds godoc
// @Summary      Despachos que consumieron un lote
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Param        id      path   string  true   "Lote (UUID)"
// @Param        limit   query  int     false  "20 por defecto"
// @Param        offset  query  int     false  "0 por defecto"
// @Success      200  {object}  map[string]interface{}  "page, items ([]dto.AllocationLineResponse)"
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/ledger/batches/{id}/outbounds [get]
func (h *LedgerHandler) GetBatchOutbounds(c *fiber.Ctx) error {
	if _, err := h.scopedLot(c, c.Params("id")); err != nil {
		return writeError(c, err)
	}
	page := dto.PageRequest{Limit: c.QueryInt("limit", 0), Offset: c.QueryInt("offset", 0)}
	page.DefaultPage()
	lines, err := h.queries.BatchOutboundHistory(c.Context(), c.Params("id"), page.Limit, page.Offset)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"page":  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
		"items": toAllocationLines(lines),
	})
}

// RegisterPrice godoc
// @Summary      Registrar precio
// @Description  Agrega una entrada al historial; las anteriores no se cierran.
// @Tags         prices
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterPriceRequest  true  "material_id, type, amount, valid_from, valid_to"
// @Success      201  {object}  dto.PriceResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/ledger/prices [post]
func (h *LedgerHandler) RegisterPrice(c *fiber.Ctx) error {
	var in dto.RegisterPriceRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if failed, err := validationFailed(c, &in); failed {
		return err
	}
	entry, err := h.prices.RegisterPrice(c.Context(), ledger.RegisterPriceInput{
		MaterialID: in.MaterialID,
		Type:       in.Type,
		Amount:     in.Amount,
		ValidFrom:  in.ValidFrom,
		ValidTo:    in.ValidTo,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toPrice(entry))
}

// UpdatePrice godoc
// @Summary      Corregir monto de un precio
// @Tags         prices
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true  "Entrada (UUID)"
// @Param        body  body  dto.UpdatePriceRequest  true  "amount"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/ledger/prices/{id} [patch]
func (h *LedgerHandler) UpdatePrice(c *fiber.Ctx) error {
	var in dto.UpdatePriceRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if failed, err := validationFailed(c, &in); failed {
		return err
	}
	if err := h.prices.UpdateAmount(c.Context(), c.Params("id"), in.Amount); err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "precio actualizado"})
}

// GetMaterialPrices godoc
// @Summary      Precio vigente o historial
// @Description  Con `at` devuelve la entrada vigente en esa fecha; sin `at`, el historial reciente.
// @Tags         prices
// @Security     Bearer
// @Produce      json
// @Param        id     path   string  true   "Material (UUID)"
// @Param        type   query  string  false  "PURCHASE (defecto) o SELLING"
// @Param        at     query  string  false  "RFC3339; 'now' = fecha actual"
// @Param        limit  query  int     false  "Tamaño del historial"
// @Success      200  {object}  dto.PriceResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/ledger/materials/{id}/prices [get]
func (h *LedgerHandler) GetMaterialPrices(c *fiber.Ctx) error {
	materialID := c.Params("id")
	priceType := c.Query("type", entity.PriceTypePurchase)

	if at := c.Query("at"); at != "" {
		ts := time.Now()
		if at != "now" {
			parsed, err := time.Parse(time.RFC3339, at)
			if err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "at debe ser RFC3339"})
			}
			ts = parsed
		}
		entry, err := h.prices.LatestPriceAt(c.Context(), materialID, priceType, ts)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(toPrice(entry))
	}

	history, err := h.prices.History(c.Context(), materialID, priceType, c.QueryInt("limit", 20))
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.PriceResponse, 0, len(history))
	for _, p := range history {
		out = append(out, toPrice(p))
	}
	return c.JSON(fiber.Map{"total": len(out), "prices": out})
}
