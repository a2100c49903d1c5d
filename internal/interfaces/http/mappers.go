package http

import (
	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/ledger"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	dledger "github.com/jhoicas/stock-ledger/internal/domain/ledger"
)

func toPlanLines(lines []dledger.PlanLine) []dto.PlanLineResponse {
	out := make([]dto.PlanLineResponse, 0, len(lines))
	for _, l := range lines {
		out = append(out, dto.PlanLineResponse{
			BatchID:        l.BatchID,
			LotNo:          l.LotNo,
			ExpirationDate: l.ExpirationDate,
			Quantity:       l.Quantity,
		})
	}
	return out
}

func toPlan(p dledger.Plan) dto.PlanResponse {
	return dto.PlanResponse{Requested: p.Requested, Lines: toPlanLines(p.Lines)}
}

func toOutbound(rec *entity.OutboundRecord) dto.OutboundResponse {
	return dto.OutboundResponse{
		ID:         rec.ID,
		MaterialID: rec.MaterialID,
		StoreID:    rec.StoreID,
		Quantity:   rec.Quantity,
		UnitPrice:  rec.UnitPrice,
		StockAfter: rec.StockAfter,
		Status:     rec.Status,
		Memo:       rec.Memo,
		OutAt:      rec.OutAt,
	}
}

func toOutboundResult(res *ledger.OutboundResult) dto.OutboundResponse {
	out := toOutbound(res.Record)
	out.PriceSource = res.PriceSource
	out.Lines = toPlanLines(res.Plan.Lines)
	return out
}

func toAllocationLines(views []entity.AllocationLineView) []dto.AllocationLineResponse {
	out := make([]dto.AllocationLineResponse, 0, len(views))
	for _, v := range views {
		out = append(out, dto.AllocationLineResponse{
			ID:             v.ID,
			OutboundID:     v.OutboundID,
			BatchID:        v.BatchID,
			LotNo:          v.LotNo,
			Quantity:       v.Quantity,
			BatchRemaining: v.BatchRemaining,
			OutAt:          v.OutAt,
			StoreID:        v.StoreID,
		})
	}
	return out
}

func toInbound(res *ledger.InboundResult) dto.InboundResponse {
	r := res.Record
	return dto.InboundResponse{
		ID:             r.ID,
		BatchID:        res.Batch.ID,
		LotNo:          r.LotNo,
		MaterialID:     r.MaterialID,
		StoreID:        r.StoreID,
		Quantity:       r.Quantity,
		UnitPrice:      r.UnitPrice,
		SellingPrice:   r.SellingPrice,
		StockAfter:     r.StockAfter,
		ExpirationDate: res.Batch.ExpirationDate,
		InAt:           r.InAt,
	}
}

func toStockLevel(s *entity.StockLevel) dto.StockLevelResponse {
	return dto.StockLevelResponse{
		ID:              s.ID,
		MaterialID:      s.Key.MaterialID,
		StoreID:         s.Key.StoreID,
		Quantity:        s.Quantity,
		OptimalQuantity: s.OptimalQuantity,
		Status:          s.Status,
		UpdatedAt:       s.UpdatedAt,
	}
}

func toAdjustment(r *entity.AdjustmentRecord) dto.AdjustmentResponse {
	return dto.AdjustmentResponse{
		ID:             r.ID,
		StockLevelID:   r.StockLevelID,
		MaterialID:     r.MaterialID,
		StoreID:        r.StoreID,
		QuantityBefore: r.QuantityBefore,
		QuantityAfter:  r.QuantityAfter,
		Difference:     r.Difference,
		UnitPrice:      r.UnitPrice,
		Reason:         r.Reason,
		Memo:           r.Memo,
		CreatedAt:      r.CreatedAt,
	}
}

func toBatch(b *entity.Batch) dto.BatchResponse {
	return dto.BatchResponse{
		ID:                b.ID,
		LotNo:             b.LotNo,
		MaterialID:        b.MaterialID,
		StoreID:           b.StoreID,
		ReceivedAt:        b.ReceivedAt,
		ExpirationDate:    b.ExpirationDate,
		ReceivedQuantity:  b.ReceivedQuantity,
		RemainingQuantity: b.RemainingQuantity,
		ConsumedQuantity:  b.ConsumedQuantity(),
		UnitPrice:         b.UnitPrice,
	}
}

func toBatchStatus(r *ledger.BatchStatusReport) dto.BatchStatusResponse {
	batches := make([]dto.BatchResponse, 0, len(r.Batches))
	for i := range r.Batches {
		batches = append(batches, toBatch(&r.Batches[i]))
	}
	return dto.BatchStatusResponse{
		MaterialID:      r.Key.MaterialID,
		StoreID:         r.Key.StoreID,
		StockQuantity:   r.StockQuantity,
		BatchRemaining:  r.BatchRemaining,
		InSync:          r.InSync,
		AverageUnitCost: r.AverageUnitCost,
		Batches:         batches,
	}
}

func toPrice(p *entity.PriceEntry) dto.PriceResponse {
	return dto.PriceResponse{
		ID:         p.ID,
		MaterialID: p.MaterialID,
		Type:       p.Type,
		Amount:     p.Amount,
		ValidFrom:  p.ValidFrom,
		ValidTo:    p.ValidTo,
	}
}
