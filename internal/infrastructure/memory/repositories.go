package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

type materialRepo struct{ base }

func (r *materialRepo) Create(_ context.Context, m *entity.Material) error {
	return r.do("materials.Create", func(d *state) error {
		if _, ok := d.materials[m.ID]; ok {
			return domain.ErrDuplicate
		}
		for _, o := range d.materials {
			if o.Code == m.Code {
				return domain.ErrDuplicate
			}
		}
		d.materials[m.ID] = *m
		return nil
	})
}

func (r *materialRepo) GetByID(_ context.Context, id string) (*entity.Material, error) {
	var out *entity.Material
	err := r.do("materials.GetByID", func(d *state) error {
		if m, ok := d.materials[id]; ok {
			out = &m
		}
		return nil
	})
	return out, err
}

type levelRepo struct{ base }

func (r *levelRepo) Get(_ context.Context, key entity.OwnerKey) (*entity.StockLevel, error) {
	var out *entity.StockLevel
	err := r.do("levels.Get", func(d *state) error {
		if id, ok := d.levelByKey[key]; ok {
			lv := d.levels[id]
			out = &lv
			return nil
		}
		out = &entity.StockLevel{Key: key, Quantity: decimal.Zero, Status: entity.StockStatusShortage}
		return nil
	})
	return out, err
}

func (r *levelRepo) GetByID(_ context.Context, id string) (*entity.StockLevel, error) {
	var out *entity.StockLevel
	err := r.do("levels.GetByID", func(d *state) error {
		if lv, ok := d.levels[id]; ok {
			out = &lv
		}
		return nil
	})
	return out, err
}

func (r *levelRepo) LockOrCreate(_ context.Context, key entity.OwnerKey, optimal *decimal.Decimal) (*entity.StockLevel, error) {
	var out *entity.StockLevel
	err := r.do("levels.LockOrCreate", func(d *state) error {
		id, ok := d.levelByKey[key]
		if !ok {
			id = uuid.Must(uuid.NewV7()).String()
			d.levels[id] = entity.StockLevel{
				ID:              id,
				Key:             key,
				Quantity:        decimal.Zero,
				OptimalQuantity: optimal,
				Status:          entity.StockStatusShortage,
				UpdatedAt:       time.Now(),
			}
			d.levelByKey[key] = id
		}
		lv := d.levels[id]
		out = &lv
		return nil
	})
	return out, err
}

func (r *levelRepo) LockByID(_ context.Context, id string) (*entity.StockLevel, error) {
	var out *entity.StockLevel
	err := r.do("levels.LockByID", func(d *state) error {
		lv, ok := d.levels[id]
		if !ok {
			return domain.ErrNotFound
		}
		out = &lv
		return nil
	})
	return out, err
}

func (r *levelRepo) Save(_ context.Context, level *entity.StockLevel) error {
	return r.do("levels.Save", func(d *state) error {
		if _, ok := d.levels[level.ID]; !ok {
			return domain.ErrNotFound
		}
		if level.Quantity.IsNegative() {
			return domain.ErrInsufficientStock
		}
		d.levels[level.ID] = *level
		return nil
	})
}

func (r *levelRepo) ListByStatus(_ context.Context, statuses []string, storeID *string, limit, offset int) ([]*entity.StockLevel, error) {
	var out []*entity.StockLevel
	err := r.do("levels.ListByStatus", func(d *state) error {
		want := make(map[string]bool, len(statuses))
		for _, s := range statuses {
			want[s] = true
		}
		var all []entity.StockLevel
		for _, lv := range d.levels {
			if !want[lv.Status] || (storeID != nil && lv.Key.StoreID != *storeID) {
				continue
			}
			all = append(all, lv)
		}
		sort.Slice(all, func(i, j int) bool { return all[i].Key.Less(all[j].Key) })
		for i := offset; i < len(all) && len(out) < limit; i++ {
			lv := all[i]
			out = append(out, &lv)
		}
		return nil
	})
	return out, err
}

type batchRepo struct{ base }

func (r *batchRepo) Create(_ context.Context, b *entity.Batch) error {
	return r.do("batches.Create", func(d *state) error {
		for _, o := range d.batches {
			if o.LotNo == b.LotNo {
				return domain.ErrDuplicate
			}
		}
		d.batches[b.ID] = *b
		return nil
	})
}

func (r *batchRepo) ExistsLotNo(_ context.Context, lotNo string) (bool, error) {
	var found bool
	err := r.do("batches.ExistsLotNo", func(d *state) error {
		for _, o := range d.batches {
			if o.LotNo == lotNo {
				found = true
				break
			}
		}
		return nil
	})
	return found, err
}

func (r *batchRepo) GetByID(_ context.Context, id string) (*entity.Batch, error) {
	var out *entity.Batch
	err := r.do("batches.GetByID", func(d *state) error {
		if b, ok := d.batches[id]; ok {
			out = &b
		}
		return nil
	})
	return out, err
}

func (r *batchRepo) ListFIFOCandidates(_ context.Context, key entity.OwnerKey, _ bool) ([]entity.Batch, error) {
	var out []entity.Batch
	err := r.do("batches.ListFIFOCandidates", func(d *state) error {
		out = sortedBatches(d, key, true)
		return nil
	})
	return out, err
}

func (r *batchRepo) ListByKey(_ context.Context, key entity.OwnerKey) ([]entity.Batch, error) {
	var out []entity.Batch
	err := r.do("batches.ListByKey", func(d *state) error {
		out = sortedBatches(d, key, false)
		return nil
	})
	return out, err
}

func (r *batchRepo) Decrement(_ context.Context, batchID string, amount decimal.Decimal) error {
	return r.do("batches.Decrement", func(d *state) error {
		b, ok := d.batches[batchID]
		if !ok || amount.GreaterThan(b.RemainingQuantity) {
			return domain.ErrBatchUnderflow
		}
		b.RemainingQuantity = b.RemainingQuantity.Sub(amount)
		d.batches[batchID] = b
		return nil
	})
}

func (r *batchRepo) SumRemaining(_ context.Context, key entity.OwnerKey) (decimal.Decimal, error) {
	sum := decimal.Zero
	err := r.do("batches.SumRemaining", func(d *state) error {
		for _, b := range d.batches {
			if b.Key() == key {
				sum = sum.Add(b.RemainingQuantity)
			}
		}
		return nil
	})
	return sum, err
}

func sortedBatches(d *state, key entity.OwnerKey, onlyRemaining bool) []entity.Batch {
	var out []entity.Batch
	for _, b := range d.batches {
		if b.Key() != key || (onlyRemaining && !b.RemainingQuantity.IsPositive()) {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return entity.FIFOLess(&out[i], &out[j]) })
	return out
}

type inboundRepo struct{ base }

func (r *inboundRepo) Create(_ context.Context, rec *entity.InboundRecord) error {
	return r.do("inbounds.Create", func(d *state) error {
		for _, o := range d.inbounds {
			if o.LotNo == rec.LotNo {
				return domain.ErrDuplicate
			}
		}
		d.inbounds[rec.ID] = *rec
		return nil
	})
}

func (r *inboundRepo) GetByID(_ context.Context, id string) (*entity.InboundRecord, error) {
	var out *entity.InboundRecord
	err := r.do("inbounds.GetByID", func(d *state) error {
		if rec, ok := d.inbounds[id]; ok {
			out = &rec
		}
		return nil
	})
	return out, err
}

func (r *inboundRepo) ExistsLotNo(_ context.Context, lotNo string) (bool, error) {
	var found bool
	err := r.do("inbounds.ExistsLotNo", func(d *state) error {
		for _, o := range d.inbounds {
			if o.LotNo == lotNo {
				found = true
				break
			}
		}
		return nil
	})
	return found, err
}

type outboundRepo struct{ base }

func (r *outboundRepo) Create(_ context.Context, rec *entity.OutboundRecord) error {
	return r.do("outbounds.Create", func(d *state) error {
		d.outbounds[rec.ID] = *rec
		return nil
	})
}

func (r *outboundRepo) CreateLine(_ context.Context, line *entity.AllocationLine) error {
	return r.do("outbounds.CreateLine", func(d *state) error {
		d.lines = append(d.lines, *line)
		return nil
	})
}

func (r *outboundRepo) GetByID(_ context.Context, id string) (*entity.OutboundRecord, error) {
	var out *entity.OutboundRecord
	err := r.do("outbounds.GetByID", func(d *state) error {
		if rec, ok := d.outbounds[id]; ok {
			out = &rec
		}
		return nil
	})
	return out, err
}

func (r *outboundRepo) ListLines(_ context.Context, outboundID string) ([]entity.AllocationLineView, error) {
	var out []entity.AllocationLineView
	err := r.do("outbounds.ListLines", func(d *state) error {
		for _, l := range d.lines {
			if l.OutboundID == outboundID {
				out = append(out, view(d, l))
			}
		}
		return nil
	})
	return out, err
}

func (r *outboundRepo) ListLinesByBatch(_ context.Context, batchID string, limit, offset int) ([]entity.AllocationLineView, error) {
	var out []entity.AllocationLineView
	err := r.do("outbounds.ListLinesByBatch", func(d *state) error {
		var all []entity.AllocationLineView
		for _, l := range d.lines {
			if l.BatchID == batchID {
				all = append(all, view(d, l))
			}
		}
		sort.SliceStable(all, func(i, j int) bool {
			if !all[i].OutAt.Equal(all[j].OutAt) {
				return all[i].OutAt.After(all[j].OutAt)
			}
			return all[i].OutboundID > all[j].OutboundID
		})
		for i := offset; i < len(all) && len(out) < limit; i++ {
			out = append(out, all[i])
		}
		return nil
	})
	return out, err
}

func (r *outboundRepo) LastUnitPrice(_ context.Context, materialID string) (*decimal.Decimal, error) {
	var out *decimal.Decimal
	err := r.do("outbounds.LastUnitPrice", func(d *state) error {
		var last *entity.OutboundRecord
		for _, rec := range d.outbounds {
			if rec.MaterialID != materialID || rec.Status != entity.OutboundStatusConfirmed {
				continue
			}
			if last == nil || rec.OutAt.After(last.OutAt) || (rec.OutAt.Equal(last.OutAt) && rec.ID > last.ID) {
				last = &rec
			}
		}
		if last != nil {
			p := last.UnitPrice
			out = &p
		}
		return nil
	})
	return out, err
}

func view(d *state, l entity.AllocationLine) entity.AllocationLineView {
	v := entity.AllocationLineView{AllocationLine: l}
	if b, ok := d.batches[l.BatchID]; ok {
		v.LotNo = b.LotNo
		v.BatchRemaining = b.RemainingQuantity
	}
	if o, ok := d.outbounds[l.OutboundID]; ok {
		v.OutAt = o.OutAt
		v.StoreID = o.StoreID
	}
	return v
}

type adjustmentRepo struct{ base }

func (r *adjustmentRepo) Create(_ context.Context, rec *entity.AdjustmentRecord) error {
	return r.do("adjustments.Create", func(d *state) error {
		d.adjustments[rec.ID] = *rec
		return nil
	})
}

func (r *adjustmentRepo) GetByID(_ context.Context, id string) (*entity.AdjustmentRecord, error) {
	var out *entity.AdjustmentRecord
	err := r.do("adjustments.GetByID", func(d *state) error {
		if rec, ok := d.adjustments[id]; ok {
			out = &rec
		}
		return nil
	})
	return out, err
}

type priceRepo struct{ base }

func (r *priceRepo) Create(_ context.Context, p *entity.PriceEntry) error {
	return r.do("prices.Create", func(d *state) error {
		d.prices[p.ID] = *p
		return nil
	})
}

func (r *priceRepo) GetByID(_ context.Context, id string) (*entity.PriceEntry, error) {
	var out *entity.PriceEntry
	err := r.do("prices.GetByID", func(d *state) error {
		if p, ok := d.prices[id]; ok {
			out = &p
		}
		return nil
	})
	return out, err
}

func (r *priceRepo) UpdateAmount(_ context.Context, id string, amount decimal.Decimal) error {
	return r.do("prices.UpdateAmount", func(d *state) error {
		p, ok := d.prices[id]
		if !ok {
			return domain.ErrNotFound
		}
		p.Amount = amount
		d.prices[id] = p
		return nil
	})
}

func (r *priceRepo) LatestAt(_ context.Context, materialID, priceType string, ts time.Time) (*entity.PriceEntry, error) {
	var out *entity.PriceEntry
	err := r.do("prices.LatestAt", func(d *state) error {
		for _, p := range d.prices {
			if p.MaterialID != materialID || p.Type != priceType || !p.Contains(ts) {
				continue
			}
			if out == nil || p.NewerThan(out) {
				out = &p
			}
		}
		return nil
	})
	return out, err
}

func (r *priceRepo) History(_ context.Context, materialID, priceType string, limit int) ([]*entity.PriceEntry, error) {
	var out []*entity.PriceEntry
	err := r.do("prices.History", func(d *state) error {
		var all []entity.PriceEntry
		for _, p := range d.prices {
			if p.MaterialID == materialID && p.Type == priceType {
				all = append(all, p)
			}
		}
		sort.Slice(all, func(i, j int) bool { return all[i].NewerThan(&all[j]) })
		for i := 0; i < len(all) && i < limit; i++ {
			p := all[i]
			out = append(out, &p)
		}
		return nil
	})
	return out, err
}
