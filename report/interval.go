package report

import (
	"context"
	"time"
)

// intervalHandler groups postings into Period buckets, emitting one
// synthetic subtotal posting per (bucket, account, commodity) triple that
// received a nonzero posting, in chronological bucket order, skipping
// buckets with no activity (spec §4.3's interval option, composed with
// subtotal per the chain-builder's note that interval wraps an inner
// subtotal per bucket).
type intervalHandler struct {
	next   PostHandler
	rpt    *Report
	period Period

	bucketIndex map[time.Time]int
	buckets     []bucketState
}

type bucketState struct {
	bucket Bucket
	sub    *subtotalHandler
}

func newIntervalHandler(next PostHandler, rpt *Report, period Period) *intervalHandler {
	return &intervalHandler{next: next, rpt: rpt, period: period, bucketIndex: make(map[time.Time]int)}
}

func (h *intervalHandler) Accept(ctx context.Context, p *Posting) error {
	d := h.rpt.EffectiveDate(p)
	b := h.period.BucketOf(d.Time)
	idx, ok := h.bucketIndex[b.Start]
	if !ok {
		idx = len(h.buckets)
		h.bucketIndex[b.Start] = idx
		h.buckets = append(h.buckets, bucketState{bucket: b, sub: newSubtotalHandler(nopPostHandler{}, h.rpt)})
	}
	return h.buckets[idx].sub.Accept(ctx, p)
}

func (h *intervalHandler) Flush(ctx context.Context) error {
	ordered := append([]bucketState(nil), h.buckets...)
	sortBucketStates(ordered)
	for _, bs := range ordered {
		if len(bs.sub.order) == 0 {
			continue
		}
		if err := bs.sub.flushInto(ctx, h.next); err != nil {
			return err
		}
	}
	return h.next.Flush(ctx)
}

func sortBucketStates(states []bucketState) {
	for i := 1; i < len(states); i++ {
		for j := i; j > 0 && states[j].bucket.Start.Before(states[j-1].bucket.Start); j-- {
			states[j], states[j-1] = states[j-1], states[j]
		}
	}
}

// nopPostHandler discards every posting; used as a subtotalHandler's
// "next" when the interval handler drives its Flush manually via
// flushInto instead of the normal Accept/Flush chain.
type nopPostHandler struct{}

func (nopPostHandler) Accept(ctx context.Context, p *Posting) error { return nil }
func (nopPostHandler) Flush(ctx context.Context) error              { return nil }
