package report

import "context"

// byPayeeHandler groups postings by effective payee into per-payee
// subtotal buckets, emitted in first-seen payee order (spec §4.3, §8's
// by-payee scenario: payee X sums to +13 USD, then payee Y to +7 USD).
type byPayeeHandler struct {
	next  PostHandler
	rpt   *Report
	order []string
	buckets map[string]*subtotalHandler
}

func newByPayeeHandler(next PostHandler, rpt *Report) *byPayeeHandler {
	return &byPayeeHandler{next: next, rpt: rpt, buckets: make(map[string]*subtotalHandler)}
}

func (h *byPayeeHandler) Accept(ctx context.Context, p *Posting) error {
	payee := h.rpt.EffectivePayee(p)
	b, ok := h.buckets[payee]
	if !ok {
		b = newSubtotalHandler(nopPostHandler{}, h.rpt)
		h.buckets[payee] = b
		h.order = append(h.order, payee)
	}
	return b.Accept(ctx, p)
}

func (h *byPayeeHandler) Flush(ctx context.Context) error {
	for _, payee := range h.order {
		if err := h.buckets[payee].flushInto(ctx, h.next); err != nil {
			return err
		}
	}
	return h.next.Flush(ctx)
}
