package report

import "context"

// componentXactsHandler expands a synthetic posting that matches expr back
// into the original postings it was built from (spec §4.3's
// component-transactions option, the inverse of subtotal/collapse: "drill
// back down" from a summary line to the real entries behind it). Postings
// without remembered components pass through unchanged.
type componentXactsHandler struct {
	next PostHandler
	rpt  *Report
	pred Predicate
}

func newComponentXactsHandler(next PostHandler, rpt *Report, pred Predicate) *componentXactsHandler {
	return &componentXactsHandler{next: next, rpt: rpt, pred: pred}
}

func (h *componentXactsHandler) Accept(ctx context.Context, p *Posting) error {
	components := h.rpt.XData(p).Components
	if len(components) == 0 {
		return h.next.Accept(ctx, p)
	}
	ok := true
	var err error
	if h.pred != nil {
		ok, err = h.pred(ctx, p)
		if err != nil {
			return &EvaluationError{Posting: p, Err: err}
		}
	}
	if !ok {
		return h.next.Accept(ctx, p)
	}
	for _, c := range components {
		if err := h.next.Accept(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

func (h *componentXactsHandler) Flush(ctx context.Context) error { return h.next.Flush(ctx) }
