package report

import "context"

// calcHandler maintains a running total across all postings it has seen
// and stamps each posting's xdata with a snapshot of the total *after*
// including that posting (spec §4.3, §8's running-total scenario: 10, 0,
// 5, 0 USD in sequence).
type calcHandler struct {
	next    PostHandler
	rpt     *Report
	running Value
}

func newCalcHandler(next PostHandler, rpt *Report) *calcHandler {
	return &calcHandler{next: next, rpt: rpt, running: Zero()}
}

func (h *calcHandler) Accept(ctx context.Context, p *Posting) error {
	h.running = h.running.Add(h.rpt.EffectiveAmount(p))
	h.rpt.XData(p).Running = h.running
	return h.next.Accept(ctx, p)
}

func (h *calcHandler) Flush(ctx context.Context) error { return h.next.Flush(ctx) }
