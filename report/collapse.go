package report

import "context"

// collapsedAccountPlaceholder names the synthetic account collapse emits
// postings against, standing in for every account it folded together.
const collapsedAccountPlaceholder = "<Total>"

// collapseHandler buffers postings per current entry and, at each entry
// boundary (and at Flush), emits one synthetic posting per commodity whose
// account is collapsedAccountPlaceholder, carrying the sum of everything
// buffered for that entry (spec §4.3's collapse option: fold an entry's
// postings into per-commodity totals against a single placeholder
// account).
type collapseHandler struct {
	next PostHandler
	rpt  *Report
	tree *AccountTree

	cur     *Entry
	buf     []*Posting
	placehd *Account
}

func newCollapseHandler(next PostHandler, rpt *Report, tree *AccountTree) *collapseHandler {
	return &collapseHandler{next: next, rpt: rpt, tree: tree, placehd: tree.Intern(collapsedAccountPlaceholder)}
}

func (h *collapseHandler) Accept(ctx context.Context, p *Posting) error {
	if h.cur != nil && p.Entry() != h.cur {
		if err := h.emit(ctx); err != nil {
			return err
		}
	}
	h.cur = p.Entry()
	h.buf = append(h.buf, p)
	return nil
}

func (h *collapseHandler) emit(ctx context.Context) error {
	if len(h.buf) == 0 {
		return nil
	}
	sums := make(map[string]Value)
	var order []string
	for _, p := range h.buf {
		amt := h.rpt.EffectiveAmount(p)
		for _, a := range amt.Amounts() {
			if _, ok := sums[a.Commodity]; !ok {
				order = append(order, a.Commodity)
			}
			sums[a.Commodity] = sums[a.Commodity].Add(NewAmount(a.Commodity, a.Quantity))
		}
	}
	header := h.buf[0].Entry()
	synthEntry := cloneEntryHeader(header)
	for _, c := range order {
		sp := &Posting{
			entry:   synthEntry,
			account: h.placehd,
			Amount:  sums[c],
		}
		synthEntry.Postings = append(synthEntry.Postings, sp)
		if err := h.next.Accept(ctx, sp); err != nil {
			return err
		}
	}
	h.buf = nil
	h.cur = nil
	return nil
}

func (h *collapseHandler) Flush(ctx context.Context) error {
	if err := h.emit(ctx); err != nil {
		return err
	}
	return h.next.Flush(ctx)
}

// cloneEntryHeader builds a synthetic Entry sharing src's date/payee/
// narration/code but no postings and no AST source, marked Synthetic (spec
// §3's synthetic-entry convention used by every accumulating handler that
// emits summarized postings).
func cloneEntryHeader(src *Entry) *Entry {
	return &Entry{
		Date:      src.Date,
		EffDate:   src.EffDate,
		Code:      src.Code,
		Payee:     src.Payee,
		Narration: src.Narration,
		Flag:      src.Flag,
		Synthetic: true,
	}
}
