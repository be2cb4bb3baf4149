package report

import "context"

// filterHandler forwards only postings matching its Predicate (spec
// §4.2). A nil Predicate forwards everything.
type filterHandler struct {
	next PostHandler
	pred Predicate
}

func newFilterHandler(next PostHandler, pred Predicate) *filterHandler {
	return &filterHandler{next: next, pred: pred}
}

func (h *filterHandler) Accept(ctx context.Context, p *Posting) error {
	if h.pred == nil {
		return h.next.Accept(ctx, p)
	}
	ok, err := h.pred(ctx, p)
	if err != nil {
		return &EvaluationError{Posting: p, Err: err}
	}
	if !ok {
		return nil
	}
	return h.next.Accept(ctx, p)
}

func (h *filterHandler) Flush(ctx context.Context) error { return h.next.Flush(ctx) }

// invertHandler negates every posting's effective amount before forwarding
// (spec §4.2's show_inverted option).
type invertHandler struct {
	next PostHandler
	rpt  *Report
}

func newInvertHandler(next PostHandler, rpt *Report) *invertHandler {
	return &invertHandler{next: next, rpt: rpt}
}

func (h *invertHandler) Accept(ctx context.Context, p *Posting) error {
	neg := h.rpt.EffectiveAmount(p).Neg()
	h.rpt.XData(p).Amount = &neg
	return h.next.Accept(ctx, p)
}

func (h *invertHandler) Flush(ctx context.Context) error { return h.next.Flush(ctx) }

// relatedHandler expands a matched posting's entry to its sibling postings
// (spec §4.2's show_related / show_all_related options), bypassing the
// primary predicate re-check since — per the canonical chain order (spec
// §4.4) — related sits upstream of the primary filter at build time and so
// only ever *receives* postings that have already passed it. show_related
// (the default, all == false) emits only the *other* postings of the
// entry — the matched posting itself, and any sibling already marked
// matched, are excluded; show_all_related (all == true) emits every
// posting of the entry including the match. Expanded siblings are
// forwarded directly, not re-driven through the filter, matching spec
// §8's related-expansion invariant.
type relatedHandler struct {
	next    PostHandler
	rpt     *Report
	all     bool
	emitted map[*Entry]bool
}

func newRelatedHandler(next PostHandler, rpt *Report, all bool) *relatedHandler {
	return &relatedHandler{next: next, rpt: rpt, all: all, emitted: make(map[*Entry]bool)}
}

func (h *relatedHandler) Accept(ctx context.Context, p *Posting) error {
	h.rpt.XData(p).Matched = true
	e := p.Entry()
	if h.emitted[e] {
		return nil
	}
	h.emitted[e] = true
	for _, sibling := range e.Postings {
		if !h.all && (sibling == p || h.rpt.XData(sibling).Matched) {
			continue
		}
		if err := h.next.Accept(ctx, sibling); err != nil {
			return err
		}
	}
	return nil
}

func (h *relatedHandler) Flush(ctx context.Context) error { return h.next.Flush(ctx) }

// setCommAsPayeeHandler overrides each posting's effective payee with its
// amount's commodity symbol (spec §4.2).
type setCommAsPayeeHandler struct {
	next PostHandler
	rpt  *Report
}

func newSetCommAsPayeeHandler(next PostHandler, rpt *Report) *setCommAsPayeeHandler {
	return &setCommAsPayeeHandler{next: next, rpt: rpt}
}

func (h *setCommAsPayeeHandler) Accept(ctx context.Context, p *Posting) error {
	h.rpt.XData(p).Payee = h.rpt.EffectiveAmount(p).Commodity()
	return h.next.Accept(ctx, p)
}

func (h *setCommAsPayeeHandler) Flush(ctx context.Context) error { return h.next.Flush(ctx) }

// setCodeAsPayeeHandler overrides each posting's effective payee with its
// entry's transaction code (spec §4.2).
type setCodeAsPayeeHandler struct {
	next PostHandler
	rpt  *Report
}

func newSetCodeAsPayeeHandler(next PostHandler, rpt *Report) *setCodeAsPayeeHandler {
	return &setCodeAsPayeeHandler{next: next, rpt: rpt}
}

func (h *setCodeAsPayeeHandler) Accept(ctx context.Context, p *Posting) error {
	h.rpt.XData(p).Payee = p.Entry().Code
	return h.next.Accept(ctx, p)
}

func (h *setCodeAsPayeeHandler) Flush(ctx context.Context) error { return h.next.Flush(ctx) }

// truncateHandler buffers whole entries (keeping each entry's postings
// contiguous) and, on Flush, forwards only the first `head` and the last
// `tail` distinct entries it saw — spec §4.4 step 1, §8's truncate-bounds
// invariant ("emitted entries = min(E, head+tail) when head+tail<E, else
// all E") and scenario 4 (five entries dated 2020-01-01..05,
// head_entries=1 tail_entries=1 => only 2020-01-01 and 2020-01-05). When
// both head and tail are 0 every entry is kept; when only one of them is 0,
// no entries are kept from that side.
type truncateHandler struct {
	next PostHandler
	rpt  *Report
	head int
	tail int

	entries []*Entry
	seen    map[*Entry]bool
	flushed bool
}

func newTruncateHandler(next PostHandler, rpt *Report, head, tail int) *truncateHandler {
	return &truncateHandler{next: next, rpt: rpt, head: head, tail: tail, seen: make(map[*Entry]bool)}
}

func (h *truncateHandler) Accept(ctx context.Context, p *Posting) error {
	e := p.Entry()
	if !h.seen[e] {
		h.seen[e] = true
		h.entries = append(h.entries, e)
	}
	return nil
}

func (h *truncateHandler) Flush(ctx context.Context) error {
	if h.flushed {
		return nil
	}
	h.flushed = true
	kept := h.selectEntries()
	for _, e := range kept {
		if err := EntryPostings(ctx, e, h.next); err != nil {
			return err
		}
	}
	return h.next.Flush(ctx)
}

func (h *truncateHandler) selectEntries() []*Entry {
	n := len(h.entries)
	head, tail := h.head, h.tail
	if head == 0 && tail == 0 {
		return h.entries
	}
	if head+tail >= n {
		return h.entries
	}
	kept := make([]*Entry, 0, head+tail)
	kept = append(kept, h.entries[:head]...)
	kept = append(kept, h.entries[n-tail:]...)
	return kept
}
