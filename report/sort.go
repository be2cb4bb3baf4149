package report

import (
	"context"

	"golang.org/x/exp/slices"
)

// sortHandler buffers every posting it sees and forwards them in
// non-decreasing KeyFunc order on Flush, using a stable sort so postings
// that compare equal keep their original relative order (spec §4.3).
// golang.org/x/exp/slices.SortStableFunc per the domain stack's sort
// library choice, rather than the standard library's sort.SliceStable.
type sortHandler struct {
	next    PostHandler
	rpt     *Report
	key     KeyFunc
	buf     []*Posting
	flushed bool
}

func newSortHandler(next PostHandler, rpt *Report, key KeyFunc) *sortHandler {
	return &sortHandler{next: next, rpt: rpt, key: key}
}

func (h *sortHandler) Accept(ctx context.Context, p *Posting) error {
	h.buf = append(h.buf, p)
	return nil
}

func (h *sortHandler) Flush(ctx context.Context) error {
	if h.flushed {
		return nil
	}
	h.flushed = true
	keys := make(map[*Posting]Value, len(h.buf))
	var keyErr error
	for _, p := range h.buf {
		v, err := h.key(ctx, p)
		if err != nil && keyErr == nil {
			keyErr = err
		}
		keys[p] = v
	}
	if keyErr != nil {
		return keyErr
	}
	slices.SortStableFunc(h.buf, func(a, b *Posting) int {
		return Compare(keys[a], keys[b])
	})
	for _, p := range h.buf {
		if err := h.next.Accept(ctx, p); err != nil {
			return err
		}
	}
	return h.next.Flush(ctx)
}

// sortEntriesHandler buffers entire entries (keeping their postings
// contiguous) and forwards them in EntryKeyFunc order on Flush (spec
// §4.3's sort-by-entry variant, used to keep whole transactions together
// under date/payee sort rather than splitting a transaction's postings
// across the sorted output).
type sortEntriesHandler struct {
	next    PostHandler
	key     EntryKeyFunc
	entries []*Entry
	seen    map[*Entry]bool
	flushed bool
}

func newSortEntriesHandler(next PostHandler, key EntryKeyFunc) *sortEntriesHandler {
	return &sortEntriesHandler{next: next, key: key, seen: make(map[*Entry]bool)}
}

func (h *sortEntriesHandler) Accept(ctx context.Context, p *Posting) error {
	e := p.Entry()
	if !h.seen[e] {
		h.seen[e] = true
		h.entries = append(h.entries, e)
	}
	return nil
}

func (h *sortEntriesHandler) Flush(ctx context.Context) error {
	if h.flushed {
		return nil
	}
	h.flushed = true
	keys := make(map[*Entry]Value, len(h.entries))
	var keyErr error
	for _, e := range h.entries {
		v, err := h.key(ctx, e)
		if err != nil && keyErr == nil {
			keyErr = err
		}
		keys[e] = v
	}
	if keyErr != nil {
		return keyErr
	}
	slices.SortStableFunc(h.entries, func(a, b *Entry) int {
		return Compare(keys[a], keys[b])
	})
	for _, e := range h.entries {
		if err := EntryPostings(ctx, e, h.next); err != nil {
			return err
		}
	}
	return h.next.Flush(ctx)
}
