package report

import (
	"context"
	"sort"

	"github.com/ledgerpipe/beancount/ast"
)

// reconcileHandler buffers every posting dated on or before its cutoff,
// forwarding later postings unbuffered; on Flush it searches the buffered
// set for the smallest subset of postings (ties broken by latest date
// first) whose amounts sum to target, and forwards exactly that subset —
// in its original buffered (journal) order, not sorted order — matching
// spec §8's literal reconcile scenario ({+10, +20, -5} -> 25 USD forwarded
// in journal order) and the Open Question decision recorded in the
// expanded spec (prefer fewer postings, then prefer the combination
// weighted toward more recent dates).
type reconcileHandler struct {
	next   PostHandler
	rpt    *Report
	target Value
	cutoff ast.Date

	buf     []*Posting
	flushed bool
}

func newReconcileHandler(next PostHandler, rpt *Report, target Value, cutoff ast.Date) *reconcileHandler {
	return &reconcileHandler{next: next, rpt: rpt, target: target, cutoff: cutoff}
}

func (h *reconcileHandler) Accept(ctx context.Context, p *Posting) error {
	d := h.rpt.EffectiveDate(p)
	if d.After(h.cutoff.Time) {
		return h.next.Accept(ctx, p)
	}
	h.buf = append(h.buf, p)
	return nil
}

func (h *reconcileHandler) Flush(ctx context.Context) error {
	if h.flushed {
		return nil
	}
	h.flushed = true
	subset, err := h.selectSubset()
	if err != nil {
		return err
	}
	chosen := make(map[*Posting]bool, len(subset))
	for _, p := range subset {
		chosen[p] = true
	}
	for _, p := range h.buf {
		if chosen[p] {
			if err := h.next.Accept(ctx, p); err != nil {
				return err
			}
		}
	}
	return h.next.Flush(ctx)
}

// selectSubset searches for the smallest-cardinality subset of h.buf
// summing to h.target, preferring (among equal-cardinality subsets) the
// one weighted toward more recent dates — implemented by sorting
// candidates by date descending before the search, so a depth-first
// smallest-k-first search finds a later-dated combination first whenever
// multiple same-size combinations exist.
func (h *reconcileHandler) selectSubset() ([]*Posting, error) {
	if h.target.IsZero() && len(h.buf) == 0 {
		return nil, nil
	}
	candidates := append([]*Posting(nil), h.buf...)
	sort.SliceStable(candidates, func(i, j int) bool {
		return h.rpt.EffectiveDate(candidates[i]).After(h.rpt.EffectiveDate(candidates[j]).Time)
	})

	var found []*Posting
	for k := 0; k <= len(candidates) && found == nil; k++ {
		found = h.combo(candidates, k, 0, nil, Zero())
	}
	if found == nil {
		return nil, &ReconciliationFailure{Target: h.target, Cutoff: h.cutoff}
	}
	return found, nil
}

// combo performs a bounded recursive search for a size-k subset of
// candidates[start:] summing to h.target, given the running sum of
// postings already chosen.
func (h *reconcileHandler) combo(candidates []*Posting, k, start int, chosen []*Posting, sum Value) []*Posting {
	if len(chosen) == k {
		if sum.Equal(h.target) {
			return append([]*Posting(nil), chosen...)
		}
		return nil
	}
	remaining := k - len(chosen)
	for i := start; i <= len(candidates)-remaining; i++ {
		p := candidates[i]
		next := append(chosen, p)
		if found := h.combo(candidates, k, i+1, next, sum.Add(h.rpt.EffectiveAmount(p))); found != nil {
			return found
		}
	}
	return nil
}
