package report

import (
	"context"
	"strings"

	"github.com/ledgerpipe/beancount/ast"
	"golang.org/x/exp/slices"
)

// subtotalHandler sums postings per (account, commodity) pair and emits
// one synthetic posting per pair that received at least one nonzero
// posting (spec §4.3, §8's subtotal scenario: Assets +15 USD, Expenses -15
// USD). Accept skips zero-amount postings outright so they never touch a
// pair's running sum; Flush does NOT additionally filter on the final sum
// being zero, since offsetting nonzero postings (+10 then -10 against the
// same account/commodity) legitimately net to zero and spec §4.3 still
// calls for a synthetic posting summarizing that pair.
type subtotalHandler struct {
	next     PostHandler
	rpt      *Report
	remember bool

	order      []subtotalKey
	sums       map[subtotalKey]Value
	entry      map[subtotalKey]*Entry
	components map[subtotalKey][]*Posting
	flushed    bool

	// forceDate, when non-nil, overrides the synthesized entry's date on
	// flush instead of inheriting it from the key's source entry — used by
	// dowHandler to collapse every weekday bucket's postings onto one
	// canonical date without touching the source Entry it was built from.
	forceDate *ast.Date
}

type subtotalKey struct {
	account   *Account
	commodity string
}

func newSubtotalHandler(next PostHandler, rpt *Report) *subtotalHandler {
	return &subtotalHandler{
		next:       next,
		rpt:        rpt,
		sums:       make(map[subtotalKey]Value),
		entry:      make(map[subtotalKey]*Entry),
		components: make(map[subtotalKey][]*Posting),
	}
}

// newRememberingSubtotalHandler is newSubtotalHandler with component
// tracking turned on, used when the chain builder's descend_expr option
// requires drilling a summary posting back down to its sources (spec
// §4.3's component_xacts handler).
func newRememberingSubtotalHandler(next PostHandler, rpt *Report) *subtotalHandler {
	h := newSubtotalHandler(next, rpt)
	h.remember = true
	return h
}

func (h *subtotalHandler) Accept(ctx context.Context, p *Posting) error {
	amt := h.rpt.EffectiveAmount(p)
	for _, a := range amt.Amounts() {
		if a.Quantity.IsZero() {
			continue
		}
		key := subtotalKey{account: p.Account(), commodity: a.Commodity}
		if _, ok := h.sums[key]; !ok {
			h.order = append(h.order, key)
			h.entry[key] = p.Entry()
		}
		h.sums[key] = h.sums[key].Add(NewAmount(a.Commodity, a.Quantity))
		if h.remember {
			h.components[key] = append(h.components[key], p)
		}
	}
	return nil
}

func (h *subtotalHandler) Flush(ctx context.Context) error {
	if err := h.flushInto(ctx, h.next); err != nil {
		return err
	}
	return h.next.Flush(ctx)
}

// flushInto emits the accumulated subtotal postings to an explicit
// downstream handler without also flushing it — used by intervalHandler,
// which manages its own bucket ordering and a single terminal Flush call.
// A second call is a no-op (spec §8's idempotent-flush invariant).
func (h *subtotalHandler) flushInto(ctx context.Context, next PostHandler) error {
	if h.flushed {
		return nil
	}
	h.flushed = true
	// Emit accounts in depth-first tree order (spec §4.3); comparing FullName
	// with each ':' mapped to "\x00" orders paths component by component, a
	// parent before its children, which matches AccountTree.Walk's
	// preorder-with-name-sorted-children traversal. The sort is stable so,
	// within one account, commodities stay in their first-seen insertion order.
	order := append([]subtotalKey(nil), h.order...)
	slices.SortStableFunc(order, func(a, b subtotalKey) int {
		return strings.Compare(strings.ReplaceAll(a.account.FullName, ":", "\x00"), strings.ReplaceAll(b.account.FullName, ":", "\x00"))
	})
	for _, key := range order {
		header := cloneEntryHeader(h.entry[key])
		if h.forceDate != nil {
			header.Date = *h.forceDate
		}
		sp := &Posting{
			entry:   header,
			account: key.account,
			Amount:  h.sums[key],
		}
		header.Postings = append(header.Postings, sp)
		if h.remember {
			h.rpt.XData(sp).Components = h.components[key]
		}
		if err := next.Accept(ctx, sp); err != nil {
			return err
		}
	}
	return nil
}
