package report

import (
	"context"
	"strings"

	"golang.org/x/exp/slices"
)

// setAccountValueHandler is phase 1's sentinel terminal handler (spec
// §4.5): for each posting it receives, it adds the posting's effective
// amount to its account's xdata total and forwards nothing further — it is
// always the tail of the chain built for the account-aggregation pass.
type setAccountValueHandler struct {
	rpt *Report
}

func newSetAccountValueHandler(rpt *Report) *setAccountValueHandler {
	return &setAccountValueHandler{rpt: rpt}
}

func (h *setAccountValueHandler) Accept(ctx context.Context, p *Posting) error {
	x := h.rpt.AccountXData(p.Account())
	x.Total = x.Total.Add(h.rpt.EffectiveAmount(p))
	return nil
}

func (h *setAccountValueHandler) Flush(ctx context.Context) error { return nil }

// AggregateAccounts runs the three-phase account aggregation pass (spec
// §4.5):
//
//  1. drive every posting through a chain built with setAccountValueHandler
//     as tail, using a reduced Config that keeps only the options defining
//     the pass's scope (predicate/related/invert/payee-override) — every
//     per-period accumulator (calc, sort, subtotal, interval, dow,
//     by_payee, reconcile, changed_value, component expansion, collapse,
//     truncate) is bypassed, since phase 1 only needs each posting's final
//     effective amount and account.
//  2. walk the account tree post-order, summing each non-leaf account's
//     own direct total with its children's already-computed totals —
//     grounded in the teacher's ledger.go buildTypeSubtree/aggregate
//     closure (merge child balances into the parent, children first).
//  3. drive handler over the tree, in natural (tree) order or, if
//     sortByName is true, in FullName order, then flush once.
func AggregateAccounts(ctx context.Context, cfg *Config, rpt *Report, tree *AccountTree, entries []*Entry, handler AccountHandler, sortByName bool) error {
	scoped := &Config{
		Predicate:      cfg.Predicate,
		ShowInverted:   cfg.ShowInverted,
		ShowRelated:    cfg.ShowRelated,
		ShowAllRelated: cfg.ShowAllRelated,
		CommAsPayee:    cfg.CommAsPayee,
		CodeAsPayee:    cfg.CodeAsPayee,
	}

	tail := newSetAccountValueHandler(rpt)
	chain, err := BuildChain(ctx, scoped, rpt, tree, tail)
	if err != nil {
		return err
	}
	if err := SessionPostings(ctx, entries, chain); err != nil {
		return err
	}

	// Phase 2: bottom-up subtotal merge.
	tree.WalkPostOrder(func(a *Account) {
		x := rpt.AccountXData(a)
		x.Subtotal = x.Total
		for _, c := range a.Children() {
			cx := rpt.AccountXData(c)
			x.Total = x.Total.Add(cx.Total)
		}
	})

	// Phase 3: drive the caller's handler over the tree.
	var nodes []*Account
	tree.Walk(func(a *Account) { nodes = append(nodes, a) })
	if sortByName {
		ordered := append([]*Account(nil), nodes...)
		slices.SortStableFunc(ordered, func(a, b *Account) int { return strings.Compare(a.FullName, b.FullName) })
		nodes = ordered
	}

	for _, a := range nodes {
		if err := handler.AcceptAccount(ctx, a); err != nil {
			return err
		}
	}
	return handler.Flush(ctx)
}
