// Package report implements the transaction pipeline: a configurable chain
// of handlers that filters, reorders, and summarizes a journal's postings
// before handing them to a caller-supplied terminal renderer, plus a
// separate three-phase pass that aggregates totals per account.
//
// The pipeline is strictly synchronous and single-threaded (no channels,
// no goroutines): Run drives every posting of every entry through
// one BuildChain-assembled PostHandler, in order, then flushes it exactly
// once. Handlers communicate only through the Report's XData/AccountXData
// side tables — the journal itself (the *ast.Transaction/*ast.Posting
// values wrapped by Entry/Posting) is never mutated.
package report

import (
	"context"

	"github.com/ledgerpipe/beancount/telemetry"
)

// Run builds the canonical handler chain for cfg and drives every posting
// of entries through it, flushing exactly once at the end. It opens its
// own "report.Run" telemetry segment before calling BuildChain, so chain
// construction is timed inside it, matching
// the teacher's practice of timing both chain construction and chain
// execution separately (ledger.Process / web.Server.Start).
func Run(ctx context.Context, cfg *Config, rpt *Report, tree *AccountTree, entries []*Entry, tail PostHandler) error {
	timer := telemetry.FromContext(ctx).Start("report.Run")
	defer timer.End()

	chain, err := BuildChain(ctx, cfg, rpt, tree, tail)
	if err != nil {
		return err
	}
	return SessionPostings(ctx, entries, chain)
}
