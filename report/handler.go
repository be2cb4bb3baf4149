package report

import "context"

// PostHandler is one link in the transaction pipeline (spec §4.1). Accept
// is called once per posting, in chain order; Flush is called exactly once
// after the last posting has been driven through, even when an earlier
// Accept or Flush in the chain returned an error (spec §7's propagation
// policy — every handler still gets a chance to release buffered state).
// Grounded in the teacher's ledger/handlers.go Handler interface shape
// (Validate/Apply two-method split), adapted to an accept/flush pipeline
// contract per spec §4.1 rather than a single-pass validator.
type PostHandler interface {
	Accept(ctx context.Context, p *Posting) error
	Flush(ctx context.Context) error
}

// AccountHandler is the account-aggregation pass's per-node callback (spec
// §4.5), driven once per account in the account tree after totals have been
// computed, then flushed once at the end.
type AccountHandler interface {
	AcceptAccount(ctx context.Context, a *Account) error
	Flush(ctx context.Context) error
}

// PostHandlerFunc adapts a plain accept function to a PostHandler with a
// no-op Flush, for terminal renderers that need no buffering.
type PostHandlerFunc func(ctx context.Context, p *Posting) error

func (f PostHandlerFunc) Accept(ctx context.Context, p *Posting) error { return f(ctx, p) }
func (f PostHandlerFunc) Flush(ctx context.Context) error              { return nil }

// AccountHandlerFunc adapts a plain accept function to an AccountHandler
// with a no-op Flush.
type AccountHandlerFunc func(ctx context.Context, a *Account) error

func (f AccountHandlerFunc) AcceptAccount(ctx context.Context, a *Account) error { return f(ctx, a) }
func (f AccountHandlerFunc) Flush(ctx context.Context) error                     { return nil }
