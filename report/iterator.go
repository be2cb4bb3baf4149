package report

import "context"

// SessionPostings drives every posting of every entry, in entries' given
// order, through head, aborting immediately on the first Accept error —
// remaining postings are never delivered — then flushes head exactly once
// regardless, per spec §7's propagation policy that every handler gets a
// chance to release buffered state even after an aborted drive.
// Grounded in the teacher's ledger.go drive-then-flush pattern for
// handlerRegistry dispatch, generalized to the report chain's single
// entry-point handler.
func SessionPostings(ctx context.Context, entries []*Entry, head PostHandler) error {
	var firstErr error
loop:
	for _, e := range entries {
		for _, p := range e.Postings {
			if err := head.Accept(ctx, p); err != nil {
				firstErr = err
				break loop
			}
		}
	}
	if err := head.Flush(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// EntryPostings drives one entry's postings through head without flushing
// it — used by handlers that recursively replay a single entry's postings
// through a downstream chain (e.g. the related handler's sibling expansion).
func EntryPostings(ctx context.Context, e *Entry, head PostHandler) error {
	for _, p := range e.Postings {
		if err := head.Accept(ctx, p); err != nil {
			return err
		}
	}
	return nil
}
