package report

import (
	"context"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/ledgerpipe/beancount/ast"
)

// mustTxn builds an *ast.Transaction using the teacher's ast builders,
// failing the test on a bad date string.
func mustTxn(t *testing.T, date, payee string, postings ...*ast.Posting) *ast.Transaction {
	t.Helper()
	d, err := ast.NewDate(date)
	assert.NoError(t, err)
	return ast.NewTransaction(d, "", ast.WithPayee(payee), ast.WithPostings(postings...))
}

// entriesFrom converts a list of *ast.Transaction into []*Entry against a
// fresh AccountTree, the same way a caller driving the report package
// would after loading a journal.
func entriesFrom(t *testing.T, tree *AccountTree, txns ...*ast.Transaction) []*Entry {
	t.Helper()
	var out []*Entry
	for _, txn := range txns {
		e, err := NewEntryFromTransaction(txn, tree)
		assert.NoError(t, err)
		out = append(out, e)
	}
	return out
}

// recordingHandler is a terminal PostHandler that remembers every posting
// it accepted, in order, and counts Flush calls — used to assert a
// handler's output and to test idempotent-flush (spec §8).
type recordingHandler struct {
	accepted   []*Posting
	flushCount int
}

func (h *recordingHandler) Accept(ctx context.Context, p *Posting) error {
	h.accepted = append(h.accepted, p)
	return nil
}

func (h *recordingHandler) Flush(ctx context.Context) error {
	h.flushCount++
	return nil
}
