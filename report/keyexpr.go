package report

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// KeyFunc extracts a sortable/groupable Value from a posting (spec §4.3's
// sort and subtotal handlers both key off one of these).
type KeyFunc func(ctx context.Context, p *Posting) (Value, error)

// EntryKeyFunc extracts a sortable Value from an entry (spec's
// sort-entries variant, which must keep an entry's postings contiguous).
type EntryKeyFunc func(ctx context.Context, e *Entry) (Value, error)

// ParsePredicate's sibling for sort/group keys: supports "amount", "date",
// "account", "payee". Account and payee keys repurpose Value's commodity
// slot to carry a string for lexicographic Compare ordering — a documented
// simplification rather than adding a second comparable type to Value.
func ParseKeyExpr(expr string) (KeyFunc, error) {
	switch expr {
	case "amount":
		return func(ctx context.Context, p *Posting) (Value, error) {
			return p.Amount, nil
		}, nil
	case "date":
		return func(ctx context.Context, p *Posting) (Value, error) {
			return dateKey(p.Entry().EffectiveDate().Unix()), nil
		}, nil
	case "account":
		return func(ctx context.Context, p *Posting) (Value, error) {
			return rawAmount(p.Account().FullName, decimal.Zero), nil
		}, nil
	case "payee":
		return func(ctx context.Context, p *Posting) (Value, error) {
			return rawAmount(p.Entry().Payee, decimal.Zero), nil
		}, nil
	default:
		return nil, fmt.Errorf("unknown key expression %q", expr)
	}
}

// ParseEntryKeyExpr is ParseKeyExpr's entry-level counterpart, used by the
// entry-preserving sort handler.
func ParseEntryKeyExpr(expr string) (EntryKeyFunc, error) {
	switch expr {
	case "date":
		return func(ctx context.Context, e *Entry) (Value, error) {
			return dateKey(e.EffectiveDate().Unix()), nil
		}, nil
	case "payee":
		return func(ctx context.Context, e *Entry) (Value, error) {
			return rawAmount(e.Payee, decimal.Zero), nil
		}, nil
	default:
		return nil, fmt.Errorf("unknown entry key expression %q", expr)
	}
}

// dateKey encodes a unix timestamp as a zero-commodity Value quantity so
// Compare orders dates numerically.
func dateKey(unix int64) Value {
	return rawAmount("", decimal.NewFromInt(unix))
}
