package report

import (
	"strings"

	"github.com/ledgerpipe/beancount/ledger"
	"github.com/shopspring/decimal"
)

// AmountPair is one commodity's quantity within a Value, returned by
// Value.Amounts in canonical order.
type AmountPair struct {
	Commodity string
	Quantity  decimal.Decimal
}

// Value is an immutable, possibly multi-commodity signed quantity: either
// null, a single Amount, or a balance mapping commodity to quantity (spec
// §3). It wraps a copy-on-write *ledger.Balance — every mutator (Add, Sub,
// Neg) returns a new Value rather than mutating this one, adapting the
// teacher's mutable Balance to the immutability the pipeline requires.
type Value struct {
	bal *ledger.Balance
}

// Zero returns the null Value.
func Zero() Value {
	return Value{}
}

// NewAmount constructs a single-commodity Value. An empty commodity ("")
// is permitted for untyped numbers (spec §3).
func NewAmount(commodity string, quantity decimal.Decimal) Value {
	b := ledger.NewBalance()
	b.Set(commodity, quantity)
	return normalize(b)
}

// normalize drops zero-amount entries so every null Value compares equal
// regardless of how it was constructed.
func normalize(b *ledger.Balance) Value {
	pruned := ledger.NewBalance()
	for _, e := range b.Entries() {
		if !e.Amount.IsZero() {
			pruned.Set(e.Currency, e.Amount)
		}
	}
	if len(pruned.Entries()) == 0 {
		return Value{}
	}
	return Value{bal: pruned}
}

// rawAmount builds a single-entry Value without normalize's zero-pruning,
// for callers (ParseKeyExpr's account/payee keys) that stash a string in
// the commodity slot and need a stable, comparable Value even when the
// paired quantity is zero.
func rawAmount(commodity string, quantity decimal.Decimal) Value {
	b := ledger.NewBalance()
	b.Set(commodity, quantity)
	return Value{bal: b}
}

func (v Value) clone() *ledger.Balance {
	if v.bal == nil {
		return ledger.NewBalance()
	}
	return v.bal.Copy()
}

// Add returns v + other. Addition within one commodity stays single-
// commodity; addition across commodities yields a multi-commodity balance.
func (v Value) Add(other Value) Value {
	if other.bal == nil {
		return v
	}
	b := v.clone()
	b.Merge(other.bal)
	return normalize(b)
}

// Sub returns v - other.
func (v Value) Sub(other Value) Value {
	return v.Add(other.Neg())
}

// Neg returns -v, defined pointwise per commodity.
func (v Value) Neg() Value {
	if v.bal == nil {
		return v
	}
	b := ledger.NewBalance()
	for _, e := range v.bal.Entries() {
		b.Set(e.Currency, e.Amount.Neg())
	}
	return normalize(b)
}

// IsZero reports whether v is null or every commodity amount is zero.
func (v Value) IsZero() bool {
	return v.bal == nil || v.bal.IsZero()
}

// Equal reports whether v and other hold the same amount in every commodity.
func (v Value) Equal(other Value) bool {
	return v.Sub(other).IsZero()
}

// Commodity returns the single commodity symbol held by v, or "" if v is
// null or holds more than one commodity (a true multi-commodity balance).
func (v Value) Commodity() string {
	if v.bal == nil {
		return ""
	}
	entries := v.bal.Entries()
	if len(entries) != 1 {
		return ""
	}
	return entries[0].Currency
}

// Amounts decomposes v into its per-commodity quantities, currency-ordered
// (which coincides with insertion order for the single-amount case).
func (v Value) Amounts() []AmountPair {
	if v.bal == nil {
		return nil
	}
	entries := v.bal.Entries()
	out := make([]AmountPair, len(entries))
	for i, e := range entries {
		out[i] = AmountPair{Commodity: e.Currency, Quantity: e.Amount}
	}
	return out
}

// String renders v for diagnostics (error messages, test failures).
func (v Value) String() string {
	amts := v.Amounts()
	if len(amts) == 0 {
		return "0"
	}
	parts := make([]string, len(amts))
	for i, a := range amts {
		if a.Commodity == "" {
			parts[i] = a.Quantity.String()
		} else {
			parts[i] = a.Quantity.String() + " " + a.Commodity
		}
	}
	return strings.Join(parts, ", ")
}

// Compare orders two Values for the sort handler: per-commodity
// lexicographic on commodity name then quantity, with the null value (no
// entries) sorting before any named commodity.
func Compare(a, b Value) int {
	ae, be := a.Amounts(), b.Amounts()
	for i := 0; ; i++ {
		switch {
		case i >= len(ae) && i >= len(be):
			return 0
		case i >= len(ae):
			return -1
		case i >= len(be):
			return 1
		}
		if ae[i].Commodity != be[i].Commodity {
			if ae[i].Commodity < be[i].Commodity {
				return -1
			}
			return 1
		}
		if c := ae[i].Quantity.Cmp(be[i].Quantity); c != 0 {
			return c
		}
	}
}
