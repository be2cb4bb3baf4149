package report

import (
	"github.com/ledgerpipe/beancount/ast"
	"github.com/ledgerpipe/beancount/ledger"
)

// PostingState is a posting's cleared/pending/uncleared status, derived
// from its own flag or, if absent, its entry's flag (spec §3).
type PostingState int

const (
	StateUncleared PostingState = iota
	StateCleared
	StatePending
)

// Entry is a dated transaction with postings that must sum to zero per
// commodity (spec §3), wrapping the parser's *ast.Transaction by reference.
// Synthetic entries emitted by accumulators carry a nil source and need not
// be attached to the journal.
type Entry struct {
	source *ast.Transaction

	Date      ast.Date
	EffDate   *ast.Date // optional effective-date override
	Code      string
	Payee     string
	Narration string
	Flag      string
	Postings  []*Posting
	Synthetic bool
}

// EffectiveDate returns EffDate if set, else Date.
func (e *Entry) EffectiveDate() ast.Date {
	if e.EffDate != nil {
		return *e.EffDate
	}
	return e.Date
}

// Source returns the originating *ast.Transaction, or nil for a synthetic entry.
func (e *Entry) Source() *ast.Transaction {
	return e.source
}

// Posting is one account-side of an Entry (spec §3), wrapping the parser's
// *ast.Posting by reference. Entry and Account are weak back-references —
// plain field reads, not owning pointers (spec §9) — since Entry owns its
// Postings and AccountTree owns its nodes.
type Posting struct {
	source *ast.Posting
	entry  *Entry
	account *Account

	Amount Value
	Cost   Value
	State  PostingState
}

// Entry returns the owning entry (weak back-reference).
func (p *Posting) Entry() *Entry { return p.entry }

// Account returns the posting's account node (weak reference into the tree).
func (p *Posting) Account() *Account { return p.account }

// Source returns the originating *ast.Posting, or nil for a synthetic posting.
func (p *Posting) Source() *ast.Posting { return p.source }

// NewEntryFromTransaction converts a parsed *ast.Transaction into a report
// Entry, interning each posting's account into tree and parsing amounts via
// ledger.ParseAmount. Mirrors ledger.applyTransaction's iteration over
// txn.Postings as one unit per entry (ledger/ledger.go).
func NewEntryFromTransaction(txn *ast.Transaction, tree *AccountTree) (*Entry, error) {
	e := &Entry{
		source:    txn,
		Date:      *txn.Date,
		Payee:     txn.Payee,
		Narration: txn.Narration,
		Flag:      txn.Flag,
	}
	for _, ap := range txn.Postings {
		amt, err := postingValue(ap)
		if err != nil {
			return nil, err
		}
		p := &Posting{
			source:  ap,
			entry:   e,
			account: tree.Intern(ap.Account),
			Amount:  amt,
			State:   stateFromFlag(effectiveFlag(ap.Flag, txn.Flag)),
		}
		if ap.Cost != nil && ap.Cost.Amount != nil {
			costAmt, err := ledger.ParseAmount(ap.Cost.Amount)
			if err != nil {
				return nil, err
			}
			p.Cost = NewAmount(ap.Cost.Amount.Currency, costAmt)
		}
		e.Postings = append(e.Postings, p)
	}
	return e, nil
}

func postingValue(p *ast.Posting) (Value, error) {
	if p.Amount == nil {
		return Zero(), nil
	}
	d, err := ledger.ParseAmount(p.Amount)
	if err != nil {
		return Value{}, err
	}
	return NewAmount(p.Amount.Currency, d), nil
}

func effectiveFlag(postingFlag, entryFlag string) string {
	if postingFlag != "" {
		return postingFlag
	}
	return entryFlag
}

func stateFromFlag(flag string) PostingState {
	switch flag {
	case "*":
		return StateCleared
	case "!":
		return StatePending
	default:
		return StateUncleared
	}
}

// XData is the pipeline's mutable scratch slot for one posting (spec §3,
// §9): running total snapshot, date override, sort key, synthetic flag,
// payee override, effective-amount override, the per-entry "related"
// match guard, and remembered components for component expansion. It is
// never attached to the Posting itself — Report owns a side table keyed by
// *Posting identity instead, so the journal stays read-only.
type XData struct {
	Running      Value
	DateOverride *ast.Date
	SortKey      Value
	Synthetic    bool
	Payee        string
	Amount       *Value
	Matched      bool
	Components   []*Posting
}

// AccountXData is the per-account mutable aggregate used by the account
// aggregation pass (spec §3, §4.5).
type AccountXData struct {
	Total     Value
	Subtotal  Value
	Displayed bool
	Matched   bool
}

// Report owns the side tables backing every posting's and account's xdata
// for the lifetime of one report run, keyed by pointer identity (spec §9's
// redesign note: "prefer a side table... owned by the report, cleared at
// report end").
type Report struct {
	postingData map[*Posting]*XData
	accountData map[*Account]*AccountXData
}

// NewReport creates an empty Report.
func NewReport() *Report {
	return &Report{
		postingData: make(map[*Posting]*XData),
		accountData: make(map[*Account]*AccountXData),
	}
}

// XData returns p's scratch slot, allocating one on first access.
func (r *Report) XData(p *Posting) *XData {
	x, ok := r.postingData[p]
	if !ok {
		x = &XData{}
		r.postingData[p] = x
	}
	return x
}

// AccountXData returns a's scratch slot, allocating one on first access.
func (r *Report) AccountXData(a *Account) *AccountXData {
	x, ok := r.accountData[a]
	if !ok {
		x = &AccountXData{}
		r.accountData[a] = x
	}
	return x
}

// Clear releases all posting and account xdata (spec §5's verification/
// cleanup phase). Safe to call multiple times.
func (r *Report) Clear() {
	r.postingData = make(map[*Posting]*XData)
	r.accountData = make(map[*Account]*AccountXData)
}

// EffectiveAmount returns p's amount, overridden by any xdata mutation
// (e.g. invert).
func (r *Report) EffectiveAmount(p *Posting) Value {
	x := r.XData(p)
	if x.Amount != nil {
		return *x.Amount
	}
	return p.Amount
}

// EffectivePayee returns p's payee, overridden by set_comm_as_payee /
// set_code_as_payee.
func (r *Report) EffectivePayee(p *Posting) string {
	x := r.XData(p)
	if x.Payee != "" {
		return x.Payee
	}
	return p.Entry().Payee
}

// EffectiveDate returns p's effective date: an xdata override if set, else
// its entry's effective date (spec's glossary entry for "Effective date").
func (r *Report) EffectiveDate(p *Posting) ast.Date {
	x := r.XData(p)
	if x.DateOverride != nil {
		return *x.DateOverride
	}
	return p.Entry().EffectiveDate()
}
