package ast

import "strings"

// AccountType identifies which of the five root categories an account
// belongs to (Assets, Liabilities, Equity, Income, Expenses).
type AccountType int

const (
	AccountTypeAssets AccountType = iota
	AccountTypeLiabilities
	AccountTypeEquity
	AccountTypeIncome
	AccountTypeExpenses
)

func (t AccountType) String() string {
	switch t {
	case AccountTypeAssets:
		return "Assets"
	case AccountTypeLiabilities:
		return "Liabilities"
	case AccountTypeEquity:
		return "Equity"
	case AccountTypeIncome:
		return "Income"
	case AccountTypeExpenses:
		return "Expenses"
	default:
		panic("ast: invalid AccountType")
	}
}

// Type returns the root category of this account, derived from its first
// colon-separated segment. Panics if the account has no segments or an
// unrecognized root, matching Account.Capture's own validation.
func (a Account) Type() AccountType {
	root, _, ok := strings.Cut(string(a), ":")
	if !ok {
		panic("ast: account has no root segment: " + string(a))
	}
	switch root {
	case "Assets":
		return AccountTypeAssets
	case "Liabilities":
		return AccountTypeLiabilities
	case "Equity":
		return AccountTypeEquity
	case "Income":
		return AccountTypeIncome
	case "Expenses":
		return AccountTypeExpenses
	default:
		panic("ast: unrecognized account type: " + root)
	}
}
