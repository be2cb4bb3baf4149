package report

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/ledgerpipe/beancount/ast"
	"github.com/ledgerpipe/beancount/telemetry"
	"github.com/shopspring/decimal"
)

// Config holds every chain-builder option from spec §6, parsed from
// strings into the types each handler actually needs. Mirrors
// ledger.Config's defaults-first, map-of-options-driven construction
// (ledger/config.go's NewConfig/configFromOptions).
type Config struct {
	Predicate          string
	DisplayPredicate   string
	SecondaryPredicate string

	SortExpr  string
	EntrySort bool

	HeadEntries int
	TailEntries int

	DescendExpr string

	ReconcileBalance string
	ReconcileDate    *ast.Date

	ShowRevalued     bool
	ShowRevaluedOnly bool

	ShowCollapsed bool
	ShowSubtotal  bool

	DaysOfTheWeek bool
	ByPayee       bool
	FirstWeekday  int

	ReportPeriod string

	ShowInverted bool

	ShowRelated    bool
	ShowAllRelated bool

	CommAsPayee bool
	CodeAsPayee bool

	PriceSource PriceSource
}

// NewConfig returns the zero-value (all-options-disabled) Config, matching
// ledger.NewConfig()'s defaults-first constructor style.
func NewConfig() *Config {
	return &Config{}
}

// ConfigFromLedgerOptions reads spec §6's option table out of the same
// map[string][]string shape ledger.configFromOptions reads Beancount
// "option" directives from, for symmetry between the two layers.
func ConfigFromLedgerOptions(options map[string][]string) (*Config, error) {
	cfg := NewConfig()
	first := func(key string) string {
		if vals := options[key]; len(vals) > 0 {
			return vals[0]
		}
		return ""
	}

	cfg.Predicate = first("predicate")
	cfg.DisplayPredicate = first("display_predicate")
	cfg.SecondaryPredicate = first("secondary_predicate")
	cfg.SortExpr = first("sort_string")
	cfg.EntrySort = first("entry_sort") == "TRUE"
	cfg.DescendExpr = first("descend_expr")
	cfg.ReconcileBalance = first("reconcile_balance")
	cfg.ShowRevalued = first("show_revalued") == "TRUE"
	cfg.ShowRevaluedOnly = first("show_revalued_only") == "TRUE"
	cfg.ShowCollapsed = first("show_collapsed") == "TRUE"
	cfg.ShowSubtotal = first("show_subtotal") == "TRUE"
	cfg.DaysOfTheWeek = first("days_of_the_week") == "TRUE"
	cfg.ByPayee = first("by_payee") == "TRUE"
	cfg.ReportPeriod = first("report_period")
	cfg.ShowInverted = first("show_inverted") == "TRUE"
	cfg.ShowRelated = first("show_related") == "TRUE"
	cfg.ShowAllRelated = first("show_all_related") == "TRUE"
	cfg.CommAsPayee = first("comm_as_payee") == "TRUE"
	cfg.CodeAsPayee = first("code_as_payee") == "TRUE"

	if v := first("head_entries"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, &ConfigurationError{Option: "head_entries", Detail: err.Error()}
		}
		cfg.HeadEntries = n
	}
	if v := first("tail_entries"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, &ConfigurationError{Option: "tail_entries", Detail: err.Error()}
		}
		cfg.TailEntries = n
	}
	if v := first("reconcile_date"); v != "" {
		d, err := time.Parse("2006-01-02", v)
		if err != nil {
			return nil, &ConfigurationError{Option: "reconcile_date", Detail: err.Error()}
		}
		cfg.ReconcileDate = &ast.Date{Time: d}
	}

	return cfg, nil
}

// BuildChain assembles the canonical 16-step handler chain (spec §4.4),
// building from the base (tail) outward: the first step built is closest
// to tail, the last step built becomes the returned, outermost chain
// head — so at runtime postings flow through the steps in the reverse of
// this function's build order (16 -> 1 -> tail). Returns a
// *ConfigurationError before any posting flows if an option is invalid or
// options conflict, matching ledger/config.go's early-validation style.
func BuildChain(ctx context.Context, cfg *Config, rpt *Report, tree *AccountTree, tail PostHandler) (PostHandler, error) {
	if cfg.CommAsPayee && cfg.CodeAsPayee {
		return nil, &ConfigurationError{Option: "comm_as_payee/code_as_payee", Detail: "mutually exclusive"}
	}
	timer := telemetry.FromContext(ctx).Start("report.BuildChain")
	defer timer.End()

	chain := tail

	// 1. truncate-entries
	if cfg.HeadEntries > 0 || cfg.TailEntries > 0 {
		chain = newTruncateHandler(chain, rpt, cfg.HeadEntries, cfg.TailEntries)
	}

	// 2. display-predicate filter
	if cfg.DisplayPredicate != "" {
		pred, err := ParsePredicate(cfg.DisplayPredicate)
		if err != nil {
			return nil, &ConfigurationError{Option: "display_predicate", Detail: err.Error()}
		}
		chain = newFilterHandler(chain, pred)
	}

	// 3. calc
	chain = newCalcHandler(chain, rpt)

	// 4. component expansion — one stage per ';'-separated expression,
	// right-to-left (so the leftmost expression is outermost), each
	// arranging for the subtotal-like accumulator further out to
	// remember its components.
	if cfg.DescendExpr != "" {
		exprs := strings.Split(cfg.DescendExpr, ";")
		for i := len(exprs) - 1; i >= 0; i-- {
			expr := strings.TrimSpace(exprs[i])
			if expr == "" {
				continue
			}
			pred, err := ParsePredicate(expr)
			if err != nil {
				return nil, &ConfigurationError{Option: "descend_expr", Detail: err.Error()}
			}
			chain = newComponentXactsHandler(chain, rpt, pred)
		}
	}

	// 5. reconcile
	if cfg.ReconcileBalance != "" {
		target, cutoff, err := parseReconcileTarget(cfg)
		if err != nil {
			return nil, err
		}
		chain = newReconcileHandler(chain, rpt, target, cutoff)
	}

	// 6. secondary-predicate filter
	if cfg.SecondaryPredicate != "" {
		pred, err := ParsePredicate(cfg.SecondaryPredicate)
		if err != nil {
			return nil, &ConfigurationError{Option: "secondary_predicate", Detail: err.Error()}
		}
		chain = newFilterHandler(chain, pred)
	}

	// 7. sort
	if cfg.SortExpr != "" {
		if cfg.EntrySort {
			key, err := ParseEntryKeyExpr(cfg.SortExpr)
			if err != nil {
				return nil, &ConfigurationError{Option: "sort_string", Detail: err.Error()}
			}
			chain = newSortEntriesHandler(chain, key)
		} else {
			key, err := ParseKeyExpr(cfg.SortExpr)
			if err != nil {
				return nil, &ConfigurationError{Option: "sort_string", Detail: err.Error()}
			}
			chain = newSortHandler(chain, rpt, key)
		}
	}

	// 8. changed-value
	if cfg.ShowRevalued || cfg.ShowRevaluedOnly {
		chain = newChangedValueHandler(chain, rpt, tree, cfg.PriceSource)
	}

	// 9. collapse
	if cfg.ShowCollapsed {
		chain = newCollapseHandler(chain, rpt, tree)
	}

	// 10. subtotal
	if cfg.ShowSubtotal {
		if cfg.DescendExpr != "" {
			chain = newRememberingSubtotalHandler(chain, rpt)
		} else {
			chain = newSubtotalHandler(chain, rpt)
		}
	}

	// 11. dow OR by-payee; dow wins if both set
	switch {
	case cfg.DaysOfTheWeek:
		firstDay := time.Weekday(cfg.FirstWeekday % 7)
		chain = newDowHandler(chain, rpt, firstDay)
	case cfg.ByPayee:
		chain = newByPayeeHandler(chain, rpt)
	}

	// 12. interval, wrapped by an outer date-sort
	if cfg.ReportPeriod != "" {
		period, err := ParsePeriod(cfg.ReportPeriod)
		if err != nil {
			return nil, &ConfigurationError{Option: "report_period", Detail: err.Error()}
		}
		chain = newIntervalHandler(chain, rpt, period)
		dateKeyFn, _ := ParseKeyExpr("date")
		chain = newSortHandler(chain, rpt, dateKeyFn)
	}

	// 13. invert
	if cfg.ShowInverted {
		chain = newInvertHandler(chain, rpt)
	}

	// 14. related-postings
	if cfg.ShowRelated || cfg.ShowAllRelated {
		chain = newRelatedHandler(chain, rpt, cfg.ShowAllRelated)
	}

	// 15. primary predicate filter
	if cfg.Predicate != "" {
		pred, err := ParsePredicate(cfg.Predicate)
		if err != nil {
			return nil, &ConfigurationError{Option: "predicate", Detail: err.Error()}
		}
		chain = newFilterHandler(chain, pred)
	}

	// 16. payee override — mutually exclusive, commodity wins
	switch {
	case cfg.CommAsPayee:
		chain = newSetCommAsPayeeHandler(chain, rpt)
	case cfg.CodeAsPayee:
		chain = newSetCodeAsPayeeHandler(chain, rpt)
	}

	return chain, nil
}

// parseReconcileTarget parses cfg's reconcile_balance ("QUANTITY CURRENCY")
// and reconcile_date (defaulting to the current time per spec §4.4 step 5)
// into the Value/ast.Date pair reconcileHandler needs.
func parseReconcileTarget(cfg *Config) (Value, ast.Date, error) {
	fields := strings.Fields(cfg.ReconcileBalance)
	if len(fields) != 2 {
		return Value{}, ast.Date{}, &ConfigurationError{Option: "reconcile_balance", Detail: "expected \"QUANTITY CURRENCY\""}
	}
	amt, err := decimal.NewFromString(fields[0])
	if err != nil {
		return Value{}, ast.Date{}, &ConfigurationError{Option: "reconcile_balance", Detail: err.Error()}
	}
	target := NewAmount(fields[1], amt)
	cutoff := ast.Date{Time: time.Now()}
	if cfg.ReconcileDate != nil {
		cutoff = *cfg.ReconcileDate
	}
	return target, cutoff, nil
}

