package cli

import (
	"context"
	"fmt"

	"github.com/alecthomas/kong"

	"github.com/ledgerpipe/beancount/ast"
	"github.com/ledgerpipe/beancount/loader"
	"github.com/ledgerpipe/beancount/report"
	"github.com/ledgerpipe/beancount/telemetry"
)

// ReportCmd drives the transaction pipeline over a beancount file and prints
// either a posting-level register or a per-account total, mirroring the
// option table a report.Config is built from (spec §6).
type ReportCmd struct {
	File FileOrStdin `help:"Beancount input filename (use '-' for stdin, or omit for stdin)." arg:"" optional:""`

	Predicate          string `help:"Primary predicate filtering which postings appear in the output."`
	DisplayPredicate   string `help:"Predicate applied after calc: postings it drops are hidden from the output but still counted in the running total."`
	SecondaryPredicate string `help:"Predicate applied after sort and before reconcile."`

	Sort      string `help:"Key expression (amount, date, account, payee) to sort postings by."`
	EntrySort bool   `help:"Sort whole entries (keeping postings of one transaction contiguous) instead of individual postings."`

	HeadEntries int `help:"Keep only the first N entries."`
	TailEntries int `help:"Keep only the last N entries."`

	ReconcileBalance string `help:"Target balance (e.g. \"1250.00 USD\") to reconcile against."`
	ReconcileDate    string `help:"Cutoff date (YYYY-MM-DD) for reconcile; defaults to now."`

	ShowCollapsed bool `help:"Collapse each entry's postings into one synthetic posting per commodity."`
	ShowSubtotal  bool `help:"Summarize postings into one synthetic posting per account/commodity pair."`

	DaysOfTheWeek bool `help:"Summarize postings into buckets keyed by day of week."`
	ByPayee       bool `help:"Summarize postings into buckets keyed by payee."`
	FirstWeekday  int  `help:"Weekday (0=Sunday) days_of_the_week buckets should start from." default:"0"`

	Period string `help:"Interval to bucket postings into (daily, weekly, monthly, quarterly, yearly, or \"every N <unit> [from DATE]\")."`

	Inverted bool `help:"Invert every posting's effective amount."`

	Related    bool `help:"Replace a matched posting with the other postings of its entry."`
	AllRelated bool `help:"Like --related, but also emits the matched posting itself, so every posting of the entry appears."`

	CommAsPayee bool `help:"Override every posting's payee with its amount's commodity."`
	CodeAsPayee bool `help:"Override every posting's payee with its entry's transaction code."`

	ByAccount bool `help:"Aggregate totals per account instead of listing postings (spec §4.5's account pass)."`
	SortNames bool `help:"When --by-account is set, sort accounts by full name instead of tree order."`
}

func (cmd *ReportCmd) Run(ctx *kong.Context, globals *Globals) error {
	if err := cmd.File.EnsureContents(); err != nil {
		return err
	}

	runCtx := context.Background()

	var collector telemetry.Collector
	if globals.Telemetry {
		collector = telemetry.NewTimingCollector()
		runCtx = telemetry.WithCollector(runCtx, collector)

		defer func() {
			_, _ = fmt.Fprintln(ctx.Stderr)
			collector.Report(ctx.Stderr)
		}()
	}

	sourceContent, err := cmd.File.GetSourceContent()
	if err != nil {
		return fmt.Errorf("failed to read file for error context: %w", err)
	}

	ldr := loader.New(loader.WithFollowIncludes())
	tree, err := cmd.File.LoadAST(runCtx, ldr)
	if err != nil {
		renderer := NewErrorRenderer(sourceContent)
		formatted := renderer.Render(err)
		_, _ = fmt.Fprintln(ctx.Stderr, formatted)
		_, _ = fmt.Fprintln(ctx.Stderr)
		printError(ctx.Stderr, "parse error")
		return NewCommandError(1)
	}

	cfg, err := cmd.config()
	if err != nil {
		printError(ctx.Stderr, err.Error())
		return NewCommandError(1)
	}

	acctTree := report.NewAccountTree()
	var entries []*report.Entry
	for _, d := range tree.Directives {
		txn, ok := d.(*ast.Transaction)
		if !ok {
			continue
		}
		e, err := report.NewEntryFromTransaction(txn, acctTree)
		if err != nil {
			printError(ctx.Stderr, err.Error())
			return NewCommandError(1)
		}
		entries = append(entries, e)
	}

	rpt := report.NewReport()

	if cmd.ByAccount {
		var rows []accountRow
		handler := report.AccountHandlerFunc(func(ctx context.Context, a *report.Account) error {
			xd := rpt.AccountXData(a)
			if !xd.Total.IsZero() {
				rows = append(rows, accountRow{name: a.FullName, total: xd.Total.String()})
			}
			return nil
		})
		if err := report.AggregateAccounts(runCtx, cfg, rpt, acctTree, entries, handler, cmd.SortNames); err != nil {
			printError(ctx.Stderr, err.Error())
			return NewCommandError(1)
		}
		for _, r := range rows {
			_, _ = fmt.Fprintf(ctx.Stdout, "%-40s %s\n", r.name, r.total)
		}
		return nil
	}

	var rows []postingRow
	recorder := report.PostHandlerFunc(func(ctx context.Context, p *report.Posting) error {
		rows = append(rows, postingRow{
			date:    rpt.EffectiveDate(p).Format("2006-01-02"),
			payee:   rpt.EffectivePayee(p),
			account: p.Account().FullName,
			amount:  rpt.EffectiveAmount(p).String(),
		})
		return nil
	})

	if err := report.Run(runCtx, cfg, rpt, acctTree, entries, recorder); err != nil {
		printError(ctx.Stderr, err.Error())
		return NewCommandError(1)
	}

	for _, r := range rows {
		_, _ = fmt.Fprintf(ctx.Stdout, "%s  %-30s %-40s %s\n", r.date, r.payee, r.account, r.amount)
	}

	return nil
}

type accountRow struct {
	name  string
	total string
}

type postingRow struct {
	date    string
	payee   string
	account string
	amount  string
}

// config translates the command's flat kong flags into a *report.Config,
// the same option-table shape ConfigFromLedgerOptions reads from a
// beancount "option" directive map.
func (cmd *ReportCmd) config() (*report.Config, error) {
	cfg := report.NewConfig()
	cfg.Predicate = cmd.Predicate
	cfg.DisplayPredicate = cmd.DisplayPredicate
	cfg.SecondaryPredicate = cmd.SecondaryPredicate
	cfg.SortExpr = cmd.Sort
	cfg.EntrySort = cmd.EntrySort
	cfg.HeadEntries = cmd.HeadEntries
	cfg.TailEntries = cmd.TailEntries
	cfg.ReconcileBalance = cmd.ReconcileBalance
	cfg.ShowCollapsed = cmd.ShowCollapsed
	cfg.ShowSubtotal = cmd.ShowSubtotal
	cfg.DaysOfTheWeek = cmd.DaysOfTheWeek
	cfg.ByPayee = cmd.ByPayee
	cfg.FirstWeekday = cmd.FirstWeekday
	cfg.ReportPeriod = cmd.Period
	cfg.ShowInverted = cmd.Inverted
	cfg.ShowRelated = cmd.Related
	cfg.ShowAllRelated = cmd.AllRelated
	cfg.CommAsPayee = cmd.CommAsPayee
	cfg.CodeAsPayee = cmd.CodeAsPayee

	if cmd.ReconcileDate != "" {
		d, err := ast.NewDate(cmd.ReconcileDate)
		if err != nil {
			return nil, fmt.Errorf("invalid --reconcile-date: %w", err)
		}
		cfg.ReconcileDate = d
	}

	return cfg, nil
}
