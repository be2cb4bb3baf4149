package report

import (
	"fmt"

	"github.com/ledgerpipe/beancount/ast"
)

// ConfigurationError reports an invalid or unsupported report option (spec
// §7), styled after the teacher's ledger/errors.go typed-error-with-
// Error()-method convention.
type ConfigurationError struct {
	Option string
	Detail string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid option %q: %s", e.Option, e.Detail)
}

// ReconciliationFailure reports that the reconcile handler could not find a
// subset of buffered postings matching Target by Cutoff (spec §7, §4.3).
type ReconciliationFailure struct {
	Target Value
	Cutoff ast.Date
}

func (e *ReconciliationFailure) Error() string {
	return fmt.Sprintf("no combination of postings on or before %s sums to %s", e.Cutoff.Format("2006-01-02"), e.Target)
}

// EvaluationError reports a predicate or key-expression that failed at
// runtime against a specific posting (spec §7): a malformed regex, a
// division by zero, an unknown field reference.
type EvaluationError struct {
	Expr    string
	Posting *Posting
	Err     error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluating %q: %s", e.Expr, e.Err)
}

func (e *EvaluationError) Unwrap() error { return e.Err }

// InvariantViolation reports a pipeline bug: a handler emitted a posting
// that breaks one of spec §8's invariants (e.g. an entry whose postings no
// longer sum to zero). Distinct from ReconciliationFailure and
// EvaluationError in that it indicates a defect in the pipeline itself, not
// bad input or configuration.
type InvariantViolation struct {
	Detail string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("invariant violated: %s", e.Detail)
}
