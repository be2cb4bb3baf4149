package report

import "time"

// PriceSource resolves a commodity's unit price on a given date (spec
// §4.3's changed_value handler). Returns ok=false if no price is known for
// that commodity on that date.
type PriceSource func(commodity string, date time.Time) (Value, bool)
