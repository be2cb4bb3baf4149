package report

import (
	"context"
	"time"

	"github.com/ledgerpipe/beancount/ast"
)

// dowEpoch is a fixed, verified Sunday used as the canonical reference
// date for weekday-bucket subtotal entries — every synthetic posting a
// weekday bucket emits is dated on dowEpoch plus that weekday's offset, so
// entries from many different weeks collapse onto seven canonical dates.
var dowEpoch = time.Date(2006, 1, 1, 0, 0, 0, 0, time.UTC) // a Sunday

// dowHandler groups postings by day-of-week into 7 buckets (spec §4.3's
// day-of-week grouping option), each accumulated with its own
// subtotalHandler and emitted in order starting from firstDay.
type dowHandler struct {
	next     PostHandler
	rpt      *Report
	firstDay time.Weekday
	buckets  [7]*subtotalHandler
}

func newDowHandler(next PostHandler, rpt *Report, firstDay time.Weekday) *dowHandler {
	h := &dowHandler{next: next, rpt: rpt, firstDay: firstDay}
	for i := range h.buckets {
		h.buckets[i] = newSubtotalHandler(nopPostHandler{}, rpt)
	}
	return h
}

func (h *dowHandler) Accept(ctx context.Context, p *Posting) error {
	d := h.rpt.EffectiveDate(p)
	return h.buckets[int(d.Weekday())].Accept(ctx, p)
}

func (h *dowHandler) Flush(ctx context.Context) error {
	for i := 0; i < 7; i++ {
		day := (int(h.firstDay) + i) % 7
		bucketDate := ast.Date{Time: dowEpoch.AddDate(0, 0, day)}
		bucket := h.buckets[day]
		bucket.forceDate = &bucketDate
		if err := bucket.flushInto(ctx, h.next); err != nil {
			return err
		}
	}
	return h.next.Flush(ctx)
}
