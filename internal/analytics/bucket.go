// Package analytics turns timestamped monetary records into the aggregated
// series the dashboard charts render (daily / weekly / monthly / yearly).
package analytics

import (
	"fmt"
	"sort"
	"time"
)

// Record is one timestamped amount (a sales report total, a rating, ...).
type Record struct {
	Date   time.Time
	Amount float64
}

// Bucket is one aggregated point in a chart series.
type Bucket struct {
	Label  string  `json:"label"`
	Amount float64 `json:"amount"`
}

// Series holds the four parallel granularities.
type Series struct {
	Daily   []Bucket `json:"daily"`
	Weekly  []Bucket `json:"weekly"`
	Monthly []Bucket `json:"monthly"`
	Yearly  []Bucket `json:"yearly"`
}

// Label formatting determines bucket identity: two records land in the same
// bucket iff their formatted labels are equal. Week labels use the ISO week
// number and are not year-qualified, so week 1 of two different years shares
// a bucket when the data spans years. Kept as-is; see DESIGN.md.

func dayLabel(t time.Time) string { return t.Format("Jan 2") }

func weekLabel(t time.Time) string {
	_, week := t.ISOWeek()
	return fmt.Sprintf("Week %d", week)
}

func monthLabel(t time.Time) string { return t.Format("Jan 2006") }

func yearLabel(t time.Time) string { return t.Format("2006") }

// bucketBy sums amounts per label and returns the buckets sorted
// lexicographically by label.
func bucketBy(records []Record, label func(time.Time) string) []Bucket {
	sums := make(map[string]float64)
	for _, r := range records {
		sums[label(r.Date)] += r.Amount
	}

	buckets := make([]Bucket, 0, len(sums))
	for l, amount := range sums {
		buckets = append(buckets, Bucket{Label: l, Amount: amount})
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Label < buckets[j].Label })
	return buckets
}

// BucketDaily groups records by calendar day.
func BucketDaily(records []Record) []Bucket { return bucketBy(records, dayLabel) }

// BucketWeekly groups records by ISO week number.
func BucketWeekly(records []Record) []Bucket { return bucketBy(records, weekLabel) }

// BucketMonthly groups records by month.
func BucketMonthly(records []Record) []Bucket { return bucketBy(records, monthLabel) }

// BucketYearly groups records by year.
func BucketYearly(records []Record) []Bucket { return bucketBy(records, yearLabel) }

// BucketAll produces all four granularities in one pass over the input.
// Empty input yields four empty (non-nil) slices.
func BucketAll(records []Record) Series {
	return Series{
		Daily:   BucketDaily(records),
		Weekly:  BucketWeekly(records),
		Monthly: BucketMonthly(records),
		Yearly:  BucketYearly(records),
	}
}
