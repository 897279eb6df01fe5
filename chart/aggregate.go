// Package chart turns raw historical value series into display-ready chart
// data: date windows for the range selector, merging of multiple securities'
// series onto one date axis, and down-sampling for long ranges.
package chart

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Point is one sample in a historical value series.
type Point struct {
	Date  time.Time
	Value decimal.Decimal
}

// MergeSeries combines several series into one by summing values that fall
// on the same calendar day. The comparison is timezone-naive: only the
// year/month/day components matter. The output axis is the union of all
// input dates, sorted ascending; a series without a point on a given day
// contributes zero there. Inputs are never mutated.
func MergeSeries(series [][]Point) []Point {
	sums := make(map[time.Time]decimal.Decimal)
	for _, s := range series {
		for _, p := range s {
			day := calendarDay(p.Date)
			if existing, ok := sums[day]; ok {
				sums[day] = existing.Add(p.Value)
			} else {
				sums[day] = p.Value
			}
		}
	}

	merged := make([]Point, 0, len(sums))
	for day, value := range sums {
		merged = append(merged, Point{Date: day, Value: value})
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Date.Before(merged[j].Date)
	})
	return merged
}

// Downsample keeps every skip-th point, always retaining the first and last
// so the chart's endpoints stay accurate. A skip of 1 or less returns the
// input unchanged.
func Downsample(points []Point, skip int) []Point {
	if skip <= 1 || len(points) <= 2 {
		return points
	}
	out := make([]Point, 0, len(points)/skip+2)
	for i := 0; i < len(points); i += skip {
		out = append(out, points[i])
	}
	if last := points[len(points)-1]; !out[len(out)-1].Date.Equal(last.Date) {
		out = append(out, last)
	}
	return out
}

// calendarDay normalizes a timestamp to midnight UTC of its calendar date.
func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
