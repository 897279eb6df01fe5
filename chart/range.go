package chart

import "time"

// Range is a named time window for querying historical values.
type Range int

const (
	Month Range = iota
	Year
	ThreeYears
	FiveYears
	TenYears
	Max
)

func (r Range) String() string {
	switch r {
	case Month:
		return "1M"
	case Year:
		return "1Y"
	case ThreeYears:
		return "3Y"
	case FiveYears:
		return "5Y"
	case TenYears:
		return "10Y"
	case Max:
		return "MAX"
	}
	return "unknown"
}

// Window is a closed start/end date interval.
type Window struct {
	Start time.Time
	End   time.Time
}

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// WindowFor computes the date window for a named range, ending now. Max is
// capped at twenty years back.
func WindowFor(r Range) Window {
	now := NowTimeFunc()
	switch r {
	case Month:
		return Window{Start: now.AddDate(0, -1, 0), End: now}
	case Year:
		return Window{Start: now.AddDate(-1, 0, 0), End: now}
	case ThreeYears:
		return Window{Start: now.AddDate(-3, 0, 0), End: now}
	case FiveYears:
		return Window{Start: now.AddDate(-5, 0, 0), End: now}
	case TenYears:
		return Window{Start: now.AddDate(-10, 0, 0), End: now}
	case Max:
		return Window{Start: now.AddDate(-20, 0, 0), End: now}
	}
	return Window{Start: now, End: now}
}

// CustomWindow returns an explicit interval unchanged.
func CustomWindow(start, end time.Time) Window {
	return Window{Start: start, End: end}
}

// SkipFactor is the down-sampling stride for a range. Only very long ranges
// are strided, to cap the number of points rendered.
func SkipFactor(r Range) int {
	switch r {
	case TenYears:
		return 3
	case Max:
		return 5
	}
	return 1
}
