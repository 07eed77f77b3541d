package date

import (
	"fmt"
	"strings"
	"time"
)

// Range is a closed interval of days. A zero bound is open.
type Range struct{ From, To Date }

// NewRange returns the period containing d.
func NewRange(d Date, period Period) Range {
	return Range{From: d.StartOf(period), To: d.EndOf(period)}
}

// Contains reports whether day is within the range, boundaries included.
func (r Range) Contains(day Date) bool {
	if !r.From.IsZero() && day.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && day.After(r.To) {
		return false
	}
	return true
}

// IsZero reports whether the range is unbounded on both sides.
func (r Range) IsZero() bool { return r.From.IsZero() && r.To.IsZero() }

// Period returns the standard period matching the range, if any.
func (r Range) Period() (p Period, ok bool) {
	switch {
	case r.From.IsZero() || r.To.IsZero():
		return Daily, false
	case r.From == r.To:
		return Daily, true
	case r.From.Weekday() == time.Monday && r.From.EndOf(Weekly) == r.To:
		return Weekly, true
	case r.From.Day() == 1 && r.From.EndOf(Monthly) == r.To:
		return Monthly, true
	case r.From.StartOf(Quarterly) == r.From && r.From.EndOf(Quarterly) == r.To:
		return Quarterly, true
	case r.From.StartOf(Yearly) == r.From && r.From.EndOf(Yearly) == r.To:
		return Yearly, true
	default:
		return Daily, false
	}
}

// String returns a short label: 2024-03, 2024-Q1, 2024, or from..to.
func (r Range) String() string {
	p, ok := r.Period()
	if !ok {
		return fmt.Sprintf("%s..%s", bound(r.From), bound(r.To))
	}
	switch p {
	case Daily:
		return r.From.String()
	case Weekly:
		y, w := r.From.ISOWeek()
		return fmt.Sprintf("%d-W%02d", y, w)
	case Monthly:
		return r.From.Format("2006-01")
	case Quarterly:
		return fmt.Sprintf("%d-Q%d", r.From.Year(), (r.From.Month()-1)/3+1)
	default:
		return r.From.Format("2006")
	}
}

func bound(d Date) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}

// ParseRange reads "from..to" where either side may be empty.
func ParseRange(s string) (Range, error) {
	from, to, found := strings.Cut(s, "..")
	if !found {
		d, err := Parse(s)
		if err != nil {
			return Range{}, err
		}
		return Range{From: d, To: d}, nil
	}
	var r Range
	var err error
	if strings.TrimSpace(from) != "" {
		if r.From, err = Parse(from); err != nil {
			return Range{}, err
		}
	}
	if strings.TrimSpace(to) != "" {
		if r.To, err = Parse(to); err != nil {
			return Range{}, err
		}
	}
	if !r.From.IsZero() && !r.To.IsZero() && r.To.Before(r.From) {
		return Range{}, fmt.Errorf("invalid range %q: %s is before %s", s, r.To, r.From)
	}
	return r, nil
}
