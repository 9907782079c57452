package domain

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// DateLayout is the YYYY-MM-DD form used by NASA query parameters.
const DateLayout = "2006-01-02"

const (
	// MaxNEORangeDays is the widest span the NeoWs feed accepts.
	MaxNEORangeDays = 7
	// DefaultCMERangeDays is the look-back used when no CME range is given.
	DefaultCMERangeDays = 30
)

// DateRange is an inclusive pair of calendar days.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// StartDate formats the start as YYYY-MM-DD.
func (r DateRange) StartDate() string { return r.Start.Format(DateLayout) }

// EndDate formats the end as YYYY-MM-DD.
func (r DateRange) EndDate() string { return r.End.Format(DateLayout) }

// Days returns the number of whole days between start and end.
func (r DateRange) Days() int {
	return int(r.End.Sub(r.Start).Hours() / 24)
}

// MarshalJSON renders the range as {"start_date","end_date"}.
func (r DateRange) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Start string `json:"start_date"`
		End   string `json:"end_date"`
	}{r.StartDate(), r.EndDate()})
}

// RangeQuery carries caller-supplied dates before parsing.
type RangeQuery struct {
	Start string `validate:"omitempty,datetime=2006-01-02"`
	End   string `validate:"omitempty,datetime=2006-01-02"`
}

// NEORange validates a NeoWs query. Both dates empty selects the last seven
// days ending today; otherwise both are required, end must not precede start
// and the span may not exceed seven days.
func NEORange(q RangeQuery) (DateRange, error) {
	if q.Start == "" && q.End == "" {
		today := truncateDay(Now())
		return DateRange{Start: today.AddDate(0, 0, -MaxNEORangeDays), End: today}, nil
	}
	r, err := parseRange(q)
	if err != nil {
		return DateRange{}, err
	}
	if r.Days() > MaxNEORangeDays {
		return DateRange{}, invalidf("date range exceeds %d days", MaxNEORangeDays)
	}
	return r, nil
}

// CMERange validates a DONKI CME query. Both dates empty selects the last
// thirty days ending today.
func CMERange(q RangeQuery) (DateRange, error) {
	if q.Start == "" && q.End == "" {
		today := truncateDay(Now())
		return DateRange{Start: today.AddDate(0, 0, -DefaultCMERangeDays), End: today}, nil
	}
	return parseRange(q)
}

func parseRange(q RangeQuery) (DateRange, error) {
	if err := Validate(q); err != nil {
		return DateRange{}, err
	}
	if q.Start == "" || q.End == "" {
		return DateRange{}, invalidf("both start and end dates are required")
	}
	start, err := time.Parse(DateLayout, q.Start)
	if err != nil {
		return DateRange{}, invalidf("start date %q: %v", q.Start, err)
	}
	end, err := time.Parse(DateLayout, q.End)
	if err != nil {
		return DateRange{}, invalidf("end date %q: %v", q.End, err)
	}
	if end.Before(start) {
		return DateRange{}, invalidf("end date %s is before start date %s", q.End, q.Start)
	}
	return DateRange{Start: start, End: end}, nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// String renders the range as "start..end".
func (r DateRange) String() string {
	return fmt.Sprintf("%s..%s", r.StartDate(), r.EndDate())
}
