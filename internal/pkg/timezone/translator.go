package timezone

import (
	"errors"
	"fmt"
	"time"
)

// DefaultZone is the plant's local timezone.
const DefaultZone = "America/Chicago"

const dateLayout = "2006-01-02"

var (
	ErrInvalidDate  = errors.New("invalid date, expected YYYY-MM-DD")
	ErrInvalidRange = errors.New("end date is before start date")
)

// DateRange is an inclusive range of local calendar dates.
// Only the year, month and day of Start and End are meaningful.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// SingleDay returns a range covering one local date.
func SingleDay(date time.Time) DateRange {
	return DateRange{Start: date, End: date}
}

func (r DateRange) Validate() error {
	if civil(r.End).Before(civil(r.Start)) {
		return ErrInvalidRange
	}
	return nil
}

func (r DateRange) String() string {
	return r.Start.Format(dateLayout) + ".." + r.End.Format(dateLayout)
}

// Translator converts between local calendar dates and UTC instants using
// an IANA zone, so DST transitions follow the zone's actual rules.
type Translator struct {
	loc *time.Location
}

func NewTranslator(zone string) (*Translator, error) {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", zone, err)
	}
	return &Translator{loc: loc}, nil
}

// MustTranslator panics if the zone cannot be loaded.
func MustTranslator(zone string) *Translator {
	t, err := NewTranslator(zone)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Translator) Location() *time.Location {
	return t.loc
}

// LocalDayToUTCBounds returns the UTC instants of local midnight on date and
// local midnight on the following date. The end bound is exclusive.
func (t *Translator) LocalDayToUTCBounds(date time.Time) (time.Time, time.Time) {
	y, m, d := date.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, t.loc)
	end := time.Date(y, m, d+1, 0, 0, 0, 0, t.loc)
	return start.UTC(), end.UTC()
}

// RangeToUTCBounds returns [local midnight of r.Start, local midnight after r.End).
func (t *Translator) RangeToUTCBounds(r DateRange) (time.Time, time.Time) {
	start, _ := t.LocalDayToUTCBounds(r.Start)
	_, end := t.LocalDayToUTCBounds(r.End)
	return start, end
}

func (t *Translator) ToLocal(utc time.Time) time.Time {
	return utc.In(t.loc)
}

// ToUTC interprets the wall clock of local (ignoring its location) in the
// translator's zone. Nonexistent spring-forward times resolve the way
// time.Date does.
func (t *Translator) ToUTC(local time.Time) time.Time {
	y, m, d := local.Date()
	hh, mm, ss := local.Clock()
	return time.Date(y, m, d, hh, mm, ss, local.Nanosecond(), t.loc).UTC()
}

// Today returns the local calendar date containing now.
func (t *Translator) Today(now time.Time) time.Time {
	return civil(now.In(t.loc))
}

// ParseDate parses YYYY-MM-DD as a local calendar date.
func (t *Translator) ParseDate(s string) (time.Time, error) {
	d, err := time.ParseInLocation(dateLayout, s, t.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return d, nil
}

// ParseRange parses two YYYY-MM-DD strings. An empty end defaults to start.
func (t *Translator) ParseRange(start, end string) (DateRange, error) {
	s, err := t.ParseDate(start)
	if err != nil {
		return DateRange{}, err
	}
	e := s
	if end != "" {
		if e, err = t.ParseDate(end); err != nil {
			return DateRange{}, err
		}
	}
	r := DateRange{Start: s, End: e}
	if err := r.Validate(); err != nil {
		return DateRange{}, err
	}
	return r, nil
}

// Days enumerates the local dates of r in order.
func (t *Translator) Days(r DateRange) []time.Time {
	var days []time.Time
	end := civil(r.End)
	for d := civil(r.Start); !d.After(end); d = d.AddDate(0, 0, 1) {
		y, m, dd := d.Date()
		days = append(days, time.Date(y, m, dd, 0, 0, 0, 0, t.loc))
	}
	return days
}

// LastDays returns the range of n local dates ending today.
func (t *Translator) LastDays(now time.Time, n int) DateRange {
	today := t.Today(now)
	if n < 1 {
		n = 1
	}
	return DateRange{Start: today.AddDate(0, 0, -(n - 1)), End: today}
}

func FormatDate(d time.Time) string {
	return d.Format(dateLayout)
}

// civil drops the clock and location, keeping the calendar date.
func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
