package scheduling

import (
	"fmt"
	"time"
)

// DateLayout is the wire format for appointment dates.
const DateLayout = "2006-01-02"

// TimeLayout is the wire format for window boundaries.
const TimeLayout = "15:04"

// DateResolver maps calendar dates to weekday names and enforces the booking
// bounds: no dates in the past, none beyond the horizon. Pure, no I/O; Now is
// injectable so tests can pin "today".
type DateResolver struct {
	HorizonMonths int
	Now           func() time.Time
}

// NewDateResolver returns a resolver with the given horizon in months.
func NewDateResolver(horizonMonths int) DateResolver {
	return DateResolver{HorizonMonths: horizonMonths, Now: time.Now}
}

// Resolve parses date and returns its weekday name (Monday..Sunday).
// Fails with ErrInvalidDate when the date is malformed, before today, or
// after today plus the horizon. The boundary date itself is bookable.
func (r DateResolver) Resolve(date string) (string, error) {
	// The date string is the reservation key, so only the canonical
	// zero-padded form is valid.
	d, err := time.Parse(DateLayout, date)
	if err != nil || d.Format(DateLayout) != date {
		return "", fmt.Errorf("%w: %q is not a valid date", ErrInvalidDate, date)
	}

	today := r.today()
	if d.Before(today) {
		return "", fmt.Errorf("%w: %s is in the past", ErrInvalidDate, date)
	}
	horizon := today.AddDate(0, r.HorizonMonths, 0)
	if d.After(horizon) {
		return "", fmt.Errorf("%w: %s is beyond the %d-month booking horizon", ErrInvalidDate, date, r.HorizonMonths)
	}

	return d.Weekday().String(), nil
}

func (r DateResolver) today() time.Time {
	now := r.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// parseClock parses a "HH:MM" window boundary. Only the canonical
// zero-padded form is accepted: window strings are stored and compared
// verbatim, so "9:00" and "09:00" must not both name the same boundary.
func parseClock(s string) (time.Time, error) {
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	if t.Format(TimeLayout) != s {
		return time.Time{}, fmt.Errorf("%q is not in HH:MM form", s)
	}
	return t, nil
}
