// Package timezone converts due dates between stored UTC instants and the
// naive local datetimes users see and submit.
package timezone

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"
)

// DefaultName is the display timezone used when none is configured.
const DefaultName = "Europe/Vilnius"

// DisplayLayout is how due dates are rendered to clients.
const DisplayLayout = "2006-01-02 15:04:05"

// DateLayout is the date-only layout used by filters and day keys.
const DateLayout = "2006-01-02"

var parseLayouts = []string{
	DisplayLayout,
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	DateLayout,
}

// Zone is a fixed display timezone.
type Zone struct {
	loc *time.Location
}

// Load resolves a zone by IANA name; an empty name selects DefaultName.
func Load(name string) (*Zone, error) {
	if strings.TrimSpace(name) == "" {
		name = DefaultName
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", name, err)
	}
	return &Zone{loc: loc}, nil
}

// New wraps an already resolved location.
func New(loc *time.Location) *Zone {
	return &Zone{loc: loc}
}

func (z *Zone) Location() *time.Location {
	return z.loc
}

func (z *Zone) String() string {
	return z.loc.String()
}

// Parse interprets a naive local datetime (or date) in the zone and returns
// the UTC instant with second precision.
func (z *Zone) Parse(raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	for _, layout := range parseLayouts {
		t, err := time.ParseInLocation(layout, value, z.loc)
		if err == nil {
			return t.UTC().Truncate(time.Second), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", raw)
}

// ParseDate accepts any layout Parse does and returns local midnight of that
// day.
func (z *Zone) ParseDate(raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	for _, layout := range parseLayouts {
		t, err := time.ParseInLocation(layout, value, z.loc)
		if err == nil {
			return z.StartOfDay(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", raw)
}

// Format renders the instant as a naive local datetime.
func (z *Zone) Format(t time.Time) string {
	return t.In(z.loc).Format(DisplayLayout)
}

// FormatPtr is Format for nullable due dates.
func (z *Zone) FormatPtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := z.Format(*t)
	return &s
}

// DayKey is the local calendar day of t as YYYY-MM-DD.
func (z *Zone) DayKey(t time.Time) string {
	return t.In(z.loc).Format(DateLayout)
}

// StartOfDay returns local midnight of the day containing t.
func (z *Zone) StartOfDay(t time.Time) time.Time {
	y, m, d := t.In(z.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, z.loc)
}

// DayBounds returns [start, end) of the local day containing t, in UTC.
func (z *Zone) DayBounds(t time.Time) (time.Time, time.Time) {
	start := z.StartOfDay(t)
	return start.UTC(), start.AddDate(0, 0, 1).UTC()
}
