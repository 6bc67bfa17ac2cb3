package ratinghandlers

import (
	"fmt"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/en"
)

const dateLayout = "2006-01-02"

var periodLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04", dateLayout}

// parsePeriodBound accepts a timestamp, a date, or an English expression such as
// "last monday" or "3 days ago", resolved relative to now.
func parsePeriodBound(input string, now time.Time) (time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return time.Time{}, fmt.Errorf("empty time")
	}

	for _, layout := range periodLayouts {
		if t, err := time.ParseInLocation(layout, input, now.Location()); err == nil {
			return t, nil
		}
	}

	w := when.New(nil)
	w.Add(en.All...)

	r, err := w.Parse(strings.ToLower(input), now)
	if err != nil {
		return time.Time{}, fmt.Errorf("could not parse time %q: %w", input, err)
	}
	if r == nil {
		return time.Time{}, fmt.Errorf("could not recognize time %q", input)
	}
	return r.Time, nil
}

// parsePeriodEnd is parsePeriodBound for an inclusive upper bound: a bare date
// covers that whole day, up to the last microsecond the ledger stores.
func parsePeriodEnd(input string, now time.Time) (time.Time, error) {
	if day, err := time.ParseInLocation(dateLayout, strings.TrimSpace(input), now.Location()); err == nil {
		return day.AddDate(0, 0, 1).Add(-time.Microsecond), nil
	}
	return parsePeriodBound(input, now)
}

// parsePeriod reads from/to query values. A missing from means the beginning of
// time and a missing to means now.
func parsePeriod(fromRaw, toRaw string, now time.Time) (from, to time.Time, err error) {
	from = time.Unix(0, 0).UTC()
	to = now
	if fromRaw != "" {
		if from, err = parsePeriodBound(fromRaw, now); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("from: %w", err)
		}
	}
	if toRaw != "" {
		if to, err = parsePeriodEnd(toRaw, now); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("to: %w", err)
		}
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("to (%s) is before from (%s)", to.Format(time.RFC3339), from.Format(time.RFC3339))
	}
	return from, to, nil
}
