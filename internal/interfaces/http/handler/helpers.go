package handler

import "time"

// dateLayout is the wire format for date-only query parameters.
const dateLayout = "2006-01-02"

// parseDateRange parses from/to date query parameters. The to date is
// pushed to end of day so a single-day range covers the whole day.
// Malformed values are ignored rather than rejected.
func parseDateRange(from, to string) (*time.Time, *time.Time) {
	var fromDate, toDate *time.Time

	if from != "" {
		if t, err := time.Parse(dateLayout, from); err == nil {
			fromDate = &t
		}
	}
	if to != "" {
		if t, err := time.Parse(dateLayout, to); err == nil {
			t = t.Add(24*time.Hour - time.Second)
			toDate = &t
		}
	}
	return fromDate, toDate
}
