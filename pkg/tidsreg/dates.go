package tidsreg

import (
	"fmt"
	"time"
)

const (
	isoDateLayout      = "2006-01-02"
	upstreamDateLayout = "02-01-2006"
)

// WeekInfo describes one ISO-8601 week, Monday first.
type WeekInfo struct {
	Year               int    `json:"year"`
	Week               int    `json:"week"`
	StartDate          string `json:"start_date"`
	EndDate            string `json:"end_date"`
	StartDateFormatted string `json:"start_date_formatted"`
	EndDateFormatted   string `json:"end_date_formatted"`
}

// ToUpstreamDate converts an ISO YYYY-MM-DD date to the DD-MM-YYYY form
// Tidsreg uses in its URLs. The input must match the layout exactly.
func ToUpstreamDate(iso string) (string, error) {
	t, err := time.Parse(isoDateLayout, iso)
	if err != nil {
		return "", fmt.Errorf("%w: %q is not a valid YYYY-MM-DD date", ErrInvalidDateFormat, iso)
	}
	return t.Format(upstreamDateLayout), nil
}

// ToISODate is the inverse of ToUpstreamDate.
func ToISODate(upstream string) (string, error) {
	t, err := time.Parse(upstreamDateLayout, upstream)
	if err != nil {
		return "", fmt.Errorf("%w: %q is not a valid DD-MM-YYYY date", ErrInvalidDateFormat, upstream)
	}
	return t.Format(isoDateLayout), nil
}

// ISOWeekBounds computes the Monday and Sunday of ISO week `week` of ISO year
// `year`. Passing 0 for either argument selects the current ISO year and week
// together, so the pair never mixes a year with another year's week number.
func ISOWeekBounds(year, week int) (WeekInfo, error) {
	if year == 0 || week == 0 {
		year, week = time.Now().ISOWeek()
	}

	// January 4th always falls inside ISO week 1.
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	week1Monday := jan4.AddDate(0, 0, -((int(jan4.Weekday()) + 6) % 7))
	monday := week1Monday.AddDate(0, 0, (week-1)*7)

	if y, w := monday.ISOWeek(); y != year || w != week {
		return WeekInfo{}, fmt.Errorf("%w: week %d of %d does not exist", ErrWeekComputation, week, year)
	}

	sunday := monday.AddDate(0, 0, 6)
	return WeekInfo{
		Year:               year,
		Week:               week,
		StartDate:          monday.Format(isoDateLayout),
		EndDate:            sunday.Format(isoDateLayout),
		StartDateFormatted: monday.Format(upstreamDateLayout),
		EndDateFormatted:   sunday.Format(upstreamDateLayout),
	}, nil
}
