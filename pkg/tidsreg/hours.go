package tidsreg

import (
	"errors"
	"fmt"
	"time"
)

// HoursResult is the full registered-hours payload for one date, as the
// protocol front-ends serve it.
type HoursResult struct {
	OK               bool                 `json:"ok"`
	Date             string               `json:"date"`
	DateFormatted    string               `json:"date_formatted"`
	DayName          string               `json:"day_name"`
	DayIndex         int                  `json:"day_index"`
	WeekInfo         WeekInfo             `json:"week_info"`
	HoursForDay      []DayEntry           `json:"hours_for_day"`
	TotalHoursForDay float64              `json:"total_hours_for_day"`
	Warnings         []Warning            `json:"warnings"`
	Registrations    []RegistrationRecord `json:"registrations"`
	Totals           map[string]string    `json:"totals"`
	RawHTMLSize      int                  `json:"raw_html_size"`
	ParseError       string               `json:"parse_error,omitempty"`

	// RawHTML keeps the fetched page around for snapshot capture. It is not
	// part of the wire payload.
	RawHTML string `json:"-"`
}

// RegisteredHours fetches the week page containing date (ISO YYYY-MM-DD) and
// derives that day's entries, totals and warnings from the rendered markup.
// Date and week errors are detected before any network call. Everything else
// is caught at this boundary: the call returns a result or a typed error,
// never a panic.
func (c *Client) RegisteredHours(date string) (res *HoursResult, err error) {
	upstreamDate, err := ToUpstreamDate(date)
	if err != nil {
		return nil, err
	}

	parsed, _ := time.Parse(isoDateLayout, date)
	year, week := parsed.ISOWeek()
	info, err := ISOWeekBounds(year, week)
	if err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = &RetrievalError{Message: fmt.Sprintf("failed to retrieve registered hours: %v", r)}
		}
	}()

	c.mu.Lock()
	defer c.mu.Unlock()

	body, err := c.get("/Hours/"+upstreamDate, nil)
	if err != nil {
		var up *UpstreamHTTPError
		if errors.As(err, &up) {
			return nil, up
		}
		return nil, &RetrievalError{Message: fmt.Sprintf("failed to fetch week page: %v", err)}
	}

	ext := ExtractWeekPage(string(body))

	weekStart, err := time.Parse(isoDateLayout, info.StartDate)
	if err != nil {
		return nil, &RetrievalError{Message: fmt.Sprintf("bad week start %q: %v", info.StartDate, err)}
	}
	dayIndex := DayIndexOf(parsed, weekStart)

	entries, total, warnings := ProjectDay(ext.Registrations, dayIndex)

	res = &HoursResult{
		OK:               true,
		Date:             date,
		DateFormatted:    upstreamDate,
		DayName:          DayName(dayIndex),
		DayIndex:         dayIndex,
		WeekInfo:         info,
		HoursForDay:      entries,
		TotalHoursForDay: total,
		Warnings:         warnings,
		Registrations:    ext.Registrations,
		Totals:           ext.Totals,
		RawHTMLSize:      len(body),
		RawHTML:          string(body),
	}
	if ext.Partial() {
		res.ParseError = ext.PartialMessage()
	}
	return res, nil
}
