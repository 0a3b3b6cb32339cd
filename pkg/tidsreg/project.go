package tidsreg

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Day names as Tidsreg displays them, Monday first.
var dayNames = [7]string{"Lundi", "Mardi", "Mercredi", "Jeudi", "Vendredi", "Samedi", "Dimanche"}

const (
	expectedWorkdayHours = 7.5

	WarningSuspiciousHours = "suspicious_hours"
)

// DayEntry is the per-activity view of one day, derived from a leaf
// registration row.
type DayEntry struct {
	Activity     string   `json:"activity"`
	Hours        string   `json:"hours"`
	Billable     bool     `json:"billable"`
	WeekTotal    string   `json:"week_total"`
	HoursAllDays []string `json:"hours_all_days"`
}

// Warning is advisory only; it never blocks a result.
type Warning struct {
	Type       string `json:"type"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion"`
}

// DayName returns the display name for a Monday-based day index,
// or "Unknown" outside [0,6].
func DayName(index int) string {
	if index < 0 || index > 6 {
		return "Unknown"
	}
	return dayNames[index]
}

// DayIndexOf returns the Monday-based offset of date within the week starting
// at weekStart. An out-of-range delta falls back to Monday; with a correctly
// computed week start that cannot happen, but a mismatch must not crash the
// projection.
func DayIndexOf(date, weekStart time.Time) int {
	index := int(date.Sub(weekStart).Hours() / 24)
	if index < 0 || index > 6 {
		return 0
	}
	return index
}

// ProjectDay selects the leaf (activity) rows that carry a value for the
// given day and derives the per-day entries, the day's hour total, and the
// under-reporting warning.
func ProjectDay(registrations []RegistrationRecord, dayIndex int) ([]DayEntry, float64, []Warning) {
	var entries []DayEntry
	var total float64

	for _, reg := range registrations {
		if reg.Level != LevelActivity {
			continue
		}
		if dayIndex >= len(reg.DayHours) || reg.DayHours[dayIndex] == "" {
			continue
		}

		label := ""
		if len(reg.CellText) > 0 {
			label = reg.CellText[0]
		}

		// "Internal Meeting (Billable)" -> "Internal Meeting"
		activity := label
		if i := strings.Index(label, "("); i >= 0 {
			activity = label[:i]
		}

		weekTotal := "0"
		if len(reg.CellText) >= 9 {
			weekTotal = reg.CellText[8]
		}

		hours := reg.DayHours[dayIndex]
		entries = append(entries, DayEntry{
			Activity:     strings.TrimSpace(activity),
			Hours:        hours,
			Billable:     strings.Contains(label, "(Billable)"),
			WeekTotal:    weekTotal,
			HoursAllDays: reg.DayHours,
		})

		// Hours use a comma decimal separator. Unparsable values count as 0
		// rather than aborting the sum.
		if v, err := strconv.ParseFloat(strings.ReplaceAll(hours, ",", "."), 64); err == nil {
			total += v
		}
	}

	var warnings []Warning
	if dayIndex < 5 && total > 0 && total < expectedWorkdayHours {
		warnings = append(warnings, Warning{
			Type:       WarningSuspiciousHours,
			Message:    fmt.Sprintf("Only %.2f hours registered for %s (expected %.1f)", total, DayName(dayIndex), expectedWorkdayHours),
			Suggestion: "Check whether every activity for the day has been filled in",
		})
	}

	return entries, total, warnings
}
