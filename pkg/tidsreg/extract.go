package tidsreg

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Hierarchy level markers as they appear in the week page's row classes.
// groupLevel4 is the leaf (activity) row carrying the per-day hour inputs.
const (
	LevelCustomer = "groupLevel1"
	LevelProject  = "groupLevel2"
	LevelPhase    = "groupLevel3"
	LevelActivity = "groupLevel4"
)

var levelMarkers = []string{LevelCustomer, LevelProject, LevelPhase, LevelActivity}

var totalsDayNames = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// RegistrationRecord is one row extracted from the rendered hierarchy table.
// CellText holds the trimmed text of every cell in document order; DayHours
// holds the raw hour-input values (Monday first) for rows that have them.
type RegistrationRecord struct {
	Level    string   `json:"level"`
	CellText []string `json:"data"`
	DayHours []string `json:"hours,omitempty"`
}

// WeekExtraction is the result of scraping one week page. A non-nil
// RegistrationsErr or TotalsErr marks the corresponding part as partial:
// whatever was accumulated before the fault is still present and usable.
type WeekExtraction struct {
	Registrations    []RegistrationRecord
	Totals           map[string]string
	RegistrationsErr error
	TotalsErr        error
}

// Partial reports whether any part of the extraction failed midway.
func (x WeekExtraction) Partial() bool {
	return x.RegistrationsErr != nil || x.TotalsErr != nil
}

// PartialMessage flattens the partial-failure errors into one string for
// front-ends that surface them as a single annotation.
func (x WeekExtraction) PartialMessage() string {
	var parts []string
	if x.RegistrationsErr != nil {
		parts = append(parts, x.RegistrationsErr.Error())
	}
	if x.TotalsErr != nil {
		parts = append(parts, x.TotalsErr.Error())
	}
	return strings.Join(parts, "; ")
}

// ExtractWeekPage scrapes the rendered Hours page for one week. The Tidsreg
// markup has no schema, so matching is deliberately loose: class markers are
// matched by substring against the whole class attribute, and a failure
// anywhere returns what was collected so far instead of aborting.
func ExtractWeekPage(body string) WeekExtraction {
	ext := WeekExtraction{Totals: map[string]string{}}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		ext.RegistrationsErr = fmt.Errorf("parse week page: %w", err)
		ext.TotalsErr = ext.RegistrationsErr
		return ext
	}

	ext.Registrations, ext.RegistrationsErr = extractRegistrations(doc)
	ext.TotalsErr = extractTotals(doc, ext.Totals)
	return ext
}

func extractRegistrations(doc *goquery.Document) (records []RegistrationRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("registration extraction failed: %v", r)
		}
	}()

	container := doc.Find("#TimeRegistrations")
	if container.Length() == 0 {
		// A week with nothing booked renders without the container.
		return nil, nil
	}

	container.Find("table").Each(func(_ int, table *goquery.Selection) {
		for _, marker := range levelMarkers {
			table.Find("tr").Each(func(_ int, row *goquery.Selection) {
				// Substring match on the full class attribute, not a
				// per-token comparison. Rows carry several classes and the
				// markup drifts without notice.
				if !strings.Contains(row.AttrOr("class", ""), marker) {
					return
				}

				rec := RegistrationRecord{Level: marker}
				row.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
					rec.CellText = append(rec.CellText, strings.TrimSpace(cell.Text()))
				})
				if len(rec.CellText) == 0 {
					return
				}

				row.Find("input").Each(func(_ int, input *goquery.Selection) {
					if strings.Contains(input.AttrOr("class", ""), "registration-hours") {
						rec.DayHours = append(rec.DayHours, input.AttrOr("value", ""))
					}
				})

				records = append(records, rec)
			})
		}
	})

	return records, nil
}

func extractTotals(doc *goquery.Document, totals map[string]string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("totals extraction failed: %v", r)
		}
	}()

	// Totals live outside #TimeRegistrations too, so scan the whole page.
	doc.Find(`[class*="total"], [class*="sum"], [class*="Sum"]`).Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if !looksNumeric(text) {
			return
		}
		totals[s.AttrOr("class", "")] = text
	})

	// Fixed per-day totals carry ids instead of classes.
	for _, day := range totalsDayNames {
		s := doc.Find("#totalHours" + day)
		if s.Length() > 0 {
			totals[strings.ToLower(day)+"_total"] = strings.TrimSpace(s.Text())
		}
	}

	return nil
}

// looksNumeric reports whether text is a number once the locale separators
// are stripped. This filters out labels that merely share a totals class.
func looksNumeric(text string) bool {
	stripped := strings.NewReplacer(".", "", ",", "", "-", "").Replace(text)
	if stripped == "" {
		return false
	}
	for _, r := range stripped {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
