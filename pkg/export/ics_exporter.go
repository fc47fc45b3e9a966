package export

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"
)

// floatingLayout renders DTSTART/DTEND without a zone so clients show local wall time.
const floatingLayout = "20060102T150405"

// CalendarEntry is one VEVENT of an exported calendar.
type CalendarEntry struct {
	UID         string
	Summary     string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
}

// ICSExporter renders calendar entries as an iCalendar document.
type ICSExporter struct {
	productID string
	now       func() time.Time
}

// NewICSExporter builds an exporter announcing productID in PRODID.
func NewICSExporter(productID string) *ICSExporter {
	if productID == "" {
		productID = "-//planucab//agenda//ES"
	}
	return &ICSExporter{productID: productID, now: time.Now}
}

// Render produces the serialized VCALENDAR.
func (e *ICSExporter) Render(name string, entries []CalendarEntry) ([]byte, error) {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(e.productID)
	if name != "" {
		cal.SetXWRCalName(name)
	}

	stamp := e.now().UTC()
	for _, entry := range entries {
		if entry.UID == "" {
			return nil, fmt.Errorf("calendar entry %q has no uid", entry.Summary)
		}
		if !entry.End.After(entry.Start) {
			return nil, fmt.Errorf("calendar entry %s ends before it starts", entry.UID)
		}
		event := cal.AddEvent(entry.UID)
		event.SetDtStampTime(stamp)
		event.SetProperty(ical.ComponentPropertyDtStart, entry.Start.Format(floatingLayout))
		event.SetProperty(ical.ComponentPropertyDtEnd, entry.End.Format(floatingLayout))
		event.SetSummary(entry.Summary)
		if entry.Location != "" {
			event.SetLocation(entry.Location)
		}
		if entry.Description != "" {
			event.SetDescription(entry.Description)
		}
	}
	return []byte(cal.Serialize()), nil
}
