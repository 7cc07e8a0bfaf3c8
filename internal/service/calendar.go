package service

import (
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"momento/internal/api"
)

// Calendar renders occasions as an iCalendar feed. Every occasion becomes
// an all-day event repeating yearly; undated occasions are skipped.
func Calendar(occasions []api.Occasion, now time.Time) string {
	cal := ical.NewCalendarFor("momento")
	cal.SetMethod(ical.MethodPublish)
	cal.SetXWRCalName("Momento occasions")

	for _, occ := range occasions {
		if occ.Date.IsZero() {
			continue
		}
		day := time.Date(occ.Date.Year(), occ.Date.Month(), occ.Date.Day(), 0, 0, 0, 0, time.UTC)

		ev := cal.AddEvent(occ.ID + "@momento")
		ev.SetDtStampTime(now)
		ev.SetAllDayStartAt(day)
		ev.SetAllDayEndAt(day.AddDate(0, 0, 1))
		ev.SetSummary(eventSummary(occ))
		ev.AddRrule("FREQ=YEARLY")
	}

	return cal.Serialize()
}

func eventSummary(occ api.Occasion) string {
	person := strings.TrimSpace(occ.Person)
	kind := strings.TrimSpace(occ.OccasionType)
	switch {
	case person == "":
		return kind
	case kind == "":
		return person
	}
	return person + ": " + kind
}
