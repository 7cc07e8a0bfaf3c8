package service

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"momento/internal/api"
)

func TestCalendar(t *testing.T) {
	now := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	feed := Calendar([]api.Occasion{
		{ID: "o1", Person: "Mom", OccasionType: "birthday", Date: day(1960, time.May, 1)},
		{ID: "o2", Person: "Dad"},
	}, now)

	feed = strings.ReplaceAll(feed, "\r\n", "\n")
	assert.Contains(t, feed, "BEGIN:VCALENDAR")
	assert.Contains(t, feed, "METHOD:PUBLISH")
	assert.Contains(t, feed, "UID:o1@momento")
	assert.Contains(t, feed, "SUMMARY:Mom: birthday")
	assert.Contains(t, feed, "DTSTART;VALUE=DATE:19600501")
	assert.Contains(t, feed, "DTEND;VALUE=DATE:19600502")
	assert.Contains(t, feed, "RRULE:FREQ=YEARLY")
	assert.NotContains(t, feed, "o2@momento")
	assert.Equal(t, 1, strings.Count(feed, "BEGIN:VEVENT"))
}

func TestEventSummary(t *testing.T) {
	assert.Equal(t, "Mom: birthday", eventSummary(api.Occasion{Person: " Mom ", OccasionType: "birthday"}))
	assert.Equal(t, "Mom", eventSummary(api.Occasion{Person: "Mom"}))
	assert.Equal(t, "anniversary", eventSummary(api.Occasion{OccasionType: "anniversary"}))
}
