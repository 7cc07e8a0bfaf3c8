package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"momento/internal/api"
)

func day(y int, m time.Month, d int) api.Timestamp {
	return api.Timestamp{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func TestUpcoming(t *testing.T) {
	now := time.Date(2026, time.March, 10, 15, 30, 0, 0, time.UTC)
	occasions := []api.Occasion{
		{ID: "far", Date: day(2026, time.June, 1)},
		{ID: "soon", Date: day(2026, time.March, 12)},
		{ID: "today", Date: day(2026, time.March, 10)},
		{ID: "birthday", Date: day(1990, time.March, 20)},
		{ID: "past", Date: day(2026, time.March, 1)},
		{ID: "undated"},
	}

	got := Upcoming(occasions, now, 14)

	require.Len(t, got, 3)
	assert.Equal(t, "today", got[0].Occasion.ID)
	assert.Equal(t, 0, got[0].DaysLeft)
	assert.Equal(t, "soon", got[1].Occasion.ID)
	assert.Equal(t, 2, got[1].DaysLeft)
	assert.Equal(t, "birthday", got[2].Occasion.ID)
	assert.Equal(t, 10, got[2].DaysLeft)
}

func TestNextOccurrenceLeapDay(t *testing.T) {
	today := time.Date(2027, time.February, 20, 0, 0, 0, 0, time.UTC)
	next := nextOccurrence(time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC), today)
	assert.Equal(t, time.Date(2027, time.February, 28, 0, 0, 0, 0, time.UTC), next)
}

func TestNextOccurrence(t *testing.T) {
	today := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)

	// future dates are kept as they are
	assert.Equal(t, time.Date(2027, time.January, 5, 0, 0, 0, 0, time.UTC),
		nextOccurrence(time.Date(2027, time.January, 5, 0, 0, 0, 0, time.UTC), today))
	assert.Equal(t, today, nextOccurrence(time.Date(2001, time.March, 10, 0, 0, 0, 0, time.UTC), today))
	assert.Equal(t, time.Date(2027, time.March, 9, 0, 0, 0, 0, time.UTC),
		nextOccurrence(time.Date(2001, time.March, 9, 0, 0, 0, 0, time.UTC), today))
	assert.Equal(t, time.Date(2028, time.February, 29, 0, 0, 0, 0, time.UTC),
		nextOccurrence(time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC), time.Date(2028, time.February, 1, 0, 0, 0, 0, time.UTC)))
}

func TestDigestSummary(t *testing.T) {
	backend := newFakeBackend()
	backend.occasions["o1"] = api.Occasion{ID: "o1", Owner: api.UserRef{ID: viewer.ID}, Person: "Mom <3", OccasionType: "birthday", Date: day(2026, time.March, 11)}
	backend.checklist[viewer.ID] = []api.ChecklistEntry{{Task: "t1"}, {Task: "t2", Completed: true}}
	backend.incoming[viewer.ID] = []api.Invite{{ID: "i1", Status: api.InvitePending}}
	now := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

	text, err := NewDigestService(7).Summary(context.Background(), backend, viewer, now)
	require.NoError(t, err)

	assert.Contains(t, text, "<b>Momento digest</b>")
	assert.Contains(t, text, "10.03.2026")
	assert.Contains(t, text, "⏳ Mom &lt;3 <i>(birthday)</i>")
	assert.Contains(t, text, "in 1 day(s)")
	assert.Contains(t, text, "/occasion o1")
	assert.Contains(t, text, "1 open item(s)")
	assert.Contains(t, text, "1 pending invite(s)")
}

func TestDigestSummaryEmpty(t *testing.T) {
	text, err := NewDigestService(0).Summary(context.Background(), newFakeBackend(), viewer, time.Now())
	require.NoError(t, err)
	assert.Contains(t, text, "Next 14 days")
	assert.Contains(t, text, "nothing coming up")
	assert.Contains(t, text, "all done")
	assert.NotContains(t, text, "invite")
}
