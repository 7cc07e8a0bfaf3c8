package bot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"momento/internal/api"
	"momento/internal/model"
	"momento/internal/service"
)

func TestShortTitle(t *testing.T) {
	assert.Equal(t, "buy flowers", shortTitle(" buy flowers ", 20))
	assert.Equal(t, "buy fl…", shortTitle("buy flowers", 7))
	assert.Equal(t, "line one", shortTitle("line\none", 20))
}

func TestFormatTasks(t *testing.T) {
	text := formatTasks([]service.TaskItem{
		{ID: "t1", Description: "cake <big>", Priority: model.PriorityHigh},
		{ID: "t2", Description: "card", Completed: true, Priority: model.PriorityLow},
	})

	assert.Equal(t, "1. ⬜ 🔴 cake &lt;big&gt;\n2. ✅ 🟢 <s>card</s>", text)
	assert.Contains(t, formatTasks(nil), "/newtask")
}

func TestFormatCollaborators(t *testing.T) {
	text := formatCollaborators([]service.Collaborator{
		{Name: "Olga", Initial: "O", Owner: true, Status: service.CollaboratorAccepted},
		{Name: "Boris", Initial: "B", Status: service.CollaboratorPending},
	})
	assert.Equal(t, "[O] Olga 👑, [B] Boris ⏳", text)
}

func TestFormatOccasionViewDegraded(t *testing.T) {
	own := service.Ownership{OccasionID: "o1", State: service.OwnershipDegraded}
	view := &service.OccasionView{
		Ownership: own,
		Workspace: service.NewWorkspace(nil, nil, nil, own),
	}

	text := formatOccasionView(view)
	assert.Contains(t, text, "<code>o1</code>")
	assert.Contains(t, text, "could not be determined")
}

func TestFormatOccasionViewCollaborating(t *testing.T) {
	occ := &api.Occasion{ID: "o1", Person: "Mom", OccasionType: "birthday", Date: api.Timestamp{Time: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)}}
	own := service.Ownership{OccasionID: "o1", OwnerID: "u-owner", State: service.OwnershipResolved}
	view := &service.OccasionView{
		Ownership:     own,
		Occasion:      occ,
		Collaborators: []service.Collaborator{{Name: "Olga", Initial: "O", Owner: true}},
		Workspace:     service.NewWorkspace(nil, nil, nil, own),
	}

	text := formatOccasionView(view)
	assert.Contains(t, text, "🎉 <b>Mom</b> <i>(birthday)</i>")
	assert.Contains(t, text, "2026-05-01")
	assert.Contains(t, text, "collaborating")
	assert.Contains(t, text, "no tasks yet")
}

func TestTaskKeyboardSkipsPlaceholders(t *testing.T) {
	kb := taskKeyboard([]service.TaskItem{
		{ID: "t1", Description: "cake", Priority: model.PriorityHigh},
		{ID: "tmp-1", Description: "pending", Placeholder: true},
	})
	require.NotNil(t, kb)
	require.Len(t, kb.InlineKeyboard, 1)
	row := kb.InlineKeyboard[0]
	require.Len(t, row, 3)
	require.NotNil(t, row[0].CallbackData)
	assert.Equal(t, cbTogglePrefix+"t1", *row[0].CallbackData)
	assert.Equal(t, iconMedium, row[1].Text)

	assert.Nil(t, taskKeyboard(nil))
}

func TestNextPriorityCycles(t *testing.T) {
	assert.Equal(t, model.PriorityMedium, nextPriority(model.PriorityHigh))
	assert.Equal(t, model.PriorityLow, nextPriority(model.PriorityMedium))
	assert.Equal(t, model.PriorityHigh, nextPriority(model.PriorityLow))
	assert.Equal(t, model.PriorityHigh, nextPriority(""))
}

func TestSplitArgs(t *testing.T) {
	assert.Equal(t, []string{"Mom", "birthday", "2026-05-01"}, splitArgs(" Mom | birthday |2026-05-01 ", 3))
	assert.Equal(t, []string{"Mom", ""}, splitArgs("Mom", 2))
	assert.Equal(t, []string{"Mom", "a | b"}, splitArgs("Mom | a | b", 2))
}

func TestInputPredicates(t *testing.T) {
	assert.True(t, isSkipInput(btnSkip))
	assert.True(t, isSkipInput("skip"))
	assert.True(t, isCancelDialogInput(btnCancelDialog))
	assert.False(t, isCancelDialogInput("cake"))
}

func TestFormatInvite(t *testing.T) {
	inv := api.Invite{ID: "i1", OccasionID: "o1", Sender: api.UserRef{Username: "olga"}, Recipient: api.UserRef{ID: "u-2"}, Status: api.InvitePending}
	assert.Equal(t, "📨 from <b>olga</b> · occasion <code>o1</code>", formatInvite(inv, true))
	assert.Equal(t, "📨 to <b>u-2</b> · occasion <code>o1</code> · pending", formatInvite(inv, false))
}
