package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"momento/internal/api"
	"momento/internal/model"
)

func collaboratorView() Ownership {
	return Ownership{OccasionID: "o1", OwnerID: owner.ID, State: OwnershipResolved, Source: SourceIncomingInvite}
}

func TestWorkspaceUsesOwnerAccountForEveryCall(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	backend.tasks[owner.ID] = []api.Task{{ID: "t1", Description: "buy flowers"}}
	backend.checklist[owner.ID] = []api.ChecklistEntry{{Task: "t1"}}
	ws := NewWorkspace(backend, newMemPriorities(), newMemSelections(), collaboratorView())

	_, err := ws.Load(ctx)
	require.NoError(t, err)
	item, err := ws.AddTask(ctx, TaskInput{Description: "book table"})
	require.NoError(t, err)
	_, err = ws.ToggleTask(ctx, item.ID)
	require.NoError(t, err)
	_, err = ws.ToggleTask(ctx, item.ID)
	require.NoError(t, err)
	require.NoError(t, ws.RenameTask(ctx, "t1", "buy tulips"))
	require.NoError(t, ws.RemoveTask(ctx, "t1"))
	noteID, err := ws.AddNote(ctx, NoteInput{RelationshipID: "r1", Title: "likes tea"})
	require.NoError(t, err)
	_, err = ws.Notes(ctx, "r1")
	require.NoError(t, err)
	require.NoError(t, ws.SelectNote(ctx, noteID))

	owners := backend.ownerArgs()
	require.NotEmpty(t, owners)
	for _, id := range owners {
		assert.Equal(t, owner.ID, id)
		assert.NotEqual(t, viewer.ID, id)
	}
	assert.Len(t, backend.tasks[owner.ID], 1)
	assert.Empty(t, backend.tasks[viewer.ID])
}

func TestWorkspaceLoadMergesChecklistAndPriorities(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	backend.tasks[owner.ID] = []api.Task{
		{ID: "t1", Description: "done already"},
		{ID: "t2", Description: "low one"},
		{ID: "t3", Description: "urgent"},
		{ID: "t4", Description: "no checklist entry"},
	}
	backend.checklist[owner.ID] = []api.ChecklistEntry{
		{Task: "t1", Completed: true},
		{Task: "t2"},
		{Task: "t3"},
	}
	prio := newMemPriorities()
	require.NoError(t, prio.Set(ctx, "o1", owner.ID, "t2", model.PriorityLow))
	require.NoError(t, prio.Set(ctx, "o1", owner.ID, "t3", model.PriorityHigh))

	items, err := NewWorkspace(backend, prio, newMemSelections(), collaboratorView()).Load(ctx)
	require.NoError(t, err)

	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	assert.Equal(t, []string{"t3", "t4", "t2", "t1"}, ids)
	assert.Equal(t, model.PriorityMedium, items[1].Priority)
	assert.True(t, items[3].Completed)
}

func TestRenameTaskRollsBackOnApplicationError(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	backend.tasks[owner.ID] = []api.Task{{ID: "t1", Description: "buy flowers"}}
	backend.failUpdate = &api.Error{Kind: api.KindApplication, Op: "Task.updateTaskDescription", Status: 200, Message: "Task not found"}
	ws := NewWorkspace(backend, newMemPriorities(), newMemSelections(), collaboratorView())
	_, err := ws.Load(ctx)
	require.NoError(t, err)

	err = ws.RenameTask(ctx, "t1", "buy tulips")

	require.Error(t, err)
	assert.True(t, errors.Is(err, api.ErrRejected))
	assert.Equal(t, "Task not found", api.Message(err))
	assert.Equal(t, "buy flowers", ws.Tasks()[0].Description)
}

func TestToggleTaskRollsBack(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	backend.tasks[owner.ID] = []api.Task{{ID: "t1", Description: "buy flowers"}}
	backend.failComplete = &api.Error{Kind: api.KindNetwork, Op: "TaskChecklist.markComplete"}
	ws := NewWorkspace(backend, newMemPriorities(), newMemSelections(), collaboratorView())
	_, err := ws.Load(ctx)
	require.NoError(t, err)

	done, err := ws.ToggleTask(ctx, "t1")

	require.Error(t, err)
	assert.False(t, done)
	assert.False(t, ws.Tasks()[0].Completed)
	assert.Equal(t, "cannot connect to backend", api.Message(err))
}

func TestAddTaskDropsPlaceholderOnFailure(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	backend.failCreate = errors.New("boom")
	ws := NewWorkspace(backend, newMemPriorities(), newMemSelections(), collaboratorView())

	_, err := ws.AddTask(ctx, TaskInput{Description: "book table"})

	require.Error(t, err)
	assert.Empty(t, ws.Tasks())
}

func TestAddTaskReplacesPlaceholder(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	prio := newMemPriorities()
	ws := NewWorkspace(backend, prio, newMemSelections(), collaboratorView())

	item, err := ws.AddTask(ctx, TaskInput{Description: "  book table ", Priority: model.PriorityHigh})

	require.NoError(t, err)
	assert.False(t, item.Placeholder)
	assert.False(t, strings.HasPrefix(item.ID, "tmp-"))
	assert.Equal(t, "book table", item.Description)
	stored, err := prio.Map(ctx, "o1", owner.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PriorityHigh, stored[item.ID])
	assert.Equal(t, []api.ChecklistEntry{{Task: item.ID}}, backend.checklist[owner.ID])
}

func TestAddTaskValidatesInput(t *testing.T) {
	ws := NewWorkspace(newFakeBackend(), newMemPriorities(), newMemSelections(), collaboratorView())

	_, err := ws.AddTask(context.Background(), TaskInput{Description: "   "})
	assert.Error(t, err)
	_, err = ws.AddTask(context.Background(), TaskInput{Description: "x", Priority: "urgent"})
	assert.Error(t, err)
}

func TestDegradedWorkspaceLoadsEmptyAndRejectsMutations(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	ws := NewWorkspace(backend, newMemPriorities(), newMemSelections(), Ownership{OccasionID: "o1", State: OwnershipDegraded})

	items, err := ws.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
	notes, err := ws.Notes(ctx, "r1")
	require.NoError(t, err)
	assert.Empty(t, notes)

	_, err = ws.AddTask(ctx, TaskInput{Description: "x"})
	assert.ErrorIs(t, err, ErrOwnerUnresolved)
	_, err = ws.AddNote(ctx, NoteInput{RelationshipID: "r1", Title: "x"})
	assert.ErrorIs(t, err, ErrOwnerUnresolved)
	assert.Empty(t, backend.calls)
}

func TestSetPriorityResorts(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	backend.tasks[owner.ID] = []api.Task{{ID: "t1"}, {ID: "t2"}}
	prio := newMemPriorities()
	ws := NewWorkspace(backend, prio, newMemSelections(), collaboratorView())
	_, err := ws.Load(ctx)
	require.NoError(t, err)

	require.NoError(t, ws.SetPriority(ctx, "t2", model.PriorityHigh))
	assert.ErrorIs(t, ws.SetPriority(ctx, "t9", model.PriorityHigh), ErrTaskNotFound)
	assert.Error(t, ws.SetPriority(ctx, "t1", "urgent"))

	items, err := ws.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "t2", items[0].ID)
}

func TestNoteSelection(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	ws := NewWorkspace(backend, newMemPriorities(), newMemSelections(), collaboratorView())

	require.NoError(t, ws.SelectNote(ctx, "n1"))
	require.NoError(t, ws.SelectNote(ctx, "n2"))
	require.NoError(t, ws.DeleteNote(ctx, "n1"))

	selected, err := ws.SelectedNotes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"n2"}, selected)
}
