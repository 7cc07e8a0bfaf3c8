package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"momento/internal/api"
	"momento/internal/logger"
	"momento/internal/model"
)

var (
	ErrOwnerUnresolved = errors.New("the owner of this occasion could not be determined")
	ErrTaskNotFound    = errors.New("task not found")
)

// WorkspaceBackend is the task, checklist and note surface of the backend.
type WorkspaceBackend interface {
	CreateTask(ctx context.Context, owner, description string) (string, error)
	UpdateTaskDescription(ctx context.Context, task, description string) error
	DeleteTask(ctx context.Context, task string) error
	Tasks(ctx context.Context, owner string) ([]api.Task, error)
	AddToChecklist(ctx context.Context, owner, task string) error
	RemoveFromChecklist(ctx context.Context, owner, task string) error
	MarkComplete(ctx context.Context, owner, task string) error
	MarkIncomplete(ctx context.Context, owner, task string) error
	Checklist(ctx context.Context, owner string) ([]api.ChecklistEntry, error)

	CreateNote(ctx context.Context, owner, relationship, title, content string) (string, error)
	UpdateNote(ctx context.Context, note string, title, content *string) error
	DeleteNote(ctx context.Context, note string) error
	NotesByRelationship(ctx context.Context, owner, relationship string) ([]api.Note, error)
}

// PriorityStore caches priorities per (occasion, owner).
type PriorityStore interface {
	Map(ctx context.Context, occasionID, ownerID string) (map[string]string, error)
	Set(ctx context.Context, occasionID, ownerID, taskID, priority string) error
	Delete(ctx context.Context, occasionID, ownerID, taskID string) error
}

// NoteSelectionStore remembers which notes are surfaced on an occasion.
type NoteSelectionStore interface {
	List(ctx context.Context, occasionID, ownerID string) ([]string, error)
	Select(ctx context.Context, occasionID, ownerID, noteID string) error
	Unselect(ctx context.Context, occasionID, ownerID, noteID string) error
}

// TaskItem is a task joined with its checklist state and local priority.
type TaskItem struct {
	ID          string
	Description string
	Completed   bool
	Priority    string
	// Placeholder is set while a create call is in flight.
	Placeholder bool
}

// TaskInput is validated before any backend call.
type TaskInput struct {
	Description string `validate:"required,max=500"`
	Priority    string `validate:"omitempty,oneof=low medium high"`
}

// NoteInput is validated before any backend call.
type NoteInput struct {
	RelationshipID string `validate:"required"`
	Title          string `validate:"required,max=200"`
	Content        string `validate:"max=10000"`
}

// Workspace routes every task and note operation of one occasion view
// through the owner's account, so all collaborators share one set of
// records. Priorities are device-local and not shared between collaborators.
type Workspace struct {
	backend    WorkspaceBackend
	priorities PriorityStore
	selections NoteSelectionStore
	ownership  Ownership
	validate   *validator.Validate

	mu    sync.Mutex
	tasks []TaskItem
}

// NewWorkspace builds a workspace for own. Nil stores keep nothing, which
// suits personal notes viewed outside an occasion.
func NewWorkspace(backend WorkspaceBackend, priorities PriorityStore, selections NoteSelectionStore, own Ownership) *Workspace {
	if priorities == nil {
		priorities = nopStore{}
	}
	if selections == nil {
		selections = nopStore{}
	}
	return &Workspace{
		backend:    backend,
		priorities: priorities,
		selections: selections,
		ownership:  own,
		validate:   validator.New(),
	}
}

type nopStore struct{}

func (nopStore) Map(context.Context, string, string) (map[string]string, error) { return nil, nil }
func (nopStore) Set(context.Context, string, string, string, string) error { return nil }
func (nopStore) Delete(context.Context, string, string, string) error { return nil }
func (nopStore) List(context.Context, string, string) ([]string, error) { return nil, nil }
func (nopStore) Select(context.Context, string, string, string) error { return nil }
func (nopStore) Unselect(context.Context, string, string, string) error { return nil }

func (w *Workspace) Ownership() Ownership { return w.ownership }

// account is the id every owner parameter is sent as.
func (w *Workspace) account() (string, error) {
	if w.ownership.Degraded() {
		return "", ErrOwnerUnresolved
	}
	return w.ownership.OwnerID, nil
}

// Load fetches tasks and checklist of the owner. A degraded workspace
// loads empty without error.
func (w *Workspace) Load(ctx context.Context) ([]TaskItem, error) {
	owner, err := w.account()
	if err != nil {
		logger.Warnf("workspace occasion=%s: skipping task load: %v", w.ownership.OccasionID, err)
		w.setTasks(nil)
		return nil, nil
	}

	var (
		tasks     []api.Task
		checklist []api.ChecklistEntry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tasks, err = w.backend.Tasks(gctx, owner)
		return err
	})
	g.Go(func() error {
		var err error
		checklist, err = w.backend.Checklist(gctx, owner)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}

	priorities, err := w.priorities.Map(ctx, w.ownership.OccasionID, owner)
	if err != nil {
		logger.Warnf("workspace occasion=%s: read priorities: %v", w.ownership.OccasionID, err)
		priorities = nil
	}

	done := make(map[string]bool, len(checklist))
	for _, entry := range checklist {
		done[entry.Task] = entry.Completed
	}

	items := make([]TaskItem, 0, len(tasks))
	for _, t := range tasks {
		p := priorities[t.ID]
		if p == "" {
			p = model.PriorityMedium
		}
		items = append(items, TaskItem{ID: t.ID, Description: t.Description, Completed: done[t.ID], Priority: p})
	}
	sortTasks(items)
	w.setTasks(items)
	return w.Tasks(), nil
}

// sortTasks puts open tasks first, then orders by priority.
func sortTasks(items []TaskItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Completed != items[j].Completed {
			return !items[i].Completed
		}
		return model.PriorityRank(items[i].Priority) < model.PriorityRank(items[j].Priority)
	})
}

// Tasks returns a snapshot of the current task list.
func (w *Workspace) Tasks() []TaskItem {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]TaskItem(nil), w.tasks...)
}

func (w *Workspace) setTasks(items []TaskItem) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.tasks = items
}

// update applies fn to the task with id under the lock.
func (w *Workspace) update(id string, fn func(*TaskItem)) (TaskItem, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i := range w.tasks {
		if w.tasks[i].ID == id {
			fn(&w.tasks[i])
			return w.tasks[i], true
		}
	}
	return TaskItem{}, false
}

func (w *Workspace) remove(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i := range w.tasks {
		if w.tasks[i].ID == id {
			w.tasks = append(w.tasks[:i], w.tasks[i+1:]...)
			return
		}
	}
}

// AddTask creates a task and its checklist entry under the owner's account.
func (w *Workspace) AddTask(ctx context.Context, in TaskInput) (TaskItem, error) {
	in.Description = strings.TrimSpace(in.Description)
	if err := w.validate.Struct(in); err != nil {
		return TaskItem{}, fmt.Errorf("invalid task: %w", err)
	}
	owner, err := w.account()
	if err != nil {
		return TaskItem{}, err
	}
	if in.Priority == "" {
		in.Priority = model.PriorityMedium
	}

	tmpID := "tmp-" + uuid.NewString()
	w.mu.Lock()
	w.tasks = append(w.tasks, TaskItem{ID: tmpID, Description: in.Description, Priority: in.Priority, Placeholder: true})
	w.mu.Unlock()

	id, err := w.backend.CreateTask(ctx, owner, in.Description)
	if err != nil {
		w.remove(tmpID)
		return TaskItem{}, err
	}
	if err := w.backend.AddToChecklist(ctx, owner, id); err != nil {
		logger.Warnf("workspace occasion=%s: add task %s to checklist: %v", w.ownership.OccasionID, id, err)
	}
	if err := w.priorities.Set(ctx, w.ownership.OccasionID, owner, id, in.Priority); err != nil {
		logger.Warnf("workspace occasion=%s: store priority: %v", w.ownership.OccasionID, err)
	}

	item, _ := w.update(tmpID, func(t *TaskItem) {
		t.ID = id
		t.Placeholder = false
	})
	logger.Infof("task created task=%s owner=%s occasion=%s", id, owner, w.ownership.OccasionID)
	return item, nil
}

// RenameTask edits the description optimistically and reverts on failure.
func (w *Workspace) RenameTask(ctx context.Context, taskID, description string) error {
	description = strings.TrimSpace(description)
	if err := w.validate.Var(description, "required,max=500"); err != nil {
		return fmt.Errorf("invalid description: %w", err)
	}
	if _, err := w.account(); err != nil {
		return err
	}

	var previous string
	if _, ok := w.update(taskID, func(t *TaskItem) {
		previous = t.Description
		t.Description = description
	}); !ok {
		return ErrTaskNotFound
	}

	if err := w.backend.UpdateTaskDescription(ctx, taskID, description); err != nil {
		w.update(taskID, func(t *TaskItem) { t.Description = previous })
		return err
	}
	return nil
}

// ToggleTask flips completion optimistically and reverts on failure.
func (w *Workspace) ToggleTask(ctx context.Context, taskID string) (bool, error) {
	owner, err := w.account()
	if err != nil {
		return false, err
	}

	item, ok := w.update(taskID, func(t *TaskItem) { t.Completed = !t.Completed })
	if !ok {
		return false, ErrTaskNotFound
	}

	if item.Completed {
		err = w.backend.MarkComplete(ctx, owner, taskID)
	} else {
		err = w.backend.MarkIncomplete(ctx, owner, taskID)
	}
	if err != nil {
		w.update(taskID, func(t *TaskItem) { t.Completed = !item.Completed })
		return !item.Completed, err
	}
	return item.Completed, nil
}

// RemoveTask deletes the checklist entry, the task and its local priority.
func (w *Workspace) RemoveTask(ctx context.Context, taskID string) error {
	owner, err := w.account()
	if err != nil {
		return err
	}
	if err := w.backend.RemoveFromChecklist(ctx, owner, taskID); err != nil && !errors.Is(err, api.ErrRejected) {
		return err
	}
	if err := w.backend.DeleteTask(ctx, taskID); err != nil {
		return err
	}
	w.remove(taskID)
	if err := w.priorities.Delete(ctx, w.ownership.OccasionID, owner, taskID); err != nil {
		logger.Warnf("workspace occasion=%s: drop priority: %v", w.ownership.OccasionID, err)
	}
	return nil
}

// SetPriority stores a device-local priority for a task.
func (w *Workspace) SetPriority(ctx context.Context, taskID, priority string) error {
	if err := w.validate.Var(priority, "required,oneof=low medium high"); err != nil {
		return fmt.Errorf("invalid priority %q", priority)
	}
	owner, err := w.account()
	if err != nil {
		return err
	}
	if _, ok := w.update(taskID, func(t *TaskItem) { t.Priority = priority }); !ok {
		return ErrTaskNotFound
	}
	return w.priorities.Set(ctx, w.ownership.OccasionID, owner, taskID, priority)
}

// Notes lists the owner's notes about a relationship.
func (w *Workspace) Notes(ctx context.Context, relationshipID string) ([]api.Note, error) {
	owner, err := w.account()
	if err != nil {
		logger.Warnf("workspace occasion=%s: skipping note load: %v", w.ownership.OccasionID, err)
		return nil, nil
	}
	return w.backend.NotesByRelationship(ctx, owner, relationshipID)
}

func (w *Workspace) AddNote(ctx context.Context, in NoteInput) (string, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := w.validate.Struct(in); err != nil {
		return "", fmt.Errorf("invalid note: %w", err)
	}
	owner, err := w.account()
	if err != nil {
		return "", err
	}
	return w.backend.CreateNote(ctx, owner, in.RelationshipID, in.Title, in.Content)
}

// EditNote changes the non-nil fields of a note.
func (w *Workspace) EditNote(ctx context.Context, noteID string, title, content *string) error {
	if _, err := w.account(); err != nil {
		return err
	}
	return w.backend.UpdateNote(ctx, noteID, title, content)
}

func (w *Workspace) DeleteNote(ctx context.Context, noteID string) error {
	owner, err := w.account()
	if err != nil {
		return err
	}
	if err := w.backend.DeleteNote(ctx, noteID); err != nil {
		return err
	}
	if err := w.selections.Unselect(ctx, w.ownership.OccasionID, owner, noteID); err != nil {
		logger.Warnf("workspace occasion=%s: unselect note: %v", w.ownership.OccasionID, err)
	}
	return nil
}

func (w *Workspace) SelectNote(ctx context.Context, noteID string) error {
	owner, err := w.account()
	if err != nil {
		return err
	}
	return w.selections.Select(ctx, w.ownership.OccasionID, owner, noteID)
}

func (w *Workspace) UnselectNote(ctx context.Context, noteID string) error {
	owner, err := w.account()
	if err != nil {
		return err
	}
	return w.selections.Unselect(ctx, w.ownership.OccasionID, owner, noteID)
}

// SelectedNotes returns the ids of notes surfaced on this occasion.
func (w *Workspace) SelectedNotes(ctx context.Context) ([]string, error) {
	owner, err := w.account()
	if err != nil {
		return nil, nil
	}
	return w.selections.List(ctx, w.ownership.OccasionID, owner)
}
