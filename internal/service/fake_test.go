package service

import (
	"context"
	"fmt"
	"io"
	"sync"

	"momento/internal/api"
)

// fakeBackend is an in-memory backend. Every owner argument is recorded so
// tests can check whose account a call went to.
type fakeBackend struct {
	mu sync.Mutex

	occasions     map[string]api.Occasion
	occasionErr   error
	users         map[string]api.User
	names         map[string]string
	incoming      map[string][]api.Invite
	sent          map[string][]api.Invite
	collaborators map[string][]api.UserRef
	network       []api.UserRef

	tasks     map[string][]api.Task
	checklist map[string][]api.ChecklistEntry
	notes     map[string][]api.Note
	rels      map[string][]api.Relationship

	failUpdate   error
	failComplete error
	failAccept   error
	failCreate   error

	owners      []string
	calls       []string
	nextID      int
	suggestions []api.Suggestion
	uploads     []string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		occasions:     map[string]api.Occasion{},
		users:         map[string]api.User{},
		names:         map[string]string{},
		incoming:      map[string][]api.Invite{},
		sent:          map[string][]api.Invite{},
		collaborators: map[string][]api.UserRef{},
		tasks:         map[string][]api.Task{},
		checklist:     map[string][]api.ChecklistEntry{},
		notes:         map[string][]api.Note{},
		rels:          map[string][]api.Relationship{},
	}
}

func (f *fakeBackend) record(call, owner string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	if owner != "" {
		f.owners = append(f.owners, owner)
	}
}

func (f *fakeBackend) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func (f *fakeBackend) ownerArgs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.owners...)
}

func (f *fakeBackend) GetOccasion(ctx context.Context, occasionID string) (api.Occasion, error) {
	f.record("GetOccasion", "")
	if f.occasionErr != nil {
		return api.Occasion{}, f.occasionErr
	}
	occ, ok := f.occasions[occasionID]
	if !ok {
		return api.Occasion{}, api.ErrNotFound
	}
	return occ, nil
}

func (f *fakeBackend) Occasions(ctx context.Context, owner string) ([]api.Occasion, error) {
	f.record("Occasions", owner)
	var out []api.Occasion
	for _, occ := range f.occasions {
		if occ.Owner.ID == owner {
			out = append(out, occ)
		}
	}
	return out, nil
}

func (f *fakeBackend) CreateOccasion(ctx context.Context, owner string, in api.OccasionInput) (string, error) {
	f.record("CreateOccasion", owner)
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.id("occ")
	f.occasions[id] = api.Occasion{ID: id, Owner: api.UserRef{ID: owner}, Person: in.Person, OccasionType: in.OccasionType, Date: api.Timestamp{Time: in.Date}}
	return id, nil
}

func (f *fakeBackend) DeleteOccasion(ctx context.Context, occasion string) error {
	f.record("DeleteOccasion", "")
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.occasions, occasion)
	return nil
}

func (f *fakeBackend) UpdateOccasion(ctx context.Context, occasion string, in api.OccasionUpdate) error {
	f.record("UpdateOccasion", "")
	f.mu.Lock()
	defer f.mu.Unlock()
	occ, ok := f.occasions[occasion]
	if !ok {
		return api.ErrNotFound
	}
	if in.Person != nil {
		occ.Person = *in.Person
	}
	if in.OccasionType != nil {
		occ.OccasionType = *in.OccasionType
	}
	if in.Date != nil {
		occ.Date = api.Timestamp{Time: *in.Date}
	}
	f.occasions[occasion] = occ
	return nil
}

func (f *fakeBackend) RemoveCollaborator(ctx context.Context, userID, occasionID string) error {
	f.record("RemoveCollaborator", "")
	f.mu.Lock()
	defer f.mu.Unlock()
	refs := f.collaborators[occasionID][:0]
	for _, ref := range f.collaborators[occasionID] {
		if ref.ID != userID {
			refs = append(refs, ref)
		}
	}
	f.collaborators[occasionID] = refs
	return nil
}

func (f *fakeBackend) UserByUsername(ctx context.Context, username string) (api.User, error) {
	f.record("UserByUsername", "")
	u, ok := f.users[username]
	if !ok {
		return api.User{}, api.ErrNotFound
	}
	return u, nil
}

func (f *fakeBackend) Name(ctx context.Context, userID string) (string, error) {
	f.record("Name", "")
	f.mu.Lock()
	defer f.mu.Unlock()
	name, ok := f.names[userID]
	if !ok {
		return "", api.ErrNotFound
	}
	return name, nil
}

func (f *fakeBackend) IncomingInvites(ctx context.Context, userID string) ([]api.Invite, error) {
	f.record("IncomingInvites", "")
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]api.Invite(nil), f.incoming[userID]...), nil
}

func (f *fakeBackend) SentInvites(ctx context.Context, userID string) ([]api.Invite, error) {
	f.record("SentInvites", "")
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]api.Invite(nil), f.sent[userID]...), nil
}

func (f *fakeBackend) OccasionCollaborators(ctx context.Context, occasionID string) ([]api.UserRef, error) {
	f.record("OccasionCollaborators", "")
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]api.UserRef(nil), f.collaborators[occasionID]...), nil
}

func (f *fakeBackend) Collaborators(ctx context.Context) ([]api.UserRef, error) {
	f.record("Collaborators", "")
	return append([]api.UserRef(nil), f.network...), nil
}

func (f *fakeBackend) AcceptInvite(ctx context.Context, invite string) error {
	f.record("AcceptInvite", "")
	if f.failAccept != nil {
		return f.failAccept
	}
	f.setInviteStatus(invite, api.InviteAccepted)
	return nil
}

func (f *fakeBackend) DeclineInvite(ctx context.Context, invite string) error {
	f.record("DeclineInvite", "")
	f.setInviteStatus(invite, api.InviteDeclined)
	return nil
}

func (f *fakeBackend) setInviteStatus(invite string, status api.InviteStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for user, list := range f.incoming {
		for i := range list {
			if list[i].ID == invite {
				f.incoming[user][i].Status = status
			}
		}
	}
}

func (f *fakeBackend) CreateInvite(ctx context.Context, recipientUsername, occasionID, senderUsername string) (string, error) {
	f.record("CreateInvite", "")
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.id("inv"), nil
}

func (f *fakeBackend) CreateTask(ctx context.Context, owner, description string) (string, error) {
	f.record("CreateTask", owner)
	if f.failCreate != nil {
		return "", f.failCreate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.id("task")
	f.tasks[owner] = append(f.tasks[owner], api.Task{ID: id, Description: description})
	return id, nil
}

func (f *fakeBackend) UpdateTaskDescription(ctx context.Context, task, description string) error {
	f.record("UpdateTaskDescription", "")
	if f.failUpdate != nil {
		return f.failUpdate
	}
	return nil
}

func (f *fakeBackend) DeleteTask(ctx context.Context, task string) error {
	f.record("DeleteTask", "")
	f.mu.Lock()
	defer f.mu.Unlock()
	for owner, list := range f.tasks {
		for i := range list {
			if list[i].ID == task {
				f.tasks[owner] = append(list[:i:i], list[i+1:]...)
				return nil
			}
		}
	}
	return nil
}

func (f *fakeBackend) Tasks(ctx context.Context, owner string) ([]api.Task, error) {
	f.record("Tasks", owner)
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]api.Task(nil), f.tasks[owner]...), nil
}

func (f *fakeBackend) AddToChecklist(ctx context.Context, owner, task string) error {
	f.record("AddToChecklist", owner)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checklist[owner] = append(f.checklist[owner], api.ChecklistEntry{Task: task})
	return nil
}

func (f *fakeBackend) RemoveFromChecklist(ctx context.Context, owner, task string) error {
	f.record("RemoveFromChecklist", owner)
	return nil
}

func (f *fakeBackend) MarkComplete(ctx context.Context, owner, task string) error {
	f.record("MarkComplete", owner)
	if f.failComplete != nil {
		return f.failComplete
	}
	return nil
}

func (f *fakeBackend) MarkIncomplete(ctx context.Context, owner, task string) error {
	f.record("MarkIncomplete", owner)
	return nil
}

func (f *fakeBackend) Checklist(ctx context.Context, owner string) ([]api.ChecklistEntry, error) {
	f.record("Checklist", owner)
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]api.ChecklistEntry(nil), f.checklist[owner]...), nil
}

func (f *fakeBackend) CreateNote(ctx context.Context, owner, relationship, title, content string) (string, error) {
	f.record("CreateNote", owner)
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.id("note")
	f.notes[owner+"/"+relationship] = append(f.notes[owner+"/"+relationship], api.Note{ID: id, Title: title, Content: content})
	return id, nil
}

func (f *fakeBackend) UpdateNote(ctx context.Context, note string, title, content *string) error {
	f.record("UpdateNote", "")
	return nil
}

func (f *fakeBackend) DeleteNote(ctx context.Context, note string) error {
	f.record("DeleteNote", "")
	return nil
}

func (f *fakeBackend) NotesByRelationship(ctx context.Context, owner, relationship string) ([]api.Note, error) {
	f.record("NotesByRelationship", owner)
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]api.Note(nil), f.notes[owner+"/"+relationship]...), nil
}

func (f *fakeBackend) CreateRelationship(ctx context.Context, owner, name, relationshipType string) (string, error) {
	f.record("CreateRelationship", owner)
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.id("rel")
	f.rels[owner] = append(f.rels[owner], api.Relationship{ID: id, Name: name, RelationshipType: relationshipType})
	return id, nil
}

func (f *fakeBackend) Relationships(ctx context.Context, owner string) ([]api.Relationship, error) {
	f.record("Relationships", owner)
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]api.Relationship(nil), f.rels[owner]...), nil
}

func (f *fakeBackend) RelationshipByName(ctx context.Context, owner, name string) (api.Relationship, error) {
	f.record("RelationshipByName", owner)
	return api.Relationship{}, api.ErrNotFound
}

func (f *fakeBackend) GenerateGiftSuggestions(ctx context.Context, owner, giftContext string) ([]api.Suggestion, error) {
	f.record("GenerateGiftSuggestions", owner)
	f.mu.Lock()
	defer f.mu.Unlock()
	s := api.Suggestion{ID: f.id("sug"), Content: "idea for: " + giftContext}
	f.suggestions = append(f.suggestions, s)
	return []api.Suggestion{s}, nil
}

func (f *fakeBackend) Suggestions(ctx context.Context, owner string) ([]api.Suggestion, error) {
	f.record("Suggestions", owner)
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]api.Suggestion(nil), f.suggestions...), nil
}

func (f *fakeBackend) UploadImage(ctx context.Context, owner, relationship, filename string, file io.Reader) (api.Image, error) {
	f.record("UploadImage", owner)
	data, err := io.ReadAll(file)
	if err != nil {
		return api.Image{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, string(data))
	return api.Image{ImageURL: "/uploads/" + filename}, nil
}

func (f *fakeBackend) ImagesByRelationship(ctx context.Context, owner, relationship string) ([]api.Image, error) {
	f.record("ImagesByRelationship", owner)
	return []api.Image{{ImageURL: "/uploads/a.png"}}, nil
}

// memPriorities and memSelections stand in for the sqlite repositories.
type memPriorities struct {
	mu sync.Mutex
	m  map[string]string
}

func newMemPriorities() *memPriorities { return &memPriorities{m: map[string]string{}} }

func (p *memPriorities) Map(ctx context.Context, occasionID, ownerID string) (map[string]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := map[string]string{}
	prefix := occasionID + "/" + ownerID + "/"
	for k, v := range p.m {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			out[k[len(prefix):]] = v
		}
	}
	return out, nil
}

func (p *memPriorities) Set(ctx context.Context, occasionID, ownerID, taskID, priority string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.m[occasionID+"/"+ownerID+"/"+taskID] = priority
	return nil
}

func (p *memPriorities) Delete(ctx context.Context, occasionID, ownerID, taskID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.m, occasionID+"/"+ownerID+"/"+taskID)
	return nil
}

type memSelections struct {
	mu sync.Mutex
	m  map[string][]string
}

func newMemSelections() *memSelections { return &memSelections{m: map[string][]string{}} }

func (s *memSelections) List(ctx context.Context, occasionID, ownerID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.m[occasionID+"/"+ownerID]...), nil
}

func (s *memSelections) Select(ctx context.Context, occasionID, ownerID, noteID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := occasionID + "/" + ownerID
	for _, id := range s.m[key] {
		if id == noteID {
			return nil
		}
	}
	s.m[key] = append(s.m[key], noteID)
	return nil
}

func (s *memSelections) Unselect(ctx context.Context, occasionID, ownerID, noteID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := occasionID + "/" + ownerID
	kept := s.m[key][:0]
	for _, id := range s.m[key] {
		if id != noteID {
			kept = append(kept, id)
		}
	}
	s.m[key] = kept
	return nil
}
