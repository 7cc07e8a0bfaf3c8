package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"momento/internal/api"
	"momento/internal/logger"
)

// ErrNotOwner is returned for owner-only operations attempted by a collaborator.
var ErrNotOwner = errors.New("only the owner of an occasion can do this")

// OccasionBackend is everything an occasion view talks to.
type OccasionBackend interface {
	OwnershipBackend
	CollaboratorBackend
	WorkspaceBackend
	Occasions(ctx context.Context, owner string) ([]api.Occasion, error)
	CreateOccasion(ctx context.Context, owner string, in api.OccasionInput) (string, error)
	UpdateOccasion(ctx context.Context, occasion string, in api.OccasionUpdate) error
	DeleteOccasion(ctx context.Context, occasion string) error
	RemoveCollaborator(ctx context.Context, userID, occasionID string) error
}

// OccasionView is one loaded occasion page.
type OccasionView struct {
	Ownership     Ownership
	Occasion      *api.Occasion
	Collaborators []Collaborator
	Workspace     *Workspace
}

// OccasionService opens occasion views. Ownership is resolved again on every
// Open; nothing about an occasion's owner is cached between views.
type OccasionService struct {
	priorities PriorityStore
	selections NoteSelectionStore
}

func NewOccasionService(priorities PriorityStore, selections NoteSelectionStore) *OccasionService {
	return &OccasionService{priorities: priorities, selections: selections}
}

// Open resolves ownership, then builds the collaborator list and loads the
// owner's tasks concurrently.
func (s *OccasionService) Open(ctx context.Context, backend OccasionBackend, viewer api.User, occasionID string, opts BuildOptions) (*OccasionView, error) {
	own := NewOwnershipResolver(backend).Resolve(ctx, occasionID, viewer)
	view := &OccasionView{
		Ownership: own,
		Occasion:  own.Occasion,
		Workspace: NewWorkspace(backend, s.priorities, s.selections, own),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		view.Collaborators = NewCollaboratorListBuilder(backend).Build(gctx, own, viewer, opts)
		return nil
	})
	g.Go(func() error {
		_, err := view.Workspace.Load(gctx)
		return err
	})
	if view.Occasion == nil && !own.Degraded() {
		g.Go(func() error {
			view.Occasion = s.lookup(gctx, backend, own.OwnerID, occasionID)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return view, fmt.Errorf("open occasion %s: %w", occasionID, err)
	}
	return view, nil
}

// lookup finds occasion details in the owner's list when the direct fetch
// did not answer.
func (s *OccasionService) lookup(ctx context.Context, backend OccasionBackend, ownerID, occasionID string) *api.Occasion {
	list, err := backend.Occasions(ctx, ownerID)
	if err != nil {
		logger.Debugf("occasion %s: list owner %s: %v", occasionID, ownerID, err)
		return nil
	}
	for i := range list {
		if list[i].ID == occasionID {
			return &list[i]
		}
	}
	return nil
}

// List returns the user's occasions ordered by date.
func (s *OccasionService) List(ctx context.Context, backend OccasionBackend, user api.User) ([]api.Occasion, error) {
	list, err := backend.Occasions(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list occasions: %w", err)
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Date.Before(list[j].Date.Time)
	})
	return list, nil
}

// Create adds an occasion owned by user.
func (s *OccasionService) Create(ctx context.Context, backend OccasionBackend, user api.User, person, occasionType string, date time.Time) (string, error) {
	if person == "" || occasionType == "" {
		return "", fmt.Errorf("person and occasion type are required")
	}
	if date.IsZero() {
		return "", fmt.Errorf("date is required")
	}
	id, err := backend.CreateOccasion(ctx, user.ID, api.OccasionInput{Person: person, OccasionType: occasionType, Date: date})
	if err != nil {
		return "", err
	}
	logger.Infof("occasion created occasion=%s owner=%s", id, user.ID)
	return id, nil
}

// Delete removes an occasion. The backend rejects it for non-owners.
func (s *OccasionService) Delete(ctx context.Context, backend OccasionBackend, user api.User, occasionID string) error {
	if err := backend.DeleteOccasion(ctx, occasionID); err != nil {
		return fmt.Errorf("delete occasion %s: %w", occasionID, err)
	}
	logger.Infof("occasion deleted occasion=%s by=%s", occasionID, user.ID)
	return nil
}

// Update changes the non-nil fields of an occasion.
func (s *OccasionService) Update(ctx context.Context, backend OccasionBackend, user api.User, occasionID string, in api.OccasionUpdate) error {
	if in.Person == nil && in.OccasionType == nil && in.Date == nil {
		return fmt.Errorf("nothing to update")
	}
	if err := backend.UpdateOccasion(ctx, occasionID, in); err != nil {
		return fmt.Errorf("update occasion %s: %w", occasionID, err)
	}
	logger.Infof("occasion updated occasion=%s by=%s", occasionID, user.ID)
	return nil
}

// RemoveCollaborator revokes the access of username to an occasion the
// viewer owns.
func (s *OccasionService) RemoveCollaborator(ctx context.Context, backend OccasionBackend, viewer api.User, occasionID, username string) error {
	own := NewOwnershipResolver(backend).Resolve(ctx, occasionID, viewer)
	if own.Degraded() {
		return ErrOwnerUnresolved
	}
	if !own.IsCurrentUserOwner {
		return ErrNotOwner
	}
	target, err := backend.UserByUsername(ctx, strings.TrimPrefix(strings.TrimSpace(username), "@"))
	if err != nil {
		return fmt.Errorf("find user %q: %w", username, err)
	}
	if target.ID == own.OwnerID {
		return ErrInviteSelf
	}
	if err := backend.RemoveCollaborator(ctx, target.ID, occasionID); err != nil {
		return err
	}
	logger.Infof("collaborator removed occasion=%s user=%s", occasionID, target.ID)
	return nil
}
