package service

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"momento/internal/api"
	"momento/internal/logger"
)

type CollaboratorStatus string

const (
	CollaboratorAccepted CollaboratorStatus = "accepted"
	CollaboratorPending  CollaboratorStatus = "pending"
)

// Collaborator is one pill in an occasion's collaborator list.
type Collaborator struct {
	ID      string
	Name    string
	Initial string
	Status  CollaboratorStatus
	Owner   bool
}

// CollaboratorBackend is what the list builder needs from the backend.
type CollaboratorBackend interface {
	OccasionCollaborators(ctx context.Context, occasionID string) ([]api.UserRef, error)
	SentInvites(ctx context.Context, userID string) ([]api.Invite, error)
	Name(ctx context.Context, userID string) (string, error)
}

// BuildOptions controls optional round trips of the builder.
type BuildOptions struct {
	// IncludePending appends the viewer's pending sent invites.
	IncludePending bool
}

// CollaboratorListBuilder merges accepted collaborators, the resolved owner
// and pending invites into one de-duplicated list.
type CollaboratorListBuilder struct {
	backend CollaboratorBackend
	names   map[string]string
}

func NewCollaboratorListBuilder(backend CollaboratorBackend) *CollaboratorListBuilder {
	return &CollaboratorListBuilder{backend: backend, names: make(map[string]string)}
}

// Build returns the owner first, then accepted collaborators in backend
// order, then pending invites.
func (b *CollaboratorListBuilder) Build(ctx context.Context, own Ownership, viewer api.User, opts BuildOptions) []Collaborator {
	var accepted []Collaborator
	refs, err := b.backend.OccasionCollaborators(ctx, own.OccasionID)
	if err != nil {
		logger.Warnf("collaborators occasion=%s: %v", own.OccasionID, err)
	}
	owner := api.User{ID: own.OwnerID, Username: own.OwnerUsername}
	if owner.Username == "" && own.OwnerID == viewer.ID {
		owner.Username = viewer.Username
	}
	for _, ref := range refs {
		if ref.IsZero() {
			continue
		}
		// The owner listed by username alone is still the owner.
		if ref.ID == "" && owner.ID != "" && ref.Matches(owner) {
			ref.ID = owner.ID
		}
		name := ref.Username
		if name == "" {
			name = b.displayName(ctx, ref.ID, viewer)
		}
		accepted = append(accepted, newCollaborator(ref.ID, name, CollaboratorAccepted))
	}

	list := make([]Collaborator, 0, len(accepted)+1)
	if own.OwnerID != "" {
		head := newCollaborator(own.OwnerID, "", CollaboratorAccepted)
		head.Owner = true
		for _, c := range accepted {
			if c.ID == own.OwnerID {
				head.Name = c.Name
				break
			}
		}
		if head.Name == "" {
			head.Name = b.displayName(ctx, own.OwnerID, viewer)
		}
		head.Initial = initial(head.Name)
		list = append(list, head)
	}
	list = append(list, accepted...)

	if opts.IncludePending {
		sent, err := b.backend.SentInvites(ctx, viewer.ID)
		if err != nil {
			logger.Warnf("pending invites occasion=%s: %v", own.OccasionID, err)
		}
		for _, inv := range Classify(sent).Pending {
			if inv.OccasionID != own.OccasionID {
				continue
			}
			list = append(list, b.pendingFrom(ctx, inv, viewer))
		}
	}

	return DedupeCollaborators(list)
}

func (b *CollaboratorListBuilder) pendingFrom(ctx context.Context, inv api.Invite, viewer api.User) Collaborator {
	id := inv.Recipient.ID
	name := inv.Recipient.Username
	if name == "" && id != "" {
		name = b.displayName(ctx, id, viewer)
	}
	if id == "" {
		// Placeholder; never sent to the backend.
		id = "tmp-" + uuid.NewString()
	}
	if name == "" {
		name = "invited user"
	}
	return newCollaborator(id, name, CollaboratorPending)
}

// displayName resolves a profile name, falling back to the raw id.
func (b *CollaboratorListBuilder) displayName(ctx context.Context, userID string, viewer api.User) string {
	if userID == viewer.ID && viewer.Username != "" {
		return viewer.Username
	}
	if name, ok := b.names[userID]; ok {
		return name
	}
	name, err := b.backend.Name(ctx, userID)
	if err != nil || strings.TrimSpace(name) == "" {
		name = userID
	}
	b.names[userID] = name
	return name
}

func newCollaborator(id, name string, status CollaboratorStatus) Collaborator {
	return Collaborator{ID: id, Name: name, Initial: initial(name), Status: status}
}

func initial(name string) string {
	for _, r := range strings.TrimSpace(name) {
		return string(unicode.ToUpper(r))
	}
	return "?"
}

// DedupeCollaborators keeps the first entry per id, then per case-folded
// name. An accepted entry replaces a pending one in place.
func DedupeCollaborators(list []Collaborator) []Collaborator {
	out := make([]Collaborator, 0, len(list))
	byID := make(map[string]int)
	byName := make(map[string]int)

	for _, c := range list {
		idx := -1
		if c.ID != "" {
			if i, ok := byID[c.ID]; ok {
				idx = i
			}
		}
		key := strings.ToLower(strings.TrimSpace(c.Name))
		if idx < 0 && key != "" {
			if i, ok := byName[key]; ok {
				idx = i
			}
		}

		if idx >= 0 {
			if out[idx].Status == CollaboratorPending && c.Status == CollaboratorAccepted {
				c.Owner = c.Owner || out[idx].Owner
				out[idx] = c
				if c.ID != "" {
					byID[c.ID] = idx
				}
				if key != "" {
					byName[key] = idx
				}
			}
			continue
		}

		if c.ID != "" {
			byID[c.ID] = len(out)
		}
		if key != "" {
			byName[key] = len(out)
		}
		out = append(out, c)
	}
	return out
}

// NetworkBackend lists the users the viewer collaborates with anywhere.
type NetworkBackend interface {
	Collaborators(ctx context.Context) ([]api.UserRef, error)
	Name(ctx context.Context, userID string) (string, error)
}

// Network returns everyone the viewer shares an occasion with, without the
// viewer.
func Network(ctx context.Context, backend NetworkBackend, viewer api.User) ([]Collaborator, error) {
	refs, err := backend.Collaborators(ctx)
	if err != nil {
		return nil, fmt.Errorf("list collaborators: %w", err)
	}
	list := make([]Collaborator, 0, len(refs))
	for _, ref := range refs {
		if ref.IsZero() || ref.Matches(viewer) {
			continue
		}
		name := ref.Username
		if name == "" {
			name = ref.ID
			if n, err := backend.Name(ctx, ref.ID); err == nil && strings.TrimSpace(n) != "" {
				name = n
			}
		}
		list = append(list, newCollaborator(ref.ID, name, CollaboratorAccepted))
	}
	return DedupeCollaborators(list), nil
}
