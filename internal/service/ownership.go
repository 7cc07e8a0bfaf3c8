package service

import (
	"context"

	"momento/internal/api"
	"momento/internal/logger"
)

// OwnershipState is the outcome of one resolution run.
type OwnershipState int

const (
	OwnershipUnknown OwnershipState = iota
	OwnershipResolved
	OwnershipDegraded
)

func (s OwnershipState) String() string {
	switch s {
	case OwnershipResolved:
		return "resolved"
	case OwnershipDegraded:
		return "degraded"
	default:
		return "unknown"
	}
}

// OwnershipSource names the signal that decided ownership.
type OwnershipSource string

const (
	SourceDirect         OwnershipSource = "direct"
	SourceIncomingInvite OwnershipSource = "incoming-invite"
	SourceSentInvite     OwnershipSource = "sent-invite"
	SourceCollaborator   OwnershipSource = "collaborator"
	SourceFallback       OwnershipSource = "fallback"
)

// Ownership says whose account holds an occasion's tasks and notes.
// OwnerID is empty only in the degraded state.
type Ownership struct {
	OccasionID         string
	OwnerID            string
	OwnerUsername      string
	IsCurrentUserOwner bool
	State              OwnershipState
	Source             OwnershipSource
	// Occasion is the detail returned by the direct lookup, when it answered.
	Occasion *api.Occasion
}

func (o Ownership) Degraded() bool { return o.State != OwnershipResolved || o.OwnerID == "" }

// OwnershipBackend is what the resolver needs from the backend.
type OwnershipBackend interface {
	GetOccasion(ctx context.Context, occasionID string) (api.Occasion, error)
	UserByUsername(ctx context.Context, username string) (api.User, error)
	IncomingInvites(ctx context.Context, userID string) ([]api.Invite, error)
	SentInvites(ctx context.Context, userID string) ([]api.Invite, error)
	OccasionCollaborators(ctx context.Context, occasionID string) ([]api.UserRef, error)
}

// OwnershipResolver infers the owner of an occasion. Older backends do not
// return the owner on occasion lookup, so invite history and the
// collaborator list serve as secondary evidence. Steps run strictly in
// order; the first conclusive one wins.
type OwnershipResolver struct {
	backend OwnershipBackend
}

func NewOwnershipResolver(backend OwnershipBackend) *OwnershipResolver {
	return &OwnershipResolver{backend: backend}
}

func (r *OwnershipResolver) Resolve(ctx context.Context, occasionID string, viewer api.User) Ownership {
	base := Ownership{OccasionID: occasionID}

	occ, err := r.backend.GetOccasion(ctx, occasionID)
	if err == nil {
		base.Occasion = &occ
		if own, ok := r.fromRef(ctx, base, occ.Owner, viewer, SourceDirect); ok {
			return own
		}
	} else {
		logger.Debugf("ownership occasion=%s: direct lookup failed: %v", occasionID, err)
	}

	incoming, err := r.backend.IncomingInvites(ctx, viewer.ID)
	if err != nil {
		logger.Debugf("ownership occasion=%s: incoming invites: %v", occasionID, err)
	}
	for _, inv := range incoming {
		if inv.OccasionID != occasionID {
			continue
		}
		if own, ok := r.fromRef(ctx, base, inv.Sender, viewer, SourceIncomingInvite); ok {
			return own
		}
	}

	sent, err := r.backend.SentInvites(ctx, viewer.ID)
	if err != nil {
		logger.Debugf("ownership occasion=%s: sent invites: %v", occasionID, err)
	}
	for _, inv := range sent {
		if inv.OccasionID == occasionID {
			return r.owned(base, viewer.ID, viewer, SourceSentInvite)
		}
	}

	collaborators, err := r.backend.OccasionCollaborators(ctx, occasionID)
	if err != nil {
		logger.Debugf("ownership occasion=%s: collaborators: %v", occasionID, err)
	}
	for _, ref := range collaborators {
		if ref.Matches(viewer) {
			logger.Warnf("ownership occasion=%s: user %s collaborates but owner is unknown; tasks and notes are unavailable", occasionID, viewer.ID)
			base.State = OwnershipDegraded
			base.Source = SourceCollaborator
			return base
		}
	}

	return r.owned(base, viewer.ID, viewer, SourceFallback)
}

// fromRef turns a user reference into an ownership result when it names
// someone; usernames without ids are looked up.
func (r *OwnershipResolver) fromRef(ctx context.Context, base Ownership, ref api.UserRef, viewer api.User, source OwnershipSource) (Ownership, bool) {
	if ref.IsZero() {
		return Ownership{}, false
	}
	base.OwnerUsername = ref.Username
	if ref.Matches(viewer) {
		return r.owned(base, viewer.ID, viewer, source), true
	}
	if id, err := ref.Resolve(); err == nil {
		return r.owned(base, id, viewer, source), true
	}
	user, err := r.backend.UserByUsername(ctx, ref.Username)
	if err != nil || user.ID == "" {
		logger.Debugf("ownership occasion=%s: cannot resolve username %q: %v", base.OccasionID, ref.Username, err)
		return Ownership{}, false
	}
	return r.owned(base, user.ID, viewer, source), true
}

func (r *OwnershipResolver) owned(base Ownership, ownerID string, viewer api.User, source OwnershipSource) Ownership {
	base.OwnerID = ownerID
	base.IsCurrentUserOwner = ownerID == viewer.ID
	if base.IsCurrentUserOwner && base.OwnerUsername == "" {
		base.OwnerUsername = viewer.Username
	}
	base.State = OwnershipResolved
	base.Source = source
	logger.Debugf("ownership occasion=%s owner=%s self=%t source=%s", base.OccasionID, ownerID, base.IsCurrentUserOwner, source)
	return base
}

// Self is the ownership of the viewer's own records outside any occasion.
func Self(user api.User) Ownership {
	return Ownership{OwnerID: user.ID, IsCurrentUserOwner: true, State: OwnershipResolved, Source: SourceDirect}
}
