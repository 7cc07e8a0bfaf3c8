package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"momento/internal/api"
	"momento/internal/logger"
)

var (
	ErrDuplicateInvite = errors.New("a pending invite for this user and occasion already exists")
	ErrInviteSelf      = errors.New("cannot invite yourself")
)

// InviteBackend is the part of the backend the invite directory talks to.
type InviteBackend interface {
	IncomingInvites(ctx context.Context, userID string) ([]api.Invite, error)
	SentInvites(ctx context.Context, userID string) ([]api.Invite, error)
	AcceptInvite(ctx context.Context, invite string) error
	DeclineInvite(ctx context.Context, invite string) error
	CreateInvite(ctx context.Context, recipientUsername, occasionID, senderUsername string) (string, error)
}

// InviteBuckets groups invites by status, preserving input order.
type InviteBuckets struct {
	Pending  []api.Invite
	Accepted []api.Invite
	Declined []api.Invite
}

// Classify splits invites by their normalised status.
func Classify(invites []api.Invite) InviteBuckets {
	var b InviteBuckets
	for _, inv := range invites {
		switch inv.Status.Normalize() {
		case api.InviteAccepted:
			b.Accepted = append(b.Accepted, inv)
		case api.InviteDeclined:
			b.Declined = append(b.Declined, inv)
		default:
			b.Pending = append(b.Pending, inv)
		}
	}
	return b
}

// PendingSets holds, per user, the pending incoming invites last shown to
// them. It outlives a single request.
type PendingSets struct {
	mu     sync.Mutex
	byUser map[string][]api.Invite
}

func NewPendingSets() *PendingSets {
	return &PendingSets{byUser: make(map[string][]api.Invite)}
}

func (p *PendingSets) Get(userID string) []api.Invite {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]api.Invite(nil), p.byUser[userID]...)
}

func (p *PendingSets) Put(userID string, invites []api.Invite) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.byUser[userID] = append([]api.Invite(nil), invites...)
}

// Remove drops inviteID from the user's set and reports whether it was there.
func (p *PendingSets) Remove(userID, inviteID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	current := p.byUser[userID]
	for i, inv := range current {
		if inv.ID == inviteID {
			p.byUser[userID] = append(current[:i:i], current[i+1:]...)
			return true
		}
	}
	return false
}

// InviteDirectory fetches and resolves collaboration invites for one user.
type InviteDirectory struct {
	backend InviteBackend
	sets    *PendingSets
}

func NewInviteDirectory(backend InviteBackend, sets *PendingSets) *InviteDirectory {
	return &InviteDirectory{backend: backend, sets: sets}
}

func (d *InviteDirectory) Incoming(ctx context.Context, user api.User) ([]api.Invite, error) {
	return d.backend.IncomingInvites(ctx, user.ID)
}

func (d *InviteDirectory) Sent(ctx context.Context, user api.User) ([]api.Invite, error) {
	return d.backend.SentInvites(ctx, user.ID)
}

// Pending refreshes and returns the user's working set of pending incoming invites.
func (d *InviteDirectory) Pending(ctx context.Context, user api.User) ([]api.Invite, error) {
	incoming, err := d.Incoming(ctx, user)
	if err != nil {
		return nil, err
	}
	pending := Classify(incoming).Pending
	d.sets.Put(user.ID, pending)
	return pending, nil
}

// Working returns the working set without contacting the backend.
func (d *InviteDirectory) Working(user api.User) []api.Invite {
	return d.sets.Get(user.ID)
}

// Accept removes the invite from the working set and accepts it. When the
// backend call fails the working set is re-fetched so the invite shows up
// again if it is still pending.
func (d *InviteDirectory) Accept(ctx context.Context, user api.User, inviteID string) error {
	return d.resolve(ctx, user, inviteID, "accept", d.backend.AcceptInvite)
}

func (d *InviteDirectory) Decline(ctx context.Context, user api.User, inviteID string) error {
	return d.resolve(ctx, user, inviteID, "decline", d.backend.DeclineInvite)
}

func (d *InviteDirectory) resolve(ctx context.Context, user api.User, inviteID, verb string, call func(context.Context, string) error) error {
	d.sets.Remove(user.ID, inviteID)
	if err := call(ctx, inviteID); err != nil {
		logger.Warnf("%s invite=%s user=%s: %v", verb, inviteID, user.ID, err)
		if _, refreshErr := d.Pending(ctx, user); refreshErr != nil {
			logger.Warnf("refresh invites user=%s: %v", user.ID, refreshErr)
		}
		return err
	}
	logger.Infof("invite %s ok invite=%s user=%s", verb, inviteID, user.ID)
	return nil
}

// Send invites recipientUsername to collaborate on occasionID.
func (d *InviteDirectory) Send(ctx context.Context, sender api.User, recipientUsername, occasionID string) (string, error) {
	recipientUsername = strings.TrimSpace(recipientUsername)
	occasionID = strings.TrimSpace(occasionID)
	if recipientUsername == "" || occasionID == "" {
		return "", fmt.Errorf("recipient and occasion are required")
	}
	if recipientUsername == sender.Username {
		return "", ErrInviteSelf
	}

	sent, err := d.Sent(ctx, sender)
	if err != nil {
		// The backend rejects duplicates as well.
		logger.Debugf("list sent invites user=%s: %v", sender.ID, err)
	}
	for _, inv := range Classify(sent).Pending {
		if inv.OccasionID == occasionID && strings.EqualFold(inv.Recipient.Username, recipientUsername) {
			return "", ErrDuplicateInvite
		}
	}

	id, err := d.backend.CreateInvite(ctx, recipientUsername, occasionID, sender.Username)
	if err != nil {
		return "", err
	}
	logger.Infof("invite sent invite=%s occasion=%s from=%s to=%s", id, occasionID, sender.Username, recipientUsername)
	return id, nil
}
