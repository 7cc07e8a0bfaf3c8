package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"momento/internal/api"
)

var (
	owner  = api.User{ID: "u-owner", Username: "olga"}
	viewer = api.User{ID: "u-viewer", Username: "anna"}
)

func TestResolveDirectLookup(t *testing.T) {
	backend := newFakeBackend()
	backend.occasions["o1"] = api.Occasion{ID: "o1", Owner: api.UserRef{ID: "u-owner"}}

	own := NewOwnershipResolver(backend).Resolve(context.Background(), "o1", viewer)

	assert.Equal(t, "u-owner", own.OwnerID)
	assert.False(t, own.IsCurrentUserOwner)
	assert.Equal(t, OwnershipResolved, own.State)
	assert.Equal(t, SourceDirect, own.Source)
	require.NotNil(t, own.Occasion)
	assert.Equal(t, "o1", own.Occasion.ID)
}

func TestResolveIncomingInvite(t *testing.T) {
	backend := newFakeBackend()
	backend.occasionErr = errors.New("unknown action")
	backend.incoming[viewer.ID] = []api.Invite{
		{ID: "i0", OccasionID: "o2", Sender: api.UserRef{ID: "u-other"}, Status: api.InvitePending},
		{ID: "i1", OccasionID: "o1", Sender: api.UserRef{ID: "u-owner"}, Status: api.InvitePending},
	}

	own := NewOwnershipResolver(backend).Resolve(context.Background(), "o1", viewer)

	assert.Equal(t, "u-owner", own.OwnerID)
	assert.False(t, own.IsCurrentUserOwner)
	assert.Equal(t, SourceIncomingInvite, own.Source)
}

func TestResolveNoSignalsFallsBackToViewer(t *testing.T) {
	backend := newFakeBackend()

	own := NewOwnershipResolver(backend).Resolve(context.Background(), "o1", viewer)

	assert.Equal(t, viewer.ID, own.OwnerID)
	assert.True(t, own.IsCurrentUserOwner)
	assert.Equal(t, SourceFallback, own.Source)
	assert.False(t, own.Degraded())
}

func TestResolveSentInviteMeansViewerOwns(t *testing.T) {
	backend := newFakeBackend()
	backend.occasions["o1"] = api.Occasion{ID: "o1"}
	backend.sent[viewer.ID] = []api.Invite{{ID: "i1", OccasionID: "o1", Recipient: api.UserRef{Username: "boris"}}}

	own := NewOwnershipResolver(backend).Resolve(context.Background(), "o1", viewer)

	assert.Equal(t, viewer.ID, own.OwnerID)
	assert.True(t, own.IsCurrentUserOwner)
	assert.Equal(t, viewer.Username, own.OwnerUsername)
	assert.Equal(t, SourceSentInvite, own.Source)
}

func TestResolveCollaboratorWithoutOwnerIsDegraded(t *testing.T) {
	backend := newFakeBackend()
	backend.collaborators["o1"] = []api.UserRef{{ID: "u-x"}, {Username: viewer.Username}}

	own := NewOwnershipResolver(backend).Resolve(context.Background(), "o1", viewer)

	assert.True(t, own.Degraded())
	assert.Equal(t, OwnershipDegraded, own.State)
	assert.Empty(t, own.OwnerID)
	assert.False(t, own.IsCurrentUserOwner)
}

func TestResolveOwnerGivenByUsername(t *testing.T) {
	backend := newFakeBackend()
	backend.occasions["o1"] = api.Occasion{ID: "o1", Owner: api.UserRef{Username: "olga"}}
	backend.users["olga"] = owner

	own := NewOwnershipResolver(backend).Resolve(context.Background(), "o1", viewer)

	assert.Equal(t, owner.ID, own.OwnerID)
	assert.Equal(t, "olga", own.OwnerUsername)
	assert.Equal(t, SourceDirect, own.Source)
}

func TestResolveUnknownUsernameMovesOn(t *testing.T) {
	backend := newFakeBackend()
	backend.occasions["o1"] = api.Occasion{ID: "o1", Owner: api.UserRef{Username: "ghost"}}
	backend.incoming[viewer.ID] = []api.Invite{{ID: "i1", OccasionID: "o1", Sender: api.UserRef{ID: "u-owner"}}}

	own := NewOwnershipResolver(backend).Resolve(context.Background(), "o1", viewer)

	assert.Equal(t, "u-owner", own.OwnerID)
	assert.Equal(t, SourceIncomingInvite, own.Source)
}

func TestResolveDirectLookupShortCircuits(t *testing.T) {
	backend := newFakeBackend()
	backend.occasions["o1"] = api.Occasion{ID: "o1", Owner: api.UserRef{ID: "u-owner"}}

	NewOwnershipResolver(backend).Resolve(context.Background(), "o1", viewer)

	assert.Equal(t, []string{"GetOccasion"}, backend.calls)
}

func TestResolveIsDeterministic(t *testing.T) {
	backend := newFakeBackend()
	backend.incoming[viewer.ID] = []api.Invite{
		{ID: "i1", OccasionID: "o1", Sender: api.UserRef{ID: "u-owner"}},
		{ID: "i2", OccasionID: "o1", Sender: api.UserRef{ID: "u-someone"}},
	}
	backend.sent[viewer.ID] = []api.Invite{{ID: "i3", OccasionID: "o1"}}
	backend.collaborators["o1"] = []api.UserRef{{ID: viewer.ID}}

	resolver := NewOwnershipResolver(backend)
	first := resolver.Resolve(context.Background(), "o1", viewer)
	for i := 0; i < 20; i++ {
		again := resolver.Resolve(context.Background(), "o1", viewer)
		assert.Equal(t, first.OwnerID, again.OwnerID)
		assert.Equal(t, first.IsCurrentUserOwner, again.IsCurrentUserOwner)
	}
	assert.Equal(t, "u-owner", first.OwnerID)
}
