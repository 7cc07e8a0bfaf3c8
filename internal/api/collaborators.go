package api

import (
	"context"
	"encoding/json"
)

func (c *Client) AddCollaborator(ctx context.Context, userID string) error {
	return c.call(ctx, "Collaborators", "addCollaborator", map[string]string{"user": userID}, nil)
}

func (c *Client) RemoveCollaborator(ctx context.Context, userID, occasionID string) error {
	return c.call(ctx, "Collaborators", "removeCollaborator", map[string]string{
		"user":       userID,
		"occasionId": occasionID,
	}, nil)
}

func (c *Client) Collaborators(ctx context.Context) ([]UserRef, error) {
	var refs []UserRef
	if err := c.call(ctx, "Collaborators", "_getCollaborators", nil, &refs); err != nil {
		return nil, err
	}
	return refs, nil
}

// OccasionCollaborators returns accepted collaborators, as bare ids or user objects.
func (c *Client) OccasionCollaborators(ctx context.Context, occasionID string) ([]UserRef, error) {
	var raw json.RawMessage
	if err := c.call(ctx, "Collaborators", "_getCollaboratorsForOccasion", map[string]string{"occasionId": occasionID}, &raw); err != nil {
		return nil, err
	}
	var resp struct {
		Collaborators []UserRef `json:"collaborators"`
	}
	if err := decodeFirst(raw, &resp); err != nil {
		if err == ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return resp.Collaborators, nil
}

func (c *Client) CreateInvite(ctx context.Context, recipientUsername, occasionID, senderUsername string) (string, error) {
	var resp struct {
		Invite string `json:"invite"`
	}
	err := c.call(ctx, "Collaborators", "createInvite", map[string]string{
		"recipientUsername": recipientUsername,
		"occasionId":        occasionID,
		"senderUsername":    senderUsername,
	}, &resp)
	return resp.Invite, err
}

// IncomingInvites lists invites addressed to userID.
func (c *Client) IncomingInvites(ctx context.Context, userID string) ([]Invite, error) {
	return c.invites(ctx, "_getIncomingInvites", userID)
}

// SentInvites lists invites sent by userID.
func (c *Client) SentInvites(ctx context.Context, userID string) ([]Invite, error) {
	return c.invites(ctx, "_getSentInvites", userID)
}

func (c *Client) invites(ctx context.Context, action, userID string) ([]Invite, error) {
	var raw json.RawMessage
	if err := c.call(ctx, "Collaborators", action, map[string]string{"user": userID}, &raw); err != nil {
		return nil, err
	}
	var resp struct {
		Invites []Invite `json:"invites"`
	}
	if err := decodeFirst(raw, &resp); err != nil {
		if err == ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return resp.Invites, nil
}

func (c *Client) AcceptInvite(ctx context.Context, invite string) error {
	return c.call(ctx, "Collaborators", "acceptInvite", map[string]string{"invite": invite}, nil)
}

func (c *Client) DeclineInvite(ctx context.Context, invite string) error {
	return c.call(ctx, "Collaborators", "declineInvite", map[string]string{"invite": invite}, nil)
}
