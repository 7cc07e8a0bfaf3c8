package api

import (
	"context"
	"encoding/json"
	"time"
)

// OccasionInput is the payload of createOccasion.
type OccasionInput struct {
	Person       string
	OccasionType string
	Date         time.Time
}

// OccasionUpdate changes the fields that are non-nil.
type OccasionUpdate struct {
	Person       *string
	OccasionType *string
	Date         *time.Time
}

func (c *Client) CreateOccasion(ctx context.Context, owner string, in OccasionInput) (string, error) {
	var resp struct {
		Occasion string `json:"occasion"`
	}
	err := c.call(ctx, "Occasion", "createOccasion", map[string]string{
		"owner":        owner,
		"person":       in.Person,
		"occasionType": in.OccasionType,
		"date":         in.Date.UTC().Format(time.RFC3339),
	}, &resp)
	return resp.Occasion, err
}

func (c *Client) UpdateOccasion(ctx context.Context, occasion string, in OccasionUpdate) error {
	payload := map[string]string{"occasion": occasion}
	if in.Person != nil {
		payload["person"] = *in.Person
	}
	if in.OccasionType != nil {
		payload["occasionType"] = *in.OccasionType
	}
	if in.Date != nil {
		payload["date"] = in.Date.UTC().Format(time.RFC3339)
	}
	return c.call(ctx, "Occasion", "updateOccasion", payload, nil)
}

func (c *Client) DeleteOccasion(ctx context.Context, occasion string) error {
	return c.call(ctx, "Occasion", "deleteOccasion", map[string]string{"occasion": occasion}, nil)
}

func (c *Client) Occasions(ctx context.Context, owner string) ([]Occasion, error) {
	var rows []Occasion
	if err := c.call(ctx, "Occasion", "_getOccasions", map[string]string{"owner": owner}, &rows); err != nil {
		return nil, err
	}
	for i := range rows {
		if rows[i].Owner.IsZero() {
			rows[i].Owner = UserRef{ID: owner}
		}
	}
	return rows, nil
}

// GetOccasion fetches a single occasion. Not every backend version exposes
// it, and when it does the owner field may be missing.
func (c *Client) GetOccasion(ctx context.Context, occasion string) (Occasion, error) {
	var raw json.RawMessage
	if err := c.call(ctx, "Occasion", "_getOccasion", map[string]string{"occasion": occasion}, &raw); err != nil {
		return Occasion{}, err
	}
	var o Occasion
	if err := decodeFirst(raw, &o); err != nil {
		return Occasion{}, err
	}
	if o.ID == "" {
		o.ID = occasion
	}
	return o, nil
}
