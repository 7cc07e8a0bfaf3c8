package api

import "context"

func (c *Client) CreateRelationship(ctx context.Context, owner, name, relationshipType string) (string, error) {
	var resp struct {
		Relationship string `json:"relationship"`
	}
	err := c.call(ctx, "Relationship", "createRelationship", map[string]string{
		"owner":            owner,
		"name":             name,
		"relationshipType": relationshipType,
	}, &resp)
	return resp.Relationship, err
}

func (c *Client) Relationships(ctx context.Context, owner string) ([]Relationship, error) {
	var rows []Relationship
	if err := c.call(ctx, "Relationship", "_getRelationships", map[string]string{"owner": owner}, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// RelationshipByName returns ErrNotFound when owner has no such person.
func (c *Client) RelationshipByName(ctx context.Context, owner, name string) (Relationship, error) {
	var rows []Relationship
	if err := c.call(ctx, "Relationship", "_getRelationshipByName", map[string]string{
		"owner": owner,
		"name":  name,
	}, &rows); err != nil {
		return Relationship{}, err
	}
	if len(rows) == 0 {
		return Relationship{}, ErrNotFound
	}
	rel := rows[0]
	if rel.Name == "" {
		rel.Name = name
	}
	return rel, nil
}

func (c *Client) CreateNote(ctx context.Context, owner, relationship, title, content string) (string, error) {
	var resp struct {
		Note string `json:"note"`
	}
	err := c.call(ctx, "Notes", "createNote", map[string]string{
		"owner":        owner,
		"relationship": relationship,
		"title":        title,
		"content":      content,
	}, &resp)
	return resp.Note, err
}

// UpdateNote changes the fields that are non-nil.
func (c *Client) UpdateNote(ctx context.Context, note string, title, content *string) error {
	payload := map[string]string{"note": note}
	if title != nil {
		payload["title"] = *title
	}
	if content != nil {
		payload["content"] = *content
	}
	return c.call(ctx, "Notes", "updateNote", payload, nil)
}

func (c *Client) DeleteNote(ctx context.Context, note string) error {
	return c.call(ctx, "Notes", "deleteNote", map[string]string{"note": note}, nil)
}

func (c *Client) NotesByRelationship(ctx context.Context, owner, relationship string) ([]Note, error) {
	var rows []Note
	if err := c.call(ctx, "Notes", "_getNotesByRelationship", map[string]string{
		"owner":        owner,
		"relationship": relationship,
	}, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
