package api

import "context"

// GenerateGiftSuggestions asks the suggestion engine for gift ideas.
func (c *Client) GenerateGiftSuggestions(ctx context.Context, owner, giftContext string) ([]Suggestion, error) {
	var resp struct {
		Suggestions []Suggestion `json:"suggestions"`
	}
	if err := c.call(ctx, "SuggestionEngine", "generateGiftSuggestions", map[string]string{
		"owner":   owner,
		"context": giftContext,
	}, &resp); err != nil {
		return nil, err
	}
	return resp.Suggestions, nil
}

func (c *Client) Suggestions(ctx context.Context, owner string) ([]Suggestion, error) {
	var rows []Suggestion
	if err := c.call(ctx, "SuggestionEngine", "_getSuggestions", map[string]string{"owner": owner}, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
