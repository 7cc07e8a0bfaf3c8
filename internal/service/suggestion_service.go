package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"momento/internal/api"
	"momento/internal/logger"
)

// SuggestionBackend is the gift idea surface of the backend.
type SuggestionBackend interface {
	GenerateGiftSuggestions(ctx context.Context, owner, giftContext string) ([]api.Suggestion, error)
	Suggestions(ctx context.Context, owner string) ([]api.Suggestion, error)
	NotesByRelationship(ctx context.Context, owner, relationship string) ([]api.Note, error)
}

const maxContextLen = 2000

type SuggestionService struct{}

func NewSuggestionService() *SuggestionService {
	return &SuggestionService{}
}

// Suggest asks for gift ideas with a free-form context.
func (s *SuggestionService) Suggest(ctx context.Context, backend SuggestionBackend, user api.User, giftContext string) ([]api.Suggestion, error) {
	giftContext = strings.TrimSpace(giftContext)
	if giftContext == "" {
		return nil, fmt.Errorf("describe the person or the occasion first")
	}
	if len(giftContext) > maxContextLen {
		giftContext = giftContext[:maxContextLen]
	}
	list, err := backend.GenerateGiftSuggestions(ctx, user.ID, giftContext)
	if err != nil {
		return nil, err
	}
	logger.Infof("suggestions generated user=%s count=%d", user.ID, len(list))
	return list, nil
}

// SuggestFor builds the context from a relationship and its notes.
func (s *SuggestionService) SuggestFor(ctx context.Context, backend SuggestionBackend, user api.User, rel api.Relationship, extra string) ([]api.Suggestion, error) {
	notes, err := backend.NotesByRelationship(ctx, user.ID, rel.ID)
	if err != nil {
		logger.Debugf("suggestions relationship=%s: notes: %v", rel.ID, err)
		notes = nil
	}
	return s.Suggest(ctx, backend, user, GiftContext(rel, notes, extra))
}

// GiftContext describes a person for the suggestion engine.
func GiftContext(rel api.Relationship, notes []api.Note, extra string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Gift for %s", strings.TrimSpace(rel.Name)))
	if t := strings.TrimSpace(rel.RelationshipType); t != "" {
		sb.WriteString(fmt.Sprintf(" (%s)", t))
	}
	sb.WriteString(".")
	for _, n := range notes {
		title := strings.TrimSpace(n.Title)
		content := strings.TrimSpace(n.Content)
		switch {
		case title != "" && content != "":
			sb.WriteString(fmt.Sprintf("\n- %s: %s", title, content))
		case title != "":
			sb.WriteString("\n- " + title)
		case content != "":
			sb.WriteString("\n- " + content)
		}
	}
	if extra = strings.TrimSpace(extra); extra != "" {
		sb.WriteString("\n" + extra)
	}
	return sb.String()
}

// History returns past suggestions, newest first.
func (s *SuggestionService) History(ctx context.Context, backend SuggestionBackend, user api.User) ([]api.Suggestion, error) {
	list, err := backend.Suggestions(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].GeneratedAt.After(list[j].GeneratedAt.Time)
	})
	return list, nil
}
