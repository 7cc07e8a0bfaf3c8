package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"momento/internal/api"
	"momento/internal/logger"
)

var ErrPinOutOfRange = errors.New("pin position out of range")

// RelationshipBackend is the relationship surface of the backend.
type RelationshipBackend interface {
	CreateRelationship(ctx context.Context, owner, name, relationshipType string) (string, error)
	Relationships(ctx context.Context, owner string) ([]api.Relationship, error)
	RelationshipByName(ctx context.Context, owner, name string) (api.Relationship, error)
	Name(ctx context.Context, userID string) (string, error)
}

// PinStore keeps the ordered pin list of a user.
type PinStore interface {
	List(ctx context.Context, userID string) ([]string, error)
	Pin(ctx context.Context, userID, relationshipID string) error
	Unpin(ctx context.Context, userID, relationshipID string) error
	Replace(ctx context.Context, userID string, ids []string) error
}

// PersonItem is a relationship with its pin flag.
type PersonItem struct {
	api.Relationship
	Pinned bool
}

// People is the home screen: the user's display name and relationships.
type People struct {
	DisplayName string
	Items       []PersonItem
}

type RelationshipService struct {
	pins PinStore
}

func NewRelationshipService(pins PinStore) *RelationshipService {
	return &RelationshipService{pins: pins}
}

// People loads profile name, relationships and pins concurrently and orders
// pinned relationships first, in pin order.
func (s *RelationshipService) People(ctx context.Context, backend RelationshipBackend, user api.User) (People, error) {
	var (
		name string
		rels []api.Relationship
		pins []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := backend.Name(gctx, user.ID)
		if err != nil {
			logger.Debugf("people user=%s: profile name: %v", user.ID, err)
			return nil
		}
		name = n
		return nil
	})
	g.Go(func() error {
		var err error
		rels, err = backend.Relationships(gctx, user.ID)
		return err
	})
	g.Go(func() error {
		var err error
		pins, err = s.pins.List(gctx, user.ID)
		if err != nil {
			logger.Warnf("people user=%s: read pins: %v", user.ID, err)
			pins = nil
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return People{}, fmt.Errorf("load relationships: %w", err)
	}

	if strings.TrimSpace(name) == "" {
		name = user.Username
	}
	return People{DisplayName: name, Items: OrderByPins(rels, pins)}, nil
}

// OrderByPins puts pinned relationships first in pin order, then the rest
// in backend order. Pins of unknown relationships are ignored.
func OrderByPins(rels []api.Relationship, pins []string) []PersonItem {
	byID := make(map[string]api.Relationship, len(rels))
	for _, r := range rels {
		byID[r.ID] = r
	}

	items := make([]PersonItem, 0, len(rels))
	seen := make(map[string]bool, len(pins))
	for _, id := range livePins(rels, pins) {
		seen[id] = true
		items = append(items, PersonItem{Relationship: byID[id], Pinned: true})
	}
	for _, r := range rels {
		if !seen[r.ID] {
			items = append(items, PersonItem{Relationship: r})
		}
	}
	return items
}

// livePins keeps the pins that refer to existing relationships, once each,
// in pin order.
func livePins(rels []api.Relationship, pins []string) []string {
	known := make(map[string]bool, len(rels))
	for _, r := range rels {
		known[r.ID] = true
	}
	out := make([]string, 0, len(pins))
	seen := make(map[string]bool, len(pins))
	for _, id := range pins {
		if !known[id] || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// Pins returns the stored pin order.
func (s *RelationshipService) Pins(ctx context.Context, user api.User) ([]string, error) {
	return s.pins.List(ctx, user.ID)
}

func (s *RelationshipService) Pin(ctx context.Context, user api.User, relationshipID string) error {
	return s.pins.Pin(ctx, user.ID, relationshipID)
}

func (s *RelationshipService) Unpin(ctx context.Context, user api.User, relationshipID string) error {
	return s.pins.Unpin(ctx, user.ID, relationshipID)
}

// MovePin moves the pin at index from to index to (both zero-based, as
// listed by People). Pins of relationships that no longer exist are
// dropped before the move.
func (s *RelationshipService) MovePin(ctx context.Context, backend RelationshipBackend, user api.User, from, to int) ([]string, error) {
	rels, err := backend.Relationships(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("load relationships: %w", err)
	}
	ids, err := s.pins.List(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	moved, err := movePin(livePins(rels, ids), from, to)
	if err != nil {
		return nil, err
	}
	if err := s.pins.Replace(ctx, user.ID, moved); err != nil {
		return nil, err
	}
	return moved, nil
}

func movePin(ids []string, from, to int) ([]string, error) {
	if from < 0 || from >= len(ids) || to < 0 || to >= len(ids) {
		return nil, ErrPinOutOfRange
	}
	out := make([]string, 0, len(ids))
	out = append(out, ids[:from]...)
	out = append(out, ids[from+1:]...)
	id := ids[from]
	out = append(out[:to], append([]string{id}, out[to:]...)...)
	return out, nil
}

// Create adds a relationship for user.
func (s *RelationshipService) Create(ctx context.Context, backend RelationshipBackend, user api.User, name, relationshipType string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("name is required")
	}
	relationshipType = strings.TrimSpace(relationshipType)
	if relationshipType == "" {
		relationshipType = "friend"
	}
	id, err := backend.CreateRelationship(ctx, user.ID, name, relationshipType)
	if err != nil {
		return "", err
	}
	logger.Infof("relationship created relationship=%s owner=%s", id, user.ID)
	return id, nil
}

// Find accepts a relationship id or a name.
func (s *RelationshipService) Find(ctx context.Context, backend RelationshipBackend, user api.User, idOrName string) (api.Relationship, error) {
	idOrName = strings.TrimSpace(idOrName)
	rels, err := backend.Relationships(ctx, user.ID)
	if err != nil {
		return api.Relationship{}, err
	}
	for _, r := range rels {
		if r.ID == idOrName {
			return r, nil
		}
	}
	for _, r := range rels {
		if strings.EqualFold(r.Name, idOrName) {
			return r, nil
		}
	}
	return backend.RelationshipByName(ctx, user.ID, idOrName)
}
