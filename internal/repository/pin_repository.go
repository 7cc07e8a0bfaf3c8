package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"momento/internal/model"
)

// PinRepository stores the ordered list of pinned relationships per user.
type PinRepository struct {
	db *gorm.DB
}

func NewPinRepository(db *gorm.DB) *PinRepository {
	return &PinRepository{db: db}
}

// List returns pinned relationship ids in display order.
func (r *PinRepository) List(ctx context.Context, userID string) ([]string, error) {
	var pins []model.PinnedRelationship
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("position ASC, id ASC").
		Find(&pins).Error; err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(pins))
	for _, pin := range pins {
		ids = append(ids, pin.RelationshipID)
	}
	return ids, nil
}

// Pin appends relationshipID to the end of the list; pinning twice is a no-op.
func (r *PinRepository) Pin(ctx context.Context, userID, relationshipID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.PinnedRelationship
		err := tx.Where("user_id = ? AND relationship_id = ?", userID, relationshipID).First(&existing).Error
		switch {
		case err == nil:
			return nil
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return fmt.Errorf("find pin: %w", err)
		}

		var count int64
		if err := tx.Model(&model.PinnedRelationship{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
			return fmt.Errorf("count pins: %w", err)
		}
		pin := model.PinnedRelationship{UserID: userID, RelationshipID: relationshipID, Position: int(count)}
		if err := tx.Create(&pin).Error; err != nil {
			return fmt.Errorf("create pin: %w", err)
		}
		return nil
	})
}

// Unpin removes relationshipID and closes the gap it leaves.
func (r *PinRepository) Unpin(ctx context.Context, userID, relationshipID string) error {
	ids, err := r.List(ctx, userID)
	if err != nil {
		return err
	}
	kept := ids[:0]
	for _, id := range ids {
		if id != relationshipID {
			kept = append(kept, id)
		}
	}
	return r.Replace(ctx, userID, kept)
}

// Replace rewrites the whole pin list of userID in the given order.
func (r *PinRepository) Replace(ctx context.Context, userID string, ids []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&model.PinnedRelationship{}).Error; err != nil {
			return fmt.Errorf("clear pins: %w", err)
		}
		if len(ids) == 0 {
			return nil
		}
		pins := make([]model.PinnedRelationship, 0, len(ids))
		for i, id := range ids {
			pins = append(pins, model.PinnedRelationship{UserID: userID, RelationshipID: id, Position: i})
		}
		if err := tx.Create(&pins).Error; err != nil {
			return fmt.Errorf("store pins: %w", err)
		}
		return nil
	})
}
