package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"momento/internal/model"
)

// NoteSelectionRepository remembers which notes are shown on an occasion.
type NoteSelectionRepository struct {
	db *gorm.DB
}

func NewNoteSelectionRepository(db *gorm.DB) *NoteSelectionRepository {
	return &NoteSelectionRepository{db: db}
}

func (r *NoteSelectionRepository) List(ctx context.Context, occasionID, ownerID string) ([]string, error) {
	var rows []model.NoteSelection
	if err := r.db.WithContext(ctx).
		Where("occasion_id = ? AND owner_id = ?", occasionID, ownerID).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.NoteID)
	}
	return ids, nil
}

func (r *NoteSelectionRepository) Select(ctx context.Context, occasionID, ownerID, noteID string) error {
	row := model.NoteSelection{OccasionID: occasionID, OwnerID: ownerID, NoteID: noteID}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
		return fmt.Errorf("select note: %w", err)
	}
	return nil
}

func (r *NoteSelectionRepository) Unselect(ctx context.Context, occasionID, ownerID, noteID string) error {
	if err := r.db.WithContext(ctx).
		Where("occasion_id = ? AND owner_id = ? AND note_id = ?", occasionID, ownerID, noteID).
		Delete(&model.NoteSelection{}).Error; err != nil {
		return fmt.Errorf("unselect note: %w", err)
	}
	return nil
}
