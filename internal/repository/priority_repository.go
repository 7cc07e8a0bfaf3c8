package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"momento/internal/model"
)

// PriorityRepository caches task priorities per (occasion, owner).
type PriorityRepository struct {
	db *gorm.DB
}

func NewPriorityRepository(db *gorm.DB) *PriorityRepository {
	return &PriorityRepository{db: db}
}

// Map returns task id -> priority for one occasion scope.
func (r *PriorityRepository) Map(ctx context.Context, occasionID, ownerID string) (map[string]string, error) {
	var rows []model.TaskPriority
	if err := r.db.WithContext(ctx).
		Where("occasion_id = ? AND owner_id = ?", occasionID, ownerID).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.TaskID] = row.Priority
	}
	return out, nil
}

func (r *PriorityRepository) Set(ctx context.Context, occasionID, ownerID, taskID, priority string) error {
	row := model.TaskPriority{OccasionID: occasionID, OwnerID: ownerID, TaskID: taskID, Priority: priority}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "occasion_id"}, {Name: "owner_id"}, {Name: "task_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"priority", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("set priority: %w", err)
	}
	return nil
}

func (r *PriorityRepository) Delete(ctx context.Context, occasionID, ownerID, taskID string) error {
	if err := r.db.WithContext(ctx).
		Where("occasion_id = ? AND owner_id = ? AND task_id = ?", occasionID, ownerID, taskID).
		Delete(&model.TaskPriority{}).Error; err != nil {
		return fmt.Errorf("delete priority: %w", err)
	}
	return nil
}
