package model

import "time"

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// TaskPriority is a device-local priority for a task of a shared occasion.
// The backend has no notion of priority.
type TaskPriority struct {
	ID         uint   `gorm:"primaryKey"`
	OccasionID string `gorm:"index:idx_priority_scope,unique"`
	OwnerID    string `gorm:"index:idx_priority_scope,unique"`
	TaskID     string `gorm:"index:idx_priority_scope,unique"`
	Priority   string `gorm:"default:medium"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// PriorityRank orders priorities from high to low; unknown values sort last.
func PriorityRank(p string) int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	default:
		return 3
	}
}
