package model

import "time"

// PinnedRelationship keeps one pinned person at a position in its user's list.
type PinnedRelationship struct {
	ID             uint   `gorm:"primaryKey"`
	UserID         string `gorm:"index:idx_pin_user_relationship,unique"`
	RelationshipID string `gorm:"index:idx_pin_user_relationship,unique"`
	Position       int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
