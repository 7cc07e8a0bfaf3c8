package model

import "time"

// NoteSelection marks a relationship note as shown in an occasion view.
type NoteSelection struct {
	ID         uint   `gorm:"primaryKey"`
	OccasionID string `gorm:"index:idx_note_selection,unique"`
	OwnerID    string `gorm:"index:idx_note_selection,unique"`
	NoteID     string `gorm:"index:idx_note_selection,unique"`
	CreatedAt  time.Time
}
