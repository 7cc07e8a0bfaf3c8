package model

import "time"

// Account is the locally stored session of one principal: a Telegram
// chat ("tg:<id>") or a CLI profile ("cli:<name>").
type Account struct {
	ID        uint   `gorm:"primaryKey"`
	Principal string `gorm:"uniqueIndex"`
	ChatID    int64  `gorm:"index"`
	// UserData holds the logged-in user as JSON; unreadable data means
	// nobody is logged in.
	UserData  string
	Session   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
