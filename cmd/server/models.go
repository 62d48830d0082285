package main

import (
	"time"

	"gorm.io/gorm"
)

// Session is one game in the database.
type Session struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"-"`
	Slug      string    `gorm:"type:text;uniqueIndex" json:"slug"`
	Mode      string    `gorm:"type:text;not null" json:"mode"`
	Human     int       `json:"human"`
	Size      int       `gorm:"not null" json:"size"`
	Board     string    `gorm:"type:text;not null" json:"board"`
	Turn      int       `gorm:"not null" json:"turn"`
	Selection string    `gorm:"type:text" json:"selection,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Associations
	Moves []Move `gorm:"foreignKey:SessionID" json:"moves,omitempty"`
}

// Move is one committed move.
type Move struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"-"`
	SessionID int64     `gorm:"index;not null" json:"-"`
	Seq       int       `gorm:"not null" json:"seq"`
	Player    int       `gorm:"not null" json:"player"`
	Source    string    `gorm:"type:text;not null" json:"source"`
	Text      string    `gorm:"type:text;not null" json:"move"`
	Board     string    `gorm:"type:text;not null" json:"board"`
	CreatedAt time.Time `json:"created_at"`

	// Associations
	Session Session `gorm:"foreignKey:SessionID" json:"-"`
}

// AutoMigrate runs the database migrations
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&Session{}, &Move{})
}
