package domain

import "time"

// PendingMarker records that a confirm attempt for a token has been
// seen. Insert-only; the unique index on Token is what makes the
// first-vs-repeat decision race-safe.
type PendingMarker struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Token     string    `gorm:"size:64;uniqueIndex;not null" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
