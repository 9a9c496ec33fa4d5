package domain

import "time"

// Verification is one issued verification token. Rows are never
// deleted; completed and invalidated tokens stay behind as the audit
// trail and as the evidence set for duplicate detection.
type Verification struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Token          string    `gorm:"size:64;uniqueIndex;not null" json:"-"`
	SessionID      string    `gorm:"size:64;index;not null" json:"session_id"`
	OwnerID        string    `gorm:"size:64;index;not null" json:"owner_id"`
	Valid          bool      `gorm:"not null;default:true" json:"valid"`
	NetworkAddress *string   `gorm:"size:256" json:"-"`
	Fingerprint    *string   `gorm:"size:256" json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
