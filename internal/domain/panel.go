package domain

import "time"

// Panel maps a verification panel message to the guild it was posted
// in. Registered by the bot, read back when a grant is resolved.
type Panel struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	MessageID string    `gorm:"size:64;uniqueIndex;not null" json:"message_id"`
	GuildID   string    `gorm:"size:64;index;not null" json:"guild_id"`
	CreatedAt time.Time `json:"created_at"`
}

// PanelSetting holds the role a guild hands out on successful
// verification. One row per guild, replaced on panel re-setup.
type PanelSetting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	GuildID   string    `gorm:"size:64;uniqueIndex;not null" json:"guild_id"`
	RoleID    string    `gorm:"size:64;not null" json:"role_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
