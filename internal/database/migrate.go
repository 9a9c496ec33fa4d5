package database

import (
	"gorm.io/gorm"

	"github.com/nannkadayo/site-verify-discord-bot/internal/domain"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Verification{},
		&domain.PendingMarker{},
		&domain.Panel{},
		&domain.PanelSetting{},
	)
}
