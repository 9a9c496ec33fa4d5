package database

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/nannkadayo/site-verify-discord-bot/internal/config"
)

// Open connects to postgres. TranslateError is required: the token
// issuance retry loop and the pending-marker arbitration both key off
// gorm.ErrDuplicatedKey.
func Open(cfg *config.Config) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
}
