package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nannkadayo/site-verify-discord-bot/internal/domain"
	"github.com/nannkadayo/site-verify-discord-bot/internal/observability"
)

var (
	ErrPanelNotFound      = errors.New("panel not found")
	ErrRoleConfigNotFound = errors.New("role configuration not found")
	ErrPanelAlreadyExists = errors.New("panel already registered")
)

type PanelRepository interface {
	RegisterPanel(messageID, guildID string) error
	UpsertRoleConfig(guildID, roleID string) error
	GuildForMessage(messageID string) (string, error)
	RoleForGuild(guildID string) (string, error)
}

type GormPanelRepository struct{ db *gorm.DB }

func NewPanelRepository(db *gorm.DB) PanelRepository {
	return &GormPanelRepository{db: db}
}

func (r *GormPanelRepository) RegisterPanel(messageID, guildID string) error {
	err := r.db.Create(&domain.Panel{MessageID: messageID, GuildID: guildID}).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			observability.RecordRepositoryOperation(context.Background(), "panel", "register", "exists")
			return ErrPanelAlreadyExists
		}
		observability.RecordRepositoryOperation(context.Background(), "panel", "register", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "panel", "register", "success")
	return nil
}

func (r *GormPanelRepository) UpsertRoleConfig(guildID, roleID string) error {
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "guild_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"role_id", "updated_at"}),
	}).Create(&domain.PanelSetting{GuildID: guildID, RoleID: roleID}).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "panel_setting", "upsert", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "panel_setting", "upsert", "success")
	return nil
}

func (r *GormPanelRepository) GuildForMessage(messageID string) (string, error) {
	var panel domain.Panel
	err := r.db.Where("message_id = ?", messageID).First(&panel).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "panel", "guild_for_message", "not_found")
			return "", ErrPanelNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "panel", "guild_for_message", "error")
		return "", err
	}
	observability.RecordRepositoryOperation(context.Background(), "panel", "guild_for_message", "success")
	return panel.GuildID, nil
}

func (r *GormPanelRepository) RoleForGuild(guildID string) (string, error) {
	var setting domain.PanelSetting
	err := r.db.Where("guild_id = ?", guildID).First(&setting).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "panel_setting", "role_for_guild", "not_found")
			return "", ErrRoleConfigNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "panel_setting", "role_for_guild", "error")
		return "", err
	}
	observability.RecordRepositoryOperation(context.Background(), "panel_setting", "role_for_guild", "success")
	return setting.RoleID, nil
}
