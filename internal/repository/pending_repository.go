package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/nannkadayo/site-verify-discord-bot/internal/domain"
	"github.com/nannkadayo/site-verify-discord-bot/internal/observability"
)

var ErrPendingMarkerExists = errors.New("pending marker already exists")

type PendingRepository interface {
	Create(token string) error
}

type GormPendingRepository struct{ db *gorm.DB }

func NewPendingRepository(db *gorm.DB) PendingRepository {
	return &GormPendingRepository{db: db}
}

// Create inserts the marker for token. The unique index on the token
// column turns a concurrent double-insert into exactly one success and
// one ErrPendingMarkerExists; callers rely on that to pick the single
// first attempt.
func (r *GormPendingRepository) Create(token string) error {
	err := r.db.Create(&domain.PendingMarker{Token: token}).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			observability.RecordRepositoryOperation(context.Background(), "pending_marker", "create", "exists")
			return ErrPendingMarkerExists
		}
		observability.RecordRepositoryOperation(context.Background(), "pending_marker", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "pending_marker", "create", "success")
	return nil
}
