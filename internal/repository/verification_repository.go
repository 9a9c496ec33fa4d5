package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/nannkadayo/site-verify-discord-bot/internal/domain"
	"github.com/nannkadayo/site-verify-discord-bot/internal/observability"
	"github.com/nannkadayo/site-verify-discord-bot/internal/security"
)

var ErrVerificationNotFound = errors.New("verification not found")

// issueRetries bounds regeneration when a freshly generated token
// collides with an existing row. With a 62^15 keyspace a single retry
// is already vanishingly unlikely.
const issueRetries = 3

type VerificationRepository interface {
	Issue(sessionID, ownerID string) (string, error)
	FindValidByToken(token string) (*domain.Verification, error)
	Invalidate(token string) error
	RecordCompletion(token, networkAddress, fingerprint string) error
	HasCompletedTriple(networkAddress, sessionID, fingerprint string) (bool, error)
}

type GormVerificationRepository struct {
	db          *gorm.DB
	tokenLength int
}

func NewVerificationRepository(db *gorm.DB, tokenLength int) VerificationRepository {
	if tokenLength < 15 {
		tokenLength = 15
	}
	return &GormVerificationRepository{db: db, tokenLength: tokenLength}
}

func (r *GormVerificationRepository) Issue(sessionID, ownerID string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= issueRetries; attempt++ {
		token, err := security.NewVerificationCode(r.tokenLength)
		if err != nil {
			observability.RecordRepositoryOperation(context.Background(), "verification", "issue", "error")
			return "", err
		}
		rec := domain.Verification{
			Token:     token,
			SessionID: sessionID,
			OwnerID:   ownerID,
			Valid:     true,
		}
		err = r.db.Create(&rec).Error
		if err == nil {
			observability.RecordRepositoryOperation(context.Background(), "verification", "issue", "success")
			return token, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			observability.RecordRepositoryOperation(context.Background(), "verification", "issue", "error")
			return "", err
		}
		lastErr = err
	}
	observability.RecordRepositoryOperation(context.Background(), "verification", "issue", "exhausted")
	return "", lastErr
}

func (r *GormVerificationRepository) FindValidByToken(token string) (*domain.Verification, error) {
	var rec domain.Verification
	err := r.db.Where("token = ? AND valid = ?", token, true).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "verification", "find_valid", "not_found")
			return nil, ErrVerificationNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "verification", "find_valid", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "verification", "find_valid", "success")
	return &rec, nil
}

// Invalidate flips valid to false. Deliberately idempotent: zero rows
// affected (unknown token, or already invalid) is not an error, so a
// repeated call can never fail the confirm flow.
func (r *GormVerificationRepository) Invalidate(token string) error {
	err := r.db.Model(&domain.Verification{}).
		Where("token = ?", token).
		Update("valid", false).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "verification", "invalidate", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "verification", "invalidate", "success")
	return nil
}

func (r *GormVerificationRepository) RecordCompletion(token, networkAddress, fingerprint string) error {
	err := r.db.Model(&domain.Verification{}).
		Where("token = ?", token).
		Updates(map[string]any{
			"network_address": networkAddress,
			"fingerprint":     fingerprint,
		}).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "verification", "record_completion", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "verification", "record_completion", "success")
	return nil
}

// HasCompletedTriple reports whether a completed verification already
// exists for exactly this (network address, session, fingerprint)
// combination. Exact match only; no per-field fuzzing.
func (r *GormVerificationRepository) HasCompletedTriple(networkAddress, sessionID, fingerprint string) (bool, error) {
	var count int64
	err := r.db.Model(&domain.Verification{}).
		Where("network_address = ? AND session_id = ? AND fingerprint = ?", networkAddress, sessionID, fingerprint).
		Count(&count).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "verification", "duplicate_lookup", "error")
		return false, err
	}
	observability.RecordRepositoryOperation(context.Background(), "verification", "duplicate_lookup", "success")
	return count > 0, nil
}
