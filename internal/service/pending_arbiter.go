package service

import (
	"context"
	"errors"

	"github.com/nannkadayo/site-verify-discord-bot/internal/repository"
)

type Attempt string

const (
	// FirstAttempt means this caller created the pending marker. The
	// confirm flow answers PENDING and the browser retries immediately.
	FirstAttempt Attempt = "first"
	// RepeatAttempt means a marker already existed; this call is the
	// authoritative one and runs the full verification checks.
	RepeatAttempt Attempt = "repeat"
)

// PendingArbiter decides, race-safely, whether a confirm call is the
// first or a repeat attempt for its token. Exactly one concurrent
// caller per token may ever see FirstAttempt.
//
// The two-phase contract is deliberate protocol: the first browser
// request fires before fingerprint collection settles, so it only arms
// the token and the immediate retry is the one that counts. Collapsing
// this into a single-call flow breaks deployed clients.
type PendingArbiter interface {
	Begin(ctx context.Context, token string) (Attempt, error)
}

type DBPendingArbiter struct {
	pending repository.PendingRepository
}

func NewDBPendingArbiter(pending repository.PendingRepository) *DBPendingArbiter {
	return &DBPendingArbiter{pending: pending}
}

func (a *DBPendingArbiter) Begin(_ context.Context, token string) (Attempt, error) {
	err := a.pending.Create(token)
	if err == nil {
		return FirstAttempt, nil
	}
	if errors.Is(err, repository.ErrPendingMarkerExists) {
		return RepeatAttempt, nil
	}
	return "", err
}
