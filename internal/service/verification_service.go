package service

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/nannkadayo/site-verify-discord-bot/internal/observability"
	"github.com/nannkadayo/site-verify-discord-bot/internal/repository"
)

// Result codes surfaced to the browser client. The set is wire
// protocol; clients branch on these strings.
const (
	CodeIPMismatch       = "IP_MISMATCH"
	CodeInvalidID        = "INVALID_ID"
	CodeIDNotFound       = "ID_NOT_FOUND"
	CodePending          = "PENDING"
	CodeDuplicate        = "DUPLICATE"
	CodeProxyVPNDetected = "PROXY_VPN_DETECTED"
	CodeServerError      = "SERVER_ERROR"
	CodeSuccess          = "SUCCESS"
)

type ConfirmRequest struct {
	Token       string
	Fingerprint string
	ReportedIP  string
	RemoteAddr  string
	Headers     http.Header
}

type SessionContext struct {
	SessionID string `json:"sessionId"`
	OwnerID   string `json:"ownerId"`
}

type ConfirmResult struct {
	Code    string
	Session *SessionContext
}

type VerificationServiceInterface interface {
	IssueToken(ctx context.Context, sessionID, ownerID string) (string, error)
	Confirm(ctx context.Context, req ConfirmRequest) ConfirmResult
}

// VerificationService composes the token store, pending arbiter,
// duplicate guard and proxy detector into the confirm state machine.
// It holds no state between calls; every decision is re-derived from
// the store, which keeps the flow restart-safe.
type VerificationService struct {
	verifications repository.VerificationRepository
	arbiter       PendingArbiter
	detector      *ProxyDetector
	notifier      GrantNotifier
	logger        *slog.Logger
}

func NewVerificationService(
	verifications repository.VerificationRepository,
	arbiter PendingArbiter,
	detector *ProxyDetector,
	notifier GrantNotifier,
	logger *slog.Logger,
) *VerificationService {
	return &VerificationService{
		verifications: verifications,
		arbiter:       arbiter,
		detector:      detector,
		notifier:      notifier,
		logger:        logger,
	}
}

func (s *VerificationService) IssueToken(ctx context.Context, sessionID, ownerID string) (string, error) {
	token, err := s.verifications.Issue(sessionID, ownerID)
	if err != nil {
		s.logger.ErrorContext(ctx, "token issuance failed", "session_id", sessionID, "error", err.Error())
		return "", err
	}
	s.logger.InfoContext(ctx, "verification token issued", "session_id", sessionID, "owner_id", ownerID)
	return token, nil
}

// Confirm runs the full confirm state machine. Checks short-circuit in
// a fixed order; the invalidation in the repeat branch happens before
// the duplicate and proxy checks on purpose, so a token that fails
// either check is burned rather than retryable. Fail closed: a crash
// mid-flow can waste a token but can never grant twice.
func (s *VerificationService) Confirm(ctx context.Context, req ConfirmRequest) ConfirmResult {
	result := s.confirm(ctx, req)
	observability.RecordConfirmOutcome(ctx, result.Code)
	return result
}

func (s *VerificationService) confirm(ctx context.Context, req ConfirmRequest) ConfirmResult {
	networkAddress := networkAddressFrom(req)
	if networkAddress == "" || strings.TrimSpace(req.ReportedIP) == "" {
		return ConfirmResult{Code: CodeIPMismatch}
	}
	if req.Token == "" {
		return ConfirmResult{Code: CodeInvalidID}
	}

	verification, err := s.verifications.FindValidByToken(req.Token)
	if err != nil {
		if errors.Is(err, repository.ErrVerificationNotFound) {
			return ConfirmResult{Code: CodeIDNotFound}
		}
		s.logger.ErrorContext(ctx, "token lookup failed", "error", err.Error())
		return ConfirmResult{Code: CodeServerError}
	}

	attempt, err := s.arbiter.Begin(ctx, req.Token)
	if err != nil {
		s.logger.ErrorContext(ctx, "pending arbitration failed", "error", err.Error())
		return ConfirmResult{Code: CodeServerError}
	}
	if attempt == FirstAttempt {
		return ConfirmResult{Code: CodePending}
	}

	// The authoritative attempt burns the token first, whatever the
	// remaining checks decide.
	if err := s.verifications.Invalidate(req.Token); err != nil {
		s.logger.ErrorContext(ctx, "token invalidation failed", "error", err.Error())
		return ConfirmResult{Code: CodeServerError}
	}

	duplicate, err := s.verifications.HasCompletedTriple(networkAddress, verification.SessionID, req.Fingerprint)
	if err != nil {
		s.logger.ErrorContext(ctx, "duplicate lookup failed", "error", err.Error())
		return ConfirmResult{Code: CodeServerError}
	}
	if duplicate {
		s.logger.InfoContext(ctx, "duplicate verification rejected",
			"session_id", verification.SessionID,
			"owner_id", verification.OwnerID,
		)
		return ConfirmResult{Code: CodeDuplicate}
	}

	verdict := s.detector.Classify(ctx, req.RemoteAddr, req.Headers)
	if verdict.Suspicious {
		s.logger.InfoContext(ctx, "proxy indicators rejected verification",
			"session_id", verification.SessionID,
			"owner_id", verification.OwnerID,
			"reasons", strings.Join(verdict.Reasons, "; "),
		)
		return ConfirmResult{Code: CodeProxyVPNDetected}
	}

	// Fire and forget: delivery problems are the notifier's to retry
	// and log, not grounds to fail an otherwise clean confirm.
	if err := s.notifier.Notify(ctx, GrantRequest{
		OwnerID:        verification.OwnerID,
		NetworkAddress: networkAddress,
		SessionID:      verification.SessionID,
	}); err != nil {
		s.logger.ErrorContext(ctx, "grant notification not accepted", "error", err.Error())
	}

	if err := s.verifications.RecordCompletion(req.Token, networkAddress, req.Fingerprint); err != nil {
		s.logger.ErrorContext(ctx, "completion recording failed", "error", err.Error())
		return ConfirmResult{Code: CodeServerError}
	}

	s.logger.InfoContext(ctx, "verification completed",
		"session_id", verification.SessionID,
		"owner_id", verification.OwnerID,
	)
	return ConfirmResult{
		Code: CodeSuccess,
		Session: &SessionContext{
			SessionID: verification.SessionID,
			OwnerID:   verification.OwnerID,
		},
	}
}

// networkAddressFrom mirrors what gets persisted as the completion
// evidence: the forwarded-for header verbatim when present, else the
// transport peer host.
func networkAddressFrom(req ConfirmRequest) string {
	if fwd := strings.TrimSpace(req.Headers.Get("X-Forwarded-For")); fwd != "" {
		return fwd
	}
	host := req.RemoteAddr
	if h, _, err := net.SplitHostPort(req.RemoteAddr); err == nil && h != "" {
		host = h
	}
	return strings.TrimSpace(host)
}
