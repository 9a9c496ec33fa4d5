package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/nannkadayo/site-verify-discord-bot/internal/http/response"
	"github.com/nannkadayo/site-verify-discord-bot/internal/service"
)

type VerifyHandler struct {
	verifySvc service.VerificationServiceInterface
}

func NewVerifyHandler(verifySvc service.VerificationServiceInterface) *VerifyHandler {
	return &VerifyHandler{verifySvc: verifySvc}
}

type confirmRequestBody struct {
	Token       string `json:"token"`
	Fingerprint string `json:"fingerprint"`
	ReportedIP  string `json:"reportedIp"`
}

type issueRequestBody struct {
	SessionID string `json:"sessionId"`
	OwnerID   string `json:"ownerId"`
}

// Confirm is the browser-facing confirm endpoint. A malformed body is
// treated as a missing token rather than a transport error, matching
// the page's retry behavior.
func (h *VerifyHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	var body confirmRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, r, http.StatusBadRequest, service.CodeInvalidID, "invalid request body", nil)
		return
	}

	result := h.verifySvc.Confirm(r.Context(), service.ConfirmRequest{
		Token:       strings.TrimSpace(body.Token),
		Fingerprint: body.Fingerprint,
		ReportedIP:  body.ReportedIP,
		RemoteAddr:  r.RemoteAddr,
		Headers:     r.Header,
	})

	switch result.Code {
	case service.CodeSuccess:
		response.JSON(w, r, http.StatusOK, result.Session)
	case service.CodePending:
		// Not a failure: the client shows a wait state and retries.
		response.Error(w, r, http.StatusAccepted, service.CodePending, "verification pending, retry to finalize", nil)
	case service.CodeIPMismatch, service.CodeInvalidID:
		response.Error(w, r, http.StatusBadRequest, result.Code, "invalid verification request", nil)
	case service.CodeIDNotFound:
		response.Error(w, r, http.StatusNotFound, result.Code, "verification token not found", nil)
	case service.CodeDuplicate:
		response.Error(w, r, http.StatusConflict, result.Code, "identity already verified", nil)
	case service.CodeProxyVPNDetected:
		response.Error(w, r, http.StatusForbidden, result.Code, "proxy or vpn detected", nil)
	default:
		response.Error(w, r, http.StatusInternalServerError, service.CodeServerError, "verification failed", nil)
	}
}

// Issue mints a token for the bot when a member clicks the panel
// button.
func (h *VerifyHandler) Issue(w http.ResponseWriter, r *http.Request) {
	var body issueRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}
	sessionID := strings.TrimSpace(body.SessionID)
	ownerID := strings.TrimSpace(body.OwnerID)
	if sessionID == "" || ownerID == "" {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "sessionId and ownerId are required", nil)
		return
	}

	token, err := h.verifySvc.IssueToken(r.Context(), sessionID, ownerID)
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, service.CodeServerError, "failed to issue token", nil)
		return
	}
	response.JSON(w, r, http.StatusCreated, map[string]any{"token": token})
}
