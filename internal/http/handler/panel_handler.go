package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nannkadayo/site-verify-discord-bot/internal/http/response"
	"github.com/nannkadayo/site-verify-discord-bot/internal/repository"
	"github.com/nannkadayo/site-verify-discord-bot/internal/service"
)

type PanelHandler struct {
	panels repository.PanelRepository
}

func NewPanelHandler(panels repository.PanelRepository) *PanelHandler {
	return &PanelHandler{panels: panels}
}

type registerPanelBody struct {
	MessageID string `json:"messageId"`
	GuildID   string `json:"guildId"`
}

type roleConfigBody struct {
	GuildID string `json:"guildId"`
	RoleID  string `json:"roleId"`
}

func (h *PanelHandler) Register(w http.ResponseWriter, r *http.Request) {
	var body registerPanelBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}
	messageID := strings.TrimSpace(body.MessageID)
	guildID := strings.TrimSpace(body.GuildID)
	if messageID == "" || guildID == "" {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "messageId and guildId are required", nil)
		return
	}
	if err := h.panels.RegisterPanel(messageID, guildID); err != nil {
		if errors.Is(err, repository.ErrPanelAlreadyExists) {
			response.Error(w, r, http.StatusConflict, "CONFLICT", "panel already registered", nil)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, service.CodeServerError, "failed to register panel", nil)
		return
	}
	response.JSON(w, r, http.StatusCreated, map[string]any{"message_id": messageID, "guild_id": guildID})
}

func (h *PanelHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	var body roleConfigBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}
	guildID := strings.TrimSpace(body.GuildID)
	roleID := strings.TrimSpace(body.RoleID)
	if guildID == "" || roleID == "" {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "guildId and roleId are required", nil)
		return
	}
	if err := h.panels.UpsertRoleConfig(guildID, roleID); err != nil {
		response.Error(w, r, http.StatusInternalServerError, service.CodeServerError, "failed to store role configuration", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"guild_id": guildID, "role_id": roleID})
}

// GrantContext resolves a panel message to the guild and role the bot
// needs when applying a grant.
func (h *PanelHandler) GrantContext(w http.ResponseWriter, r *http.Request) {
	messageID := strings.TrimSpace(chi.URLParam(r, "message_id"))
	if messageID == "" {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "message id is required", nil)
		return
	}
	guildID, err := h.panels.GuildForMessage(messageID)
	if err != nil {
		if errors.Is(err, repository.ErrPanelNotFound) {
			response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "panel not found", nil)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, service.CodeServerError, "failed to resolve panel", nil)
		return
	}
	roleID, err := h.panels.RoleForGuild(guildID)
	if err != nil {
		if errors.Is(err, repository.ErrRoleConfigNotFound) {
			response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "role configuration not found", nil)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, service.CodeServerError, "failed to resolve role", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"guild_id": guildID, "role_id": roleID})
}
