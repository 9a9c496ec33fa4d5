package app

import (
	"log/slog"
	"net/http"

	"github.com/nannkadayo/site-verify-discord-bot/internal/config"
	"github.com/nannkadayo/site-verify-discord-bot/internal/service"
)

type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Server   *http.Server
	Notifier *service.AsyncGrantNotifier
}

func New(cfg *config.Config, logger *slog.Logger, server *http.Server, notifier *service.AsyncGrantNotifier) *App {
	return &App{Config: cfg, Logger: logger, Server: server, Notifier: notifier}
}
