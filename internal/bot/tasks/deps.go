// Package tasks implements scheduled tasks for the storefront bot.
// It includes task definitions, dependencies, and registration mechanisms.
package tasks

import (
	"context"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/zamorski/podarunky-bot/internal/config"
	"github.com/zamorski/podarunky-bot/internal/database"
)

// MessageSender is the slice of the Telegram client that tasks need to
// deliver staff reports. Satisfied by *bot.Bot.
type MessageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger *slog.Logger
	Store  database.Store
	Config *config.Config
	Sender MessageSender
}
