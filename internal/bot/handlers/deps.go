package handlers

import (
	"context"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/zamorski/podarunky-bot/internal/broadcast"
	"github.com/zamorski/podarunky-bot/internal/config"
	"github.com/zamorski/podarunky-bot/internal/conversation"
	"github.com/zamorski/podarunky-bot/internal/database"
)

// Sender is the slice of the Telegram client the handlers use for outbound
// messages. *bot.Bot satisfies it; tests substitute a fake.
type Sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	SendPhoto(ctx context.Context, params *bot.SendPhotoParams) (*models.Message, error)
}

// HandlerDeps provides dependencies for Telegram command and message handlers.
type HandlerDeps struct {
	Logger        *slog.Logger
	Config        *config.Config
	Store         database.Store
	Broadcaster   *broadcast.Broadcaster
	Conversations *conversation.Manager
}
