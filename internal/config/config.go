// Package config provides configuration loading, validation, and management
// for the storefront bot. It handles reading from YAML files and BOT_*
// environment variables, setting default values, and validating parameters.
package config

import (
	"time"

	"github.com/go-telegram/bot/models"
)

// Config defines the application configuration parameters for all components
// of the bot: logging, Telegram settings, database, broadcast fan-out,
// user-visible messages, and scheduled tasks.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Broadcast BroadcastConfig `mapstructure:"broadcast"`
	Messages  MessagesConfig  `mapstructure:"messages"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// LoggerConfig controls log level and output format.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// TelegramConfig holds the bot token and the staff user identifiers.
// Token and at least one admin are mandatory; startup fails without them.
type TelegramConfig struct {
	Token string `mapstructure:"token" validate:"required"`

	// AdminIDs is the set of staff users allowed to use admin features.
	AdminIDs []int64 `mapstructure:"admin_ids" validate:"required,min=1,dive,gt=0"`

	// PrimaryAdminID receives inquiry notifications and scheduled reports.
	// Defaults to the first entry of AdminIDs.
	PrimaryAdminID int64 `mapstructure:"primary_admin_id" validate:"gt=0"`

	// BotInfo is populated at startup from GetMe and is not read from config.
	BotInfo *models.User `mapstructure:"-"`
}

// IsAdmin reports whether the given user is in the configured staff set.
func (c *TelegramConfig) IsAdmin(userID int64) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// DatabaseConfig holds SQLite connection settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// BroadcastConfig tunes the sequential fan-out loop.
type BroadcastConfig struct {
	// SendInterval is the fixed pause between consecutive sends. It caps
	// throughput below the platform's abuse-detection threshold.
	SendInterval time.Duration `mapstructure:"send_interval" validate:"min=0"`

	// RetryMargin is added on top of the platform-suggested wait when a
	// rate-limit response is received.
	RetryMargin time.Duration `mapstructure:"retry_margin" validate:"min=0"`
}

// MessagesConfig defines all user- and staff-visible message templates.
type MessagesConfig struct {
	Welcome        string `mapstructure:"welcome"         validate:"required"`
	MenuHint       string `mapstructure:"menu_hint"       validate:"required"`
	AskQuestion    string `mapstructure:"ask_question"    validate:"required"`
	AskName        string `mapstructure:"ask_name"        validate:"required"`
	AskOrderNumber string `mapstructure:"ask_order_number" validate:"required"`
	FormAccepted   string `mapstructure:"form_accepted"   validate:"required"`
	Cancelled      string `mapstructure:"cancelled"       validate:"required"`
	GeneralError   string `mapstructure:"general_error"   validate:"required"`

	AskBroadcastContent string `mapstructure:"ask_broadcast_content" validate:"required"`
	BroadcastSummary    string `mapstructure:"broadcast_summary"     validate:"required"`

	AskArrivalPhoto   string `mapstructure:"ask_arrival_photo"   validate:"required"`
	AskArrivalTitle   string `mapstructure:"ask_arrival_title"   validate:"required"`
	AskArrivalPrice   string `mapstructure:"ask_arrival_price"   validate:"required"`
	ArrivalPublished  string `mapstructure:"arrival_published"   validate:"required"`
	NoArrivals        string `mapstructure:"no_arrivals"         validate:"required"`

	ReplyDelivered      string `mapstructure:"reply_delivered"       validate:"required"`
	ReplyRecipientGone  string `mapstructure:"reply_recipient_gone"  validate:"required"`
	ReplyUnknownThread  string `mapstructure:"reply_unknown_thread"  validate:"required"`
	ReplySendError      string `mapstructure:"reply_send_error"      validate:"required"`
	NotAuthorized       string `mapstructure:"not_authorized"        validate:"required"`
}

// SchedulerConfig describes cron-scheduled background tasks keyed by task name.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks"`
}

// TaskConfig enables a single scheduled task with a cron expression.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}
