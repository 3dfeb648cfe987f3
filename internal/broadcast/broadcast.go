// Package broadcast implements sequential fan-out of a message to every
// current subscriber, with pruning of unreachable recipients and rate-limit
// backoff.
package broadcast

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Sender abstracts the Telegram send operations used by the fan-out.
// *bot.Bot satisfies it.
type Sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	SendPhoto(ctx context.Context, params *bot.SendPhotoParams) (*models.Message, error)
}

// SubscriberStore is the slice of the data layer the fan-out needs.
type SubscriberStore interface {
	ListSubscribers(ctx context.Context) ([]int64, error)
	RemoveSubscriber(ctx context.Context, userID int64) error
}

// Content is one broadcast payload: either a text body, or a photo reference
// with an optional caption.
type Content struct {
	Text    string
	PhotoID string
	Caption string
}

// Summary reports the outcome of one fan-out run.
type Summary struct {
	Delivered int
	Pruned    int
	Failed    int
}

// Broadcaster delivers content to all subscribers, one recipient at a time.
// Delivery is deliberately sequential: the platform imposes a global
// send-rate ceiling, so parallelizing would only trip more rate limits.
type Broadcaster struct {
	sender Sender
	store  SubscriberStore
	logger *slog.Logger

	sendInterval time.Duration
	retryMargin  time.Duration

	// pause is swapped out in tests to avoid real sleeps.
	pause func(d time.Duration)
}

// New creates a Broadcaster. sendInterval is the fixed anti-flood delay
// between consecutive sends; retryMargin is added to platform-suggested
// rate-limit waits.
func New(sender Sender, store SubscriberStore, logger *slog.Logger, sendInterval, retryMargin time.Duration) *Broadcaster {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Broadcaster{
		sender:       sender,
		store:        store,
		logger:       logger.With("component", "broadcast"),
		sendInterval: sendInterval,
		retryMargin:  retryMargin,
		pause:        time.Sleep,
	}
}

// Broadcast attempts one delivery per current subscriber and returns the
// final summary. Once started, a fan-out runs to completion; there is no
// mid-run cancellation beyond process shutdown.
func (b *Broadcaster) Broadcast(ctx context.Context, content Content) (Summary, error) {
	recipients, err := b.store.ListSubscribers(ctx)
	if err != nil {
		return Summary{}, err
	}

	b.logger.InfoContext(ctx, "Starting broadcast", "recipients", len(recipients), "has_photo", content.PhotoID != "")

	var summary Summary
	for _, userID := range recipients {
		switch b.deliver(ctx, userID, content) {
		case outcomeDelivered:
			summary.Delivered++
		case outcomePruned:
			summary.Pruned++
			if err := b.store.RemoveSubscriber(ctx, userID); err != nil {
				// The recipient is gone either way; log and move on.
				b.logger.WarnContext(ctx, "Failed to prune unreachable subscriber", "user_id", userID, "error", err)
			}
		case outcomeFailed:
			summary.Failed++
		}

		b.pause(b.sendInterval)
	}

	b.logger.InfoContext(ctx, "Broadcast finished",
		"delivered", summary.Delivered, "pruned", summary.Pruned, "failed", summary.Failed)
	return summary, nil
}

type outcome int

const (
	outcomeDelivered outcome = iota
	outcomePruned
	outcomeFailed
)

// deliver sends content to a single recipient, retrying once after a
// rate-limit response.
func (b *Broadcaster) deliver(ctx context.Context, userID int64, content Content) outcome {
	err := b.send(ctx, userID, content)
	if err == nil {
		return outcomeDelivered
	}

	if wait, ok := retryAfter(err); ok {
		b.logger.WarnContext(ctx, "Rate limited, backing off", "user_id", userID, "wait", wait)
		b.pause(wait + b.retryMargin)
		err = b.send(ctx, userID, content)
		if err == nil {
			return outcomeDelivered
		}
	}

	if isPermanentFailure(err) {
		b.logger.InfoContext(ctx, "Recipient unreachable, pruning", "user_id", userID, "error", err)
		return outcomePruned
	}

	b.logger.WarnContext(ctx, "Broadcast delivery failed", "user_id", userID, "error", err)
	return outcomeFailed
}

func (b *Broadcaster) send(ctx context.Context, userID int64, content Content) error {
	if content.PhotoID != "" {
		_, err := b.sender.SendPhoto(ctx, &bot.SendPhotoParams{
			ChatID:  userID,
			Photo:   &models.InputFileString{Data: content.PhotoID},
			Caption: content.Caption,
		})
		return err
	}

	_, err := b.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: userID,
		Text:   content.Text,
	})
	return err
}

// retryAfter extracts the platform-suggested wait from a rate-limit error.
func retryAfter(err error) (time.Duration, bool) {
	var tooMany *bot.TooManyRequestsError
	if errors.As(err, &tooMany) {
		return time.Duration(tooMany.RetryAfter) * time.Second, true
	}
	return 0, false
}

// isPermanentFailure reports whether the platform considers the recipient
// unreachable (blocked the bot, deactivated account, bad chat id).
func isPermanentFailure(err error) bool {
	return errors.Is(err, bot.ErrorForbidden) || errors.Is(err, bot.ErrorBadRequest)
}
