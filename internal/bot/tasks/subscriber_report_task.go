package tasks

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
)

// newSubscriberReportTask creates the scheduled task that sends the current
// subscriber count to the primary admin.
func newSubscriberReportTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "subscriber_report")

	return func(ctx context.Context) error {
		count, err := deps.Store.CountSubscribers(ctx)
		if err != nil {
			log.ErrorContext(ctx, "Failed to count subscribers", "error", err)
			return fmt.Errorf("subscriber report failed: %w", err)
		}

		_, err = deps.Sender.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: deps.Config.Telegram.PrimaryAdminID,
			Text:   fmt.Sprintf("📊 Підписників у списку розсилки: %d", count),
		})
		if err != nil {
			log.ErrorContext(ctx, "Failed to deliver subscriber report", "error", err)
			return fmt.Errorf("subscriber report delivery failed: %w", err)
		}

		log.InfoContext(ctx, "Subscriber report delivered", "count", count)
		return nil
	}
}
