package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/zamorski/podarunky-bot/internal/broadcast"
	"github.com/zamorski/podarunky-bot/internal/conversation"
	"github.com/zamorski/podarunky-bot/internal/database"
)

// handleAdmin routes a staff message. Replies to inquiry notifications take
// precedence over everything else; then menu buttons; then any in-flight
// broadcast or arrival draft.
func (r *Router) handleAdmin(ctx context.Context, client Sender, msg *models.Message) {
	if msg.ReplyToMessage != nil {
		r.routeReply(ctx, client, msg)
		return
	}

	userID := msg.From.ID
	chatID := msg.Chat.ID

	switch msg.Text {
	case btnBroadcast:
		r.deps.Conversations.Set(userID, conversation.Session{State: conversation.StateAwaitingBroadcastContent})
		r.send(ctx, client, chatID, r.deps.Config.Messages.AskBroadcastContent, cancelKeyboard())
		return
	case btnNewArrival:
		r.deps.Conversations.Set(userID, conversation.Session{State: conversation.StateAwaitingArrivalPhoto})
		r.send(ctx, client, chatID, r.deps.Config.Messages.AskArrivalPhoto, cancelKeyboard())
		return
	case btnArrivals:
		r.showArrivals(ctx, client, chatID)
		return
	case conversation.CancelText:
		r.deps.Conversations.Clear(userID)
		r.send(ctx, client, chatID, r.deps.Config.Messages.Cancelled, adminKeyboard())
		return
	}

	sess := r.deps.Conversations.Get(userID)
	switch sess.State {
	case conversation.StateAwaitingBroadcastContent:
		r.runBroadcast(ctx, client, msg)
	case conversation.StateAwaitingArrivalPhoto,
		conversation.StateAwaitingArrivalTitle,
		conversation.StateAwaitingArrivalPrice:
		r.advanceArrival(ctx, client, msg, sess)
	default:
		r.send(ctx, client, chatID, r.deps.Config.Messages.MenuHint, adminKeyboard())
	}
}

// routeReply correlates a staff reply with the inquiry thread whose
// notification it answers and forwards the reply to the originating customer.
func (r *Router) routeReply(ctx context.Context, client Sender, msg *models.Message) {
	log := r.deps.Logger.With("handler", "operator_reply", "admin_id", msg.From.ID)
	chatID := msg.Chat.ID
	m := r.deps.Config.Messages

	userID, err := r.deps.Store.ResolveByNotification(ctx, int64(msg.ReplyToMessage.ID))
	if err != nil {
		if errors.Is(err, database.ErrThreadNotFound) {
			r.send(ctx, client, chatID, m.ReplyUnknownThread, nil)
			return
		}
		log.ErrorContext(ctx, "Failed to resolve inquiry thread", "error", err)
		r.send(ctx, client, chatID, fmt.Sprintf(m.ReplySendError, err), nil)
		return
	}

	if err := r.forwardReply(ctx, client, userID, msg); err != nil {
		if errors.Is(err, bot.ErrorForbidden) || errors.Is(err, bot.ErrorBadRequest) {
			log.WarnContext(ctx, "Reply recipient unreachable", "user_id", userID, "error", err)
			r.send(ctx, client, chatID, m.ReplyRecipientGone, nil)
			return
		}
		log.ErrorContext(ctx, "Failed to forward operator reply", "user_id", userID, "error", err)
		r.send(ctx, client, chatID, fmt.Sprintf(m.ReplySendError, err), nil)
		return
	}

	log.InfoContext(ctx, "Operator reply delivered", "user_id", userID)
	r.send(ctx, client, chatID, m.ReplyDelivered, nil)
}

// forwardReply sends the staff reply content to the customer, preserving
// photo attachments.
func (r *Router) forwardReply(ctx context.Context, client Sender, userID int64, msg *models.Message) error {
	if len(msg.Photo) > 0 {
		_, err := client.SendPhoto(ctx, &bot.SendPhotoParams{
			ChatID:  userID,
			Photo:   &models.InputFileString{Data: largestPhoto(msg.Photo)},
			Caption: msg.Caption,
		})
		return err
	}
	_, err := client.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: userID,
		Text:   msg.Text,
	})
	return err
}

// runBroadcast takes the staff-provided content and fans it out to every
// subscriber, then reports delivered and pruned counts back to the staff chat.
func (r *Router) runBroadcast(ctx context.Context, client Sender, msg *models.Message) {
	log := r.deps.Logger.With("handler", "broadcast", "admin_id", msg.From.ID)
	chatID := msg.Chat.ID
	m := r.deps.Config.Messages

	content, ok := broadcastContent(msg)
	if !ok {
		r.send(ctx, client, chatID, m.AskBroadcastContent, cancelKeyboard())
		return
	}

	r.deps.Conversations.Clear(msg.From.ID)

	summary, err := r.deps.Broadcaster.Broadcast(ctx, content)
	if err != nil {
		log.ErrorContext(ctx, "Broadcast failed", "error", err)
		r.send(ctx, client, chatID, fmt.Sprintf(m.ReplySendError, err), adminKeyboard())
		return
	}

	r.send(ctx, client, chatID, fmt.Sprintf(m.BroadcastSummary, summary.Delivered, summary.Pruned), adminKeyboard())
}

// broadcastContent extracts broadcastable content from a staff message.
func broadcastContent(msg *models.Message) (broadcast.Content, bool) {
	if len(msg.Photo) > 0 {
		return broadcast.Content{
			PhotoID: largestPhoto(msg.Photo),
			Caption: msg.Caption,
		}, true
	}
	if msg.Text != "" {
		return broadcast.Content{Text: msg.Text}, true
	}
	return broadcast.Content{}, false
}

// advanceArrival drives the three-step new-arrival builder: photo, title,
// price. The final step saves the arrival and broadcasts it to subscribers.
func (r *Router) advanceArrival(ctx context.Context, client Sender, msg *models.Message, sess conversation.Session) {
	log := r.deps.Logger.With("handler", "arrival_builder", "admin_id", msg.From.ID)
	userID := msg.From.ID
	chatID := msg.Chat.ID
	m := r.deps.Config.Messages

	switch sess.State {
	case conversation.StateAwaitingArrivalPhoto:
		if len(msg.Photo) == 0 {
			r.send(ctx, client, chatID, m.AskArrivalPhoto, cancelKeyboard())
			return
		}
		sess.PhotoID = largestPhoto(msg.Photo)
		sess.State = conversation.StateAwaitingArrivalTitle
		r.deps.Conversations.Set(userID, sess)
		r.send(ctx, client, chatID, m.AskArrivalTitle, cancelKeyboard())

	case conversation.StateAwaitingArrivalTitle:
		if msg.Text == "" {
			r.send(ctx, client, chatID, m.AskArrivalTitle, cancelKeyboard())
			return
		}
		sess.Title = msg.Text
		sess.State = conversation.StateAwaitingArrivalPrice
		r.deps.Conversations.Set(userID, sess)
		r.send(ctx, client, chatID, m.AskArrivalPrice, cancelKeyboard())

	case conversation.StateAwaitingArrivalPrice:
		if msg.Text == "" {
			r.send(ctx, client, chatID, m.AskArrivalPrice, cancelKeyboard())
			return
		}
		sess.Price = msg.Text
		r.deps.Conversations.Clear(userID)

		arrival := &database.Arrival{
			PhotoFileID: sess.PhotoID,
			Title:       sess.Title,
			Price:       sess.Price,
		}
		if err := r.deps.Store.SaveArrival(ctx, arrival); err != nil {
			log.ErrorContext(ctx, "Failed to save arrival", "error", err)
			r.send(ctx, client, chatID, fmt.Sprintf(m.ReplySendError, err), adminKeyboard())
			return
		}

		summary, err := r.deps.Broadcaster.Broadcast(ctx, broadcast.Content{
			PhotoID: sess.PhotoID,
			Caption: fmt.Sprintf("%s — %s", sess.Title, sess.Price),
		})
		if err != nil {
			log.ErrorContext(ctx, "Arrival broadcast failed", "error", err)
			r.send(ctx, client, chatID, fmt.Sprintf(m.ReplySendError, err), adminKeyboard())
			return
		}

		log.InfoContext(ctx, "Arrival published", "title", sess.Title, "delivered", summary.Delivered)
		r.send(ctx, client, chatID,
			fmt.Sprintf("%s\n%s", m.ArrivalPublished, fmt.Sprintf(m.BroadcastSummary, summary.Delivered, summary.Pruned)),
			adminKeyboard())
	}
}

// largestPhoto returns the file id of the highest-resolution size variant.
func largestPhoto(sizes []models.PhotoSize) string {
	return sizes[len(sizes)-1].FileID
}
