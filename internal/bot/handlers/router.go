package handlers

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/zamorski/podarunky-bot/internal/conversation"
)

// Router is the default handler for every update no registered command
// matched: menu button presses, multi-step form input, and staff replies.
// It restates the original revisions' decorator dispatch as one explicit
// routing table over (sender role, reply target, button text, session state).
//
// The router is created before the bot instance (it must be passed to
// bot.New as the default handler) and bound to its dependencies afterwards.
type Router struct {
	deps  HandlerDeps
	bound bool
}

// NewRouter creates an unbound router. Bind must be called before the bot
// starts receiving updates.
func NewRouter() *Router {
	return &Router{}
}

// Bind attaches the router's dependencies.
func (r *Router) Bind(deps HandlerDeps) {
	r.deps = deps
	r.bound = true
}

// Handle dispatches one update.
func (r *Router) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !r.bound {
		return
	}
	if update.Message == nil || update.Message.From == nil {
		return
	}

	msg := update.Message
	if r.deps.Config.Telegram.IsAdmin(msg.From.ID) {
		r.handleAdmin(ctx, b, msg)
		return
	}
	r.handleUser(ctx, b, msg)
}

// handleUser routes a customer message: menu buttons first, then any active
// form session, then a menu hint.
func (r *Router) handleUser(ctx context.Context, client Sender, msg *models.Message) {
	log := r.deps.Logger.With("handler", "user_router", "user_id", msg.From.ID)
	userID := msg.From.ID
	chatID := msg.Chat.ID

	switch msg.Text {
	case btnContactOperator:
		r.startForm(ctx, client, chatID, userID, conversation.FormQuestion)
		return
	case btnTracking:
		r.startForm(ctx, client, chatID, userID, conversation.FormTracking)
		return
	case btnInvoice:
		r.startForm(ctx, client, chatID, userID, conversation.FormInvoice)
		return
	case btnArrivals:
		r.showArrivals(ctx, client, chatID)
		return
	case conversation.CancelText:
		r.deps.Conversations.Clear(userID)
		r.send(ctx, client, chatID, r.deps.Config.Messages.Cancelled, customerKeyboard())
		return
	}

	sess := r.deps.Conversations.Get(userID)
	if sess.State == conversation.StateIdle {
		r.send(ctx, client, chatID, r.deps.Config.Messages.MenuHint, customerKeyboard())
		return
	}

	next, res := conversation.Advance(sess, conversation.Input{Text: msg.Text})

	if res.Done {
		r.deps.Conversations.Clear(userID)
	} else {
		r.deps.Conversations.Set(userID, next)
	}

	if res.InquiryBody != "" {
		if err := r.openThread(ctx, client, msg.From, res.InquiryBody); err != nil {
			log.ErrorContext(ctx, "Failed to open inquiry thread", "error", err)
			r.send(ctx, client, chatID, r.deps.Config.Messages.GeneralError, customerKeyboard())
			return
		}
	}

	keyboard := cancelKeyboard()
	if res.Done {
		keyboard = customerKeyboard()
	}
	r.send(ctx, client, chatID, r.promptText(res.Prompt), keyboard)
}

// startForm begins a customer flow and sends its first prompt.
func (r *Router) startForm(ctx context.Context, client Sender, chatID, userID int64, kind conversation.FormKind) {
	sess, prompt := conversation.Start(kind)
	r.deps.Conversations.Set(userID, sess)
	r.send(ctx, client, chatID, r.promptText(prompt), cancelKeyboard())
}

// promptText maps a typed prompt to its configured message text.
func (r *Router) promptText(p conversation.Prompt) string {
	m := r.deps.Config.Messages
	switch p {
	case conversation.PromptAskQuestion:
		return m.AskQuestion
	case conversation.PromptAskName:
		return m.AskName
	case conversation.PromptAskOrderNumber:
		return m.AskOrderNumber
	case conversation.PromptAccepted:
		return m.FormAccepted
	case conversation.PromptCancelled:
		return m.Cancelled
	}
	return m.MenuHint
}

// openThread records the inquiry, notifies the primary admin, and attaches
// the notification message id for later reply correlation.
func (r *Router) openThread(ctx context.Context, client Sender, from *models.User, body string) error {
	threadID, err := r.deps.Store.CreateThread(ctx, from.ID, body)
	if err != nil {
		return err
	}

	notification := fmt.Sprintf(
		"🆕 Запит #%d\nВід: %s (id %d)\n\n%s\n\nВідповідайте реплаєм на це повідомлення.",
		threadID, displayName(from), from.ID, body,
	)

	sent, err := client.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: r.deps.Config.Telegram.PrimaryAdminID,
		Text:   notification,
	})
	if err != nil {
		return fmt.Errorf("failed to notify staff about thread %d: %w", threadID, err)
	}

	if err := r.deps.Store.AttachNotification(ctx, threadID, int64(sent.ID)); err != nil {
		return err
	}

	r.deps.Logger.InfoContext(ctx, "Inquiry thread opened",
		"thread_id", threadID, "user_id", from.ID, "notification_message_id", sent.ID)
	return nil
}

// showArrivals replays the most recent published new-arrival posts.
func (r *Router) showArrivals(ctx context.Context, client Sender, chatID int64) {
	log := r.deps.Logger.With("handler", "arrivals")

	arrivals, err := r.deps.Store.RecentArrivals(ctx, 5)
	if err != nil {
		log.ErrorContext(ctx, "Failed to list arrivals", "error", err)
		r.send(ctx, client, chatID, r.deps.Config.Messages.GeneralError, nil)
		return
	}
	if len(arrivals) == 0 {
		r.send(ctx, client, chatID, r.deps.Config.Messages.NoArrivals, nil)
		return
	}

	for _, a := range arrivals {
		_, err := client.SendPhoto(ctx, &bot.SendPhotoParams{
			ChatID:  chatID,
			Photo:   &models.InputFileString{Data: a.PhotoFileID},
			Caption: fmt.Sprintf("%s — %s", a.Title, a.Price),
		})
		if err != nil {
			log.ErrorContext(ctx, "Failed to send arrival post", "arrival_id", a.ID, "error", err)
		}
	}
}

// send delivers a plain text message, logging failures instead of surfacing
// them; the send itself was the user-visible outcome.
func (r *Router) send(ctx context.Context, client Sender, chatID int64, text string, keyboard models.ReplyMarkup) {
	params := &bot.SendMessageParams{ChatID: chatID, Text: text}
	if keyboard != nil {
		params.ReplyMarkup = keyboard
	}
	if _, err := client.SendMessage(ctx, params); err != nil {
		r.deps.Logger.ErrorContext(ctx, "Failed to send message", "chat_id", chatID, "error", err)
	}
}

func displayName(u *models.User) string {
	name := u.FirstName
	if u.LastName != "" {
		name += " " + u.LastName
	}
	if name == "" && u.Username != "" {
		name = "@" + u.Username
	}
	if name == "" {
		name = "невідомий користувач"
	}
	return name
}
