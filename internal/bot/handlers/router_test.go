package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/zamorski/podarunky-bot/internal/config"
	"github.com/zamorski/podarunky-bot/internal/conversation"
	"github.com/zamorski/podarunky-bot/internal/database"
)

type sentText struct {
	chatID int64
	text   string
}

type fakeSender struct {
	sent []sentText
	// errs fails sends to the given chat id.
	errs map[int64]error
}

func (f *fakeSender) SendMessage(_ context.Context, p *bot.SendMessageParams) (*models.Message, error) {
	chatID := p.ChatID.(int64)
	if err := f.errs[chatID]; err != nil {
		return nil, err
	}
	f.sent = append(f.sent, sentText{chatID, p.Text})
	return &models.Message{ID: 1000 + len(f.sent)}, nil
}

func (f *fakeSender) SendPhoto(_ context.Context, p *bot.SendPhotoParams) (*models.Message, error) {
	chatID := p.ChatID.(int64)
	if err := f.errs[chatID]; err != nil {
		return nil, err
	}
	f.sent = append(f.sent, sentText{chatID, p.Caption})
	return &models.Message{ID: 1000 + len(f.sent)}, nil
}

// fakeStore stubs only the store methods the routed paths touch; calling
// anything else panics via the embedded nil interface.
type fakeStore struct {
	database.Store

	addErr   error
	added    []int64
	resolved map[int64]int64
}

func (f *fakeStore) AddSubscriber(_ context.Context, userID int64) error {
	if f.addErr != nil {
		return f.addErr
	}
	f.added = append(f.added, userID)
	return nil
}

func (f *fakeStore) ResolveByNotification(_ context.Context, msgID int64) (int64, error) {
	uid, ok := f.resolved[msgID]
	if !ok {
		return 0, database.ErrThreadNotFound
	}
	return uid, nil
}

func testDeps(store database.Store) HandlerDeps {
	return HandlerDeps{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Config: &config.Config{
			Telegram: config.TelegramConfig{AdminIDs: []int64{42}, PrimaryAdminID: 42},
			Messages: config.MessagesConfig{
				Welcome:            "Вітаємо!",
				GeneralError:       "Сталася помилка. Спробуйте, будь ласка, ще раз.",
				ReplyDelivered:     "✅ Надіслано користувачу",
				ReplyRecipientGone: "Користувач заблокував бота або недоступний",
				ReplyUnknownThread: "Не вдалося визначити одержувача. Відповідайте реплаєм на повідомлення запиту.",
				ReplySendError:     "Помилка відправки: %v",
			},
		},
		Store:         store,
		Conversations: conversation.NewManager(),
	}
}

func startUpdate(userID int64) *models.Update {
	return &models.Update{
		Message: &models.Message{
			ID:   1,
			From: &models.User{ID: userID},
			Chat: models.Chat{ID: userID},
			Text: "/start",
		},
	}
}

func TestStartHandler_SubscribesAndWelcomes(t *testing.T) {
	store := &fakeStore{}
	deps := testDeps(store)
	sender := &fakeSender{}

	startHandler{deps}.handle(context.Background(), sender, startUpdate(700))

	if len(store.added) != 1 || store.added[0] != 700 {
		t.Fatalf("expected user 700 subscribed, got %v", store.added)
	}
	if len(sender.sent) != 1 || sender.sent[0].text != deps.Config.Messages.Welcome {
		t.Fatalf("expected welcome message, got %+v", sender.sent)
	}
}

func TestStartHandler_SubscribeFailureReportsError(t *testing.T) {
	store := &fakeStore{addErr: errors.New("disk I/O error")}
	deps := testDeps(store)
	sender := &fakeSender{}

	startHandler{deps}.handle(context.Background(), sender, startUpdate(700))

	if len(sender.sent) != 1 {
		t.Fatalf("expected exactly one message, got %+v", sender.sent)
	}
	if sender.sent[0].text != deps.Config.Messages.GeneralError {
		t.Errorf("expected the try-again message, got %q", sender.sent[0].text)
	}
	// The user must not be told they are subscribed.
	for _, m := range sender.sent {
		if m.text == deps.Config.Messages.Welcome {
			t.Error("welcome message sent despite failed subscribe")
		}
	}
}

func replyMessage(replyToID int, text string) *models.Message {
	return &models.Message{
		ID:             601,
		From:           &models.User{ID: 42},
		Chat:           models.Chat{ID: 42},
		ReplyToMessage: &models.Message{ID: replyToID},
		Text:           text,
	}
}

func boundRouter(store database.Store) (*Router, HandlerDeps) {
	deps := testDeps(store)
	r := NewRouter()
	r.Bind(deps)
	return r, deps
}

func TestRouteReply_DeliversToOriginatingUser(t *testing.T) {
	store := &fakeStore{resolved: map[int64]int64{555: 500}}
	r, deps := boundRouter(store)
	sender := &fakeSender{}

	r.handleAdmin(context.Background(), sender, replyMessage(555, "Shipped yesterday"))

	if len(sender.sent) != 2 {
		t.Fatalf("expected reply plus confirmation, got %+v", sender.sent)
	}
	if sender.sent[0].chatID != 500 || sender.sent[0].text != "Shipped yesterday" {
		t.Errorf("expected customer 500 to receive the reply, got %+v", sender.sent[0])
	}
	if sender.sent[1].chatID != 42 || sender.sent[1].text != deps.Config.Messages.ReplyDelivered {
		t.Errorf("expected staff confirmation, got %+v", sender.sent[1])
	}
}

func TestRouteReply_UnknownThreadIsSurfaced(t *testing.T) {
	store := &fakeStore{resolved: map[int64]int64{}}
	r, deps := boundRouter(store)
	sender := &fakeSender{}

	r.handleAdmin(context.Background(), sender, replyMessage(999, "hello?"))

	if len(sender.sent) != 1 {
		t.Fatalf("expected only the staff error message, got %+v", sender.sent)
	}
	if sender.sent[0].chatID != 42 || sender.sent[0].text != deps.Config.Messages.ReplyUnknownThread {
		t.Errorf("expected unknown-thread message to staff, got %+v", sender.sent[0])
	}
}

func TestRouteReply_RecipientGone(t *testing.T) {
	store := &fakeStore{resolved: map[int64]int64{555: 500}}
	r, deps := boundRouter(store)
	sender := &fakeSender{errs: map[int64]error{
		500: fmt.Errorf("%w: bot was blocked by the user", bot.ErrorForbidden),
	}}

	r.handleAdmin(context.Background(), sender, replyMessage(555, "Shipped yesterday"))

	if len(sender.sent) != 1 {
		t.Fatalf("expected only the staff notice, got %+v", sender.sent)
	}
	if sender.sent[0].chatID != 42 || sender.sent[0].text != deps.Config.Messages.ReplyRecipientGone {
		t.Errorf("expected recipient-gone notice, got %+v", sender.sent[0])
	}
}
