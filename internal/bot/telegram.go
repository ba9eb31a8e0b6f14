package bot

import (
	"context"
	"fmt"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// pollTimeout is the long polling timeout in seconds
const pollTimeout = 60

// sender is the part of tgbotapi.BotAPI the transport uses
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Telegram serves the router over the Telegram Bot API
type Telegram struct {
	api    sender
	router *Router
	log    *logrus.Logger
}

// NewTelegram creates the Telegram transport
func NewTelegram(api sender, router *Router, log *logrus.Logger) *Telegram {
	return &Telegram{api: api, router: router, log: log}
}

// Connect authorizes token against the Bot API
func Connect(token string) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to telegram: %w", err)
	}
	return api, nil
}

// Poll serves updates from api until ctx is done
func Poll(ctx context.Context, api *tgbotapi.BotAPI, router *Router, log *logrus.Logger) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = pollTimeout
	updates := api.GetUpdatesChan(cfg)

	go func() {
		<-ctx.Done()
		api.StopReceivingUpdates()
	}()

	log.WithField("bot", api.Self.UserName).Info("telegram bot started")
	return NewTelegram(api, router, log).Serve(ctx, updates)
}

// Serve handles updates, each in its own goroutine, until ctx is done or updates is closed.
// It returns once every started handler has finished.
func (t *Telegram) Serve(ctx context.Context, updates <-chan tgbotapi.Update) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			wg.Add(1)
			go func(msg *tgbotapi.Message) {
				defer wg.Done()
				t.handle(ctx, msg)
			}(update.Message)
		}
	}
}

func (t *Telegram) handle(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	log := t.log.WithField("chat_id", chatID)

	resp, ok := t.router.Dispatch(ctx, chatID, msg.Text)
	if !ok {
		return
	}

	if resp.Sensitive {
		// Bots can delete messages in private chats; in groups this needs admin rights
		if _, err := t.api.Request(tgbotapi.NewDeleteMessage(chatID, msg.MessageID)); err != nil {
			log.WithError(err).Warn("failed to delete message with private key")
		}
	}

	if err := t.reply(chatID, resp); err != nil {
		log.WithError(err).Error("failed to send reply")
	}
}

func (t *Telegram) reply(chatID int64, resp Response) error {
	var reply tgbotapi.Chattable
	if len(resp.Photo) > 0 {
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "address.png", Bytes: resp.Photo})
		photo.Caption = resp.Text
		reply = photo
	} else {
		reply = tgbotapi.NewMessage(chatID, resp.Text)
	}

	if _, err := t.api.Send(reply); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}
