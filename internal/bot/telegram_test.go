package bot

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	sendErr  error
}

func (s *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, c)
	return tgbotapi.Message{}, s.sendErr
}

func (s *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func message(chatID int64, messageID int, text string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: messageID,
		Chat:      &tgbotapi.Chat{ID: chatID},
		Text:      text,
	}}
}

// serve runs updates through a Telegram transport and waits for every handler
func serve(t *testing.T, api *fakeSender, updates ...tgbotapi.Update) {
	t.Helper()

	ch := make(chan tgbotapi.Update, len(updates))
	for _, u := range updates {
		ch <- u
	}
	close(ch)

	tg := NewTelegram(api, NewRouter(newFakeDonor()), quietLogger())
	require.NoError(t, tg.Serve(context.Background(), ch))
}

func TestTelegram_RepliesToCommands(t *testing.T) {
	t.Parallel()

	api := &fakeSender{}
	serve(t, api, message(5, 1, "/donate1Sol"), message(5, 2, "just chatting"), tgbotapi.Update{})

	require.Len(t, api.sent, 1)
	msg, ok := api.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	require.Equal(t, int64(5), msg.ChatID)
	require.Equal(t, "thanks", msg.Text)
	require.Empty(t, api.requests)
}

func TestTelegram_DeletesPrivateKeyMessages(t *testing.T) {
	t.Parallel()

	api := &fakeSender{}
	serve(t, api, message(5, 42, "/setPrivateKey secret"))

	require.Len(t, api.requests, 1)
	del, ok := api.requests[0].(tgbotapi.DeleteMessageConfig)
	require.True(t, ok)
	require.Equal(t, int64(5), del.ChatID)
	require.Equal(t, 42, del.MessageID)

	require.Len(t, api.sent, 1)
	require.Equal(t, "key set", api.sent[0].(tgbotapi.MessageConfig).Text)
}

func TestTelegram_SendsAddressAsPhoto(t *testing.T) {
	t.Parallel()

	api := &fakeSender{}
	serve(t, api, message(5, 1, "/address"))

	require.Len(t, api.sent, 1)
	photo, ok := api.sent[0].(tgbotapi.PhotoConfig)
	require.True(t, ok)
	require.Equal(t, "address", photo.Caption)
	require.Equal(t, tgbotapi.FileBytes{Name: "address.png", Bytes: []byte("png")}, photo.File)
}

func TestTelegram_SendFailureDoesNotStopServing(t *testing.T) {
	t.Parallel()

	api := &fakeSender{sendErr: errors.New("blocked by user")}
	serve(t, api, message(5, 1, "/start"), message(6, 2, "/start"))
	require.Len(t, api.sent, 2)
}

func TestTelegram_StopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tg := NewTelegram(&fakeSender{}, NewRouter(newFakeDonor()), quietLogger())
	require.NoError(t, tg.Serve(ctx, make(chan tgbotapi.Update)))
}
