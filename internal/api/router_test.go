package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/AlexZinkM/sol-donate-bot/internal/bot"

	"github.com/stretchr/testify/require"
)

const testAPIToken = "operator-token-0123456789"

type countingDonor struct {
	mu      sync.Mutex
	donated int
}

func (*countingDonor) Start() string                         { return "welcome" }
func (*countingDonor) RegisterKey(int64, string) string      { return "key set" }
func (*countingDonor) Balance(context.Context, int64) string { return "balance" }
func (*countingDonor) Address(int64) (string, []byte)        { return "address", nil }
func (*countingDonor) ClearKey(int64) string                 { return "cleared" }

func (d *countingDonor) Donate(context.Context, int64) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.donated++
	return "thanks"
}

func postCommand(t *testing.T, url, token string) int {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, url+"/bot/command", strings.NewReader(`{"chatId":1,"text":"/donate1Sol"}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	return resp.StatusCode
}

func TestSetupRouter(t *testing.T) {
	t.Parallel()

	donor := &countingDonor{}
	srv := httptest.NewServer(SetupRouter(bot.NewRouter(donor), testAPIToken))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.Equal(t, http.StatusUnauthorized, postCommand(t, srv.URL, ""))
	require.Equal(t, http.StatusUnauthorized, postCommand(t, srv.URL, "wrong-token"))
	require.Zero(t, donor.donated)

	require.Equal(t, http.StatusOK, postCommand(t, srv.URL, testAPIToken))
	require.Equal(t, 1, donor.donated)

	resp, err = http.Get(srv.URL + "/swagger/doc.json")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
