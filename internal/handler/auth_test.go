package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/AlexZinkM/sol-donate-bot/internal/model"

	"github.com/stretchr/testify/require"
)

const testAPIToken = "operator-token-0123456789"

func TestRequireToken(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		configured string
		header     string
		wantCode   int
	}{
		"no credential":       {configured: testAPIToken, header: "", wantCode: http.StatusUnauthorized},
		"wrong token":         {configured: testAPIToken, header: "Bearer guessed-token-0000000", wantCode: http.StatusUnauthorized},
		"token prefix":        {configured: testAPIToken, header: "Bearer operator", wantCode: http.StatusUnauthorized},
		"not a bearer":        {configured: testAPIToken, header: "Basic " + testAPIToken, wantCode: http.StatusUnauthorized},
		"no token configured": {configured: "", header: "Bearer ", wantCode: http.StatusUnauthorized},
		"valid token":         {configured: testAPIToken, header: "Bearer " + testAPIToken, wantCode: http.StatusOK},
	}

	for name, tc := range cases {
		name, tc := name, tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			h, donor := newTestHandler()
			req := httptest.NewRequest(http.MethodPost, "/bot/command",
				strings.NewReader(`{"chatId": 123456789, "text": "/donate1Sol"}`))
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			RequireToken(tc.configured, h.Command)(rec, req)

			require.Equal(t, tc.wantCode, rec.Code)
			if tc.wantCode == http.StatusOK {
				require.Equal(t, []int64{123456789}, donor.donated)
				return
			}

			require.Empty(t, donor.donated)
			require.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
			var resp model.ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			require.Equal(t, "unauthorized", resp.Code)
		})
	}
}
