package handler

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/AlexZinkM/sol-donate-bot/internal/bot"
	"github.com/AlexZinkM/sol-donate-bot/internal/model"
)

// maxRequestSize caps the command body; a private key command is well under 1KB
const maxRequestSize = 4 << 10

// BotHandler exposes the chat commands over HTTP
type BotHandler struct {
	router *bot.Router
}

// NewBotHandler creates a new BotHandler
func NewBotHandler(router *bot.Router) *BotHandler {
	return &BotHandler{router: router}
}

// Command handles POST /bot/command
// @Summary      Run a bot command
// @Description  Runs a chat command (e.g. /donate1Sol) for chatId and returns the reply the chat would receive
// @Tags         bot
// @Accept       json
// @Produce      json
// @Param        request  body      model.CommandRequest  true  "Chat and command text"
// @Success      200      {object}  model.CommandResponse
// @Failure      400      {object}  model.ErrorResponse
// @Failure      401      {object}  model.ErrorResponse
// @Security     BearerAuth
// @Router       /bot/command [post]
func (h *BotHandler) Command(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	var req model.CommandRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestSize)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: err.Error(), Code: "invalid_body"})
		return
	}
	if req.ChatID == 0 {
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: "chatId is required", Code: "invalid_chat"})
		return
	}

	resp, ok := h.router.Dispatch(r.Context(), req.ChatID, req.Text)
	if !ok {
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: "text is not a command", Code: "not_a_command"})
		return
	}

	out := model.CommandResponse{Text: resp.Text}
	if len(resp.Photo) > 0 {
		out.Photo = base64.StdEncoding.EncodeToString(resp.Photo)
	}
	writeJSON(w, http.StatusOK, out)
}

// Health handles GET /health
// @Summary      Health check
// @Tags         bot
// @Produce      json
// @Success      200  {object}  model.HealthResponse
// @Router       /health [get]
func (h *BotHandler) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, model.HealthResponse{Status: "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
