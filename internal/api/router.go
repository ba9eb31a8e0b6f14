package api

import (
	"net/http"

	"github.com/AlexZinkM/sol-donate-bot/internal/bot"
	"github.com/AlexZinkM/sol-donate-bot/internal/handler"

	_ "github.com/AlexZinkM/sol-donate-bot/docs"
	httpSwagger "github.com/swaggo/http-swagger"
)

// SetupRouter sets up router with handlers.
// Commands act on any chat's key, so they require the operator apiToken.
func SetupRouter(router *bot.Router, apiToken string) http.Handler {
	botHandler := handler.NewBotHandler(router)

	mux := http.NewServeMux()

	// Swagger UI
	mux.HandleFunc("/swagger/", httpSwagger.WrapHandler)

	// Bot endpoints
	mux.HandleFunc("/bot/command", handler.RequireToken(apiToken, botHandler.Command))
	mux.HandleFunc("/health", botHandler.Health)

	return mux
}
