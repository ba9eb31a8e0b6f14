// Solana donation bot: Telegram long polling plus an optional HTTP command surface.
// Usage: go run ./cmd/donatebot
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AlexZinkM/sol-donate-bot/donation"
	"github.com/AlexZinkM/sol-donate-bot/internal/api"
	"github.com/AlexZinkM/sol-donate-bot/internal/bot"
	"github.com/AlexZinkM/sol-donate-bot/internal/client"
	"github.com/AlexZinkM/sol-donate-bot/internal/config"
	"github.com/AlexZinkM/sol-donate-bot/internal/keystore"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// @title       Solana Donation Bot API
// @version     1.0
// @description HTTP access to the donation bot commands.
// @BasePath    /
//
// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
// @description                "Bearer " followed by API_TOKEN
func main() {
	log := logrus.New()
	if err := run(log); err != nil {
		log.WithError(err).Fatal("failed to run bot")
	}
}

func run(log *logrus.Logger) error {
	if err := config.Init(); err != nil {
		return err
	}
	cfg := config.Get()

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	log.SetLevel(level)

	if cfg.TelegramBotToken == "" {
		if err := config.PromptForToken(); err != nil {
			return err
		}
	}
	token, err := config.GetTelegramBotToken()
	if err != nil {
		return err
	}

	keys := keystore.New(cfg.KeyTTL)
	service, err := donation.NewService(donation.Config{
		Keys:   keys,
		Ledger: client.NewSolanaClient(config.GetSolanaRPCURL()),
		Donate: client.NewDonateClient(client.DonateConfig{
			URL:       config.GetDonateURL(),
			RateLimit: cfg.DonateRateLimit,
			Timeout:   cfg.BuilderTimeout,
		}),
		Prices:              client.NewCoinGeckoClient(),
		Cluster:             config.GetSolanaCluster(),
		RPCTimeout:          cfg.RPCTimeout,
		BuilderTimeout:      cfg.BuilderTimeout,
		ConfirmTimeout:      cfg.ConfirmTimeout,
		ConfirmPollInterval: cfg.ConfirmPollInterval,
		Cooldown:            config.GetDonateCooldown(),
		Logger:              log,
	})
	if err != nil {
		return fmt.Errorf("failed to create donation service: %w", err)
	}
	router := bot.NewRouter(service)

	telegram, err := bot.Connect(token)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return bot.Poll(ctx, telegram, router, log)
	})

	if cfg.KeyTTL > 0 {
		g.Go(func() error {
			purgeExpiredKeys(ctx, keys, cfg.KeyTTL, log)
			return nil
		})
	}

	if port := config.GetPort(); port != "" {
		server := &http.Server{
			Addr:              ":" + port,
			Handler:           api.SetupRouter(router, config.GetAPIToken()),
			ReadHeaderTimeout: 10 * time.Second,
		}

		g.Go(func() error {
			log.WithField("port", port).Info("HTTP server started, swagger UI at /swagger/index.html")
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("HTTP server failed: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("bot stopped")
	return nil
}

// purgeExpiredKeys drops expired keys until ctx is done
func purgeExpiredKeys(ctx context.Context, keys *keystore.Store, ttl time.Duration, log *logrus.Logger) {
	ticker := time.NewTicker(min(ttl, time.Minute))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := keys.Purge(); n > 0 {
				log.WithField("keys", n).Info("expired private keys removed")
			}
		}
	}
}
