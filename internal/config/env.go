package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"golang.org/x/term"
)

// Config contains all configuration parameters for the application.
// Note: if TELEGRAM_BOT_TOKEN is empty it may be prompted at startup - use GetTelegramBotToken()
type Config struct {
	TelegramBotToken    string        `envconfig:"TELEGRAM_BOT_TOKEN"`
	DonateURL           string        `envconfig:"DONATE_URL" required:"true"`
	SolanaRPCURL        string        `envconfig:"CONNECTION_URL" default:"https://api.devnet.solana.com"`
	SolanaCluster       string        `envconfig:"SOLANA_CLUSTER" default:"devnet"`
	DonateCooldown      int           `envconfig:"DONATE_COOLDOWN_MINUTES" default:"1"`
	DonateRateLimit     int           `envconfig:"DONATE_RATE_LIMIT" default:"5"`
	KeyTTL              time.Duration `envconfig:"KEY_TTL" default:"0s"`
	RPCTimeout          time.Duration `envconfig:"RPC_TIMEOUT" default:"15s"`
	BuilderTimeout      time.Duration `envconfig:"BUILDER_TIMEOUT" default:"15s"`
	ConfirmTimeout      time.Duration `envconfig:"CONFIRM_TIMEOUT" default:"30s"`
	ConfirmPollInterval time.Duration `envconfig:"CONFIRM_POLL_INTERVAL" default:"1s"`
	Port                string        `envconfig:"PORT"`
	APIToken            string        `envconfig:"API_TOKEN"`
	LogLevel            string        `envconfig:"LOG_LEVEL" default:"info"`
}

// minAPITokenLength is the shortest operator token accepted for the HTTP surface
const minAPITokenLength = 16

// cfg is the global configuration instance
var cfg *Config

// Init loads configuration from .env (if present) and environment variables.
func Init() error {
	// Variables already set in the environment win over .env
	_ = godotenv.Load()

	c := &Config{}
	if err := envconfig.Process("", c); err != nil {
		return fmt.Errorf("failed to process config: %w", err)
	}
	if err := c.validate(); err != nil {
		return err
	}
	cfg = c
	return nil
}

func (c *Config) validate() error {
	if !strings.HasPrefix(c.DonateURL, "http://") && !strings.HasPrefix(c.DonateURL, "https://") {
		return errors.New("DONATE_URL must be an http(s) URL")
	}
	if c.DonateCooldown < 0 {
		return errors.New("DONATE_COOLDOWN_MINUTES must not be negative")
	}
	if c.DonateRateLimit <= 0 {
		return errors.New("DONATE_RATE_LIMIT must be positive")
	}
	if c.Port != "" && len(c.APIToken) < minAPITokenLength {
		return fmt.Errorf("API_TOKEN of at least %d characters is required when PORT is set", minAPITokenLength)
	}
	if c.RPCTimeout <= 0 || c.BuilderTimeout <= 0 || c.ConfirmTimeout <= 0 || c.ConfirmPollInterval <= 0 {
		return errors.New("timeouts must be positive")
	}
	return nil
}

// Get returns the global configuration instance.
// Panics if Init() was not called.
func Get() *Config {
	if cfg == nil {
		panic("config not initialized, call Init() first")
	}
	return cfg
}

// GetPort returns HTTP port from configuration (empty disables the HTTP surface)
func GetPort() string {
	return Get().Port
}

// GetAPIToken returns the operator token guarding the HTTP command surface
func GetAPIToken() string {
	return Get().APIToken
}

// GetDonateCooldown returns cooldown between donations of one chat
func GetDonateCooldown() time.Duration {
	return time.Duration(Get().DonateCooldown) * time.Minute
}

// GetDonateURL returns the remote donation service endpoint
func GetDonateURL() string {
	return Get().DonateURL
}

// GetSolanaRPCURL returns Solana RPC URL from configuration
func GetSolanaRPCURL() string {
	return Get().SolanaRPCURL
}

// GetSolanaCluster returns the cluster label used in explorer links
func GetSolanaCluster() string {
	return Get().SolanaCluster
}

// GetTelegramBotToken returns the bot token from the environment or from PromptForToken.
func GetTelegramBotToken() (string, error) {
	if token := Get().TelegramBotToken; token != "" {
		return token, nil
	}
	if len(promptedToken) == 0 {
		return "", errors.New("TELEGRAM_BOT_TOKEN not set: export it or call PromptForToken at startup")
	}
	return string(promptedToken), nil
}

var promptedToken []byte

// PromptForToken prompts the operator for the Telegram bot token in the terminal.
// The token is read without echoing (hidden input) and stored in memory.
// Call this at startup before the bot begins polling.
func PromptForToken() error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return errors.New("stdin is not a terminal: set TELEGRAM_BOT_TOKEN or run the bot interactively")
	}
	fmt.Fprint(os.Stderr, "Enter Telegram bot token: ")
	defer fmt.Fprintln(os.Stderr)

	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return fmt.Errorf("failed to read token: %w", err)
	}
	if len(raw) == 0 {
		return errors.New("token cannot be empty")
	}

	promptedToken = make([]byte, len(raw))
	copy(promptedToken, raw)
	clear(raw)
	return nil
}
