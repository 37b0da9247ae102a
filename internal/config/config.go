package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"
)

type AppConfig struct {
	ListenAddr string `yaml:"listen_addr"`

	RedisURL   string `yaml:"redis_url"`
	FeedPrefix string `yaml:"feed_prefix"`

	SquareSize  int    `yaml:"square_size"`
	FlipBlack   bool   `yaml:"flip_black"`
	MessagesDir string `yaml:"messages_dir"`

	RelayWSURL          string        `yaml:"relay_ws_url"`
	RelayMaxReconnect   int           `yaml:"relay_max_reconnect"`
	WebhookURL          string        `yaml:"webhook_url"`
	WebhookTimeout      time.Duration `yaml:"webhook_timeout"`
	ShutdownGracePeriod time.Duration `yaml:"shutdown_grace"`
}

func defaults() *AppConfig {
	return &AppConfig{
		ListenAddr:          ":8080",
		FeedPrefix:          "cheese-board",
		SquareSize:          64,
		RelayMaxReconnect:   5,
		WebhookTimeout:      5 * time.Second,
		ShutdownGracePeriod: 5 * time.Second,
	}
}

// Load builds the configuration from defaults, the YAML file named by
// CHESS_CONFIG when set, then environment overrides.
func Load() (*AppConfig, error) {
	cfg := defaults()
	if path := strings.TrimSpace(os.Getenv("CHESS_CONFIG")); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) loadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *AppConfig) applyEnv() {
	if v := strings.TrimSpace(os.Getenv("CHESS_LISTEN_ADDR")); v != "" {
		c.ListenAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("REDIS_URL")); v != "" {
		c.RedisURL = v
	}
	if v := strings.TrimSpace(os.Getenv("CHESS_FEED_PREFIX")); v != "" {
		c.FeedPrefix = v
	}
	if v := strings.TrimSpace(os.Getenv("CHESS_SQUARE_SIZE")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.SquareSize = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("CHESS_FLIP_BLACK")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.FlipBlack = b
		}
	}
	if v := strings.TrimSpace(os.Getenv("CHESS_MESSAGES_DIR")); v != "" {
		c.MessagesDir = v
	}
	if v := strings.TrimSpace(os.Getenv("CHESS_RELAY_WS_URL")); v != "" {
		c.RelayWSURL = v
	}
	if v := strings.TrimSpace(os.Getenv("CHESS_RELAY_MAX_RECONNECT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.RelayMaxReconnect = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("CHESS_WEBHOOK_URL")); v != "" {
		c.WebhookURL = v
	}
	if v := strings.TrimSpace(os.Getenv("CHESS_WEBHOOK_TIMEOUT")); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			c.WebhookTimeout = d
		}
	}
}

// Validate rejects values the services cannot start with.
func (c *AppConfig) Validate() error {
	if strings.TrimSpace(c.ListenAddr) == "" {
		return errors.New("CHESS_LISTEN_ADDR is required")
	}
	if c.SquareSize < 16 || c.SquareSize > 256 {
		return fmt.Errorf("CHESS_SQUARE_SIZE must be within 16..256, got %d", c.SquareSize)
	}
	if c.RedisURL != "" && strings.TrimSpace(c.FeedPrefix) == "" {
		return errors.New("CHESS_FEED_PREFIX is required when REDIS_URL is set")
	}
	if c.RelayWSURL != "" && !strings.HasPrefix(c.RelayWSURL, "ws://") && !strings.HasPrefix(c.RelayWSURL, "wss://") {
		return fmt.Errorf("CHESS_RELAY_WS_URL must be a ws:// or wss:// url: %q", c.RelayWSURL)
	}
	return nil
}
