package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type AppConfig struct {
	HTTPAddr string

	MoveTimeout time.Duration

	RedisURL    string
	DatabaseURL string

	BotGatewayURL   string
	BotGatewayWSURL string

	MsgcatDir string
}

// Load reads configuration from the environment. Everything has a
// default or is optional: a bare process serves HTTP on :8080 with an
// in-memory rating store and no archive or push gateway.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		HTTPAddr:    ":8080",
		MoveTimeout: 300 * time.Second,
	}

	if v := strings.TrimSpace(os.Getenv("HTTP_ADDR")); v != "" {
		cfg.HTTPAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("MOVE_TIMEOUT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MoveTimeout = time.Duration(n) * time.Second
		}
	}

	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	cfg.BotGatewayURL = strings.TrimSpace(os.Getenv("BOT_GATEWAY_URL"))
	cfg.BotGatewayWSURL = strings.TrimSpace(os.Getenv("BOT_GATEWAY_WS_URL"))
	cfg.MsgcatDir = strings.TrimSpace(os.Getenv("MSGCAT_DIR"))

	return cfg, nil
}
