// Package config reads the client settings from the environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type AppConfig struct {
	APIBaseURL string
	PushWSURL  string

	AuthToken string
	Email     string
	Password  string

	RedisURL    string
	DatabaseURL string

	StockfishPath string
	EnginePool    int
	AnalysisDepth int

	Locale         string
	MsgOverrideDir string
	RenderDir      string

	HTTPTimeout time.Duration
	HTTPRetry   int

	PushMaxReconnect int
	PushReadyTimeout time.Duration
	MoveSender       string

	ClockTick time.Duration

	PuzzleFirstMoveDelay time.Duration
	PuzzleReplyDelay     time.Duration
	PuzzleWrongReset     time.Duration

	PollInterval time.Duration
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		EnginePool:           1,
		AnalysisDepth:        14,
		Locale:               "en",
		RenderDir:            "boards",
		HTTPTimeout:          10 * time.Second,
		HTTPRetry:            3,
		PushMaxReconnect:     20,
		PushReadyTimeout:     6 * time.Second,
		MoveSender:           "auto",
		ClockTick:            100 * time.Millisecond,
		PuzzleFirstMoveDelay: 400 * time.Millisecond,
		PuzzleReplyDelay:     600 * time.Millisecond,
		PuzzleWrongReset:     2500 * time.Millisecond,
		PollInterval:         3 * time.Second,
	}

	cfg.APIBaseURL = strings.TrimRight(env("API_BASE_URL"), "/")
	cfg.PushWSURL = env("PUSH_WS_URL")

	cfg.AuthToken = env("AUTH_TOKEN")
	cfg.Email = env("CHESS_EMAIL")
	cfg.Password = env("CHESS_PASSWORD")

	cfg.RedisURL = env("REDIS_URL")
	cfg.DatabaseURL = env("DATABASE_URL")

	cfg.StockfishPath = env("STOCKFISH_PATH")
	intVar("ENGINE_POOL", &cfg.EnginePool)
	intVar("ANALYSIS_DEPTH", &cfg.AnalysisDepth)

	if v := env("LOCALE"); v != "" {
		cfg.Locale = strings.ToLower(v)
	}
	cfg.MsgOverrideDir = env("MSG_OVERRIDE_DIR")
	if v := env("RENDER_DIR"); v != "" {
		cfg.RenderDir = v
	}

	msVar("HTTP_TIMEOUT_MS", &cfg.HTTPTimeout)
	if v := env("HTTP_RETRY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.HTTPRetry = n
		}
	}

	intVar("PUSH_MAX_RECONNECT", &cfg.PushMaxReconnect)
	msVar("PUSH_READY_TIMEOUT_MS", &cfg.PushReadyTimeout)
	if v := env("MOVE_SENDER"); v != "" {
		cfg.MoveSender = strings.ToLower(v)
	}

	msVar("CLOCK_TICK_MS", &cfg.ClockTick)
	msVar("PUZZLE_FIRST_MOVE_DELAY_MS", &cfg.PuzzleFirstMoveDelay)
	msVar("PUZZLE_REPLY_DELAY_MS", &cfg.PuzzleReplyDelay)
	msVar("PUZZLE_WRONG_RESET_MS", &cfg.PuzzleWrongReset)
	msVar("POLL_INTERVAL_MS", &cfg.PollInterval)

	if cfg.APIBaseURL == "" {
		return nil, errors.New("API_BASE_URL is required")
	}
	if cfg.PushWSURL == "" {
		return nil, errors.New("PUSH_WS_URL is required")
	}
	if u, err := url.Parse(cfg.PushWSURL); err != nil || (u.Scheme != "ws" && u.Scheme != "wss") {
		return nil, fmt.Errorf("PUSH_WS_URL must be a ws:// or wss:// url: %q", cfg.PushWSURL)
	}
	switch cfg.MoveSender {
	case "http", "ws", "auto":
	default:
		return nil, fmt.Errorf("MOVE_SENDER must be http, ws or auto: %q", cfg.MoveSender)
	}
	return cfg, nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func intVar(key string, dst *int) {
	if v := env(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			*dst = n
		}
	}
}

// msVar reads a millisecond count; zero is allowed and disables the delay.
func msVar(key string, dst *time.Duration) {
	if v := env(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			*dst = time.Duration(n) * time.Millisecond
		}
	}
}
