package config

import (
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("API_BASE_URL", "http://localhost:8080/api/")
	t.Setenv("PUSH_WS_URL", "ws://localhost:8080/ws")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIBaseURL != "http://localhost:8080/api" {
		t.Fatalf("trailing slash must be trimmed, got %q", cfg.APIBaseURL)
	}
	if cfg.PushMaxReconnect != 20 || cfg.PollInterval != 3*time.Second || cfg.ClockTick != 100*time.Millisecond {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.PuzzleFirstMoveDelay != 400*time.Millisecond || cfg.PuzzleReplyDelay != 600*time.Millisecond || cfg.PuzzleWrongReset != 2500*time.Millisecond {
		t.Fatalf("unexpected puzzle delays %+v", cfg)
	}
	if cfg.MoveSender != "auto" || cfg.Locale != "en" || cfg.RenderDir != "boards" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoadOverridesAndValidation(t *testing.T) {
	setRequired(t)
	t.Setenv("HTTP_TIMEOUT_MS", "2500")
	t.Setenv("PUZZLE_REPLY_DELAY_MS", "0")
	t.Setenv("MOVE_SENDER", "WS")
	t.Setenv("ENGINE_POOL", "-3")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPTimeout != 2500*time.Millisecond || cfg.PuzzleReplyDelay != 0 || cfg.MoveSender != "ws" || cfg.EnginePool != 1 {
		t.Fatalf("overrides not applied %+v", cfg)
	}

	t.Setenv("MOVE_SENDER", "carrier-pigeon")
	if _, err := Load(); err == nil {
		t.Fatalf("unknown move sender must be rejected")
	}
	t.Setenv("MOVE_SENDER", "")
	t.Setenv("PUSH_WS_URL", "http://localhost/ws")
	if _, err := Load(); err == nil {
		t.Fatalf("non websocket push url must be rejected")
	}
	t.Setenv("API_BASE_URL", "")
	if _, err := Load(); err == nil {
		t.Fatalf("missing API_BASE_URL must be rejected")
	}
}
