package clientbuilder

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/park285/chessonline-client/internal/config"
	"github.com/park285/chessonline-client/internal/localstore"
	"github.com/park285/chessonline-client/internal/push"
)

func baseConfig() *config.AppConfig {
	return &config.AppConfig{
		APIBaseURL:       "http://127.0.0.1:1",
		PushWSURL:        "ws://127.0.0.1:1/ws",
		Locale:           "en",
		RenderDir:        "boards",
		HTTPTimeout:      time.Second,
		HTTPRetry:        1,
		PushMaxReconnect: 1,
		PushReadyTimeout: time.Second,
		MoveSender:       "auto",
		AnalysisDepth:    10,
	}
}

func TestNewWithoutOptionalBackends(t *testing.T) {
	ctx := context.Background()
	var out bytes.Buffer
	d, err := New(ctx, baseConfig(), &out, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = d.Close(ctx) })

	if _, ok := d.Store.(*localstore.MemoryStore); !ok {
		t.Fatalf("expected memory store, got %T", d.Store)
	}
	if d.Engine != nil {
		t.Fatalf("engine must stay off without STOCKFISH_PATH")
	}
	if n := len(d.AnalysisOptions(nil)); n != 3 {
		t.Fatalf("expected remote-only analysis options, got %d", n)
	}
	if d.Push.State() != push.StateDisconnected {
		t.Fatalf("push must not connect during build, got %s", d.Push.State())
	}
	d.Presenter.Say("auth.logout", nil)
	if out.String() != "Logged out.\n" {
		t.Fatalf("presenter not wired to output: %q", out.String())
	}
}

func TestNewRestoresTokenFromRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	seed, err := localstore.NewRedisStore(ctx, "redis://"+mr.Addr())
	if err != nil {
		t.Fatalf("NewRedisStore: %v", err)
	}
	if err := seed.Set(ctx, localstore.KeyAuthToken, "tok-1", 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	_ = seed.Close()

	cfg := baseConfig()
	cfg.RedisURL = "redis://" + mr.Addr()
	d, err := New(ctx, cfg, &bytes.Buffer{}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = d.Close(ctx) })

	if d.API.Token() != "tok-1" {
		t.Fatalf("token not restored, got %q", d.API.Token())
	}
	if err := d.API.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := d.Store.Get(ctx, localstore.KeyAuthToken); err != localstore.ErrNotFound {
		t.Fatalf("logout must clear the stored token, got %v", err)
	}
}

func TestNewRejectsBadLocaleDir(t *testing.T) {
	cfg := baseConfig()
	cfg.MsgOverrideDir = t.TempDir() + "/missing"
	if _, err := New(context.Background(), cfg, &bytes.Buffer{}, nil); err == nil {
		t.Fatalf("missing override dir must fail the build")
	}
}
