package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/park285/chessonline-client/internal/clientbuilder"
	appcfg "github.com/park285/chessonline-client/internal/config"
	"github.com/park285/chessonline-client/internal/obslog"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer obslog.Close()
	logger := obslog.L()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := clientbuilder.New(ctx, cfg, os.Stdout, logger)
	if err != nil {
		log.Fatalf("client init error: %v", err)
	}
	a := newApp(deps, logger)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		a.shutdown(closeCtx)
		if err := deps.Close(closeCtx); err != nil {
			logger.Warn("shutdown_error", zap.Error(err))
		}
	}()

	a.bootstrap(ctx)

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()

	fmt.Print("> ")
	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if a.handle(ctx, line) {
				return
			}
			fmt.Print("> ")
		}
	}
}
