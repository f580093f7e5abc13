package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/park285/chessonline-client/internal/apiclient"
	"github.com/park285/chessonline-client/internal/push"
	"github.com/park285/chessonline-client/pkg/chessdto"
)

func main() {
	baseURL := os.Getenv("API_BASE_URL")
	wsURL := os.Getenv("PUSH_WS_URL")
	token := os.Getenv("AUTH_TOKEN")
	email := os.Getenv("CHESS_EMAIL")
	password := os.Getenv("CHESS_PASSWORD")
	gameID := os.Getenv("CHECK_GAME_ID")

	if baseURL == "" {
		log.Fatal("API_BASE_URL is required")
	}

	client := apiclient.NewClient(baseURL,
		apiclient.WithToken(token),
		apiclient.WithTimeout(8*time.Second),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if token == "" && email != "" {
		if _, err := client.Login(ctx, email, password); err != nil {
			log.Printf("/auth/login error: %v", err)
		} else {
			log.Printf("/auth/login ok")
		}
	}
	if me, err := client.Me(ctx); err != nil {
		log.Printf("/auth/me error: %v", err)
	} else {
		log.Printf("/auth/me ok: id=%s username=%s rating=%d", me.ID, me.Username, me.Rating)
	}
	if games, err := client.LobbyGames(ctx); err != nil {
		log.Printf("/lobby/games error: %v", err)
	} else {
		log.Printf("/lobby/games ok: %d open", len(games))
	}

	if wsURL == "" {
		log.Println("PUSH_WS_URL not set; skipping push check")
		return
	}

	ws := push.NewClient(wsURL, push.WithToken(client.Token()), push.WithMaxReconnect(5))
	ws.OnStateChange(func(state push.State) {
		log.Printf("push state: %s", state)
	})

	cctx, ccancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer ccancel()
	if err := ws.Connect(cctx); err != nil {
		log.Printf("push connect error: %v", err)
		return
	}
	if err := ws.WaitReady(cctx); err != nil {
		log.Printf("push ready error: %v", err)
	}

	if gameID != "" {
		unsub, err := ws.SubscribeGame(cctx, gameID, func(u chessdto.GameUpdate) {
			fen := "-"
			if u.FenCurrent != nil {
				fen = *u.FenCurrent
			}
			fmt.Printf("update game=%s fen=%s\n", gameID, fen)
		})
		if err != nil {
			log.Printf("subscribe %s error: %v", gameID, err)
		} else {
			defer unsub()
		}
	}
	stopErrors := ws.SubscribeMoveErrors(func(m chessdto.MoveErrorMessage) {
		fmt.Printf("move error: %+v\n", m)
	})
	defer stopErrors()

	// Observe for a short window
	t := time.NewTimer(10 * time.Second)
	<-t.C

	_ = ws.Close(context.Background())
}
