// Command irischeck probes the Iris bridge: it fetches /config and, when a
// websocket URL is set, prints incoming chat events for a short window.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/park285/cheese-checkers-bot/internal/irisfast"
	"github.com/park285/cheese-checkers-bot/internal/obslog"
)

func main() {
	window := flag.Duration("watch", 10*time.Second, "how long to print websocket events")
	flag.Parse()

	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()

	baseURL := os.Getenv("IRIS_BASE_URL")
	wsURL := os.Getenv("IRIS_WS_URL")
	if baseURL == "" {
		logger.Fatal("IRIS_BASE_URL is required")
	}
	headers := func() map[string]string {
		return map[string]string{
			"X-User-Id":    os.Getenv("X_USER_ID"),
			"X-User-Email": os.Getenv("X_USER_EMAIL"),
			"X-Session-Id": os.Getenv("X_SESSION_ID"),
		}
	}

	client := irisfast.NewClient(baseURL,
		irisfast.WithHeaderProvider(headers),
		irisfast.WithTimeout(8*time.Second),
		irisfast.WithLogger(logger),
	)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if cfg, err := client.GetConfig(ctx); err != nil {
		logger.Error("iris_config_error", zap.Error(err))
	} else {
		logger.Info("iris_config_ok",
			zap.Int("port", cfg.Port),
			zap.Int("polling", cfg.PollingSpeed),
			zap.Int("rate", cfg.MessageRate),
			zap.String("endpoint", cfg.WebserverEndpoint),
		)
	}

	if wsURL == "" {
		logger.Info("IRIS_WS_URL not set; skipping websocket check")
		return
	}
	ws := irisfast.NewWebSocket(wsURL, 0, time.Second)
	ws.SetHeaderProvider(headers)
	ws.SetLogger(logger)
	ws.OnStateChange(func(state irisfast.WebSocketState) {
		logger.Info("ws_state", zap.String("state", state.String()))
	})
	ws.OnMessage(func(msg *irisfast.Message) {
		fmt.Printf("room=%s user=%s name=%s text=%q\n", msg.Room, msg.UserID(), msg.SenderName(), msg.Msg)
	})

	cctx, ccancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer ccancel()
	if err := ws.Connect(cctx); err != nil {
		logger.Error("ws_connect_error", zap.Error(err))
		return
	}
	time.Sleep(*window)

	sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer scancel()
	_ = ws.Close(sctx)
}
