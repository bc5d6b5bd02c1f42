package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/park285/cheese-checkers-bot/internal/adapter/draughtspresenter"
	appcfg "github.com/park285/cheese-checkers-bot/internal/config"
	"github.com/park285/cheese-checkers-bot/internal/checkersbuilder"
	"github.com/park285/cheese-checkers-bot/internal/irisfast"
	"github.com/park285/cheese-checkers-bot/internal/obslog"
)

func main() {
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()
	defer func() { _ = logger.Sync() }()

	cfg, err := appcfg.Load()
	if err != nil {
		logger.Fatal("config_error", zap.Error(err))
	}

	headers := func() map[string]string {
		h := map[string]string{}
		if cfg.XUserID != "" {
			h["X-User-Id"] = cfg.XUserID
		}
		if cfg.XUserEmail != "" {
			h["X-User-Email"] = cfg.XUserEmail
		}
		if cfg.XSessionID != "" {
			h["X-Session-Id"] = cfg.XSessionID
		}
		return h
	}

	client := irisfast.NewClient(cfg.IrisBaseURL,
		irisfast.WithHeaderProvider(headers),
		irisfast.WithLogger(logger),
	)
	ws := irisfast.NewWebSocket(cfg.IrisWSURL, 5, time.Second)
	ws.SetHeaderProvider(headers)
	ws.SetLogger(logger)
	ws.OnStateChange(func(state irisfast.WebSocketState) {
		logger.Info("ws_state", zap.String("state", state.String()))
	})

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	deps, err := checkersbuilder.New(ctx, cfg, logger)
	cancel()
	if err != nil {
		logger.Fatal("deps_init_error", zap.Error(err))
	}

	b := &bot{
		cfg:       cfg,
		deps:      deps,
		presenter: draughtspresenter.NewPresenter(irisfast.NewEgress(cfg.EgressMode, client, ws, logger)),
		formatter: draughtspresenter.NewFormatter(deps.Catalog, prefixProvider{prefix: cfg.BotPrefix}, logger),
		logger:    logger,
	}

	ws.OnMessage(func(msg *irisfast.Message) {
		if msg == nil || strings.TrimSpace(msg.Msg) == "" {
			return
		}
		if !cfg.RoomAllowed(msg.Room) {
			logger.Debug("room_not_allowed", zap.String("room", msg.Room))
			return
		}
		if !strings.HasPrefix(strings.TrimSpace(msg.Msg), cfg.BotPrefix) {
			return
		}
		// keep the read loop free
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
			defer cancel()
			b.handle(ctx, msg)
		}()
	})

	cctx, ccancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := ws.Connect(cctx); err != nil {
		ccancel()
		logger.Fatal("ws_connect_error", zap.Error(err))
	}
	ccancel()
	logger.Info("checkers_bot_started", zap.String("prefix", cfg.BotPrefix), zap.String("egress", cfg.EgressMode))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer scancel()
	_ = ws.Close(sctx)
	if err := deps.Close(); err != nil {
		logger.Warn("deps_close_error", zap.Error(err))
	}
}

type prefixProvider struct{ prefix string }

func (p prefixProvider) Prefix() string { return p.prefix }
