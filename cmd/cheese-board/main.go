package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	appcfg "github.com/park285/cheese-board/internal/config"
	"github.com/park285/cheese-board/internal/feed"
	"github.com/park285/cheese-board/internal/inputsrv"
	"github.com/park285/cheese-board/internal/msgcat"
	"github.com/park285/cheese-board/internal/obslog"
	"github.com/park285/cheese-board/internal/relay"
	"github.com/park285/cheese-board/internal/render"
	"github.com/park285/cheese-board/internal/session"
)

func main() {
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()
	defer func() { _ = logger.Sync() }()

	cfg, err := appcfg.Load()
	if err != nil {
		logger.Fatal("config error", zap.Error(err))
	}

	if err := run(cfg, logger); err != nil {
		logger.Fatal("cheese-board stopped", zap.Error(err))
	}
}

func run(cfg *appcfg.AppConfig, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	catalog, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		return err
	}
	renderer := render.New(catalog)
	sess := session.New(catalog,
		session.WithLogger(logger.Named("game")),
		session.WithNotifyTimeout(cfg.WebhookTimeout),
	)

	var closers []func(context.Context) error

	if cfg.RedisURL != "" {
		dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		rdb, err := feed.Dial(dialCtx, cfg.RedisURL)
		cancel()
		if err != nil {
			return err
		}
		closers = append(closers, func(context.Context) error { return rdb.Close() })
		sess.AddObserver("feed", feed.NewPublisher(rdb, cfg.FeedPrefix, logger.Named("feed")))
		logger.Info("spectator feed enabled", zap.String("prefix", cfg.FeedPrefix))
	}

	if cfg.WebhookURL != "" {
		wh := relay.NewWebhook(cfg.WebhookURL,
			relay.WithTimeout(cfg.WebhookTimeout),
			relay.WithLogger(logger.Named("webhook")),
			relay.WithImages(renderer, render.Options{SquareSize: cfg.SquareSize}, cfg.FlipBlack),
		)
		sess.AddObserver("webhook", wh)
		logger.Info("webhook enabled", zap.String("url", cfg.WebhookURL))
	}

	if cfg.RelayWSURL != "" {
		ws := relay.NewWebSocket(cfg.RelayWSURL, cfg.RelayMaxReconnect, relay.Dispatch(sess),
			relay.WithWSLogger(logger.Named("relay")),
		)
		sess.AddObserver("relay", ws)
		// a failed first dial keeps retrying in the background
		if err := ws.Connect(ctx); err != nil && cfg.RelayMaxReconnect == 0 {
			return err
		}
		closers = append(closers, ws.Close)
	}

	srv := inputsrv.New(inputsrv.Config{
		Addr:       cfg.ListenAddr,
		SquareSize: cfg.SquareSize,
		FlipBlack:  cfg.FlipBlack,
	}, sess, renderer, logger.Named("http"))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.ListenAndServe)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGracePeriod)
		defer cancel()
		logger.Info("shutting down")
		err := srv.Shutdown(shutdownCtx)
		for i := len(closers) - 1; i >= 0; i-- {
			err = errors.Join(err, closers[i](shutdownCtx))
		}
		return err
	})

	logger.Info("cheese-board started", zap.String("listen", cfg.ListenAddr), zap.String("game_id", sess.State().GameID))
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
