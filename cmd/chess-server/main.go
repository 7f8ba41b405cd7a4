package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	appcfg "github.com/KOVXO3HNK/TelegramChess-Server/internal/config"
	"github.com/KOVXO3HNK/TelegramChess-Server/internal/httpapi"
	"github.com/KOVXO3HNK/TelegramChess-Server/internal/match"
	"github.com/KOVXO3HNK/TelegramChess-Server/internal/msgcat"
	"github.com/KOVXO3HNK/TelegramChess-Server/internal/notify"
	"github.com/KOVXO3HNK/TelegramChess-Server/internal/obslog"
	"github.com/KOVXO3HNK/TelegramChess-Server/internal/rating"
)

func main() {
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	var ratings rating.Repository
	if cfg.RedisURL != "" {
		rr, err := rating.NewRedisRepository(cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis init error: %v", err)
		}
		defer func() { _ = rr.Close() }()
		ratings = rr
	} else {
		ratings = rating.NewMemoryRepository()
	}

	mgr := match.NewManager(ratings, cfg.MoveTimeout)

	if cfg.DatabaseURL != "" {
		repo, err := match.NewRepository(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("archive repo init error: %v", err)
		}
		defer func() { _ = repo.Close() }()
		mgr.AttachRepository(repo)
	}

	if cfg.BotGatewayURL != "" || cfg.BotGatewayWSURL != "" {
		cat, err := msgcat.New(cfg.MsgcatDir)
		if err != nil {
			log.Fatalf("message catalog error: %v", err)
		}
		opts := []notify.Option{}
		if cfg.BotGatewayWSURL != "" {
			egress := notify.NewEgress(cfg.BotGatewayWSURL)
			defer egress.Close()
			opts = append(opts, notify.WithEgress(egress))
		}
		mgr.AttachNotifier(notify.NewClient(cfg.BotGatewayURL, cat, opts...))
	}

	api := httpapi.NewServer(mgr)
	srv := &fasthttp.Server{
		Handler: api.Handler,
		Name:    "chess-server",
	}

	go func() {
		obslog.L().Info("http_listen", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(cfg.HTTPAddr); err != nil {
			obslog.L().Fatal("http_serve_error", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	obslog.L().Info("shutdown")
	_ = srv.Shutdown()
}
