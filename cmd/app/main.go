// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"telegram-shop-bot/internal/application"
	"telegram-shop-bot/internal/config"
	"telegram-shop-bot/internal/infra/adapters/backend"
	tele "telegram-shop-bot/internal/infra/adapters/telegram"
	"telegram-shop-bot/internal/infra/logging"
	"telegram-shop-bot/internal/infra/memory"
	"telegram-shop-bot/internal/infra/metrics"
	"telegram-shop-bot/internal/infra/sched"
	"telegram-shop-bot/internal/infra/web"
	"telegram-shop-bot/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, debug level)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}

	// ---- Metrics ----
	metrics.MustRegister()

	// ---- In-process state ----
	limits := &cfg.Limits
	sessions := memory.NewSessionRepo(limits.SessionTTL)
	limiter := memory.NewRateLimiter(limits.RateRetention)
	locks := memory.NewKeyedLock()

	// ---- Backend API ----
	api, err := backend.NewClient(cfg.API.BaseURL, cfg.API.Timeout, cfg.API.CheckoutTimeout, logger)
	if err != nil {
		log.Fatalf("backend client: %v", err)
	}

	// ---- Use cases ----
	userUC := usecase.NewUserUseCase(api, sessions, cfg.Bot.SupportURL, cfg.Bot.ChannelURL, logger)
	shopUC := usecase.NewShopUseCase(api, sessions, logger)
	payUC := usecase.NewPaymentUseCase(api, sessions, limits.MinDeposit, limits.MaxDeposit, logger)

	// ---- Facade ----
	facade := application.NewBotFacade(userUC, shopUC, payUC)

	// ---- Telegram ----
	botAdapter, err := tele.NewRealBotAdapter(cfg, facade, limiter, locks, sessions, logger)
	if err != nil {
		log.Fatalf("telegram: %v", err)
	}
	if mode := strings.ToLower(cfg.Bot.Mode); mode != "" && mode != "polling" {
		logger.Warn().Str("mode", cfg.Bot.Mode).Msg("unsupported bot mode, falling back to polling")
	}
	go func() {
		if err := botAdapter.StartPolling(ctx); err != nil && ctx.Err() == nil {
			logger.Error().Err(err).Msg("telegram polling stopped")
		}
	}()

	// ---- Sweepers ----
	sessionSweeper := sched.NewSessionSweeper(limits.SessionSweepInterval, sessions, logger)
	go func() { _ = sessionSweeper.Run(ctx) }()
	limiterSweeper := sched.NewLimiterSweeper(limits.RateSweepInterval, limiter, logger)
	go func() { _ = limiterSweeper.Run(ctx) }()

	// ---- Admin / metrics HTTP server ----
	adminSrv := web.NewServer(sessions, limiter, locks, cfg.Admin.JWTSecret, logger)
	server := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Admin.Port), Handler: adminSrv.Router()}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("admin server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("admin server error")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	botAdapter.StopPolling()
	_ = server.Close()
	cancel()
}
