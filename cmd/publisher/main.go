package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"biopeptide-research/internal/adapters/images"
	"biopeptide-research/internal/adapters/repo"
	"biopeptide-research/internal/adapters/telegram"
	"biopeptide-research/internal/adapters/translate"
	"biopeptide-research/internal/domain"
	"biopeptide-research/internal/infra/cache"
	"biopeptide-research/internal/infra/config"
	"biopeptide-research/internal/infra/db"
	"biopeptide-research/internal/infra/httpops"
	applog "biopeptide-research/internal/infra/log"
	"biopeptide-research/internal/infra/metrics"
	"biopeptide-research/internal/infra/openai"
	"biopeptide-research/internal/usecase/publish"
)

func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("publisher: нет подключения к БД")
	}
	defer pool.Close()

	repoAdapter := repo.NewPostgres(pool)
	if err := repoAdapter.EnsureSchema(ctx); err != nil {
		logger.Fatal().Err(err).Msg("publisher: не удалось подготовить схему")
	}

	var drainGuard domain.Cache = cache.NewNoop()
	if cfg.RedisAddr != "" {
		drainGuard = cache.NewRedis(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}))
	}

	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		logger.Fatal().Err(err).Msg("publisher: не удалось создать бота")
	}
	sender := telegram.NewSender(botAPI, logger)

	openaiClient := openai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Timeout)
	imageGen := images.NewGenerator(openaiClient, cfg.OpenAI.ImageModel, logger)
	translator := translate.NewGoogle(cfg.Translate.APIKey, logger)

	formatter := publish.NewFormatter(translator, logger)
	publishService := publish.NewService(
		repoAdapter, repoAdapter, sender, imageGen, formatter, drainGuard,
		cfg.Telegram.ChannelID, cfg.Limits.DailyLimit, logger,
	)

	ops := httpops.NewServer(logger.With().Str("component", "ops").Logger())
	go func() {
		if err := ops.Start(cfg.Publisher.OpsAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("publisher: ops-сервер остановился с ошибкой")
		}
	}()

	drain := func() {
		sent, err := publishService.Drain(ctx, cfg.Limits.MaxPublish)
		if err != nil {
			logger.Error().Err(err).Int("sent", sent).Msg("publisher: дренаж остановлен")
			return
		}
		if sent > 0 {
			logger.Info().Int("sent", sent).Msg("publisher: публикации доставлены")
		}
	}

	ticker := time.NewTicker(cfg.Publisher.DrainInterval)
	defer ticker.Stop()

	logger.Info().Dur("interval", cfg.Publisher.DrainInterval).Msg("publisher: запуск цикла дренажа")
	drain()
	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := ops.Shutdown(shutdownCtx); err != nil {
				logger.Error().Err(err).Msg("publisher: ops-сервер не остановился штатно")
			}
			cancel()
			logger.Info().Msg("publisher: остановлен")
			return
		case <-ticker.C:
			drain()
		}
	}
}
