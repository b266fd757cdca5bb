package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"biopeptide-research/internal/adapters/images"
	"biopeptide-research/internal/adapters/journal"
	"biopeptide-research/internal/adapters/kb"
	"biopeptide-research/internal/adapters/repo"
	"biopeptide-research/internal/adapters/sources"
	"biopeptide-research/internal/adapters/telegram"
	"biopeptide-research/internal/adapters/translate"
	"biopeptide-research/internal/domain"
	"biopeptide-research/internal/infra/cache"
	"biopeptide-research/internal/infra/config"
	"biopeptide-research/internal/infra/db"
	applog "biopeptide-research/internal/infra/log"
	"biopeptide-research/internal/infra/metrics"
	"biopeptide-research/internal/infra/openai"
	"biopeptide-research/internal/usecase/article"
	"biopeptide-research/internal/usecase/publish"
	"biopeptide-research/internal/usecase/research"
)

func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("pipeline: нет подключения к БД")
	}
	defer pool.Close()

	repoAdapter := repo.NewPostgres(pool)
	if err := repoAdapter.EnsureSchema(ctx); err != nil {
		logger.Fatal().Err(err).Msg("pipeline: не удалось подготовить схему")
	}

	var snippetCache domain.Cache = cache.NewNoop()
	if cfg.RedisAddr != "" {
		snippetCache = cache.NewRedis(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}))
	}

	httpClient := &http.Client{Timeout: 20 * time.Second}
	connectors := []domain.SourceConnector{
		sources.NewPubMed(httpClient, logger, cfg.Search.YearFrom, cfg.Search.YearTo),
		sources.NewEuropePMC(httpClient, logger),
		sources.NewSemanticScholar(httpClient, logger),
		sources.NewClinicalTrials(httpClient, logger),
	}
	collector := sources.NewCollector(connectors, sources.NewWebSearch(httpClient, logger), snippetCache, logger, cfg.Search.Delay)

	openaiClient := openai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Timeout)
	knowledgeBase := kb.NewFileKnowledgeBase(cfg.Files.KnowledgeBase)
	recentTopics := kb.NewFileRecentTopics(cfg.Files.RecentTopics)

	generator := article.NewGenerator(openaiClient, cfg.OpenAI.TextModel, knowledgeBase, logger, cfg.Limits.LLMRetryMax)
	topicsService := article.NewTopicsService(openaiClient, cfg.OpenAI.TextModel, knowledgeBase, logger)
	imageGen := images.NewGenerator(openaiClient, cfg.OpenAI.ImageModel, logger)

	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		logger.Fatal().Err(err).Msg("pipeline: не удалось создать бота")
	}
	sender := telegram.NewSender(botAPI, logger)
	journalClient := journal.NewClient(cfg.Journal.Endpoint, logger)
	translator := translate.NewGoogle(cfg.Translate.APIKey, logger)

	formatter := publish.NewFormatter(translator, logger)
	publishService := publish.NewService(
		repoAdapter, repoAdapter, sender, imageGen, formatter, snippetCache,
		cfg.Telegram.ChannelID, cfg.Limits.DailyLimit, logger,
	)

	pipeline := research.NewService(
		topicsService, collector, generator, imageGen, journalClient, sender,
		publishService, knowledgeBase, recentTopics,
		research.Config{
			ChatID:     cfg.Telegram.ChannelID,
			DailyLimit: cfg.Limits.DailyLimit,
			TopicCount: cfg.Limits.TopicCount,
			MaxResults: cfg.Limits.MaxResults,
		},
		logger,
	)

	logger.Info().Msg("pipeline: запуск дневного прохода")
	if err := pipeline.Run(ctx); err != nil {
		logger.Fatal().Err(err).Msg("pipeline: проход завершился ошибкой")
	}
	logger.Info().Msg("pipeline: проход завершён")
}
