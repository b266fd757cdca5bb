package config

import (
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig описывает конфигурацию сервисов. Загружается один раз при старте,
// дальше передаётся по ссылке — компоненты окружение не читают.
type AppConfig struct {
	AppEnv string `envconfig:"APP_ENV" default:"dev"`
	TZ     string `envconfig:"TZ" default:"UTC"`

	OpenAI struct {
		APIKey     string        `envconfig:"OPENAI_API_KEY" required:"true"`
		BaseURL    string        `envconfig:"OPENAI_BASE_URL"`
		TextModel  string        `envconfig:"NEWS_MODEL" default:"gpt-4o-mini"`
		ImageModel string        `envconfig:"IMAGE_MODEL" default:"dall-e-3"`
		Timeout    time.Duration `envconfig:"OPENAI_TIMEOUT" default:"90s"`
	} `envconfig:""`

	Telegram struct {
		Token     string `envconfig:"TELEGRAM_BOT_TOKEN" required:"true"`
		ChannelID string `envconfig:"TELEGRAM_CHANNEL_ID" required:"true"`
	} `envconfig:""`

	Journal struct {
		Endpoint string `envconfig:"JOURNAL_ENDPOINT" required:"true"`
	} `envconfig:""`

	Translate struct {
		APIKey string `envconfig:"GOOGLE_TRANSLATE_API_KEY"`
	} `envconfig:""`

	PGDSN string `envconfig:"PG_DSN" required:"true"`

	RedisAddr string `envconfig:"REDIS_ADDR"`

	Limits struct {
		DailyLimit  int `envconfig:"DAILY_LIMIT" default:"2"`
		MaxPublish  int `envconfig:"MAX_PUBLISH" default:"2"`
		TopicCount  int `envconfig:"TOPIC_COUNT" default:"5"`
		MaxResults  int `envconfig:"SEARCH_MAX_RESULTS" default:"3"`
		LLMRetryMax int `envconfig:"LLM_RETRY_MAX" default:"4"`
	} `envconfig:""`

	Search struct {
		YearFrom int           `envconfig:"SEARCH_YEAR_FROM" default:"2024"`
		YearTo   int           `envconfig:"SEARCH_YEAR_TO" default:"2025"`
		Delay    time.Duration `envconfig:"SEARCH_DELAY" default:"500ms"`
	} `envconfig:""`

	Files struct {
		KnowledgeBase string `envconfig:"KNOWLEDGE_BASE_FILE" default:"knowledge_base.txt"`
		RecentTopics  string `envconfig:"RECENT_TOPICS_FILE" default:"recent_topics.txt"`
	} `envconfig:""`

	Publisher struct {
		DrainInterval time.Duration `envconfig:"DRAIN_INTERVAL" default:"30m"`
		OpsAddr       string        `envconfig:"OPS_ADDR" default:":9090"`
	} `envconfig:""`
}

// Load загружает конфиг из окружения. Отсутствие обязательных значений фатально.
func Load() AppConfig {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("не удалось загрузить конфиг: %v", err)
	}
	return cfg
}
