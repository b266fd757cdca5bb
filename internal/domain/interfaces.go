package domain

import (
	"context"
	"time"
)

// SourceConnector выгружает записи одного научного апстрима.
// Сетевые сбои и битые ответы коннектор гасит сам и возвращает пустой список.
type SourceConnector interface {
	Name() string
	Fetch(ctx context.Context, query string, maxResults int) []SourceRecord
}

// SnippetCollector собирает единый текст источников по теме.
type SnippetCollector interface {
	Collect(ctx context.Context, topic string, maxResults int) string
}

// DraftGenerator строит черновик статьи по теме и тексту источников.
// nil означает «публиковать нечего», это не ошибка.
type DraftGenerator interface {
	Generate(ctx context.Context, topic, sourceText string, isAuto bool) (*Draft, error)
}

// TopicGenerator выдаёт список тем на день.
type TopicGenerator interface {
	GenerateDaily(ctx context.Context, lastTopics []string, count int) ([]string, error)
}

// ImageGenerator создаёт изображение по текстовому описанию и возвращает URL.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ChatSender отправляет сообщения и фото в канал.
type ChatSender interface {
	SendMessage(ctx context.Context, chatID, text, articleURL string) error
	SendPhoto(ctx context.Context, chatID, photoURL, caption, articleURL string) error
}

// JournalPublisher публикует статью в контентное API журнала и возвращает ID поста.
type JournalPublisher interface {
	Publish(ctx context.Context, post JournalPost) (string, error)
}

// Translator переводит английский текст на русский.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// QueueRepo управляет очередью публикаций.
type QueueRepo interface {
	// Enqueue вставляет запись, если в очереди ещё нет queued-строки с тем же article_url.
	// Возвращает false при дубликате.
	Enqueue(ctx context.Context, entry QueueEntry) (bool, error)
	FetchQueued(ctx context.Context, limit int) ([]QueueEntry, error)
	MarkPublished(ctx context.Context, id string) error
}

// PublishLogRepo ведёт журнал публикаций для дневного лимита.
type PublishLogRepo interface {
	LogPublished(ctx context.Context, articleURL, chatID string) error
	CountPublishedToday(ctx context.Context, chatID string, now time.Time) (int, error)
}

// KnowledgeBase хранит накопленные выводы по темам как ограниченный append-лог.
type KnowledgeBase interface {
	Append(entry KnowledgeEntry) error
	Tail(maxChars int) string
}

// RecentTopics хранит недавно освещённые темы.
type RecentTopics interface {
	List() []string
	Append(topic string) error
}

// Cache используется для простых TTL-хранилищ.
type Cache interface {
	Once(key string, ttl time.Duration, fn func() error) error
	Set(key string, value []byte, ttl time.Duration) error
	Get(key string) ([]byte, error)
}
