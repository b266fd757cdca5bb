package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"biopeptide-research/internal/domain"
	"biopeptide-research/internal/infra/metrics"
)

// Postgres реализует репозитории очереди и журнала публикаций на pgxpool.
type Postgres struct {
	pool *pgxpool.Pool
}

var (
	_ domain.QueueRepo      = (*Postgres)(nil)
	_ domain.PublishLogRepo = (*Postgres)(nil)
)

// NewPostgres создаёт адаптер БД.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) connCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

func (p *Postgres) connCtxWithParent(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		return p.connCtx()
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, 5*time.Second)
}

// EnsureSchema создаёт таблицы очереди и журнала, если их нет.
// Частичный уникальный индекс по article_url среди queued-строк — единственный
// арбитр дублей: повторная постановка той же статьи невозможна на уровне БД.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS publish_queue (
    id UUID PRIMARY KEY,
    article_url TEXT NOT NULL,
    title TEXT NOT NULL,
    source TEXT NOT NULL DEFAULT '',
    priority INT NOT NULL DEFAULT 1,
    full_message TEXT NOT NULL,
    hook TEXT NOT NULL DEFAULT '',
    site_announcement TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT 'queued',
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE UNIQUE INDEX IF NOT EXISTS publish_queue_article_url_queued_key
    ON publish_queue (article_url) WHERE status = 'queued';
CREATE TABLE IF NOT EXISTS publish_log (
    id UUID PRIMARY KEY,
    article_url TEXT NOT NULL,
    chat_id TEXT NOT NULL,
    published_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS publish_log_published_at_idx ON publish_log (published_at);
`)
	metrics.ObserveNetworkRequest("postgres", "ensure_schema", "publish_queue", start, err)
	return err
}

// Enqueue вставляет запись, если queued-строки с тем же article_url ещё нет.
// Возвращает false при дубликате.
func (p *Postgres) Enqueue(ctx context.Context, entry domain.QueueEntry) (bool, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Status == "" {
		entry.Status = domain.QueueStatusQueued
	}

	start := time.Now()
	res, err := p.pool.Exec(ctx, `
INSERT INTO publish_queue (id, article_url, title, source, priority, full_message, hook, site_announcement, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (article_url) WHERE status = 'queued' DO NOTHING
`, entry.ID, entry.ArticleURL, entry.Title, entry.Source, entry.Priority, entry.FullMessage, entry.Hook, entry.SiteAnnouncement, entry.Status)
	metrics.ObserveNetworkRequest("postgres", "publish_queue_enqueue", "publish_queue", start, err)
	if err != nil {
		return false, err
	}
	inserted := res.RowsAffected() > 0
	if inserted {
		metrics.QueueEnqueued.Inc()
	}
	return inserted, nil
}

// FetchQueued возвращает очередные записи: приоритет по убыванию, внутри
// приоритета — старые раньше.
func (p *Postgres) FetchQueued(ctx context.Context, limit int) ([]domain.QueueEntry, error) {
	if limit <= 0 {
		return nil, nil
	}
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT id, article_url, title, source, priority, full_message, hook, site_announcement, status, created_at
FROM publish_queue
WHERE status = 'queued'
ORDER BY priority DESC, created_at ASC
LIMIT $1
`, limit)
	metrics.ObserveNetworkRequest("postgres", "publish_queue_fetch", "publish_queue", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.QueueEntry
	for rows.Next() {
		var e domain.QueueEntry
		if err := rows.Scan(&e.ID, &e.ArticleURL, &e.Title, &e.Source, &e.Priority, &e.FullMessage, &e.Hook, &e.SiteAnnouncement, &e.Status, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// MarkPublished переводит запись в published. Статус назад не откатывается.
func (p *Postgres) MarkPublished(ctx context.Context, id string) error {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
UPDATE publish_queue SET status = $2 WHERE id = $1 AND status = $3
`, id, domain.QueueStatusPublished, domain.QueueStatusQueued)
	metrics.ObserveNetworkRequest("postgres", "publish_queue_mark_published", "publish_queue", start, err)
	if err == nil {
		metrics.QueuePublished.Inc()
	}
	return err
}

// LogPublished фиксирует факт публикации в канал.
func (p *Postgres) LogPublished(ctx context.Context, articleURL, chatID string) error {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
INSERT INTO publish_log (id, article_url, chat_id)
VALUES ($1, $2, $3)
`, uuid.NewString(), articleURL, chatID)
	metrics.ObserveNetworkRequest("postgres", "publish_log_insert", "publish_log", start, err)
	return err
}

// CountPublishedToday считает публикации в канал с начала суток UTC.
func (p *Postgres) CountPublishedToday(ctx context.Context, chatID string, now time.Time) (int, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	dayStart := now.UTC().Truncate(24 * time.Hour)

	var count int
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
SELECT COUNT(*) FROM publish_log WHERE chat_id = $1 AND published_at >= $2
`, chatID, dayStart).Scan(&count)
	metrics.ObserveNetworkRequest("postgres", "publish_log_count_today", "publish_log", start, err)
	return count, err
}

// WasPublished проверяет, публиковалась ли статья ранее.
func (p *Postgres) WasPublished(ctx context.Context, articleURL string) (bool, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	var exists bool
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
SELECT EXISTS (SELECT 1 FROM publish_log WHERE article_url = $1)
`, articleURL).Scan(&exists)
	metrics.ObserveNetworkRequest("postgres", "publish_log_was_published", "publish_log", start, err)
	return exists, err
}
