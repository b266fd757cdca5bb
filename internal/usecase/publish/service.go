package publish

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"biopeptide-research/internal/domain"
)

// imageGenerator — минимальный контракт генерации обложки по готовому промпту.
type imageGenerator interface {
	GenerateRaw(ctx context.Context, prompt string) (string, error)
}

// onceGuard защищает дренаж от параллельных запусков из нескольких реплик.
type onceGuard interface {
	Once(key string, ttl time.Duration, fn func() error) error
}

// Ключ и TTL замка дренажа. Реплика, не успевшая за TTL, уступает следующей.
const (
	drainGuardKey = "publisher:drain_lock"
	drainGuardTTL = 5 * time.Minute
)

// Service управляет очередью публикаций: постановка с приоритетом,
// немедленная публикация критических обновлений и дневной дренаж.
type Service struct {
	queue     domain.QueueRepo
	plog      domain.PublishLogRepo
	sender    domain.ChatSender
	images    imageGenerator
	formatter *Formatter
	guard     onceGuard
	log       zerolog.Logger

	chatID   string
	dailyCap int
	now      func() time.Time
}

// NewService создаёт сервис публикаций.
func NewService(
	queue domain.QueueRepo,
	plog domain.PublishLogRepo,
	sender domain.ChatSender,
	images imageGenerator,
	formatter *Formatter,
	guard onceGuard,
	chatID string,
	dailyCap int,
	logger zerolog.Logger,
) *Service {
	return &Service{
		queue:     queue,
		plog:      plog,
		sender:    sender,
		images:    images,
		formatter: formatter,
		guard:     guard,
		log:       logger,
		chatID:    chatID,
		dailyCap:  dailyCap,
		now:       time.Now,
	}
}

// Priority назначает ярус очереди: 3 — источники высшего яруса,
// 2 — университеты и журналы с импакт-фактором выше 10, 1 — остальные.
func Priority(a Article) int {
	switch {
	case IsTopPrioritySource(a.URL):
		return 3
	case DetectUniversity(a.URL) != "" || impactFactor(a) > 10:
		return 2
	default:
		return 1
	}
}

// Process форматирует материал и ставит его в очередь. Критические
// обновления публикуются сразу, минуя очередь, без повторных попыток.
// Возвращает true, если в очереди появилась новая запись.
func (s *Service) Process(ctx context.Context, a Article, topic string) (bool, error) {
	post, err := s.formatter.Format(ctx, a, topic)
	if err != nil {
		return false, err
	}
	if post.Message == "" || post.ArticleURL == "" {
		return false, nil
	}

	if a.IsCriticalUpdate {
		return false, s.publishImmediately(ctx, a, post)
	}

	entry := domain.QueueEntry{
		ArticleURL:       post.ArticleURL,
		Title:            a.Title,
		Source:           DetectSource(post.ArticleURL),
		Priority:         Priority(a),
		FullMessage:      post.Message,
		Hook:             post.Hook,
		SiteAnnouncement: post.SiteAnnouncement,
		Status:           domain.QueueStatusQueued,
	}
	inserted, err := s.queue.Enqueue(ctx, entry)
	if err != nil {
		return false, fmt.Errorf("постановка в очередь: %w", err)
	}
	if !inserted {
		s.log.Debug().Str("article_url", post.ArticleURL).Msg("статья уже в очереди, пропускаем")
	}
	return inserted, nil
}

func (s *Service) publishImmediately(ctx context.Context, a Article, post FormattedPost) error {
	prompt := ImagePromptFromText(post.Message, IsPeptidePost(a))
	imageURL, err := s.images.GenerateRaw(ctx, prompt)
	if err != nil {
		return fmt.Errorf("обложка срочной публикации: %w", err)
	}
	if imageURL == "" {
		return errors.New("генерация изображений недоступна")
	}
	if err := s.sender.SendPhoto(ctx, s.chatID, imageURL, "", ""); err != nil {
		return fmt.Errorf("отправка обложки: %w", err)
	}
	if err := s.sender.SendMessage(ctx, s.chatID, post.Message, post.ArticleURL); err != nil {
		return fmt.Errorf("отправка сообщения: %w", err)
	}
	if err := s.plog.LogPublished(ctx, post.ArticleURL, s.chatID); err != nil {
		return fmt.Errorf("запись в журнал публикаций: %w", err)
	}
	s.log.Info().Str("article_url", post.ArticleURL).Msg("критическое обновление опубликовано вне очереди")
	return nil
}

// Drain публикует элементы очереди в пределах дневного лимита.
// Замок поверх кэша не даёт двум репликам дренировать одновременно:
// реплика без замка молча выходит с нулём публикаций.
func (s *Service) Drain(ctx context.Context, maxPublish int) (int, error) {
	sent := 0
	err := s.guard.Once(drainGuardKey, drainGuardTTL, func() error {
		n, err := s.drain(ctx, maxPublish)
		sent = n
		return err
	})
	return sent, err
}

// drain выполняет один проход по очереди. Сбой генерации обложки
// останавливает весь проход: лучше не выпустить ничего, чем выпустить
// неполный дневной набор.
func (s *Service) drain(ctx context.Context, maxPublish int) (int, error) {
	limit := maxPublish
	if s.dailyCap < limit {
		limit = s.dailyCap
	}
	published, err := s.plog.CountPublishedToday(ctx, s.chatID, s.now())
	if err != nil {
		return 0, fmt.Errorf("подсчёт публикаций за день: %w", err)
	}
	remaining := limit - published
	if remaining <= 0 {
		s.log.Info().Int("published_today", published).Msg("дневной лимит исчерпан, очередь подождёт")
		return 0, nil
	}

	items, err := s.queue.FetchQueued(ctx, remaining)
	if err != nil {
		return 0, fmt.Errorf("выборка очереди: %w", err)
	}

	sent := 0
	for _, item := range items {
		prompt := ImagePromptFromText(item.FullMessage, isPeptideText(item.FullMessage))
		imageURL, err := s.images.GenerateRaw(ctx, prompt)
		if err != nil {
			return sent, fmt.Errorf("обложка публикации из очереди: %w", err)
		}
		if imageURL == "" {
			return sent, errors.New("генерация изображений недоступна")
		}
		if err := s.sender.SendPhoto(ctx, s.chatID, imageURL, "", ""); err != nil {
			return sent, fmt.Errorf("отправка обложки: %w", err)
		}
		if err := s.sender.SendMessage(ctx, s.chatID, item.FullMessage, item.ArticleURL); err != nil {
			return sent, fmt.Errorf("отправка сообщения: %w", err)
		}
		if err := s.queue.MarkPublished(ctx, item.ID); err != nil {
			return sent, fmt.Errorf("смена статуса очереди: %w", err)
		}
		if err := s.plog.LogPublished(ctx, item.ArticleURL, s.chatID); err != nil {
			return sent, fmt.Errorf("запись в журнал публикаций: %w", err)
		}
		sent++
		if item.SiteAnnouncement != "" {
			s.log.Info().
				Str("article_url", item.ArticleURL).
				Str("announcement", item.SiteAnnouncement).
				Msg("анонс для сайта")
		}
	}
	return sent, nil
}
