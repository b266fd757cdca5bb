package research

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"biopeptide-research/internal/domain"
	"biopeptide-research/internal/infra/metrics"
	"biopeptide-research/internal/usecase/article"
	"biopeptide-research/internal/usecase/publish"
)

// Резервный список тем на случай, когда генератор тем ничего не вернул.
var defaultKeywords = []string{
	"AOD9604",
	"Fragment 176-191",
	"Tesamorelin",
	"CJC-1295 + Ipamorelin",
	"5-Amino-1MQ",
	"P21",
	"Cerebrolysin",
	"Dihexa",
	"Selank",
	"Noopept",
	"Adamax",
	"Epitalon",
	"GHK-Cu",
	"Foxo4-DRI",
	"Thymulin",
	"MOTS-c",
	"BPC-157",
	"TB-500 (Thymosin Beta-4)",
	"Ipamorelin",
	"IGF-1 LR3",
	"PT-141 (Bremelanotide)",
	"Kisspeptin",
	"Melanotan II",
}

// Ворота сырья: без свежего года и чисел источники считаются непригодными.
var (
	recentYearRe = regexp.MustCompile(`\b(2024|2025)\b`)
	numbersRe    = regexp.MustCompile(`\d{2,}`)
)

// queuePublisher ставит готовый материал в очередь канала.
type queuePublisher interface {
	Process(ctx context.Context, a publish.Article, topic string) (bool, error)
}

// Config задаёт лимиты одного прохода пайплайна.
type Config struct {
	ChatID     string
	DailyLimit int
	TopicCount int
	MaxResults int
}

// Service прогоняет дневной цикл: темы → источники → черновик → фильтр →
// классификация → публикация в журнал и очередь канала.
type Service struct {
	topics    domain.TopicGenerator
	collector domain.SnippetCollector
	generator domain.DraftGenerator
	images    domain.ImageGenerator
	journal   domain.JournalPublisher
	sender    domain.ChatSender
	publisher queuePublisher
	kb        domain.KnowledgeBase
	recent    domain.RecentTopics
	log       zerolog.Logger
	cfg       Config
	now       func() time.Time
}

// NewService создаёт пайплайн исследований.
func NewService(
	topics domain.TopicGenerator,
	collector domain.SnippetCollector,
	generator domain.DraftGenerator,
	images domain.ImageGenerator,
	journal domain.JournalPublisher,
	sender domain.ChatSender,
	publisher queuePublisher,
	kb domain.KnowledgeBase,
	recent domain.RecentTopics,
	cfg Config,
	logger zerolog.Logger,
) *Service {
	if cfg.TopicCount <= 0 {
		cfg.TopicCount = 5
	}
	return &Service{
		topics:    topics,
		collector: collector,
		generator: generator,
		images:    images,
		journal:   journal,
		sender:    sender,
		publisher: publisher,
		kb:        kb,
		recent:    recent,
		log:       logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Run выполняет один дневной проход. Ошибки отдельных тем не останавливают
// проход: тема логируется и цикл идёт дальше.
func (s *Service) Run(ctx context.Context) error {
	lastTopics := s.recent.List()

	topics, err := s.topics.GenerateDaily(ctx, lastTopics, s.cfg.TopicCount)
	if err != nil {
		s.log.Warn().Err(err).Msg("генерация тем не удалась, берём резервный список")
	}
	if len(topics) == 0 {
		limit := s.cfg.TopicCount
		if limit > len(defaultKeywords) {
			limit = len(defaultKeywords)
		}
		topics = defaultKeywords[:limit]
		s.log.Info().Strs("topics", topics).Msg("темы дня: резервный список")
	} else {
		s.log.Info().Strs("topics", topics).Msg("темы дня")
	}

	recentKeys := map[string]struct{}{}
	for _, topic := range lastTopics {
		recentKeys[article.TopicKey(topic)] = struct{}{}
	}

	processed := 0
	for _, topic := range topics {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.cfg.DailyLimit > 0 && processed >= s.cfg.DailyLimit {
			s.log.Info().Int("limit", s.cfg.DailyLimit).Msg("дневной лимит статей достигнут")
			break
		}
		name := prettyName(topic)
		if _, ok := recentKeys[article.TopicKey(name)]; ok {
			s.log.Info().Str("topic", name).Msg("тема недавно освещалась, пропускаем")
			metrics.TopicsSkipped.WithLabelValues("recent").Inc()
			continue
		}
		published, err := s.processTopic(ctx, name, topic)
		if err != nil {
			s.log.Error().Err(err).Str("topic", name).Msg("тема завершилась ошибкой")
			continue
		}
		if published {
			processed++
			metrics.TopicsProcessed.Inc()
		}
	}
	return nil
}

// processTopic ведёт одну тему от поиска источников до публикации.
// false без ошибки означает штатный пропуск.
func (s *Service) processTopic(ctx context.Context, name, query string) (bool, error) {
	snippets := s.collector.Collect(ctx, query, s.cfg.MaxResults)
	if snippets == "" {
		s.log.Info().Str("topic", name).Msg("источники не найдены, тема пропущена")
		metrics.TopicsSkipped.WithLabelValues("no_sources").Inc()
		return false, nil
	}
	if !recentYearRe.MatchString(snippets) || !numbersRe.MatchString(snippets) {
		s.log.Info().Str("topic", name).Msg("источники без свежего года или чисел, тема пропущена")
		metrics.TopicsSkipped.WithLabelValues("stale_sources").Inc()
		return false, nil
	}

	draft, err := s.generator.Generate(ctx, name, snippets, true)
	if err != nil {
		return false, fmt.Errorf("генерация черновика: %w", err)
	}
	if draft == nil {
		metrics.TopicsSkipped.WithLabelValues("no_draft").Inc()
		return false, nil
	}
	if !draft.ShouldPublish {
		s.log.Info().Str("topic", name).Str("skip_reason", draft.SkipReason).Msg("модель отказалась от публикации")
		metrics.TopicsSkipped.WithLabelValues("should_publish").Inc()
		return false, nil
	}

	verdict := article.HardFilter(draft)
	if !verdict.Accepted {
		s.log.Info().Str("topic", name).Str("reason", verdict.Reason).Msg("черновик отклонён фильтром")
		metrics.DraftsRejected.WithLabelValues(verdict.Reason).Inc()
		return false, nil
	}

	meta := domain.ParseSourceMetadata(snippets)

	imageURL, err := s.images.Generate(ctx, draft.ImageScenario)
	if err != nil {
		return false, fmt.Errorf("генерация обложки: %w", err)
	}

	combined := strings.Join([]string{draft.Title, draft.ContentPro, draft.ContentLite, snippets}, "\n")
	evidence := article.DetectEvidenceLevel(combined)
	targets := article.ExtractBiologicalTargets(article.ExtractResultsBlock(draft.ContentPro))
	if len(targets) == 0 {
		targets = article.InferSystemTargets(draft.ContentPro + "\n" + draft.ContentLite)
	}
	tags := article.GenerateTags(name, targets)
	doi := article.ExtractDOI(combined, meta)

	post := domain.JournalPost{
		Title:         draft.Title,
		Content:       draft.ContentPro,
		ContentLite:   draft.ContentLite,
		Category:      "science",
		Tags:          tags,
		ImageURL:      imageURL,
		DOI:           doi,
		EvidenceLevel: string(evidence),
	}
	postID, err := s.journal.Publish(ctx, post)
	if err != nil {
		return false, fmt.Errorf("публикация в журнал: %w", err)
	}
	s.log.Info().Str("topic", name).Str("post_id", postID).Msg("статья опубликована в журнале")

	s.sendChannelUpdate(ctx, imageURL, draft.ContentLite)

	entry := domain.KnowledgeEntry{
		Topic:        name,
		KeyFinding:   article.ExtractKeyFinding(draft.ContentPro, draft.ContentLite),
		CitationHint: article.ExtractCitationHint(draft.ContentPro),
		RecordedAt:   s.now(),
	}
	if err := s.kb.Append(entry); err != nil {
		s.log.Warn().Err(err).Str("topic", name).Msg("не удалось дополнить базу знаний")
	}
	if err := s.recent.Append(name); err != nil {
		s.log.Warn().Err(err).Str("topic", name).Msg("не удалось отметить тему как недавнюю")
	}

	s.enqueueForChannel(ctx, name, draft, meta)
	return true, nil
}

// sendChannelUpdate отправляет Lite-версию в канал. Сбой доставки не роняет
// тему: статья в журнале уже опубликована.
func (s *Service) sendChannelUpdate(ctx context.Context, imageURL, text string) {
	if s.sender == nil {
		return
	}
	if imageURL != "" {
		if err := s.sender.SendPhoto(ctx, s.cfg.ChatID, imageURL, "", ""); err != nil {
			s.log.Warn().Err(err).Msg("отправка обложки в канал не удалась")
		}
	}
	if err := s.sender.SendMessage(ctx, s.cfg.ChatID, text, ""); err != nil {
		s.log.Warn().Err(err).Msg("отправка Lite-версии в канал не удалась")
	}
}

// enqueueForChannel ставит материал в очередь приоритетных публикаций.
// Без URL источника ставить нечего: очередь дедуплицируется по article_url.
func (s *Service) enqueueForChannel(ctx context.Context, name string, draft *domain.Draft, meta domain.SourceMetadata) {
	if s.publisher == nil || strings.TrimSpace(meta.URL) == "" {
		return
	}
	a := publish.Article{
		Title:       draft.Title,
		URL:         meta.URL,
		Summary:     draft.ContentLite,
		Content:     draft.ContentPro,
		PublishedAt: draft.StudyYear,
	}
	known := publish.KnownPeptides(s.recent.List())
	articles := []publish.Article{a}
	publish.MarkDiscoveries(articles, known)
	if _, err := s.publisher.Process(ctx, articles[0], name); err != nil {
		s.log.Warn().Err(err).Str("topic", name).Msg("постановка в очередь канала не удалась")
	}
}

// prettyName приводит тему к человеческому виду: подчёркивания и дефисы
// превращаются в пробелы.
func prettyName(topic string) string {
	return strings.TrimSpace(strings.NewReplacer("_", " ", "-", " ").Replace(topic))
}
