package research

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"biopeptide-research/internal/domain"
	"biopeptide-research/internal/usecase/publish"
)

const snippetsFixture = "SOURCE_JOURNAL: Nature Aging\n" +
	"SOURCE_DOI: 10.1038/s43587-2024-0001\n" +
	"SOURCE_DATE: 2024\n" +
	"SOURCE_AUTHORS: Petrov I\n" +
	"SOURCE_CITATIONS: 15\n" +
	"SOURCE_URL: https://www.nature.com/articles/epitalon\n\n" +
	"Randomized trial of Epitalon in 2024 with 60 patients."

type stubTopics struct {
	topics []string
	err    error
}

func (s *stubTopics) GenerateDaily(_ context.Context, _ []string, _ int) ([]string, error) {
	return s.topics, s.err
}

type stubCollector struct {
	snippets map[string]string
	calls    []string
}

func (s *stubCollector) Collect(_ context.Context, topic string, _ int) string {
	s.calls = append(s.calls, topic)
	return s.snippets[topic]
}

type stubGenerator struct {
	draft *domain.Draft
	calls int
}

func (s *stubGenerator) Generate(_ context.Context, _, _ string, _ bool) (*domain.Draft, error) {
	s.calls++
	if s.draft == nil {
		return nil, nil
	}
	copied := *s.draft
	return &copied, nil
}

type stubImageGen struct{ url string }

func (s *stubImageGen) Generate(_ context.Context, _ string) (string, error) {
	return s.url, nil
}

type stubJournal struct {
	posts []domain.JournalPost
}

func (s *stubJournal) Publish(_ context.Context, post domain.JournalPost) (string, error) {
	s.posts = append(s.posts, post)
	return "42", nil
}

type stubChatSender struct {
	messages []string
	photos   []string
}

func (s *stubChatSender) SendMessage(_ context.Context, _, text, _ string) error {
	s.messages = append(s.messages, text)
	return nil
}

func (s *stubChatSender) SendPhoto(_ context.Context, _, photoURL, _, _ string) error {
	s.photos = append(s.photos, photoURL)
	return nil
}

type stubQueuePublisher struct {
	articles []publish.Article
	topics   []string
}

func (s *stubQueuePublisher) Process(_ context.Context, a publish.Article, topic string) (bool, error) {
	s.articles = append(s.articles, a)
	s.topics = append(s.topics, topic)
	return true, nil
}

type stubKB struct {
	entries []domain.KnowledgeEntry
}

func (s *stubKB) Append(entry domain.KnowledgeEntry) error {
	s.entries = append(s.entries, entry)
	return nil
}

func (s *stubKB) Tail(_ int) string { return "" }

type stubRecent struct {
	topics   []string
	appended []string
}

func (s *stubRecent) List() []string { return s.topics }

func (s *stubRecent) Append(topic string) error {
	s.appended = append(s.appended, topic)
	s.topics = append(s.topics, topic)
	return nil
}

func validAutoDraft() *domain.Draft {
	return &domain.Draft{
		Title:         "🧬 Epitalon и теломеры",
		ContentPro:    "Результаты: теломеры удлинились в 2024 году [1].\n\nСписок литературы:\nJournal: Nature Aging. DOI: 10.1038/s43587-2024-0001",
		ContentLite:   "Суть: Epitalon работает.",
		ImageScenario: "лаборатория будущего",
		ShouldPublish: true,
		StudyName:     "Epitalon telomere trial",
		StudyYear:     "2024",
		StudyCitation: "Petrov I. Journal: Nature Aging. 2024. DOI: 10.1038/s43587-2024-0001",
		SampleSize:    "60 пациентов",
		IsAuto:        true,
	}
}

type fixture struct {
	svc       *Service
	collector *stubCollector
	generator *stubGenerator
	journal   *stubJournal
	sender    *stubChatSender
	queue     *stubQueuePublisher
	kb        *stubKB
	recent    *stubRecent
}

func newFixture(topics []string, snippets map[string]string, draft *domain.Draft, cfg Config) *fixture {
	f := &fixture{
		collector: &stubCollector{snippets: snippets},
		generator: &stubGenerator{draft: draft},
		journal:   &stubJournal{},
		sender:    &stubChatSender{},
		queue:     &stubQueuePublisher{},
		kb:        &stubKB{},
		recent:    &stubRecent{},
	}
	if cfg.ChatID == "" {
		cfg.ChatID = "@channel"
	}
	f.svc = NewService(
		&stubTopics{topics: topics},
		f.collector,
		f.generator,
		&stubImageGen{url: "https://img"},
		f.journal,
		f.sender,
		f.queue,
		f.kb,
		f.recent,
		cfg,
		zerolog.Nop(),
	)
	return f
}

func TestRunPublishesValidTopic(t *testing.T) {
	f := newFixture([]string{"Epitalon"}, map[string]string{"Epitalon": snippetsFixture}, validAutoDraft(), Config{DailyLimit: 2, MaxResults: 3})

	if err := f.svc.Run(context.Background()); err != nil {
		t.Fatalf("проход вернул ошибку: %v", err)
	}
	if len(f.journal.posts) != 1 {
		t.Fatalf("ожидалась одна публикация в журнал, было %d", len(f.journal.posts))
	}
	post := f.journal.posts[0]
	if post.Category != "science" || post.EvidenceLevel != "clinical" {
		t.Fatalf("пост собран неверно: %+v", post)
	}
	if post.ImageURL != "https://img" {
		t.Fatalf("обложка не передана в журнал: %q", post.ImageURL)
	}
	if post.DOI == "" {
		t.Fatalf("DOI должен извлекаться из текста или метаданных")
	}
	if len(f.sender.messages) != 1 || f.sender.messages[0] != "Суть: Epitalon работает." {
		t.Fatalf("Lite-версия не отправлена в канал: %v", f.sender.messages)
	}
	if len(f.kb.entries) != 1 || f.kb.entries[0].Topic != "Epitalon" {
		t.Fatalf("база знаний не дополнена: %+v", f.kb.entries)
	}
	if len(f.recent.appended) != 1 || f.recent.appended[0] != "Epitalon" {
		t.Fatalf("тема не отмечена как недавняя: %v", f.recent.appended)
	}
	if len(f.queue.articles) != 1 || f.queue.articles[0].URL != "https://www.nature.com/articles/epitalon" {
		t.Fatalf("материал не поставлен в очередь канала: %+v", f.queue.articles)
	}
}

func TestRunSkipsTopicWithoutSources(t *testing.T) {
	f := newFixture([]string{"UnknownPeptideX"}, map[string]string{}, validAutoDraft(), Config{DailyLimit: 2})

	if err := f.svc.Run(context.Background()); err != nil {
		t.Fatalf("проход вернул ошибку: %v", err)
	}
	if f.generator.calls != 0 {
		t.Fatalf("без источников генератор не должен вызываться")
	}
	if len(f.journal.posts) != 0 || len(f.queue.articles) != 0 {
		t.Fatalf("пустая тема не публикуется")
	}
}

func TestRunSkipsStaleSources(t *testing.T) {
	stale := "SOURCE_JOURNAL: J\nSOURCE_DOI: \nSOURCE_DATE: \nSOURCE_AUTHORS: \nSOURCE_CITATIONS: \nSOURCE_URL: \n\nОбзор без дат и чисел."
	f := newFixture([]string{"Selank"}, map[string]string{"Selank": stale}, validAutoDraft(), Config{DailyLimit: 2})

	if err := f.svc.Run(context.Background()); err != nil {
		t.Fatalf("проход вернул ошибку: %v", err)
	}
	if f.generator.calls != 0 {
		t.Fatalf("несвежие источники не должны доходить до генератора")
	}
}

func TestRunSkipsWhenModelDeclines(t *testing.T) {
	draft := validAutoDraft()
	draft.ShouldPublish = false
	draft.SkipReason = "нет конкретного исследования"
	f := newFixture([]string{"Epitalon"}, map[string]string{"Epitalon": snippetsFixture}, draft, Config{DailyLimit: 2})

	if err := f.svc.Run(context.Background()); err != nil {
		t.Fatalf("проход вернул ошибку: %v", err)
	}
	if len(f.journal.posts) != 0 {
		t.Fatalf("отказ модели не должен публиковаться")
	}
}

func TestRunRejectsDraftFailingFilter(t *testing.T) {
	draft := validAutoDraft()
	draft.StudyYear = "1850"
	f := newFixture([]string{"Epitalon"}, map[string]string{"Epitalon": snippetsFixture}, draft, Config{DailyLimit: 2})

	if err := f.svc.Run(context.Background()); err != nil {
		t.Fatalf("проход вернул ошибку: %v", err)
	}
	if len(f.journal.posts) != 0 || len(f.queue.articles) != 0 {
		t.Fatalf("черновик с невалидным годом не публикуется")
	}
}

func TestRunSkipsRecentTopics(t *testing.T) {
	f := newFixture([]string{"Epitalon"}, map[string]string{"Epitalon": snippetsFixture}, validAutoDraft(), Config{DailyLimit: 2})
	f.recent.topics = []string{"epitalon"}

	if err := f.svc.Run(context.Background()); err != nil {
		t.Fatalf("проход вернул ошибку: %v", err)
	}
	if len(f.collector.calls) != 0 {
		t.Fatalf("недавняя тема не должна собирать источники: %v", f.collector.calls)
	}
}

func TestRunHonorsDailyLimit(t *testing.T) {
	snippets := map[string]string{
		"Epitalon": snippetsFixture,
		"Selank":   snippetsFixture,
		"Noopept":  snippetsFixture,
	}
	f := newFixture([]string{"Epitalon", "Selank", "Noopept"}, snippets, validAutoDraft(), Config{DailyLimit: 2})

	if err := f.svc.Run(context.Background()); err != nil {
		t.Fatalf("проход вернул ошибку: %v", err)
	}
	if len(f.journal.posts) != 2 {
		t.Fatalf("лимит в две статьи за день: опубликовано %d", len(f.journal.posts))
	}
}

func TestPrettyName(t *testing.T) {
	if got := prettyName("bpc_157"); got != "bpc 157" {
		t.Fatalf("подчёркивания должны заменяться пробелами: %q", got)
	}
	if got := prettyName("CJC-1295"); got != "CJC 1295" {
		t.Fatalf("дефисы должны заменяться пробелами: %q", got)
	}
}

func TestRunFallsBackToDefaultKeywords(t *testing.T) {
	f := newFixture(nil, map[string]string{}, validAutoDraft(), Config{DailyLimit: 2, TopicCount: 3})

	if err := f.svc.Run(context.Background()); err != nil {
		t.Fatalf("проход вернул ошибку: %v", err)
	}
	want := []string{"AOD9604", "Fragment 176 191", "Tesamorelin"}
	if len(f.collector.calls) != 3 {
		t.Fatalf("резервный список должен дать три темы: %v", f.collector.calls)
	}
	for i, call := range f.collector.calls {
		if !strings.EqualFold(strings.ReplaceAll(call, "-", " "), want[i]) && call != defaultKeywords[i] {
			t.Fatalf("неожиданная тема %q на позиции %d", call, i)
		}
	}
}
