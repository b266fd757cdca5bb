package publish

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

type stubTranslator struct {
	calls []string
	err   error
}

func (s *stubTranslator) Translate(_ context.Context, text string) (string, error) {
	s.calls = append(s.calls, text)
	if s.err != nil {
		return "", s.err
	}
	return "RU: " + text, nil
}

func TestFormatUsesRussianContentWithoutTranslation(t *testing.T) {
	tr := &stubTranslator{}
	f := NewFormatter(tr, zerolog.Nop())

	a := Article{
		Title:     "BPC-157 study",
		URL:       "https://hms.harvard.edu/news/bpc",
		ContentEN: "Professor Ivanov showed EMT changes after treatment.",
		ContentRU: "BPC-157 ускоряет заживление и влияет на EMT.",
	}
	post, err := f.Format(context.Background(), a, "BPC-157")
	if err != nil {
		t.Fatalf("форматирование вернуло ошибку: %v", err)
	}
	if len(tr.calls) != 0 {
		t.Fatalf("русский контент не должен переводиться: %v", tr.calls)
	}
	if !strings.Contains(post.Message, "🏛 УНИВЕРСИТЕТСКИЙ ПРОРЫВ: Harvard Medical School") {
		t.Fatalf("нет университетского заголовка:\n%s", post.Message)
	}
	if !strings.Contains(post.Message, "Группа профессора Ivanov обнаружила") {
		t.Fatalf("ведущий исследователь не извлечён:\n%s", post.Message)
	}
	if !strings.Contains(post.Message, "EMT (1)") {
		t.Fatalf("механизм не аннотирован сноской:\n%s", post.Message)
	}
	if !strings.Contains(post.Message, `Источники: <a href="https://hms.harvard.edu/news/bpc">1</a>`) {
		t.Fatalf("нет блока источников сносок:\n%s", post.Message)
	}
	if !strings.Contains(post.Message, "Дозировки: Данные в источнике отсутствуют") {
		t.Fatalf("нет пометки об отсутствии дозировок:\n%s", post.Message)
	}
	if strings.Contains(post.Message, "Механизм действия: Данные в источнике отсутствуют") {
		t.Fatalf("механизм упомянут, пометка лишняя:\n%s", post.Message)
	}
	if !strings.Contains(post.Message, "Синергия с образом жизни: Данные отсутствуют") {
		t.Fatalf("нет строки синергии:\n%s", post.Message)
	}
	if post.SiteAnnouncement != post.Hook+"\n"+a.URL {
		t.Fatalf("анонс для сайта собран неверно: %q", post.SiteAnnouncement)
	}
}

func TestFormatTranslatesEnglishContent(t *testing.T) {
	tr := &stubTranslator{}
	f := NewFormatter(tr, zerolog.Nop())

	a := Article{
		Title:   "Sleep peptide",
		URL:     "https://pubmed.ncbi.nlm.nih.gov/42",
		Summary: "Peptide improved sleep. We found that sleep quality rose.",
	}
	post, err := f.Format(context.Background(), a, "sleep")
	if err != nil {
		t.Fatalf("форматирование вернуло ошибку: %v", err)
	}
	if len(tr.calls) != 2 {
		t.Fatalf("ожидались переводы резюме и вывода, вызовов %d", len(tr.calls))
	}
	if !strings.Contains(post.Message, "RU: Peptide improved sleep") {
		t.Fatalf("резюме не переведено:\n%s", post.Message)
	}
	if !strings.Contains(tr.calls[1], "We found that") {
		t.Fatalf("вывод должен извлекаться из предложений с маркерами: %q", tr.calls[1])
	}
	if post.Hook != "Ведущий исследователь: Данные в источнике отсутствуют." {
		t.Fatalf("хук должен быть первым предложением резюме: %q", post.Hook)
	}
}

func TestFormatSurfacesTranslationError(t *testing.T) {
	tr := &stubTranslator{err: errors.New("quota")}
	f := NewFormatter(tr, zerolog.Nop())

	_, err := f.Format(context.Background(), Article{Title: "X", URL: "https://e.org", Summary: "text"}, "")
	if err == nil {
		t.Fatalf("ошибка перевода должна быть фатальной для материала")
	}
}

func TestFormatNewDiscoveryHook(t *testing.T) {
	f := NewFormatter(&stubTranslator{}, zerolog.Nop())
	a := Article{
		Title:          "GHK-4 breakthrough",
		URL:            "https://example.org/ghk",
		ContentRU:      "Новый пептид показал эффект.",
		IsNewDiscovery: true,
	}
	post, err := f.Format(context.Background(), a, "")
	if err != nil {
		t.Fatalf("форматирование вернуло ошибку: %v", err)
	}
	if post.Hook != "Новое имя в биохакинге: разбираем исследование GHK-4 breakthrough" {
		t.Fatalf("хук открытия собран неверно: %q", post.Hook)
	}
	if !strings.Contains(post.Message, "NEW DISCOVERY") {
		t.Fatalf("нет метки открытия:\n%s", post.Message)
	}
}

func TestEscapeHTML(t *testing.T) {
	if got := escapeHTML(`<b>&"`); got != "&lt;b&gt;&amp;&quot;" {
		t.Fatalf("неверное экранирование: %q", got)
	}
}

func TestDetectSourceFallback(t *testing.T) {
	if got := DetectSource("https://unknown.example.org/a"); got != "Источник" {
		t.Fatalf("неизвестный домен должен давать общее имя: %q", got)
	}
	if got := DetectSource("https://www.nature.com/articles/1"); got != "Nature" {
		t.Fatalf("ожидалось Nature, получено %q", got)
	}
}

func TestImagePromptFromText(t *testing.T) {
	long := strings.Repeat("a", 700)
	prompt := ImagePromptFromText(long, false)
	if !strings.Contains(prompt, strings.Repeat("a", 600)) || strings.Contains(prompt, strings.Repeat("a", 601)) {
		t.Fatalf("текст должен обрезаться до 600 символов")
	}
	if !strings.Contains(prompt, "restrained detail") {
		t.Fatalf("обычный промпт без премиальной детализации: %q", prompt)
	}
	premium := ImagePromptFromText("BPC-157", true)
	if !strings.Contains(premium, "ultra-detailed, premium materials") {
		t.Fatalf("премиальный промпт без детализации: %q", premium)
	}
}
