package article

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"biopeptide-research/internal/domain"
	openai "biopeptide-research/internal/infra/openai"
)

type chatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

const systemPrompt = "Ты — Главный редактор элитного журнала о биохакинге BioPeptidePlus. " +
	"Стиль: энергичный, экспертный, немного дерзкий, но строго опирающийся на факты. " +
	"Твоя цель — рассказать о КОНКРЕТНОМ ИССЛЕДОВАНИИ или КЛИНИЧЕСКОМ ИСПЫТАНИИ, " +
	"а не объяснять базовые определения. " +
	"Всегда отвечай строго валидным JSON без Markdown. " +
	"Язык: только русский. " +
	"Ты обязан опираться СТРОГО на предоставленный текст. " +
	"Не выдумывай факты, числа, выборки, годы, институты или результаты, " +
	"если их нет в источнике. " +
	"Если в источнике есть цитаты — сохрани их. " +
	"Если не можешь указать реальный study_year и study_citation, " +
	"верни пустой JSON объект {} вместо догадок. " +
	"Используй данные из SOURCE_JOURNAL и SOURCE_DOI дословно — это приказ."

// Пороги режимов генерации: короткий источник и «только ключевое слово».
const (
	shortSourceChars = 200
	keywordMaxTokens = 3
)

// Generator строит черновики статей через Chat Completions.
type Generator struct {
	client   chatClient
	model    string
	kb       domain.KnowledgeBase
	log      zerolog.Logger
	retryMax int
}

var _ domain.DraftGenerator = (*Generator)(nil)

// NewGenerator создаёт генератор черновиков.
func NewGenerator(client chatClient, model string, kb domain.KnowledgeBase, logger zerolog.Logger, retryMax int) *Generator {
	if retryMax <= 0 {
		retryMax = 4
	}
	return &Generator{client: client, model: model, kb: kb, log: logger, retryMax: retryMax}
}

// Generate строит черновик по теме и тексту источников. nil без ошибки
// означает, что модель честно отказалась: публиковать нечего.
func (g *Generator) Generate(ctx context.Context, topic, sourceText string, isAuto bool) (*domain.Draft, error) {
	sourceText = strings.TrimSpace(sourceText)
	shortSource := len([]rune(sourceText)) < shortSourceChars
	keywordOnly := shortSource && len(strings.Fields(sourceText)) <= keywordMaxTokens
	meta := domain.ParseSourceMetadata(sourceText)

	knowledge := ""
	if g.kb != nil && isAuto {
		knowledge = g.kb.Tail(2000)
	}
	prompt := buildArticlePrompt(topic, sourceText, knowledge, shortSource, keywordOnly)

	raw, err := g.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	draft, err := ParseDraft(raw)
	if err != nil {
		return nil, err
	}
	if draft == nil {
		g.log.Info().Str("topic", topic).Msg("модель вернула пустой черновик")
		return nil, nil
	}
	draft.IsAuto = isAuto
	draft.SourceDOI = strings.TrimSpace(meta.DOI)
	Postprocess(draft, meta)
	return draft, nil
}

// complete вызывает модель с повторами на rate limit.
func (g *Generator) complete(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: 0.2,
		Messages: []openai.ChatMessage{
			{Role: openai.RoleSystem, Content: systemPrompt},
			{Role: openai.RoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ResponseFormatTypeJSONObject},
	}

	var content string
	operation := func() error {
		resp, err := g.client.CreateChatCompletion(ctx, req)
		if err != nil {
			if errors.Is(err, openai.ErrRateLimited) {
				g.log.Warn().Msg("модель ограничила частоту запросов, повтор")
				return err
			}
			return backoff.Permanent(err)
		}
		if len(resp.Choices) == 0 {
			return backoff.Permanent(fmt.Errorf("генерация: пустой ответ модели"))
		}
		content = strings.TrimSpace(resp.Choices[0].Message.Content)
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(g.retryMax)), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return "", fmt.Errorf("генерация черновика: %w", err)
	}
	return content, nil
}

func buildArticlePrompt(topic, sourceText, knowledge string, shortSource, keywordOnly bool) string {
	var b strings.Builder
	b.WriteString("Верни строго JSON с полями: title, content_pro, content_lite, " +
		"image_scenario, should_publish, skip_reason, " +
		"specific_study_name, study_year, study_citation, study_sample_size.\n" +
		"title: максимально кликабельный и хайповый заголовок, " +
		"обязательно с эмодзи 🧬, 🚀, 🧠.\n" +
		"content_pro: строго академический и сухой стиль, без оценочных суждений. " +
		"Используй Markdown: заголовки (##), **жирный текст**, маркированные списки (*). " +
		"Обязательные секции: " +
		"## Обзор субстанции, ## Механизм действия, ## Результаты исследований, " +
		"## Справочные данные. " +
		"Внутри секций: " +
		"Полное название исследования; методология (дизайн, выборка n, дозировки, длительность); " +
		"результаты (статистические показатели, дельты в %, p-значения); " +
		"биохимия (конкретные молекулярные механизмы и пути); " +
		"сноска (источник [1] и DOI). " +
		"Цель: дать твердые данные для принятия решений. " +
		"LaTeX используй только для сложных формул. " +
		"Обязательны [1] и список литературы в конце " +
		"(Author, Journal, Year, DOI). " +
		"Обязательно упомяни BioPeptidePlus.\n" +
		"content_lite: упрощенный, качественный научпоп без желтизны. " +
		"Используй Markdown и короткие абзацы. " +
		"В Lite View начинай строки с эмодзи. " +
		"Обязательные секции: " +
		"## Обзор субстанции, ## Механизм действия, ## Результаты исследований, " +
		"## Справочные данные. " +
		"Структура: Крючок, Суть, Практика, Статус, Сноска (источник [1] и DOI). " +
		"Цель: быстро объяснить обычному человеку ценность вещества. " +
		"Обязательны [1] и список литературы в конце " +
		"(Author, Journal, Year, DOI). " +
		"Обязательно упомяни BioPeptidePlus.\n" +
		"image_scenario: придумай описание картинки на основе текста. " +
		"НЕ делай всегда абстракцию — чередуй стили. " +
		"Если упоминается университет/страна — добавь архитектуру " +
		"(например, 'British scientists near Big Ben style' или " +
		"'Harvard campus background'). " +
		"Если речь о людях/испытаниях — покажи ученых в футуристической " +
		"лаборатории, докторов или биохакеров. " +
		"Если речь о структуре вещества — красивый 3D макро-мир. " +
		"Стиль всегда: Cinematic, Unreal Engine 5, Volumetric Lighting, " +
		"Photorealistic but futuristic.\n" +
		"should_publish: true/false. Если нет конкретного исследования, " +
		"ставь false и заполняй skip_reason.\n" +
		"skip_reason: кратко объясни, почему пропуск.\n" +
		"study_year: год исследования из источника.\n" +
		"study_citation: литература в формате Author, Journal, Year, DOI.\n" +
		"study_sample_size: выборка (например: 120 пациентов, 40 мышей, in vitro).\n" +
		"specific_study_name: название конкретного исследования из источника.\n" +
		"Если список biological targets пуст, попробуй определить 1-2 основные системы " +
		"организма из контекста (например, мозг, сердце, метаболизм) и отрази это " +
		"в результатах.\n" +
		"Инструкция для Dr. Drug: сравнивай новую статью с прошлыми данными " +
		"из knowledge_base.txt. Если есть противоречия или синергия " +
		"(например, BPC-157 усиливает эффект нового вещества) — обязательно " +
		"укажи это в блоке PRO.\n" +
		"Инструкция для Арбитра: критерии строгости растут. " +
		"Если мы уже писали о подобном веществе с лучшей выборкой, " +
		"требуй от нового исследования более веских доказательств. " +
		"В этом случае добавь в PRO строку 'Статус: Требует подтверждения'.\n")
	fmt.Fprintf(&b, "Тема: %s\n\n", topic)
	fmt.Fprintf(&b, "Проанализируй следующий текст и сделай из него Pro и Lite версии:\n\n%s", sourceText)
	if knowledge != "" {
		fmt.Fprintf(&b, "\n\nКонтекст knowledge_base.txt (для сравнения и синергий):\n%s", knowledge)
	}
	if shortSource {
		b.WriteString("\n\nИсточник короткий или пустой. " +
			"Можно использовать внешние знания, но честно начни с фразы: " +
			"'По данным открытых источников...'. " +
			"Не указывай конкретные цифры, годы, выборки и результаты, " +
			"если они не подтверждены источниками в тексте.")
	}
	if keywordOnly {
		b.WriteString("\n\nВход содержит только ключевое слово. " +
			"Сделай честную справку без неподтвержденной конкретики. " +
			"Если нет проверяемых ссылок, явно укажи: " +
			"'Ссылки: данные в источнике отсутствуют'.")
	}
	return b.String()
}

// Postprocess дотягивает черновик до публикуемого вида: вшивает цитату
// источника, маркер верификации, выборку и год. Модель этим полям не
// доверяется, источник — да.
func Postprocess(draft *domain.Draft, meta domain.SourceMetadata) {
	injectSourceCitation(draft, meta)

	contentPro := strings.TrimSpace(draft.ContentPro)
	studyYear := strings.TrimSpace(draft.StudyYear)
	sampleSize := strings.TrimSpace(draft.SampleSize)

	if meta.HasProvenance() && sampleSize == "" {
		sampleSize = "Verified Scientific Report (DOI)"
		draft.SampleSize = sampleSize
	}

	if studyYear != "" && !strings.Contains(contentPro, studyYear) {
		contentPro = "Study Year: " + studyYear + "\n" + contentPro
	}

	if meta.HasProvenance() && !strings.Contains(contentPro, "Verification: Peer-reviewed study") {
		contentPro = "Verification: Peer-reviewed study (DOI confirmed)\n" + contentPro
	}

	if sampleSize != "" && !strings.Contains(contentPro, sampleSize) {
		label := "Sample size"
		if sampleSize == "Verified Scientific Report (DOI)" {
			label = "Тип исследования"
		}
		contentPro = label + ": " + sampleSize + "\n" + contentPro
	}

	draft.ContentPro = contentPro

	citation := strings.TrimSpace(draft.StudyCitation)
	if citation == "" || !containsAny(strings.ToLower(citation), citationMarkers) {
		journal := strings.TrimSpace(meta.Journal)
		doi := strings.TrimSpace(meta.DOI)
		if journal != "" || doi != "" {
			var parts []string
			if journal != "" {
				parts = append(parts, "Journal: "+journal)
			}
			if doi != "" {
				parts = append(parts, "DOI: "+doi)
			}
			draft.StudyCitation = strings.Join(parts, ". ")
		}
	}

	// Авто-черновик обязан нести список литературы даже если модель забыла.
	if draft.IsAuto {
		lower := strings.ToLower(draft.ContentPro)
		if !containsAny(lower, []string{"список литературы", "references", "источники"}) {
			draft.ContentPro = draft.ContentPro + "\n\nСписок литературы:\n" + strings.TrimSpace(draft.StudyCitation)
		}
	}
}

// injectSourceCitation вшивает цитату, собранную из SOURCE_* метаданных.
func injectSourceCitation(draft *domain.Draft, meta domain.SourceMetadata) {
	journal := strings.TrimSpace(meta.Journal)
	doi := strings.TrimSpace(meta.DOI)
	year := strings.TrimSpace(meta.Year)
	authors := strings.TrimSpace(meta.Authors)

	if journal == "" && doi == "" {
		return
	}

	var parts []string
	if authors != "" {
		parts = append(parts, "Authors: "+authors)
	}
	if journal != "" {
		parts = append(parts, "Journal: "+journal)
	}
	if year != "" {
		parts = append(parts, "Year: "+year)
	}
	if doi != "" {
		parts = append(parts, "DOI: "+doi)
	}
	citation := strings.Join(parts, ". ")

	existing := strings.TrimSpace(draft.StudyCitation)
	switch {
	case existing == "":
		draft.StudyCitation = citation
	case !strings.Contains(strings.ToLower(existing), strings.ToLower(citation)):
		draft.StudyCitation = existing + " | " + citation
	}

	contentPro := strings.TrimSpace(draft.ContentPro)
	if contentPro != "" {
		lower := strings.ToLower(contentPro)
		if !containsAny(lower, []string{"список литературы", "references", "источники"}) {
			contentPro = contentPro + "\n\nСписок литературы:\n" + citation
		} else if !strings.Contains(lower, strings.ToLower(citation)) {
			contentPro = contentPro + "\n" + citation
		}
		draft.ContentPro = contentPro
	}

	if year != "" && strings.TrimSpace(draft.StudyYear) == "" {
		draft.StudyYear = year
	}
}
