package publish

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"biopeptide-research/internal/domain"
)

// Порядок записей фиксирован: первое совпадение домена определяет имя источника.
var sourceNames = []struct{ domain, name string }{
	{"pubmed.ncbi.nlm.nih.gov", "PubMed"},
	{"sciencedirect.com", "ScienceDirect"},
	{"nature.com", "Nature"},
	{"cell.com", "Cell"},
	{"thelancet.com", "The Lancet"},
	{"news.harvard.edu", "Harvard Medical School"},
	{"hms.harvard.edu", "Harvard Medical School"},
	{"med.stanford.edu", "Stanford Medicine"},
	{"news.stanford.edu", "Stanford Medicine"},
	{"news.mit.edu", "MIT News"},
	{"hopkinsmedicine.org", "Johns Hopkins"},
	{"hub.jhu.edu", "Johns Hopkins"},
}

var universityNames = []struct{ domain, name string }{
	{"news.harvard.edu", "Harvard Medical School"},
	{"hms.harvard.edu", "Harvard Medical School"},
	{"med.stanford.edu", "Stanford Medicine"},
	{"news.stanford.edu", "Stanford Medicine"},
	{"news.mit.edu", "MIT News"},
	{"hopkinsmedicine.org", "Johns Hopkins"},
	{"hub.jhu.edu", "Johns Hopkins"},
}

var topPriorityDomains = []string{
	"nature.com",
	"cell.com",
	"hms.harvard.edu",
	"news.harvard.edu",
	"med.stanford.edu",
	"news.stanford.edu",
	"news.mit.edu",
}

// DetectSource возвращает человекочитаемое имя источника по домену URL.
func DetectSource(articleURL string) string {
	lower := strings.ToLower(articleURL)
	for _, entry := range sourceNames {
		if strings.Contains(lower, entry.domain) {
			return entry.name
		}
	}
	return "Источник"
}

// DetectUniversity возвращает имя университета или пустую строку.
func DetectUniversity(articleURL string) string {
	lower := strings.ToLower(articleURL)
	for _, entry := range universityNames {
		if strings.Contains(lower, entry.domain) {
			return entry.name
		}
	}
	return ""
}

// IsTopPrioritySource проверяет принадлежность URL к источникам высшего яруса.
func IsTopPrioritySource(articleURL string) bool {
	lower := strings.ToLower(articleURL)
	for _, domainName := range topPriorityDomains {
		if strings.Contains(lower, domainName) {
			return true
		}
	}
	return false
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

func escapeHTML(text string) string {
	return htmlEscaper.Replace(text)
}

func normalizeText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

func containsAny(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, keyword := range keywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

func firstSentence(text string) string {
	text = normalizeText(text)
	if text == "" {
		return ""
	}
	for _, splitter := range []string{". ", "? ", "! "} {
		if idx := strings.Index(text, splitter); idx >= 0 {
			return strings.TrimSpace(text[:idx]) + strings.TrimSpace(splitter)
		}
	}
	return text
}

var (
	doseKeywords = []string{"mg", "mcg", "мг", "мкг", "dose", "dosage", "доз", "концентрац"}

	effectKeywords = []string{
		"adverse", "side effect", "toxicity", "safety",
		"побочн", "нежелатель", "токсич", "безопасн",
	}

	mechanismKeywords = []string{
		"mechanism", "pathway", "signal", "emt", "ros",
		"афк", "механизм", "сигнальн", "путь",
	}

	lifestyleKeywords = []string{
		"diet", "nutrition", "sleep", "exercise", "physical activity",
		"training", "sauna", "cold exposure", "therm", "glucose", "lipid",
		"метабол", "глюкоз", "липид", "сон", "питани", "физическ",
		"сауна", "холод", "термо",
	}
)

// Честные пометки об отсутствии данных: читатель должен видеть,
// чего в источнике нет, а не получать додуманное.
func missingDataLines(baseText string) []string {
	var missing []string
	if !containsAny(baseText, doseKeywords) {
		missing = append(missing, "Дозировки: Данные в источнике отсутствуют")
	}
	if !containsAny(baseText, effectKeywords) {
		missing = append(missing, "Побочные эффекты: Данные в источнике отсутствуют")
	}
	if !containsAny(baseText, mechanismKeywords) {
		missing = append(missing, "Механизм действия: Данные в источнике отсутствуют")
	}
	return missing
}

func lifestyleSynergyLine(baseText string) string {
	if containsAny(baseText, lifestyleKeywords) {
		return "Синергия с образом жизни: Указано в источнике."
	}
	return "Синергия с образом жизни: Данные отсутствуют"
}

var mechanismMarkers = []string{"ЕМТ", "EMT", "ROS", "АФК", "reactive oxygen species"}

// annotateMechanisms помечает первое вхождение каждого механизма сноской (1)
// и возвращает HTML-блок со ссылкой на источник, если сноски были.
func annotateMechanisms(text, articleURL string) (string, string) {
	found := false
	updated := text
	for _, marker := range mechanismMarkers {
		if strings.Contains(updated, marker) {
			updated = strings.Replace(updated, marker, marker+" (1)", 1)
			found = true
		}
	}
	if !found {
		return updated, ""
	}
	return updated, fmt.Sprintf(`Источники: <a href="%s">1</a>`, escapeHTML(articleURL))
}

var leadResearcherRes = []*regexp.Regexp{
	regexp.MustCompile(`Professor\s+([A-Z][a-z]+)`),
	regexp.MustCompile(`Prof\.\s*([A-Z][a-z]+)`),
	regexp.MustCompile(`Dr\.\s*([A-Z][a-z]+)`),
	regexp.MustCompile(`by\s+([A-Z][a-z]+)\s+[A-Z][a-z]+`),
	regexp.MustCompile(`led by\s+([A-Z][a-z]+)\s+[A-Z][a-z]+`),
}

func extractLeadResearcher(text string) string {
	normalized := normalizeText(text)
	if normalized == "" {
		return ""
	}
	for _, re := range leadResearcherRes {
		if match := re.FindStringSubmatch(normalized); match != nil {
			return match[1]
		}
	}
	return ""
}

var conclusionKeywords = []string{
	"conclusion", "results", "summary", "we found that", "treatment improved",
}

// extractConclusionEN вытаскивает предложения с выводами из английского текста.
func extractConclusionEN(baseEN string) string {
	normalized := normalizeText(baseEN)
	if normalized == "" {
		return ""
	}
	var sentences []string
	var current strings.Builder
	for _, r := range normalized {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if sentence := strings.TrimSpace(current.String()); sentence != "" {
				sentences = append(sentences, sentence)
			}
			current.Reset()
		}
	}
	if sentence := strings.TrimSpace(current.String()); sentence != "" {
		sentences = append(sentences, sentence)
	}

	var matches []string
	for _, sentence := range sentences {
		if containsAny(sentence, conclusionKeywords) {
			matches = append(matches, sentence)
		}
	}
	return strings.TrimSpace(strings.Join(matches, " "))
}

const imagePromptMaxChars = 600

// ImagePromptFromText строит промпт обложки из текста поста.
// Премиальная детализация включается для постов о пептидах.
func ImagePromptFromText(text string, premium bool) string {
	base := normalizeText(text)
	if runes := []rune(base); len(runes) > imagePromptMaxChars {
		base = string(runes[:imagePromptMaxChars])
	}
	detail := "minimalistic, clean, restrained detail"
	if premium {
		detail = "ultra-detailed, premium materials, precise molecular rendering"
	}
	return "High-tech biology illustration inspired by: " + base + ". " +
		"Style: scientific premium, clean lines, futuristic, laboratory-grade, " + detail + ". " +
		"Color palette: white, steel, deep blue, cold tones. " +
		"Elements: cellular structures, mitochondrial membranes repair, peptide chains, lab vials, microscopy textures. " +
		"No people, no faces, no text."
}

// FormattedPost — готовый к доставке пост канала.
type FormattedPost struct {
	Message          string
	ArticleURL       string
	Hook             string
	SiteAnnouncement string
}

// Formatter собирает HTML-сообщение канала из материала.
type Formatter struct {
	translator domain.Translator
	log        zerolog.Logger
}

// NewFormatter создаёт форматтер постов.
func NewFormatter(translator domain.Translator, logger zerolog.Logger) *Formatter {
	return &Formatter{translator: translator, log: logger}
}

// Format строит сообщение, хук и анонс для сайта. Английские материалы
// переводятся на русский; ошибка перевода фатальна для этого материала.
func (f *Formatter) Format(ctx context.Context, a Article, topic string) (FormattedPost, error) {
	title := strings.TrimSpace(a.Title)
	articleURL := strings.TrimSpace(a.URL)
	contentEN := strings.TrimSpace(a.ContentEN)
	if contentEN == "" {
		contentEN = strings.TrimSpace(a.Content)
	}
	contentRU := strings.TrimSpace(a.ContentRU)
	summaryEN := strings.TrimSpace(a.Summary)

	source := DetectSource(articleURL)
	baseEN := contentEN
	if baseEN == "" {
		baseEN = summaryEN
	}
	if baseEN == "" {
		baseEN = title
	}

	summaryRU := contentRU
	if summaryRU == "" {
		translated, err := f.translator.Translate(ctx, baseEN)
		if err != nil {
			return FormattedPost{}, fmt.Errorf("перевод резюме: %w", err)
		}
		summaryRU = translated
	}

	summaryRU, refs := annotateMechanisms(summaryRU, articleURL)
	leadSource := contentEN
	if leadSource == "" {
		leadSource = summaryEN
	}
	if lead := extractLeadResearcher(leadSource); lead != "" {
		summaryRU = "Группа профессора " + lead + " обнаружила: " + summaryRU
	} else {
		summaryRU = "Ведущий исследователь: Данные в источнике отсутствуют. " + summaryRU
	}
	baseRU := normalizeText(summaryRU)

	conclusionRU := "Данные отсутствуют"
	if conclusionEN := extractConclusionEN(baseEN); conclusionEN != "" {
		translated, err := f.translator.Translate(ctx, conclusionEN)
		if err != nil {
			return FormattedPost{}, fmt.Errorf("перевод вывода: %w", err)
		}
		conclusionRU = translated
	}
	if lines := missingDataLines(baseRU); len(lines) > 0 {
		conclusionRU = strings.Join(append([]string{conclusionRU}, lines...), "\n")
	}
	conclusionRU = conclusionRU + "\n" + lifestyleSynergyLine(baseRU)

	badge := ""
	if impactFactor(a) > 10 {
		badge = "💎 Исследование высшего уровня доказательности\n"
	}
	criticalBadge := ""
	if a.IsCriticalUpdate {
		criticalBadge = "🔥 КРИТИЧЕСКИ ВАЖНОЕ ОБНОВЛЕНИЕ\n"
	}

	header := title
	if university := DetectUniversity(articleURL); university != "" {
		header = "🏛 УНИВЕРСИТЕТСКИЙ ПРОРЫВ: " + university
	}

	hook := "Данные отсутствуют"
	if hookSource := normalizeText(summaryRU); hookSource != "" {
		hook = firstSentence(hookSource)
	}
	if a.IsNewDiscovery {
		hook = "Новое имя в биохакинге: разбираем исследование " + title
	}
	hookBlock := "<blockquote>" + escapeHTML(hook) + "\n" +
		`<a href="https://BioPeptidePlus.com">Аналитика от проекта BioPeptidePlus</a>` +
		"</blockquote>\n"

	discoveryTag := ""
	if a.IsNewDiscovery {
		discoveryTag = "NEW DISCOVERY\n"
	}

	peptideLine := ""
	if BiohackingScore(a) > 0 {
		if names := ExtractPeptideNames(a.combinedText()); len(names) > 0 {
			peptideLine = "Релевантный пептид: " + strings.Join(names, ", ") + "\n"
		} else {
			peptideLine = "Релевантный пептид: Данные отсутствуют\n"
		}
	}

	cta := "Подробный разбор и профессиональная версия исследования — на BioPeptidePlus.com"

	var b strings.Builder
	b.WriteString(hookBlock)
	b.WriteString(escapeHTML(header) + "\n")
	b.WriteString(`Источник: <a href="` + escapeHTML(articleURL) + `">` + escapeHTML(source) + "</a>\n")
	b.WriteString("Тема: " + escapeHTML(topic) + "\n")
	b.WriteString(discoveryTag)
	b.WriteString(criticalBadge)
	b.WriteString(badge)
	b.WriteString("Научное резюме: " + escapeHTML(summaryRU) + "\n\n")
	b.WriteString(escapeHTML(peptideLine))
	b.WriteString("Практический вывод: " + escapeHTML(conclusionRU) + "\n\n")
	b.WriteString(escapeHTML(cta))

	message := b.String()
	if refs != "" {
		message = message + "\n\n" + refs
	}

	return FormattedPost{
		Message:          message,
		ArticleURL:       articleURL,
		Hook:             hook,
		SiteAnnouncement: strings.TrimSpace(hook + "\n" + articleURL),
	}, nil
}
