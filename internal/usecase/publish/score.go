package publish

import (
	"regexp"
	"sort"
	"strings"
)

// Пептиды ассортимента. Клиническое обновление по любому из них
// считается критическим и публикуется вне очереди.
var assortmentPeptides = []string{
	"Epitalon",
	"BPC-157",
	"SS-31",
	"Elamipretide",
}

var peptideNameRe = regexp.MustCompile(`\b[A-Z]{2,}-\d+\b`)

// Article — материал, подготовленный пайплайном к публикации.
type Article struct {
	Title        string
	URL          string
	Summary      string
	Content      string
	ContentEN    string
	ContentRU    string
	PublishedAt  string
	ImpactFactor *float64

	// Флаги проставляются MarkDiscoveries перед сортировкой.
	IsNewDiscovery   bool
	IsCriticalUpdate bool
}

func (a Article) combinedText() string {
	return normalizeText(strings.Join([]string{a.Title, a.Summary, a.Content, a.ContentEN}, " "))
}

// ExtractPeptideNames находит названия пептидов: шаблон вида BPC-157
// плюс пептиды ассортимента без цифрового суффикса.
func ExtractPeptideNames(text string) []string {
	normalized := normalizeText(text)
	if normalized == "" {
		return nil
	}
	seen := map[string]struct{}{}
	for _, name := range peptideNameRe.FindAllString(normalized, -1) {
		seen[name] = struct{}{}
	}
	for _, name := range assortmentPeptides {
		if strings.Contains(normalized, name) {
			seen[name] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func isPeptideText(text string) bool {
	return len(ExtractPeptideNames(text)) > 0
}

// IsPeptidePost сообщает, упоминает ли материал хотя бы один пептид.
func IsPeptidePost(a Article) bool {
	return isPeptideText(a.combinedText())
}

// KnownPeptides собирает множество уже освещённых пептидов из заголовков.
func KnownPeptides(titles []string) map[string]struct{} {
	known := map[string]struct{}{}
	for _, title := range titles {
		for _, name := range ExtractPeptideNames(title) {
			known[name] = struct{}{}
		}
	}
	return known
}

func isNewPeptide(a Article, known map[string]struct{}) bool {
	names := ExtractPeptideNames(a.Title + " " + a.Summary)
	if len(names) == 0 {
		return false
	}
	for _, name := range names {
		if _, ok := known[name]; ok {
			return false
		}
	}
	return true
}

// MarkDiscoveries проставляет флаги новизны и критичности перед сортировкой.
func MarkDiscoveries(articles []Article, known map[string]struct{}) {
	for i := range articles {
		articles[i].IsNewDiscovery = isNewPeptide(articles[i], known)
		articles[i].IsCriticalUpdate = IsCriticalUpdate(articles[i])
	}
}

// InnovationScore оценивает новизну: биодоступность и работы на млекопитающих.
func InnovationScore(a Article) int {
	text := strings.ToLower(a.combinedText())
	score := 0
	if strings.Contains(text, "bioavailability") {
		score += 2
	}
	for _, term := range []string{"mammal", "mouse", "mice", "rat", "rodent"} {
		if strings.Contains(text, term) {
			score += 2
			break
		}
	}
	return score
}

var biohackTerms = []string{
	"sleep", "sauna", "cold exposure", "therm", "nutrition", "diet",
	"exercise", "training", "glucose", "lipid", "metabolic",
	"сон", "сауна", "питани", "физическ", "глюкоз", "липид", "метабол",
	"холод", "термо",
}

// BiohackingScore равен 1, если материал касается биохакерских практик.
func BiohackingScore(a Article) float64 {
	text := strings.ToLower(a.combinedText())
	for _, term := range biohackTerms {
		if strings.Contains(text, term) {
			return 1.0
		}
	}
	return 0.0
}

// PeptideRelevanceScore равен 1 для материалов с упоминанием пептидов.
func PeptideRelevanceScore(a Article) float64 {
	if IsPeptidePost(a) {
		return 1.0
	}
	return 0.0
}

// PriorityScore взвешивает релевантность пептидам выше биохакинга.
func PriorityScore(a Article) float64 {
	return 0.7*PeptideRelevanceScore(a) + 0.3*BiohackingScore(a)
}

var clinicalTerms = []string{
	"clinical", "randomized", "trial", "phase", "patients",
	"клиническ", "рандом", "испыта", "фаза", "пациент",
}

// IsClinicalStudy проверяет наличие клинических маркеров в тексте материала.
func IsClinicalStudy(a Article) bool {
	text := strings.ToLower(a.combinedText())
	for _, term := range clinicalTerms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}

// IsCriticalUpdate — клиническое обновление по пептиду из ассортимента.
func IsCriticalUpdate(a Article) bool {
	names := ExtractPeptideNames(strings.Join([]string{a.Title, a.Summary, a.Content, a.ContentEN}, " "))
	if len(names) == 0 {
		return false
	}
	inAssortment := false
	for _, name := range names {
		for _, stock := range assortmentPeptides {
			if name == stock {
				inAssortment = true
			}
		}
	}
	return inAssortment && IsClinicalStudy(a)
}

func publicationYear(a Article) int {
	value := strings.TrimSpace(a.PublishedAt)
	if len(value) < 4 {
		return 0
	}
	year := 0
	for _, r := range value[:4] {
		if r < '0' || r > '9' {
			return 0
		}
		year = year*10 + int(r-'0')
	}
	return year
}

// YearInRange проверяет год публикации материала по диапазону включительно.
func YearInRange(a Article, start, end int) bool {
	year := publicationYear(a)
	return year != 0 && start <= year && year <= end
}

func isMetaOrSystematic(title, summary string) bool {
	haystack := strings.ToLower(title + " " + summary)
	return strings.Contains(haystack, "meta-analysis") || strings.Contains(haystack, "systematic review")
}

func impactFactor(a Article) float64 {
	if a.ImpactFactor == nil {
		return 0
	}
	return *a.ImpactFactor
}

type articleRank struct {
	critical   int
	topSource  int
	priority   float64
	innovation int
	meta       int
	recent     int
	yearScore  int
}

func rankOf(a Article) articleRank {
	r := articleRank{
		priority:   PriorityScore(a),
		innovation: InnovationScore(a),
	}
	if a.IsCriticalUpdate {
		r.critical = 1
	}
	if IsTopPrioritySource(a.URL) {
		r.topSource = 1
	}
	if isMetaOrSystematic(a.Title, a.Summary) {
		r.meta = 1
	}
	year := publicationYear(a)
	if year >= 2024 && year <= 2026 {
		r.recent = 1
	}
	r.yearScore = year * 100
	if impactFactor(a) > 10 {
		r.yearScore++
	}
	return r
}

func (r articleRank) greater(other articleRank) bool {
	if r.critical != other.critical {
		return r.critical > other.critical
	}
	if r.topSource != other.topSource {
		return r.topSource > other.topSource
	}
	if r.priority != other.priority {
		return r.priority > other.priority
	}
	if r.innovation != other.innovation {
		return r.innovation > other.innovation
	}
	if r.meta != other.meta {
		return r.meta > other.meta
	}
	if r.recent != other.recent {
		return r.recent > other.recent
	}
	return r.yearScore > other.yearScore
}

// SortArticles упорядочивает материалы по убыванию приоритета: критические
// обновления, топовые источники, релевантность, новизна, мета-обзоры, свежесть.
func SortArticles(articles []Article) {
	sort.SliceStable(articles, func(i, j int) bool {
		return rankOf(articles[i]).greater(rankOf(articles[j]))
	})
}
