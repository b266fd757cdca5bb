package article

import (
	"regexp"
	"strconv"
	"strings"

	"biopeptide-research/internal/domain"
)

var (
	doiRe    = regexp.MustCompile(`\b10\.\d{4,9}/\S+`)
	digitsRe = regexp.MustCompile(`\d+`)
)

// evidenceRule связывает уровень доказательности с его маркерами.
type evidenceRule struct {
	level  domain.EvidenceLevel
	tokens []string
}

// Порядок правил задаёт приоритет: клиника сильнее in vitro, in vitro
// сильнее доклиники. Текст с людьми и мышами одновременно — клиника.
var evidenceRules = []evidenceRule{
	{domain.EvidenceClinical, []string{
		"phase 1", "phase i", "phase 2", "phase ii", "phase 3", "phase iii",
		"clinicaltrials.gov", "clinical trial", "double-blind", "randomized",
		"human", "humans", "patient", "patients", "volunteer", "volunteers",
		"люди", "добровольц", "пациент", "клиничес", "участник", "участников",
	}},
	{domain.EvidenceInVitro, []string{
		"in vitro", "cell line", "cell culture", "клеточ", "культура клет",
	}},
	{domain.EvidencePreclinical, []string{
		"rat", "rats", "mouse", "mice", "murine", "rabbit", "rabbits",
		"крыс", "мыш", "кролик", "in vivo", "preclinical",
	}},
	{domain.EvidenceMetaAnalysis, []string{
		"meta-analysis", "systematic review", "мета-анализ", "систематический обзор",
	}},
}

// DetectEvidenceLevel определяет уровень доказательности по маркерам в тексте.
func DetectEvidenceLevel(text string) domain.EvidenceLevel {
	lower := strings.ToLower(text)
	for _, rule := range evidenceRules {
		for _, token := range rule.tokens {
			if strings.Contains(lower, token) {
				return rule.level
			}
		}
	}
	return domain.EvidenceUnknown
}

// targetRule связывает биологическую мишень с её маркерами.
type targetRule struct {
	name   string
	tokens []string
}

var biologicalTargetRules = []targetRule{
	{"longevity", []string{"longevity", "aging", "старени", "долголет"}},
	{"cognition", []string{"cognition", "cognitive", "memory", "focus", "brain", "нейро", "когнит", "памят", "фокус"}},
	{"muscle", []string{"muscle", "strength", "sarcopenia", "мышц", "сила", "вынослив"}},
	{"sleep", []string{"sleep", "insomnia", "melatonin", "сон", "бессон"}},
	{"regeneration", []string{"regeneration", "repair", "healing", "tissue", "регенер", "зажив"}},
	{"metabolism", []string{"metabolism", "glucose", "lipid", "метабол", "глюкоз", "инсулин", "липид"}},
	{"inflammation", []string{"inflammation", "inflammatory", "циток", "воспал"}},
}

var systemTargetRules = []targetRule{
	{"brain", []string{"brain", "cognitive", "memory", "dementia", "alzheimer", "нейро", "когнит", "памят", "деменц", "альцгеймер"}},
	{"heart", []string{"cardio", "cardiac", "heart", "vascular", "серд", "сосуд"}},
	{"metabolism", []string{"metabolism", "glucose", "insulin", "metabolic", "метабол", "глюкоз", "инсулин"}},
	{"inflammation", []string{"inflammation", "inflammatory", "циток", "воспал"}},
	{"muscle", []string{"muscle", "strength", "sarcopenia", "мышц", "сила"}},
	{"sleep", []string{"sleep", "insomnia", "сон", "бессон"}},
}

func matchTargets(text string, rules []targetRule) []string {
	lower := strings.ToLower(text)
	var hits []string
	for _, rule := range rules {
		for _, token := range rule.tokens {
			if strings.Contains(lower, token) {
				hits = append(hits, rule.name)
				break
			}
		}
	}
	return hits
}

// ExtractBiologicalTargets ищет мишени в блоке результатов.
func ExtractBiologicalTargets(resultsBlock string) []string {
	return matchTargets(resultsBlock, biologicalTargetRules)
}

// InferSystemTargets — запасной поиск по всему тексту, не больше двух систем.
func InferSystemTargets(text string) []string {
	hits := matchTargets(text, systemTargetRules)
	if len(hits) > 2 {
		hits = hits[:2]
	}
	return hits
}

// ExtractResultsBlock вырезает секцию «Результаты» до следующей секции.
func ExtractResultsBlock(text string) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	startIdx := -1
	for idx, line := range lines {
		if strings.HasPrefix(strings.ToLower(line), "результаты") {
			startIdx = idx
			break
		}
	}
	if startIdx == -1 {
		return ""
	}
	endIdx := len(lines)
	for idx := startIdx + 1; idx < len(lines); idx++ {
		lower := strings.ToLower(lines[idx])
		if strings.HasPrefix(lower, "биохимия") || strings.HasPrefix(lower, "сноска") ||
			strings.HasPrefix(lower, "список литературы") || strings.HasPrefix(lower, "методология") {
			endIdx = idx
			break
		}
	}
	return strings.TrimSpace(strings.Join(lines[startIdx:endIdx], " "))
}

// GenerateTags собирает теги: тема плюс мишени с заглавной буквы.
// Дубли убираются без учёта регистра, порядок сохраняется.
func GenerateTags(topic string, targets []string) []string {
	var tags []string
	if name := strings.TrimSpace(topic); name != "" {
		tags = append(tags, name)
	}
	for _, target := range targets {
		tags = append(tags, capitalize(target))
	}
	seen := make(map[string]struct{}, len(tags))
	var unique []string
	for _, tag := range tags {
		key := strings.ToLower(tag)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, tag)
	}
	return unique
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// ExtractDOI ищет DOI в тексте, иначе берёт его из метаданных источника.
func ExtractDOI(content string, meta domain.SourceMetadata) string {
	if match := doiRe.FindString(content); match != "" {
		return match
	}
	return strings.TrimSpace(meta.DOI)
}

// ParseCitationsCount выдирает число из строки счётчика цитирований.
func ParseCitationsCount(meta domain.SourceMetadata) *int {
	raw := strings.TrimSpace(meta.CitationsCount)
	if raw == "" {
		return nil
	}
	match := digitsRe.FindString(raw)
	if match == "" {
		return nil
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		return nil
	}
	return &n
}

var sentenceSplitRe = regexp.MustCompile(`([.!?])\s+`)

// ExtractKeyFinding достаёт главный вывод для базы знаний: секция
// «Результаты» из Pro, затем «Суть» из Lite, затем весь текст. Берутся
// первые два предложения.
func ExtractKeyFinding(contentPro, contentLite string) string {
	candidate := pickFromSection(contentPro, "результаты")
	if candidate == "" {
		candidate = pickFromSection(contentLite, "суть")
	}
	if candidate == "" {
		candidate = strings.TrimSpace(contentPro)
	}
	if candidate == "" {
		candidate = strings.TrimSpace(contentLite)
	}
	return firstSentences(candidate, 2)
}

func pickFromSection(text, sectionName string) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	for idx, line := range lines {
		if !strings.HasPrefix(strings.ToLower(line), sectionName) {
			continue
		}
		candidate := ""
		if colon := strings.Index(line, ":"); colon != -1 {
			candidate = strings.TrimSpace(line[colon+1:])
		}
		if candidate == "" && idx+1 < len(lines) {
			candidate = lines[idx+1]
		}
		return candidate
	}
	return ""
}

func firstSentences(text string, limit int) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	parts := sentenceSplitRe.Split(text, -1)
	marks := sentenceSplitRe.FindAllStringSubmatch(text, -1)
	var sentences []string
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if i < len(marks) {
			part += marks[i][1]
		}
		sentences = append(sentences, part)
		if len(sentences) == limit {
			break
		}
	}
	return strings.Join(sentences, " ")
}

// ExtractCitationHint возвращает подсказку цитирования для базы знаний.
func ExtractCitationHint(content string) string {
	if match := doiRe.FindString(content); match != "" {
		return "DOI: " + match
	}
	return ""
}
