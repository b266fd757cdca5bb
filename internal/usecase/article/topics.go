package article

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"biopeptide-research/internal/domain"
	openai "biopeptide-research/internal/infra/openai"
)

const topicsSystemPrompt = "Ты — эксперт по биохакингу. Твоя задача — выдать список из 5 актуальных " +
	"веществ (пептиды, ноотропы, сенолитики) для поиска в PubMed. " +
	"Пиши только названия через запятую, без лишних слов."

const topicsAttemptMax = 3

var (
	politePrefixRe = regexp.MustCompile(`(?i)конечно.*?:`)
	whitespaceRe   = regexp.MustCompile(`\s+`)
	topicSplitRe   = regexp.MustCompile(`[,\n;]+`)
	topicCharRe    = regexp.MustCompile(`[A-Za-zА-Яа-я0-9-]`)
	topicKeyRe     = regexp.MustCompile(`[^a-z0-9а-я]`)
)

// TopicsService выдаёт список тем на день, не повторяя вчерашние.
type TopicsService struct {
	client chatClient
	model  string
	kb     domain.KnowledgeBase
	log    zerolog.Logger
}

var _ domain.TopicGenerator = (*TopicsService)(nil)

// NewTopicsService создаёт генератор тем.
func NewTopicsService(client chatClient, model string, kb domain.KnowledgeBase, logger zerolog.Logger) *TopicsService {
	return &TopicsService{client: client, model: model, kb: kb, log: logger}
}

// GenerateDaily запрашивает у модели темы. До трёх попыток: отклонённые
// варианты скармливаются модели обратно, чтобы она не повторялась.
// Пустой список означает, что свежих тем не нашлось.
func (s *TopicsService) GenerateDaily(ctx context.Context, lastTopics []string, count int) ([]string, error) {
	knowledge := ""
	if s.kb != nil {
		knowledge = s.kb.Tail(2000)
	}

	prompt := "Список тем на сегодня:"
	if len(lastTopics) > 0 {
		prompt += "\nТемы не должны повторяться с теми, что были вчера. " +
			fmt.Sprintf("Вчерашние темы: %s.", strings.Join(lastTopics, ", "))
	}
	if knowledge != "" {
		prompt += "\nКонтекст прошлых выводов (не повторяй темы и тезисы):\n" + knowledge
	}

	recentKeys := make(map[string]struct{}, len(lastTopics))
	for _, topic := range lastTopics {
		recentKeys[TopicKey(topic)] = struct{}{}
	}

	var rejected []string
	for attempt := 0; attempt < topicsAttemptMax; attempt++ {
		attemptPrompt := prompt
		if len(rejected) > 0 {
			attemptPrompt += fmt.Sprintf("\nТы уже предлагал: %s. Дай НОВЫЕ темы.", strings.Join(rejected, ", "))
		}

		resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       s.model,
			Temperature: 0.2,
			Messages: []openai.ChatMessage{
				{Role: openai.RoleSystem, Content: topicsSystemPrompt},
				{Role: openai.RoleUser, Content: attemptPrompt},
			},
		})
		if err != nil {
			return nil, fmt.Errorf("генерация тем: %w", err)
		}
		if len(resp.Choices) == 0 {
			continue
		}

		topics := SanitizeTopics(splitRawTopics(resp.Choices[0].Message.Content))
		if len(topics) == 0 {
			continue
		}
		var filtered []string
		for _, topic := range topics {
			if _, seen := recentKeys[TopicKey(topic)]; !seen {
				filtered = append(filtered, topic)
			}
		}
		if len(filtered) > 0 {
			if len(filtered) > count {
				filtered = filtered[:count]
			}
			return filtered, nil
		}
		rejected = append(rejected, topics...)
	}
	s.log.Warn().Strs("rejected", rejected).Msg("модель не дала свежих тем")
	return nil, nil
}

// splitRawTopics чистит сырой ответ модели и режет его на кандидатов.
func splitRawTopics(raw string) []string {
	cleaned := politePrefixRe.ReplaceAllString(raw, "")
	cleaned = strings.NewReplacer(`"`, " ", "'", " ", ".", " ", "•", " ").Replace(cleaned)
	cleaned = strings.TrimSpace(whitespaceRe.ReplaceAllString(cleaned, " "))
	var parts []string
	for _, part := range topicSplitRe.Split(cleaned, -1) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}

// SanitizeTopics отбрасывает мусорные темы и дубли, сохраняя порядок.
func SanitizeTopics(topics []string) []string {
	seen := make(map[string]struct{}, len(topics))
	var cleaned []string
	for _, raw := range topics {
		item := strings.Trim(strings.TrimSpace(raw), " .;:-")
		if item == "" || len([]rune(item)) < 3 {
			continue
		}
		if !topicCharRe.MatchString(item) {
			continue
		}
		key := strings.ToLower(item)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		cleaned = append(cleaned, item)
	}
	return cleaned
}

// TopicKey нормализует тему для сравнения: только буквы и цифры в нижнем
// регистре. «BPC-157» и «bpc 157» считаются одной темой.
func TopicKey(topic string) string {
	return topicKeyRe.ReplaceAllString(strings.ToLower(topic), "")
}
