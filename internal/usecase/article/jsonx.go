package article

import (
	"encoding/json"
	"fmt"
	"strings"

	"biopeptide-research/internal/domain"
)

// ParseDraft разбирает ответ модели в черновик. Сначала строгий разбор,
// затем попытка выдернуть JSON-объект из обрамляющего текста: модели
// иногда заворачивают ответ в Markdown или добавляют пояснения.
// Пустой объект {} означает «публиковать нечего» и возвращается как nil.
func ParseDraft(raw string) (*domain.Draft, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	var draft domain.Draft
	if err := json.Unmarshal([]byte(raw), &draft); err != nil {
		candidate := extractJSONObject(raw)
		if candidate == "" {
			return nil, fmt.Errorf("ответ модели не содержит JSON: %w", err)
		}
		if err := json.Unmarshal([]byte(candidate), &draft); err != nil {
			return nil, fmt.Errorf("не удалось разобрать JSON модели: %w", err)
		}
	}
	if isEmptyDraft(draft) {
		return nil, nil
	}
	return &draft, nil
}

// extractJSONObject возвращает первый сбалансированный JSON-объект.
// Скобки внутри строковых литералов не считаются.
func extractJSONObject(text string) string {
	start := strings.Index(text, "{")
	if start == -1 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}

func isEmptyDraft(d domain.Draft) bool {
	return d.Title == "" && d.ContentPro == "" && d.ContentLite == ""
}
