package kb

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"biopeptide-research/internal/domain"
)

// FileKnowledgeBase хранит накопленные выводы в append-only текстовом файле.
// Формат записей стабилен: его читает и модель в промпте, и люди глазами.
type FileKnowledgeBase struct {
	path string
}

var _ domain.KnowledgeBase = (*FileKnowledgeBase)(nil)

// NewFileKnowledgeBase создаёт файловую базу знаний.
func NewFileKnowledgeBase(path string) *FileKnowledgeBase {
	return &FileKnowledgeBase{path: path}
}

// Append дописывает запись. Записи без темы или вывода игнорируются.
func (k *FileKnowledgeBase) Append(entry domain.KnowledgeEntry) error {
	topic := strings.TrimSpace(entry.Topic)
	finding := strings.TrimSpace(entry.KeyFinding)
	if topic == "" || finding == "" {
		return nil
	}
	recordedAt := entry.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now().UTC()
	}

	f, err := os.OpenFile(k.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	var b strings.Builder
	fmt.Fprintf(&b, "\n--- ENTRY %s ---\n", recordedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "TOPIC: %s\n", topic)
	fmt.Fprintf(&b, "KEY_FINDING: %s\n", finding)
	if hint := strings.TrimSpace(entry.CitationHint); hint != "" {
		fmt.Fprintf(&b, "%s\n", hint)
	}
	_, err = f.WriteString(b.String())
	return err
}

// Tail возвращает хвост базы не длиннее maxChars. Свежие записи в конце файла,
// поэтому при усечении теряются самые старые.
func (k *FileKnowledgeBase) Tail(maxChars int) string {
	data, err := os.ReadFile(k.path)
	if err != nil {
		return ""
	}
	text := strings.TrimSpace(string(data))
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}
	return strings.TrimSpace(string(runes[len(runes)-maxChars:]))
}

var topicSplitRe = regexp.MustCompile(`[,\n]+`)

// FileRecentTopics хранит недавно освещённые темы по одной на строку.
type FileRecentTopics struct {
	path string
}

var _ domain.RecentTopics = (*FileRecentTopics)(nil)

// NewFileRecentTopics создаёт файловое хранилище тем.
func NewFileRecentTopics(path string) *FileRecentTopics {
	return &FileRecentTopics{path: path}
}

// List возвращает сохранённые темы. Разделители — запятая и перевод строки.
func (r *FileRecentTopics) List() []string {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil
	}
	var topics []string
	for _, part := range topicSplitRe.Split(string(data), -1) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			topics = append(topics, trimmed)
		}
	}
	return topics
}

// Append дописывает тему, если её ещё нет в файле.
func (r *FileRecentTopics) Append(topic string) error {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil
	}
	for _, existing := range r.List() {
		if existing == topic {
			return nil
		}
	}
	f, err := os.OpenFile(r.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(topic + "\n")
	return err
}
