package article

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestSanitizeTopics(t *testing.T) {
	got := SanitizeTopics([]string{" BPC-157 ", "bpc-157", "ab", "- Selank.", "...", "Эпиталон"})
	want := []string{"BPC-157", "Selank", "Эпиталон"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ожидалось %v, получено %v", want, got)
	}
}

func TestTopicKey(t *testing.T) {
	if TopicKey("BPC-157") != TopicKey("bpc 157") {
		t.Fatalf("варианты записи одной темы должны давать один ключ")
	}
	if TopicKey("Epitalon") == TopicKey("Semax") {
		t.Fatalf("разные темы не должны совпадать по ключу")
	}
}

func TestGenerateDailyFiltersRecentTopics(t *testing.T) {
	client := &stubChatClient{responses: []string{"Конечно, вот список: BPC-157, Epitalon, Selank, Semax, Noopept"}}
	svc := NewTopicsService(client, "gpt-4o-mini", nil, zerolog.Nop())

	got, err := svc.GenerateDaily(context.Background(), []string{"BPC-157"}, 3)
	if err != nil {
		t.Fatalf("генерация тем вернула ошибку: %v", err)
	}
	want := []string{"Epitalon", "Selank", "Semax"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ожидалось %v, получено %v", want, got)
	}
}

func TestGenerateDailyRetriesWithRejected(t *testing.T) {
	client := &stubChatClient{responses: []string{
		"BPC-157",
		"Epitalon, Selank",
	}}
	svc := NewTopicsService(client, "gpt-4o-mini", nil, zerolog.Nop())

	got, err := svc.GenerateDaily(context.Background(), []string{"BPC-157"}, 5)
	if err != nil {
		t.Fatalf("генерация тем вернула ошибку: %v", err)
	}
	if len(got) != 2 || got[0] != "Epitalon" {
		t.Fatalf("вторая попытка должна дать свежие темы: %v", got)
	}
	if client.calls != 2 {
		t.Fatalf("ожидалось две попытки, было %d", client.calls)
	}
	lastPrompt := client.prompts[len(client.prompts)-1]
	if !strings.Contains(lastPrompt, "Ты уже предлагал: BPC-157") {
		t.Fatalf("отклонённые темы должны попадать в повторный промпт:\n%s", lastPrompt)
	}
}

func TestGenerateDailyGivesUpAfterAttempts(t *testing.T) {
	client := &stubChatClient{responses: []string{"BPC-157", "bpc 157", "BPC-157"}}
	svc := NewTopicsService(client, "gpt-4o-mini", nil, zerolog.Nop())

	got, err := svc.GenerateDaily(context.Background(), []string{"BPC-157"}, 5)
	if err != nil {
		t.Fatalf("генерация тем вернула ошибку: %v", err)
	}
	if got != nil {
		t.Fatalf("без свежих тем ожидается пустой список: %v", got)
	}
	if client.calls != 3 {
		t.Fatalf("ожидалось три попытки, было %d", client.calls)
	}
}
