package sources

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestYearWindowsRuneBoundaries(t *testing.T) {
	text := strings.Repeat("я", 200) + " 2024 " + strings.Repeat("ё", 200)
	hits := yearWindows(text, 3)
	if len(hits) != 1 {
		t.Fatalf("ожидалось одно окно, получено %d", len(hits))
	}
	if !utf8.ValidString(hits[0]) {
		t.Fatalf("окно режет многобайтовую руну: %q", hits[0])
	}
	if !strings.Contains(hits[0], "2024") {
		t.Fatalf("окно должно содержать год: %q", hits[0])
	}
}

func TestYearWindowsLimit(t *testing.T) {
	text := strings.Repeat("trial in 2024 and follow-up in 2025. ", 10)
	hits := yearWindows(text, 3)
	if len(hits) != 3 {
		t.Fatalf("лимит окон нарушен: %d", len(hits))
	}
}

func TestResolveRedirect(t *testing.T) {
	got := resolveRedirect("//duckduckgo.com/l/?uddg=https%3A%2F%2Fwww.nature.com%2Farticles%2F1")
	if got != "https://www.nature.com/articles/1" {
		t.Fatalf("редирект разрешён неверно: %q", got)
	}
	if got := resolveRedirect("https://example.org/page"); got != "https://example.org/page" {
		t.Fatalf("прямая ссылка должна проходить как есть: %q", got)
	}
	if got := resolveRedirect("javascript:void(0)"); got != "" {
		t.Fatalf("не-http схема должна отбрасываться: %q", got)
	}
}
