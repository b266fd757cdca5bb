package publish

import (
	"reflect"
	"testing"
)

func TestExtractPeptideNames(t *testing.T) {
	got := ExtractPeptideNames("Epitalon and BPC-157 improve GHK-4 uptake")
	want := []string{"BPC-157", "Epitalon", "GHK-4"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ожидалось %v, получено %v", want, got)
	}
	if names := ExtractPeptideNames("обычный текст без пептидов"); names != nil {
		t.Fatalf("без пептидов ожидается пустой список: %v", names)
	}
}

func TestIsCriticalUpdate(t *testing.T) {
	critical := Article{Title: "BPC-157 update", Content: "randomized trial in patients"}
	if !IsCriticalUpdate(critical) {
		t.Fatalf("клиника по пептиду ассортимента должна быть критической")
	}
	outOfStock := Article{Title: "GHK-4 update", Content: "randomized trial in patients"}
	if IsCriticalUpdate(outOfStock) {
		t.Fatalf("пептид вне ассортимента не критичен")
	}
	noClinical := Article{Title: "BPC-157 review", Content: "overview of mechanisms"}
	if IsCriticalUpdate(noClinical) {
		t.Fatalf("без клинических маркеров обновление не критично")
	}
}

func TestPriorityTiers(t *testing.T) {
	impact := 12.0
	tests := []struct {
		name string
		a    Article
		want int
	}{
		{"топовый домен", Article{URL: "https://www.nature.com/articles/x"}, 3},
		{"университет", Article{URL: "https://hopkinsmedicine.org/news/y"}, 2},
		{"высокий импакт-фактор", Article{URL: "https://example.org/z", ImpactFactor: &impact}, 2},
		{"обычный источник", Article{URL: "https://pubmed.ncbi.nlm.nih.gov/123"}, 1},
	}
	for _, tc := range tests {
		if got := Priority(tc.a); got != tc.want {
			t.Fatalf("%s: ожидался ярус %d, получен %d", tc.name, tc.want, got)
		}
	}
}

func TestSortArticlesOrder(t *testing.T) {
	plain := Article{Title: "Plain report", URL: "https://pubmed.ncbi.nlm.nih.gov/1", PublishedAt: "2023-01-01"}
	top := Article{Title: "Top report", URL: "https://www.nature.com/articles/2", PublishedAt: "2023-01-01"}
	critical := Article{Title: "BPC-157 clinical trial in patients", URL: "https://example.org/3"}

	articles := []Article{plain, top, critical}
	MarkDiscoveries(articles, nil)
	SortArticles(articles)

	if articles[0].Title != critical.Title {
		t.Fatalf("критическое обновление должно быть первым: %v", articles[0].Title)
	}
	if articles[1].Title != top.Title {
		t.Fatalf("топовый источник должен идти вторым: %v", articles[1].Title)
	}
}

func TestMarkDiscoveries(t *testing.T) {
	articles := []Article{
		{Title: "GHK-4 discovery", Summary: "new peptide"},
		{Title: "BPC-157 follow-up", Summary: "known peptide"},
	}
	known := KnownPeptides([]string{"BPC-157 in tendon healing"})
	MarkDiscoveries(articles, known)

	if !articles[0].IsNewDiscovery {
		t.Fatalf("неизвестный пептид должен помечаться открытием")
	}
	if articles[1].IsNewDiscovery {
		t.Fatalf("уже освещённый пептид не открытие")
	}
}

func TestInnovationScore(t *testing.T) {
	a := Article{Content: "high bioavailability formulation tested in mice"}
	if got := InnovationScore(a); got != 4 {
		t.Fatalf("ожидалось 4, получено %d", got)
	}
	if got := InnovationScore(Article{Content: "просто обзор"}); got != 0 {
		t.Fatalf("без маркеров ожидается 0, получено %d", got)
	}
}

func TestYearInRange(t *testing.T) {
	if !YearInRange(Article{PublishedAt: "2024-05-01"}, 2024, 2026) {
		t.Fatalf("2024 входит в диапазон")
	}
	if YearInRange(Article{PublishedAt: ""}, 2024, 2026) {
		t.Fatalf("пустая дата не проходит диапазон")
	}
	if YearInRange(Article{PublishedAt: "дата"}, 2024, 2026) {
		t.Fatalf("нечисловая дата не проходит диапазон")
	}
}
