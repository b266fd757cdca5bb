package article

import "testing"

func TestParseDraftStrictJSON(t *testing.T) {
	raw := `{"title":"🧬 Тест","content_pro":"Pro","content_lite":"Lite","should_publish":true,"study_year":"2024"}`
	draft, err := ParseDraft(raw)
	if err != nil {
		t.Fatalf("разбор вернул ошибку: %v", err)
	}
	if draft == nil {
		t.Fatalf("ожидался черновик")
	}
	if draft.Title != "🧬 Тест" || draft.StudyYear != "2024" || !draft.ShouldPublish {
		t.Fatalf("поля разобраны неверно: %+v", draft)
	}
}

func TestParseDraftWrappedInMarkdown(t *testing.T) {
	raw := "Конечно, вот JSON:\n```json\n{\"title\":\"T\",\"content_pro\":\"P\",\"content_lite\":\"L\"}\n```\nГотово."
	draft, err := ParseDraft(raw)
	if err != nil {
		t.Fatalf("обрамлённый JSON должен разбираться: %v", err)
	}
	if draft == nil || draft.Title != "T" {
		t.Fatalf("неверный черновик: %+v", draft)
	}
}

func TestParseDraftEmptyObjectMeansSkip(t *testing.T) {
	draft, err := ParseDraft(`{}`)
	if err != nil {
		t.Fatalf("пустой объект не ошибка: %v", err)
	}
	if draft != nil {
		t.Fatalf("пустой объект означает пропуск, получено %+v", draft)
	}
}

func TestParseDraftGarbage(t *testing.T) {
	if _, err := ParseDraft("это не JSON вообще"); err == nil {
		t.Fatalf("мусор должен давать ошибку")
	}
}

func TestParseDraftIgnoresTrailingBrace(t *testing.T) {
	raw := "Ответ: {\"title\":\"T\",\"content_pro\":\"P\",\"content_lite\":\"L\"} } лишняя скобка"
	draft, err := ParseDraft(raw)
	if err != nil {
		t.Fatalf("скобка после объекта не должна ломать разбор: %v", err)
	}
	if draft == nil || draft.Title != "T" {
		t.Fatalf("неверный черновик: %+v", draft)
	}
}

func TestParseDraftBracesInsideStrings(t *testing.T) {
	raw := `текст {"title":"a } b","content_pro":"со \"скобкой\" {","content_lite":"L"} хвост`
	draft, err := ParseDraft(raw)
	if err != nil {
		t.Fatalf("скобки в строках не должны считаться: %v", err)
	}
	if draft == nil || draft.Title != "a } b" {
		t.Fatalf("неверный черновик: %+v", draft)
	}
}

func TestParseDraftUnknownFieldsIgnored(t *testing.T) {
	raw := `{"title":"T","content_pro":"P","content_lite":"L","extra_field":"x"}`
	draft, err := ParseDraft(raw)
	if err != nil || draft == nil {
		t.Fatalf("лишние поля не должны мешать разбору: %v", err)
	}
}
