package translate

import "testing"

func TestParseGTXResponse(t *testing.T) {
	body := `[[["Пептид ускоряет ","The peptide accelerates ",null,null,3],["заживление.","healing.",null,null,3]],null,"en"]`
	got, err := ParseGTXResponse([]byte(body))
	if err != nil {
		t.Fatalf("разбор вернул ошибку: %v", err)
	}
	if got != "Пептид ускоряет заживление." {
		t.Fatalf("неверный перевод: %q", got)
	}
}

func TestParseGTXResponseEmpty(t *testing.T) {
	got, err := ParseGTXResponse([]byte(`[]`))
	if err != nil {
		t.Fatalf("пустой ответ не должен давать ошибку: %v", err)
	}
	if got != "" {
		t.Fatalf("ожидалась пустая строка, получено %q", got)
	}
}

func TestParseGTXResponseGarbage(t *testing.T) {
	if _, err := ParseGTXResponse([]byte(`not json`)); err == nil {
		t.Fatalf("битый ответ должен давать ошибку")
	}
}
