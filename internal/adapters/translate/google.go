package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"biopeptide-research/internal/domain"
	"biopeptide-research/internal/infra/metrics"
)

// Google переводит английский текст на русский. С ключом используется
// платный v2 API, без ключа — публичный endpoint с клиентом gtx.
type Google struct {
	http   *http.Client
	apiKey string
	log    zerolog.Logger
}

var _ domain.Translator = (*Google)(nil)

// NewGoogle создаёт переводчик.
func NewGoogle(apiKey string, logger zerolog.Logger) *Google {
	return &Google{
		http:   &http.Client{Timeout: 20 * time.Second},
		apiKey: apiKey,
		log:    logger,
	}
}

// Translate переводит текст. Пустой вход возвращается как есть.
func (g *Google) Translate(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", nil
	}
	if g.apiKey != "" {
		return g.translateV2(ctx, text)
	}
	return g.translateGTX(ctx, text)
}

type translateV2Response struct {
	Data struct {
		Translations []struct {
			TranslatedText string `json:"translatedText"`
		} `json:"translations"`
	} `json:"data"`
}

func (g *Google) translateV2(ctx context.Context, text string) (string, error) {
	endpoint := "https://translation.googleapis.com/language/translate/v2?key=" + url.QueryEscape(g.apiKey)
	payload, err := json.Marshal(map[string]string{"q": text, "target": "ru", "format": "text"})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := g.do(req, "translate_v2")
	if err != nil {
		return "", err
	}
	var parsed translateV2Response
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("translate: decode response: %w", err)
	}
	if len(parsed.Data.Translations) == 0 {
		return "", nil
	}
	return strings.TrimSpace(parsed.Data.Translations[0].TranslatedText), nil
}

func (g *Google) translateGTX(ctx context.Context, text string) (string, error) {
	params := url.Values{}
	params.Set("client", "gtx")
	params.Set("sl", "en")
	params.Set("tl", "ru")
	params.Set("dt", "t")
	params.Set("q", text)
	endpoint := "https://translate.googleapis.com/translate_a/single?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	body, err := g.do(req, "translate_gtx")
	if err != nil {
		return "", err
	}
	return ParseGTXResponse(body)
}

func (g *Google) do(req *http.Request, operation string) ([]byte, error) {
	start := time.Now()
	resp, err := g.http.Do(req)
	if err != nil {
		metrics.ObserveNetworkRequest("translate", operation, "google", start, err)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err == nil && resp.StatusCode >= 400 {
		err = fmt.Errorf("translate: unexpected status %d", resp.StatusCode)
	}
	metrics.ObserveNetworkRequest("translate", operation, "google", start, err)
	if err != nil {
		return nil, err
	}
	return body, nil
}

// ParseGTXResponse склеивает перевод из сегментов ответа gtx.
// Формат ответа — вложенные массивы без схемы, разбирается вручную.
func ParseGTXResponse(body []byte) (string, error) {
	var parsed []any
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("translate: decode gtx response: %w", err)
	}
	if len(parsed) == 0 {
		return "", nil
	}
	segments, ok := parsed[0].([]any)
	if !ok {
		return "", nil
	}
	var b strings.Builder
	for _, raw := range segments {
		segment, ok := raw.([]any)
		if !ok || len(segment) == 0 {
			continue
		}
		if part, ok := segment[0].(string); ok {
			b.WriteString(part)
		}
	}
	return strings.TrimSpace(b.String()), nil
}
