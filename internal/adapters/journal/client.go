package journal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"biopeptide-research/internal/domain"
	"biopeptide-research/internal/infra/metrics"
)

// Client публикует статьи в контентное API журнала.
// API принимает только белый список полей, поэтому полезная нагрузка
// сериализуется из domain.JournalPost без дополнительных ключей.
type Client struct {
	http     *http.Client
	endpoint string
	log      zerolog.Logger
}

var _ domain.JournalPublisher = (*Client)(nil)

// NewClient создаёт клиента журнала.
func NewClient(endpoint string, logger zerolog.Logger) *Client {
	return &Client{
		http:     &http.Client{Timeout: 30 * time.Second},
		endpoint: endpoint,
		log:      logger,
	}
}

// Publish отправляет статью и возвращает ID созданного поста.
func (c *Client) Publish(ctx context.Context, post domain.JournalPost) (string, error) {
	body, err := json.Marshal(post)
	if err != nil {
		return "", fmt.Errorf("journal: marshal post: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("journal: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ObserveNetworkRequest("journal", "publish", "journal-bot", start, err)
		return "", fmt.Errorf("journal: do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err == nil && resp.StatusCode >= 400 {
		err = fmt.Errorf("journal: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	metrics.ObserveNetworkRequest("journal", "publish", "journal-bot", start, err)
	if err != nil {
		return "", err
	}
	return extractPostID(respBody), nil
}

// extractPostID достаёт ID поста из ответа API. API исторически отвечало
// то {"id": ...}, то {"post_id": ...}, поэтому проверяются оба ключа.
func extractPostID(body []byte) string {
	var parsed map[string]any
	if err := json.Unmarshal(body, &parsed); err != nil {
		return ""
	}
	for _, key := range []string{"id", "post_id"} {
		switch v := parsed[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return fmt.Sprintf("%.0f", v)
		}
	}
	return ""
}
