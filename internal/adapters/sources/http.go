package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"biopeptide-research/internal/infra/metrics"
)

const userAgent = "Mozilla/5.0"

func fetchBody(ctx context.Context, client *http.Client, component, operation, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		metrics.ObserveNetworkRequest(component, operation, "search", start, err)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err == nil && resp.StatusCode >= 400 {
		err = fmt.Errorf("%s: unexpected status %d", component, resp.StatusCode)
	}
	metrics.ObserveNetworkRequest(component, operation, "search", start, err)
	if err != nil {
		return nil, err
	}
	return body, nil
}

func fetchJSON(ctx context.Context, client *http.Client, component, operation, endpoint string, out any) error {
	body, err := fetchBody(ctx, client, component, operation, endpoint)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}
