package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"biopeptide-research/internal/domain"
	"biopeptide-research/internal/infra/metrics"
)

// SemanticScholar ищет статьи через Graph API Semantic Scholar.
type SemanticScholar struct {
	client *http.Client
	log    zerolog.Logger
}

var _ domain.SourceConnector = (*SemanticScholar)(nil)

// NewSemanticScholar создаёт коннектор Semantic Scholar.
func NewSemanticScholar(client *http.Client, logger zerolog.Logger) *SemanticScholar {
	return &SemanticScholar{client: client, log: logger}
}

// Name возвращает имя коннектора.
func (s *SemanticScholar) Name() string { return "semanticscholar" }

type semanticScholarResponse struct {
	Data []struct {
		Venue    string `json:"venue"`
		Year     *int   `json:"year"`
		DOI      string `json:"doi"`
		Abstract string `json:"abstract"`
		URL      string `json:"url"`
		Authors  []struct {
			Name string `json:"name"`
		} `json:"authors"`
		CitationCount *int `json:"citationCount"`
	} `json:"data"`
}

// Fetch выполняет поиск. Semantic Scholar единственный апстрим, который
// отдаёт счётчик цитирований.
func (s *SemanticScholar) Fetch(ctx context.Context, query string, maxResults int) []domain.SourceRecord {
	endpoint := fmt.Sprintf(
		"https://api.semanticscholar.org/graph/v1/paper/search?query=%s&limit=%d&fields=title,year,authors,venue,abstract,doi,url,citationCount",
		url.QueryEscape(query), maxResults,
	)
	var parsed semanticScholarResponse
	if err := fetchJSON(ctx, s.client, "semanticscholar", "search", endpoint, &parsed); err != nil {
		s.log.Warn().Err(err).Msg("semanticscholar: поиск не ответил")
		metrics.ConnectorErrors.WithLabelValues(s.Name()).Inc()
		return nil
	}

	records := make([]domain.SourceRecord, 0, len(parsed.Data))
	for _, item := range parsed.Data {
		var authors []string
		for _, author := range item.Authors {
			if author.Name != "" {
				authors = append(authors, author.Name)
			}
		}
		year := ""
		if item.Year != nil {
			year = fmt.Sprintf("%d", *item.Year)
		}
		citations := ""
		if item.CitationCount != nil {
			citations = fmt.Sprintf("%d", *item.CitationCount)
		}
		records = append(records, domain.SourceRecord{
			Journal:        strings.TrimSpace(item.Venue),
			Year:           year,
			DOI:            strings.TrimSpace(item.DOI),
			Authors:        strings.Join(authors, ", "),
			Abstract:       strings.TrimSpace(item.Abstract),
			URL:            strings.TrimSpace(item.URL),
			CitationsCount: citations,
		})
	}
	return records
}
