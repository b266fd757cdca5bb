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

// EuropePMC ищет статьи через REST API Europe PMC.
type EuropePMC struct {
	client *http.Client
	log    zerolog.Logger
}

var _ domain.SourceConnector = (*EuropePMC)(nil)

// NewEuropePMC создаёт коннектор Europe PMC.
func NewEuropePMC(client *http.Client, logger zerolog.Logger) *EuropePMC {
	return &EuropePMC{client: client, log: logger}
}

// Name возвращает имя коннектора.
func (e *EuropePMC) Name() string { return "europepmc" }

type europePMCResponse struct {
	ResultList struct {
		Result []struct {
			JournalTitle    string `json:"journalTitle"`
			PubYear         string `json:"pubYear"`
			DOI             string `json:"doi"`
			AuthorString    string `json:"authorString"`
			AbstractText    string `json:"abstractText"`
			FullTextURLList struct {
				FullTextURL []struct {
					URL string `json:"url"`
				} `json:"fullTextUrl"`
			} `json:"fullTextUrlList"`
		} `json:"result"`
	} `json:"resultList"`
}

// Fetch выполняет поиск.
func (e *EuropePMC) Fetch(ctx context.Context, query string, maxResults int) []domain.SourceRecord {
	endpoint := fmt.Sprintf(
		"https://www.ebi.ac.uk/europepmc/webservices/rest/search?query=%s&pageSize=%d&format=json",
		url.QueryEscape(query), maxResults,
	)
	var parsed europePMCResponse
	if err := fetchJSON(ctx, e.client, "europepmc", "search", endpoint, &parsed); err != nil {
		e.log.Warn().Err(err).Msg("europepmc: поиск не ответил")
		metrics.ConnectorErrors.WithLabelValues(e.Name()).Inc()
		return nil
	}

	records := make([]domain.SourceRecord, 0, len(parsed.ResultList.Result))
	for _, item := range parsed.ResultList.Result {
		fullText := ""
		if urls := item.FullTextURLList.FullTextURL; len(urls) > 0 {
			fullText = urls[0].URL
		}
		records = append(records, domain.SourceRecord{
			Journal:  strings.TrimSpace(item.JournalTitle),
			Year:     strings.TrimSpace(item.PubYear),
			DOI:      strings.TrimSpace(item.DOI),
			Authors:  strings.TrimSpace(item.AuthorString),
			Abstract: strings.TrimSpace(item.AbstractText),
			URL:      strings.TrimSpace(fullText),
		})
	}
	return records
}
