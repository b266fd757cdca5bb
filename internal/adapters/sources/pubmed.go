package sources

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"biopeptide-research/internal/domain"
	"biopeptide-research/internal/infra/metrics"
)

const pubmedBaseURL = "https://pubmed.ncbi.nlm.nih.gov/"

// PubMed ищет статьи через E-utilities: esearch выдаёт ID, efetch — записи.
type PubMed struct {
	client   *http.Client
	log      zerolog.Logger
	yearFrom int
	yearTo   int
}

var _ domain.SourceConnector = (*PubMed)(nil)

// NewPubMed создаёт коннектор PubMed.
func NewPubMed(client *http.Client, logger zerolog.Logger, yearFrom, yearTo int) *PubMed {
	return &PubMed{client: client, log: logger, yearFrom: yearFrom, yearTo: yearTo}
}

// Name возвращает имя коннектора.
func (p *PubMed) Name() string { return "pubmed" }

type pubmedSearchResponse struct {
	ESearchResult struct {
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

type pubmedArticleSet struct {
	Articles []pubmedArticle `xml:"PubmedArticle"`
}

type pubmedArticle struct {
	Journal     string            `xml:"MedlineCitation>Article>Journal>Title"`
	Year        string            `xml:"MedlineCitation>Article>Journal>JournalIssue>PubDate>Year"`
	ELocationID []pubmedELocation `xml:"MedlineCitation>Article>ELocationID"`
	Abstract    []string          `xml:"MedlineCitation>Article>Abstract>AbstractText"`
	Authors     []pubmedAuthor    `xml:"MedlineCitation>Article>AuthorList>Author"`
}

type pubmedELocation struct {
	EIdType string `xml:"EIdType,attr"`
	Value   string `xml:",chardata"`
}

type pubmedAuthor struct {
	LastName string `xml:"LastName"`
	Initials string `xml:"Initials"`
}

// Fetch выполняет поиск с фильтром по годам публикации.
func (p *PubMed) Fetch(ctx context.Context, query string, maxResults int) []domain.SourceRecord {
	term := url.QueryEscape(fmt.Sprintf("%s AND (%d[dp]:%d[dp])", query, p.yearFrom, p.yearTo))
	endpoint := fmt.Sprintf(
		"https://eutils.ncbi.nlm.nih.gov/entrez/eutils/esearch.fcgi?db=pubmed&retmode=json&retmax=%d&term=%s",
		maxResults, term,
	)
	var search pubmedSearchResponse
	if err := fetchJSON(ctx, p.client, "pubmed", "esearch", endpoint, &search); err != nil {
		p.log.Warn().Err(err).Msg("pubmed: esearch не ответил")
		metrics.ConnectorErrors.WithLabelValues(p.Name()).Inc()
		return nil
	}
	ids := search.ESearchResult.IDList
	if len(ids) == 0 {
		return nil
	}

	fetchEndpoint := "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/efetch.fcgi?db=pubmed&retmode=xml&id=" + strings.Join(ids, ",")
	body, err := fetchBody(ctx, p.client, "pubmed", "efetch", fetchEndpoint)
	if err != nil {
		p.log.Warn().Err(err).Msg("pubmed: efetch не ответил")
		metrics.ConnectorErrors.WithLabelValues(p.Name()).Inc()
		return nil
	}
	var set pubmedArticleSet
	if err := xml.Unmarshal(body, &set); err != nil {
		p.log.Warn().Err(err).Msg("pubmed: битый XML")
		metrics.ConnectorErrors.WithLabelValues(p.Name()).Inc()
		return nil
	}

	records := make([]domain.SourceRecord, 0, len(set.Articles))
	for _, article := range set.Articles {
		doi := ""
		for _, eloc := range article.ELocationID {
			if eloc.EIdType == "doi" {
				doi = strings.TrimSpace(eloc.Value)
				break
			}
		}
		var abstractParts []string
		for _, part := range article.Abstract {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				abstractParts = append(abstractParts, trimmed)
			}
		}
		var authors []string
		for _, author := range article.Authors {
			last := strings.TrimSpace(author.LastName)
			initials := strings.TrimSpace(author.Initials)
			switch {
			case last != "" && initials != "":
				authors = append(authors, last+" "+initials)
			case last != "":
				authors = append(authors, last)
			}
		}
		records = append(records, domain.SourceRecord{
			Journal:  strings.TrimSpace(article.Journal),
			Year:     strings.TrimSpace(article.Year),
			DOI:      doi,
			Authors:  strings.Join(authors, ", "),
			Abstract: strings.Join(abstractParts, " "),
			URL:      pubmedBaseURL,
		})
	}
	return records
}
