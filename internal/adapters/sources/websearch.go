package sources

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"biopeptide-research/internal/infra/metrics"
)

var yearMentionRe = regexp.MustCompile(`(?i)\b(2024|2025)\b`)

// Токены, без которых страница не считается академической.
var requiredPageTokens = []string{"journal", "abstract", "results", "doi:", "clinicaltrials"}

// WebSearch — деградационный поиск по открытой выдаче, когда академические
// апстримы ничего не вернули. Достоверность таких сниппетов ниже, поэтому
// заголовочный блок остаётся пустым и черновик пойдёт по строгому фильтру.
type WebSearch struct {
	client *http.Client
	log    zerolog.Logger
}

// NewWebSearch создаёт деградационный поиск.
func NewWebSearch(client *http.Client, logger zerolog.Logger) *WebSearch {
	return &WebSearch{client: client, log: logger}
}

// CollectFallback собирает сниппеты со страниц поисковой выдачи.
// Пустая строка означает, что по теме ничего достоверного не нашлось.
func (w *WebSearch) CollectFallback(ctx context.Context, keyword string, maxResults int) string {
	queries := []string{
		fmt.Sprintf(`site:pubmed.ncbi.nlm.nih.gov "%s" 2024..2025`, keyword),
		fmt.Sprintf(`site:clinicaltrials.gov "%s"`, keyword),
		fmt.Sprintf(`"%s" peer-reviewed study 2024 journal doi`, keyword),
	}

	var urls []string
	for _, query := range queries {
		urls = append(urls, w.searchURLs(ctx, query, maxResults)...)
	}
	urls = dedupeStrings(urls)
	if limit := maxResults * len(queries); len(urls) > limit {
		urls = urls[:limit]
	}

	var snippets []string
	for _, pageURL := range urls {
		text := w.fetchPageText(ctx, pageURL)
		if text == "" {
			continue
		}
		lower := strings.ToLower(text)
		tokenFound := false
		for _, token := range requiredPageTokens {
			if strings.Contains(lower, token) {
				tokenFound = true
				break
			}
		}
		if !tokenFound {
			continue
		}
		hits := yearWindows(text, 3)
		if len(hits) > 0 {
			snippets = append(snippets, "Source: "+pageURL+"\n"+strings.Join(hits, " ... "))
		}
		if len(snippets) >= maxResults {
			break
		}
	}
	if len(snippets) == 0 {
		return ""
	}

	header := []string{
		"SOURCE_JOURNAL: ",
		"SOURCE_DOI: ",
		"SOURCE_DATE: ",
		"SOURCE_AUTHORS: ",
		"This is a formal academic record from PubMed database",
	}
	return strings.Join(header, "\n") + "\n\n" + strings.Join(snippets, "\n\n")
}

// searchURLs разбирает HTML-выдачу DuckDuckGo.
func (w *WebSearch) searchURLs(ctx context.Context, query string, maxResults int) []string {
	endpoint := "https://html.duckduckgo.com/html/?q=" + url.QueryEscape(query)
	body, err := fetchBody(ctx, w.client, "websearch", "serp", endpoint)
	if err != nil {
		w.log.Warn().Err(err).Msg("websearch: выдача не ответила")
		metrics.ConnectorErrors.WithLabelValues("websearch").Inc()
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		w.log.Warn().Err(err).Msg("websearch: битый HTML выдачи")
		metrics.ConnectorErrors.WithLabelValues("websearch").Inc()
		return nil
	}

	var urls []string
	doc.Find("a.result__a").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, ok := sel.Attr("href")
		if !ok {
			return true
		}
		if resolved := resolveRedirect(href); resolved != "" {
			urls = append(urls, resolved)
		}
		return len(urls) < maxResults
	})
	return urls
}

func (w *WebSearch) fetchPageText(ctx context.Context, pageURL string) string {
	body, err := fetchBody(ctx, w.client, "websearch", "page", pageURL)
	if err != nil {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	doc.Find("script, style").Remove()
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// resolveRedirect вытаскивает целевой адрес из редиректной ссылки выдачи.
func resolveRedirect(href string) string {
	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if target := parsed.Query().Get("uddg"); target != "" {
		return target
	}
	if parsed.Scheme == "http" || parsed.Scheme == "https" {
		return href
	}
	return ""
}

// yearWindows возвращает окна текста вокруг упоминаний свежих годов,
// по 220 байт в обе стороны. Края окна прижимаются к границам рун,
// чтобы не резать многобайтовые символы пополам.
func yearWindows(text string, limit int) []string {
	var hits []string
	for _, loc := range yearMentionRe.FindAllStringIndex(text, -1) {
		start := loc[0] - 220
		if start < 0 {
			start = 0
		}
		for start > 0 && !utf8.RuneStart(text[start]) {
			start--
		}
		end := loc[1] + 220
		if end > len(text) {
			end = len(text)
		}
		for end < len(text) && !utf8.RuneStart(text[end]) {
			end++
		}
		hits = append(hits, text[start:end])
		if len(hits) >= limit {
			break
		}
	}
	return hits
}

func dedupeStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	var out []string
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
