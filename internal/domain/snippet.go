package domain

import "strings"

// Заголовочные строки, которыми агрегатор помечает каждую запись источника.
const (
	headerJournal   = "SOURCE_JOURNAL:"
	headerDOI       = "SOURCE_DOI:"
	headerDate      = "SOURCE_DATE:"
	headerAuthors   = "SOURCE_AUTHORS:"
	headerCitations = "SOURCE_CITATIONS:"
	headerURL       = "SOURCE_URL:"
)

// SourceMetadata содержит метаданные, разобранные из SOURCE_* заголовков.
type SourceMetadata struct {
	Journal        string
	DOI            string
	URL            string
	Year           string
	Authors        string
	CitationsCount string
}

// HasProvenance сообщает, подтверждён ли источник ссылкой (DOI или URL).
func (m SourceMetadata) HasProvenance() bool {
	return m.DOI != "" || m.URL != ""
}

// FormatSourceHeader печатает заголовочный блок записи источника.
// Порядок строк фиксирован: его разбирает ParseSourceMetadata и читает модель.
func FormatSourceHeader(rec SourceRecord) string {
	lines := []string{
		headerJournal + " " + rec.Journal,
		headerDOI + " " + rec.DOI,
		headerDate + " " + rec.Year,
		headerAuthors + " " + rec.Authors,
		headerCitations + " " + rec.CitationsCount,
		headerURL + " " + rec.URL,
	}
	return strings.Join(lines, "\n")
}

// ParseSourceMetadata выбирает метаданные из SOURCE_* строк текста источников.
// При нескольких записях побеждает первая непустая строка каждого поля.
func ParseSourceMetadata(sourceText string) SourceMetadata {
	var meta SourceMetadata
	for _, line := range strings.Split(sourceText, "\n") {
		switch {
		case strings.HasPrefix(line, headerJournal):
			setIfEmpty(&meta.Journal, line, headerJournal)
		case strings.HasPrefix(line, headerDOI):
			setIfEmpty(&meta.DOI, line, headerDOI)
		case strings.HasPrefix(line, headerURL):
			setIfEmpty(&meta.URL, line, headerURL)
		case strings.HasPrefix(line, headerDate):
			setIfEmpty(&meta.Year, line, headerDate)
		case strings.HasPrefix(line, headerAuthors):
			setIfEmpty(&meta.Authors, line, headerAuthors)
		case strings.HasPrefix(line, headerCitations):
			setIfEmpty(&meta.CitationsCount, line, headerCitations)
		}
	}
	return meta
}

func setIfEmpty(dst *string, line, prefix string) {
	if *dst != "" {
		return
	}
	*dst = strings.TrimSpace(strings.TrimPrefix(line, prefix))
}
