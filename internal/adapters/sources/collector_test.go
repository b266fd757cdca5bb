package sources

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"biopeptide-research/internal/domain"
	"biopeptide-research/internal/infra/cache"
)

type stubConnector struct {
	name    string
	records []domain.SourceRecord
}

func (s stubConnector) Name() string { return s.name }

func (s stubConnector) Fetch(_ context.Context, _ string, _ int) []domain.SourceRecord {
	return s.records
}

func TestCollectorJoinsRecordsInConnectorOrder(t *testing.T) {
	first := stubConnector{name: "pubmed", records: []domain.SourceRecord{{
		Journal:  "Nature Aging",
		Year:     "2024",
		DOI:      "10.1038/s43587-024-0001",
		Authors:  "Petrov I",
		Abstract: "Epitalon extended telomeres in trial participants.",
		URL:      "https://pubmed.ncbi.nlm.nih.gov/",
	}}}
	second := stubConnector{name: "clinicaltrials", records: []domain.SourceRecord{{
		Journal:  "ClinicalTrials.gov",
		Year:     "2025",
		DOI:      "https://clinicaltrials.gov/study/NCT0001",
		Authors:  "Sponsor LLC",
		Abstract: "Randomized trial of SS-31 in mitochondrial disease.",
		URL:      "https://clinicaltrials.gov/study/NCT0001",
	}}}

	collector := NewCollector([]domain.SourceConnector{first, second}, nil, cache.NewNoop(), zerolog.Nop(), 0)
	got := collector.Collect(context.Background(), "peptides", 3)

	firstIdx := strings.Index(got, "Epitalon extended telomeres")
	secondIdx := strings.Index(got, "Randomized trial of SS-31")
	if firstIdx == -1 || secondIdx == -1 {
		t.Fatalf("в тексте нет аннотаций обоих источников:\n%s", got)
	}
	if firstIdx > secondIdx {
		t.Fatalf("записи PubMed должны идти раньше ClinicalTrials")
	}
	if !strings.Contains(got, "SOURCE_JOURNAL: Nature Aging") {
		t.Fatalf("нет заголовочного блока PubMed:\n%s", got)
	}
	if !strings.Contains(got, markerClinicalTrials) {
		t.Fatalf("записи ClinicalTrials не хватает маркера формальной записи")
	}
}

func TestCollectorSkipsRecordsWithoutAbstract(t *testing.T) {
	conn := stubConnector{name: "europepmc", records: []domain.SourceRecord{{
		Journal: "Cell Metabolism",
		Year:    "2024",
		DOI:     "10.1016/j.cmet.2024.01.001",
	}}}
	collector := NewCollector([]domain.SourceConnector{conn}, nil, cache.NewNoop(), zerolog.Nop(), 0)
	if got := collector.Collect(context.Background(), "peptides", 3); got != "" {
		t.Fatalf("запись без аннотации должна отбрасываться, получено: %q", got)
	}
}

func TestFormatRecordMarksIncompletePubmed(t *testing.T) {
	block := formatRecord("pubmed", domain.SourceRecord{
		Abstract: "Thymalin restored immune markers.",
		URL:      "https://pubmed.ncbi.nlm.nih.gov/",
	})
	if !strings.Contains(block, markerPubMed) {
		t.Fatalf("неполная запись PubMed должна получить маркер:\n%s", block)
	}
	if !strings.Contains(block, "SOURCE_DOI: "+pubmedBaseURL) {
		t.Fatalf("пустой DOI должен замещаться базовым адресом PubMed:\n%s", block)
	}
}

func TestFormatRecordCompletePubmedHasNoMarker(t *testing.T) {
	block := formatRecord("pubmed", domain.SourceRecord{
		Journal:  "GeroScience",
		Year:     "2025",
		DOI:      "10.1007/s11357-025-0001",
		Abstract: "GHK-Cu improved skin elasticity.",
		URL:      "https://pubmed.ncbi.nlm.nih.gov/",
	})
	if strings.Contains(block, markerPubMed) {
		t.Fatalf("полная запись PubMed не должна получать маркер:\n%s", block)
	}
}
