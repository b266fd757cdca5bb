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

// ClinicalTrials ищет исследования через API v2 ClinicalTrials.gov.
// Реестр не журнал: в Journal пишется имя реестра, в DOI — ссылка на карточку.
type ClinicalTrials struct {
	client *http.Client
	log    zerolog.Logger
}

var _ domain.SourceConnector = (*ClinicalTrials)(nil)

// NewClinicalTrials создаёт коннектор ClinicalTrials.gov.
func NewClinicalTrials(client *http.Client, logger zerolog.Logger) *ClinicalTrials {
	return &ClinicalTrials{client: client, log: logger}
}

// Name возвращает имя коннектора.
func (c *ClinicalTrials) Name() string { return "clinicaltrials" }

type clinicalTrialsResponse struct {
	Studies []struct {
		ProtocolSection struct {
			IdentificationModule struct {
				NCTID      string `json:"nctId"`
				BriefTitle string `json:"briefTitle"`
			} `json:"identificationModule"`
			DescriptionModule struct {
				BriefSummary string `json:"briefSummary"`
			} `json:"descriptionModule"`
			StatusModule struct {
				StartDateStruct struct {
					Date string `json:"date"`
				} `json:"startDateStruct"`
			} `json:"statusModule"`
			SponsorCollaboratorsModule struct {
				LeadSponsor struct {
					Name string `json:"name"`
				} `json:"leadSponsor"`
			} `json:"sponsorCollaboratorsModule"`
		} `json:"protocolSection"`
	} `json:"studies"`
}

// Fetch выполняет поиск.
func (c *ClinicalTrials) Fetch(ctx context.Context, query string, maxResults int) []domain.SourceRecord {
	endpoint := fmt.Sprintf(
		"https://clinicaltrials.gov/api/v2/studies?query.term=%s&pageSize=%d",
		url.QueryEscape(query), maxResults,
	)
	var parsed clinicalTrialsResponse
	if err := fetchJSON(ctx, c.client, "clinicaltrials", "search", endpoint, &parsed); err != nil {
		c.log.Warn().Err(err).Msg("clinicaltrials: поиск не ответил")
		metrics.ConnectorErrors.WithLabelValues(c.Name()).Inc()
		return nil
	}

	records := make([]domain.SourceRecord, 0, len(parsed.Studies))
	for _, study := range parsed.Studies {
		section := study.ProtocolSection
		recordURL := ""
		if section.IdentificationModule.NCTID != "" {
			recordURL = "https://clinicaltrials.gov/study/" + section.IdentificationModule.NCTID
		}
		year := section.StatusModule.StartDateStruct.Date
		if len(year) > 4 {
			year = year[:4]
		}
		abstract := strings.TrimSpace(section.DescriptionModule.BriefSummary)
		if abstract == "" {
			abstract = section.IdentificationModule.BriefTitle
		}
		records = append(records, domain.SourceRecord{
			Journal:  "ClinicalTrials.gov",
			Year:     strings.TrimSpace(year),
			DOI:      recordURL,
			Authors:  section.SponsorCollaboratorsModule.LeadSponsor.Name,
			Abstract: abstract,
			URL:      recordURL,
		})
	}
	return records
}
