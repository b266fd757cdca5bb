package domain

import "time"

// SourceRecord описывает нормализованную запись научного источника.
// Все поля строковые: апстримы отдают годы и счётчики цитирований в разных форматах.
type SourceRecord struct {
	Journal        string
	Year           string
	DOI            string
	Authors        string
	Abstract       string
	URL            string
	CitationsCount string
}

// Draft представляет кандидата статьи, разобранного из ответа модели.
type Draft struct {
	Title         string `json:"title"`
	ContentPro    string `json:"content_pro"`
	ContentLite   string `json:"content_lite"`
	ImageScenario string `json:"image_scenario"`
	ShouldPublish bool   `json:"should_publish"`
	SkipReason    string `json:"skip_reason"`
	StudyName     string `json:"specific_study_name"`
	StudyYear     string `json:"study_year"`
	StudyCitation string `json:"study_citation"`
	SampleSize    string `json:"study_sample_size"`

	// Поля происхождения, заполняются пайплайном, не моделью.
	IsAuto    bool   `json:"-"`
	SourceDOI string `json:"-"`
}

// Verdict содержит решение жёсткого фильтра по черновику.
type Verdict struct {
	Accepted bool
	Reason   string
}

// EvidenceLevel описывает силу доказательной базы исследования.
type EvidenceLevel string

const (
	EvidenceClinical     EvidenceLevel = "clinical"
	EvidenceInVitro      EvidenceLevel = "in vitro"
	EvidencePreclinical  EvidenceLevel = "preclinical"
	EvidenceMetaAnalysis EvidenceLevel = "meta-analysis"
	EvidenceUnknown      EvidenceLevel = "unknown"
)

// PublishCandidate хранит принятый черновик с обогащением после классификации.
// EvidenceLevel и BiologicalTargets всегда заполнены.
type PublishCandidate struct {
	Draft             Draft
	Topic             string
	EvidenceLevel     EvidenceLevel
	BiologicalTargets []string
	Tags              []string
	DOI               string
	CitationsCount    *int
	ImageURL          string
	ArticleURL        string
}

// Статусы записи очереди публикаций.
const (
	QueueStatusQueued    = "queued"
	QueueStatusPublished = "published"
)

// QueueEntry описывает строку очереди публикаций. Переход статуса один:
// queued → published, записи не удаляются.
type QueueEntry struct {
	ID               string
	ArticleURL       string
	Title            string
	Source           string
	Priority         int
	FullMessage      string
	Hook             string
	SiteAnnouncement string
	Status           string
	CreatedAt        time.Time
}

// PublishLogEntry фиксирует факт публикации в канал, только добавление.
type PublishLogEntry struct {
	ArticleURL  string
	ChatID      string
	PublishedAt time.Time
}

// JournalPost описывает полезную нагрузку публикации в контентное API журнала.
// Набор полей фиксирован белым списком на стороне API.
type JournalPost struct {
	Title         string   `json:"title"`
	Content       string   `json:"content"`
	ContentLite   string   `json:"content_lite"`
	Category      string   `json:"category"`
	Tags          []string `json:"tags"`
	ImageURL      string   `json:"image_url,omitempty"`
	DOI           string   `json:"doi,omitempty"`
	EvidenceLevel string   `json:"evidence_level"`
}

// KnowledgeEntry описывает запись базы знаний по теме.
type KnowledgeEntry struct {
	Topic        string
	KeyFinding   string
	CitationHint string
	RecordedAt   time.Time
}
