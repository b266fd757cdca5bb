package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	ConnectorErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "connector_errors_total",
		Help: "Ошибки коннекторов источников",
	}, []string{"connector"})

	TopicsProcessed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pipeline_topics_processed_total",
		Help: "Количество обработанных тем за все запуски",
	})

	TopicsSkipped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeline_topics_skipped_total",
		Help: "Пропущенные темы по причинам",
	}, []string{"reason"})

	DraftsRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "drafts_rejected_total",
		Help: "Черновики, отклонённые жёстким фильтром",
	}, []string{"reason"})

	QueueEnqueued = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "publish_queue_enqueued_total",
		Help: "Записи, поставленные в очередь публикаций",
	})

	QueuePublished = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "publish_queue_published_total",
		Help: "Записи очереди, доставленные в канал",
	})

	SendErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chat_send_errors_total",
		Help: "Ошибки отправки сообщений в канал",
	})

	NetworkRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "network_request_duration_seconds",
		Help:    "Длительность сетевых запросов",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 15, 20, 30, 45, 60, 90, 120, 180},
	}, []string{"component", "operation", "target", "status"})

	NetworkRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "network_request_total",
		Help: "Количество сетевых запросов",
	}, []string{"component", "operation", "target", "status"})

	LLMGenerationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "llm_generation_duration_seconds",
		Help:    "Длительность генерации ответа LLM",
		Buckets: prometheus.DefBuckets,
	}, []string{"model"})

	LLMTokensTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "llm_tokens_total",
		Help: "Количество токенов, использованных LLM",
	}, []string{"model", "type"})
)

// MustRegister регистрирует метрики.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		ConnectorErrors,
		TopicsProcessed,
		TopicsSkipped,
		DraftsRejected,
		QueueEnqueued,
		QueuePublished,
		SendErrors,
		NetworkRequestDuration,
		NetworkRequestTotal,
		LLMGenerationDuration,
		LLMTokensTotal,
	)
}

// ObserveNetworkRequest записывает длительность и статус сетевого запроса.
func ObserveNetworkRequest(component, operation, target string, start time.Time, err error) {
	if component == "" {
		component = "unknown"
	}
	if operation == "" {
		operation = "unknown"
	}
	if target == "" {
		target = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	duration := time.Since(start).Seconds()
	NetworkRequestDuration.WithLabelValues(component, operation, target, status).Observe(duration)
	NetworkRequestTotal.WithLabelValues(component, operation, target, status).Inc()
}

// ObserveLLMGeneration записывает длительность и токены генерации LLM.
func ObserveLLMGeneration(model string, duration time.Duration, promptTokens, completionTokens, totalTokens int) {
	if model == "" {
		model = "unknown"
	}
	LLMGenerationDuration.WithLabelValues(model).Observe(duration.Seconds())
	if promptTokens > 0 {
		LLMTokensTotal.WithLabelValues(model, "prompt").Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		LLMTokensTotal.WithLabelValues(model, "completion").Add(float64(completionTokens))
	}
	if totalTokens <= 0 {
		totalTokens = promptTokens + completionTokens
	}
	if totalTokens > 0 {
		LLMTokensTotal.WithLabelValues(model, "total").Add(float64(totalTokens))
	}
}
