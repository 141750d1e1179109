package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "openroad"

// Metrics holds the pipeline metric instruments.
type Metrics struct {
	AnalysesStarted   metric.Int64Counter
	AnalysesCompleted metric.Int64Counter
	AnalysesFailed    metric.Int64Counter
	CacheHits         metric.Int64Counter
	PipelineDuration  metric.Float64Histogram
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.AnalysesStarted, err = meter.Int64Counter("openroad.analyses.started",
		metric.WithDescription("Number of repository analyses started"))
	if err != nil {
		return nil, err
	}

	m.AnalysesCompleted, err = meter.Int64Counter("openroad.analyses.completed",
		metric.WithDescription("Number of repository analyses completed"))
	if err != nil {
		return nil, err
	}

	m.AnalysesFailed, err = meter.Int64Counter("openroad.analyses.failed",
		metric.WithDescription("Number of repository analyses failed"))
	if err != nil {
		return nil, err
	}

	m.CacheHits, err = meter.Int64Counter("openroad.cache.hits",
		metric.WithDescription("Number of roadmap cache hits"))
	if err != nil {
		return nil, err
	}

	m.PipelineDuration, err = meter.Float64Histogram("openroad.pipeline.duration_seconds",
		metric.WithDescription("End-to-end analyze pipeline duration in seconds"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
