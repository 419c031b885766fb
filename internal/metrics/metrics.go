package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 分析流程的 Prometheus 指标
type Metrics struct {
	registry *prometheus.Registry

	AnalysesTotal     *prometheus.CounterVec   // labels: market, result
	AnalysisDuration  *prometheus.HistogramVec // labels: market
	FetchDuration     *prometheus.HistogramVec // labels: provider
	ScoreDistribution *prometheus.HistogramVec // labels: kind
	ScanSkipped       *prometheus.CounterVec   // labels: market
	NarrativeTotal    *prometheus.CounterVec   // labels: provider, result
	NameLookups       *prometheus.CounterVec   // labels: source
}

// NewMetrics 创建并注册指标
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		AnalysesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "augur_analyses_total",
			Help: "Total single-instrument analyses by result",
		}, []string{"market", "result"}),
		AnalysisDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "augur_analysis_duration_seconds",
			Help:    "End-to-end analysis latency",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"market"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "augur_fetch_duration_seconds",
			Help:    "Market data provider latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		ScoreDistribution: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "augur_score",
			Help:    "Distribution of computed scores",
			Buckets: []float64{0, 20, 40, 60, 80, 100},
		}, []string{"kind"}),
		ScanSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "augur_scan_skipped_total",
			Help: "Instruments skipped during batch scans because analysis failed",
		}, []string{"market"}),
		NarrativeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "augur_narrative_total",
			Help: "Narrative generations by provider and result",
		}, []string{"provider", "result"}),
		NameLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "augur_name_lookups_total",
			Help: "Instrument name resolutions by source",
		}, []string{"source"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.AnalysesTotal,
		m.AnalysisDuration,
		m.FetchDuration,
		m.ScoreDistribution,
		m.ScanSkipped,
		m.NarrativeTotal,
		m.NameLookups,
	)
	return m
}

// Handler /metrics 处理器
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry 指标注册表
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveAnalysis 记录一次分析
func (m *Metrics) ObserveAnalysis(market string, start time.Time, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.AnalysesTotal.WithLabelValues(market, result).Inc()
	m.AnalysisDuration.WithLabelValues(market).Observe(time.Since(start).Seconds())
}

// ObserveFetch 记录一次数据源请求
func (m *Metrics) ObserveFetch(provider string, start time.Time) {
	if m == nil {
		return
	}
	m.FetchDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())
}

// ObserveScore 记录评分
func (m *Metrics) ObserveScore(kind string, score int) {
	if m == nil {
		return
	}
	m.ScoreDistribution.WithLabelValues(kind).Observe(float64(score))
}

// IncScanSkipped 批量扫描跳过一个标的
func (m *Metrics) IncScanSkipped(market string) {
	if m == nil {
		return
	}
	m.ScanSkipped.WithLabelValues(market).Inc()
}

// IncNarrative 记录文本生成结果
func (m *Metrics) IncNarrative(provider, result string) {
	if m == nil {
		return
	}
	m.NarrativeTotal.WithLabelValues(provider, result).Inc()
}

// IncNameLookup 记录名称来源
func (m *Metrics) IncNameLookup(source string) {
	if m == nil {
		return
	}
	m.NameLookups.WithLabelValues(source).Inc()
}
