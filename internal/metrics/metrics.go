package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
)

const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Recorder 导入相关指标。nil Recorder 的方法均为空操作
type Recorder struct {
	registry      *prometheus.Registry
	importRecords *prometheus.CounterVec
	feedFetches   *prometheus.CounterVec
	importRuns    prometheus.Counter
	importSeconds prometheus.Histogram
}

// NewRecorder 使用独立 registry，测试之间互不干扰
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		registry: reg,
		importRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "game_catalog",
			Name:      "import_records_total",
			Help:      "Feed records processed by the bulk import, by platform and result.",
		}, []string{"platform", "result", "kind"}),
		feedFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "game_catalog",
			Name:      "feed_fetches_total",
			Help:      "Feed fetch attempts, by platform and result.",
		}, []string{"platform", "result"}),
		importRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "game_catalog",
			Name:      "import_runs_total",
			Help:      "Completed bulk import runs.",
		}),
		importSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "game_catalog",
			Name:      "import_duration_seconds",
			Help:      "Wall time of a bulk import run.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
	}
	reg.MustRegister(
		r.importRecords,
		r.feedFetches,
		r.importRuns,
		r.importSeconds,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// RecordImportRecord kind 为空表示成功
func (r *Recorder) RecordImportRecord(platform string, kind string) {
	if r == nil {
		return
	}
	result := ResultSuccess
	if kind != "" {
		result = ResultFailure
	}
	r.importRecords.WithLabelValues(platform, result, kind).Inc()
}

func (r *Recorder) RecordFeedFetch(platform string, err error) {
	if r == nil {
		return
	}
	result := ResultSuccess
	if err != nil {
		result = ResultFailure
	}
	r.feedFetches.WithLabelValues(platform, result).Inc()
}

func (r *Recorder) RecordImportRun(d time.Duration) {
	if r == nil {
		return
	}
	r.importRuns.Inc()
	r.importSeconds.Observe(d.Seconds())
}

// ImportRecords 当前计数，主要给测试用
func (r *Recorder) ImportRecords(platform, result, kind string) float64 {
	if r == nil {
		return 0
	}
	return counterValue(r.importRecords.WithLabelValues(platform, result, kind))
}

func (r *Recorder) FeedFetches(platform, result string) float64 {
	if r == nil {
		return 0
	}
	return counterValue(r.feedFetches.WithLabelValues(platform, result))
}

// Handler /metrics 暴露端点
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func counterValue(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}
