package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics 预测服务指标，nil 值上的方法为空操作
type Metrics struct {
	predictions *prometheus.CounterVec
	failures    *prometheus.CounterVec
	latency     prometheus.Histogram
	ready       prometheus.Gauge
}

// NewMetrics 创建并注册指标；reg 为 nil 时使用默认注册表
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bmipredict",
			Subsystem: "inference",
			Name:      "predictions_total",
			Help:      "Predictions served, by category.",
		}, []string{"category"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bmipredict",
			Subsystem: "inference",
			Name:      "failures_total",
			Help:      "Rejected or failed prediction requests, by kind.",
		}, []string{"kind"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "bmipredict",
			Subsystem: "inference",
			Name:      "duration_seconds",
			Help:      "Time spent encoding and scoring one request.",
			Buckets:   []float64{.0001, .00025, .0005, .001, .0025, .005, .01, .025, .05},
		}),
		ready: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "bmipredict",
			Subsystem: "inference",
			Name:      "model_ready",
			Help:      "1 once the classifier and label mapping are loaded.",
		}),
	}
	reg.MustRegister(m.predictions, m.failures, m.latency, m.ready)
	return m
}

// ObservePrediction 记录一次成功预测
func (m *Metrics) ObservePrediction(category string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.predictions.WithLabelValues(category).Inc()
	m.latency.Observe(elapsed.Seconds())
}

// ObserveFailure 记录一次失败，kind 取 "input"、"load" 或 "prediction"
func (m *Metrics) ObserveFailure(kind string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(kind).Inc()
}

// SetReady 设置模型就绪状态
func (m *Metrics) SetReady(ready bool) {
	if m == nil {
		return
	}
	if ready {
		m.ready.Set(1)
		return
	}
	m.ready.Set(0)
}
