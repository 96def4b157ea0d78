// Package metrics 定义身份引擎的 Prometheus 指标
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "identity"

// Metrics 引擎指标集合；nil 接收者上的方法都是空操作
type Metrics struct {
	deriveDuration   prometheus.Histogram
	curveDerivations *prometheus.CounterVec
	cacheLookups     *prometheus.CounterVec
}

// New 创建指标并注册到 reg；reg 为 nil 时只创建不注册
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		deriveDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "derive_duration_seconds",
			Help:      "Duration of full identity derivations.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
		}),
		curveDerivations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "curve_derivations_total",
			Help:      "Curve key pairs derived, by curve and result.",
		}, []string{"curve", "result"}),
		cacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plaintext_cache_total",
			Help:      "Plaintext cache lookups, by result.",
		}, []string{"result"}),
	}
}

func (m *Metrics) ObserveDerive(d time.Duration) {
	if m == nil {
		return
	}
	m.deriveDuration.Observe(d.Seconds())
}

func (m *Metrics) CurveDerived(curve string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.curveDerivations.WithLabelValues(curve, result).Inc()
}

func (m *Metrics) CacheHit() {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues("hit").Inc()
}

func (m *Metrics) CacheMiss() {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues("miss").Inc()
}
