package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// 缓存查询结果
const (
	CacheHit           = "hit"
	CacheMiss          = "miss"
	CacheCoalesced     = "coalesced"
	CacheStaleFallback = "stale_fallback"
	CacheError         = "error"
)

// Metrics 社交模块的指标集合，nil 接收者上的调用全部忽略
type Metrics struct {
	CacheLookups    *prometheus.CounterVec
	ReactionToggles *prometheus.CounterVec
	Comments        *prometheus.CounterVec
	FetchSeconds    *prometheus.HistogramVec
}

// New 创建并注册指标
func New(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "social_cache_lookups_total",
			Help: "Cache-aside lookups by key family and result",
		}, []string{"family", "result"}),
		ReactionToggles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "social_reaction_toggles_total",
			Help: "Reaction toggles by kind and result",
		}, []string{"kind", "result"}),
		Comments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "social_comments_total",
			Help: "Comment submissions by kind (comment/reply) and result",
		}, []string{"kind", "result"}),
		FetchSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "social_fetch_seconds",
			Help:    "Duration of underlying fetches on cache miss",
			Buckets: prometheus.DefBuckets,
		}, []string{"family"}),
	}
	if registerer != nil {
		registerer.MustRegister(m.CacheLookups, m.ReactionToggles, m.Comments, m.FetchSeconds)
	}
	return m
}

func (m *Metrics) CacheLookup(family, result string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(family, result).Inc()
}

func (m *Metrics) ObserveFetch(family string, seconds float64) {
	if m == nil {
		return
	}
	m.FetchSeconds.WithLabelValues(family).Observe(seconds)
}

func (m *Metrics) Toggle(kind, result string) {
	if m == nil {
		return
	}
	m.ReactionToggles.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) Comment(kind, result string) {
	if m == nil {
		return
	}
	m.Comments.WithLabelValues(kind, result).Inc()
}
