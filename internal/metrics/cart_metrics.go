package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// カート操作のメトリクス。
type CartMetrics struct {
	mutations         *prometheus.CounterVec // 操作別のカート変更回数
	quantityRejected  prometheus.Counter     // 上限超過で弾いた回数
	unresolvedLookups prometheus.Counter     // カタログ解決に失敗した明細数
	mergeTruncations  prometheus.Counter     // マージで数量が切り詰められた明細数
}

func NewCartMetrics() *CartMetrics {
	return newCartMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// テストから独立したRegistererを渡せるようにする。
func newCartMetricsWithRegisterer(registerer prometheus.Registerer) *CartMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &CartMetrics{
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_cart_mutations_total",
			Help: "Cart mutations by operation.",
		}, []string{"operation"}),
		quantityRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_cart_quantity_rejected_total",
			Help: "Quantity updates rejected by the per-item limit.",
		}),
		unresolvedLookups: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_cart_unresolved_lookups_total",
			Help: "Cart line items whose catalog lookup failed.",
		}),
		mergeTruncations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_cart_merge_truncations_total",
			Help: "Line items truncated by the quantity cap during guest cart merge.",
		}),
	}

	registerer.MustRegister(m.mutations, m.quantityRejected, m.unresolvedLookups, m.mergeTruncations)
	return m
}

func (m *CartMetrics) ObserveMutation(operation string) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(operation).Inc()
}

func (m *CartMetrics) ObserveQuantityRejected() {
	if m == nil {
		return
	}
	m.quantityRejected.Inc()
}

func (m *CartMetrics) ObserveUnresolvedLookup() {
	if m == nil {
		return
	}
	m.unresolvedLookups.Inc()
}

func (m *CartMetrics) ObserveMergeTruncation() {
	if m == nil {
		return
	}
	m.mergeTruncations.Inc()
}
