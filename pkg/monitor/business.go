package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BusinessMetrics 定义 staking 业务监控指标
type BusinessMetrics struct {
	OperationsBuiltTotal    *prometheus.CounterVec
	BuildFailuresTotal      *prometheus.CounterVec
	ProviderRequestDuration *prometheus.HistogramVec
}

// Global Metrics Instance
var Business *BusinessMetrics

// InitBusinessMetrics 初始化业务指标
func InitBusinessMetrics() {
	Business = &BusinessMetrics{
		OperationsBuiltTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "staking_operations_built_total",
			Help: "The total number of unsigned staking operations built",
		}, []string{"operation"}),
		BuildFailuresTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "staking_build_failures_total",
			Help: "The total number of failed build requests",
		}, []string{"operation"}),
		ProviderRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "staking_provider_request_duration_seconds",
			Help:    "Duration of upstream staking provider requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"action"}),
	}
}

// ObserveOperationBuilt 累加构建成功计数。未初始化时为空操作，方便单元测试。
func ObserveOperationBuilt(operation string) {
	if Business == nil {
		return
	}
	Business.OperationsBuiltTotal.WithLabelValues(operation).Inc()
}

// ObserveBuildFailure 累加构建失败计数
func ObserveBuildFailure(operation string) {
	if Business == nil {
		return
	}
	Business.BuildFailuresTotal.WithLabelValues(operation).Inc()
}

// ObserveProviderRequest 记录一次上游服务商请求的耗时
func ObserveProviderRequest(action string, seconds float64) {
	if Business == nil {
		return
	}
	Business.ProviderRequestDuration.WithLabelValues(action).Observe(seconds)
}
