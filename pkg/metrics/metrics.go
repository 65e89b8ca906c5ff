// Package metrics 提供 Prometheus 指标注册与暴露
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wyfcoding/tokenledger/pkg/logger"
)

// Metrics 账本服务指标集合
type Metrics struct {
	registry *prometheus.Registry

	// HTTP 请求计数（按方法、路径、状态码）
	HTTPRequestsTotal *prometheus.CounterVec
	// HTTP 请求耗时
	HTTPRequestDuration *prometheus.HistogramVec

	// 账本操作计数（按操作、结果）
	OperationsTotal *prometheus.CounterVec
	// 账本操作耗时
	OperationDuration *prometheus.HistogramVec
	// 转账笔数
	TransfersTotal prometheus.Counter
	// 收取的手续费（最小单位累加，按符号）
	FeeCollectedTotal *prometheus.CounterVec
}

// New 创建指标实例
func New(serviceName string) *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ledger",
			Subsystem: serviceName,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ledger",
			Subsystem: serviceName,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		OperationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ledger",
			Subsystem: serviceName,
			Name:      "operations_total",
			Help:      "Total ledger operations by operation and result",
		}, []string{"operation", "result"}),
		OperationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ledger",
			Subsystem: serviceName,
			Name:      "operation_duration_seconds",
			Help:      "Ledger operation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		TransfersTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ledger",
			Subsystem: serviceName,
			Name:      "transfers_total",
			Help:      "Total successful transfers",
		}),
		FeeCollectedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ledger",
			Subsystem: serviceName,
			Name:      "fee_collected_total",
			Help:      "Total transfer fee collected in minor units",
		}, []string{"symbol"}),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.OperationsTotal,
		m.OperationDuration,
		m.TransfersTotal,
		m.FeeCollectedTotal,
	)
	return m
}

// RecordOperation 记录一次账本操作的结果与耗时。nil 接收者安全，
// 便于在未启用指标的部署中直接跳过。
func (m *Metrics) RecordOperation(operation string, err error, start time.Time) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.OperationsTotal.WithLabelValues(operation, result).Inc()
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// RecordTransfer 记录一笔成功转账及其收取的手续费
func (m *Metrics) RecordTransfer(symbol string, feeMinorUnits int64) {
	if m == nil {
		return
	}
	m.TransfersTotal.Inc()
	if feeMinorUnits > 0 {
		m.FeeCollectedTotal.WithLabelValues(symbol).Add(float64(feeMinorUnits))
	}
}

// ExposeHTTP 启动独立的指标 HTTP 服务
func (m *Metrics) ExposeHTTP(port int, path string) {
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	addr := fmt.Sprintf(":%d", port)
	logger.Info(context.Background(), "metrics server starting", "addr", addr, "path", path)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error(context.Background(), "metrics server exited", "error", err)
	}
}
