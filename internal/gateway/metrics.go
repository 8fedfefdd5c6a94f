package gateway

import (
	"errors"
	"strconv"
	"time"

	"github.com/nao1215/authgate/internal/auth"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// サインイン方式のラベル値。
const (
	strategyLocal  = "local"
	strategyGoogle = "google"
)

// Metrics はゲートウェイのメトリクス。
type Metrics struct {
	SignIns          *prometheus.CounterVec
	UpstreamDuration *prometheus.HistogramVec
}

// NewMetrics はregに登録したMetricsを生成する。
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SignIns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "authgate_sign_ins_total",
			Help: "Total number of sign-in attempts by strategy and outcome",
		}, []string{"strategy", "outcome"}),
		UpstreamDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "authgate_upstream_request_duration_seconds",
			Help:    "Duration of proxied backend requests",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"method", "status"}),
	}
}

// RecordSignIn はサインインの結果を記録する。
func (m *Metrics) RecordSignIn(strategy string, err error) {
	outcome := "success"
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrAuthFailure):
		outcome = "failure"
	default:
		outcome = "error"
	}
	m.SignIns.WithLabelValues(strategy, outcome).Inc()
}

// ObserveUpstream はバックエンドへの転送にかかった時間を記録する。statusが0なら通信エラーとして扱う。
func (m *Metrics) ObserveUpstream(method string, status int, start time.Time) {
	label := "error"
	if status != 0 {
		label = strconv.Itoa(status)
	}
	m.UpstreamDuration.WithLabelValues(method, label).Observe(time.Since(start).Seconds())
}
