package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

// HistogramBuckets are millisecond buckets sized for bank round trips, which
// routinely take seconds and are capped at the 120s gateway timeout.
var HistogramBuckets = []float64{
	25, 50, 100, 200, 400, 750,
	1000, 1500, 2000, 3000, 5000, 7500,
	10000, 15000, 30000, 60000, 90000, 120000,
}

// Metric is a definition for the name, description, type, ID, and
// prometheus.Collector type (i.e. CounterVec, Summary, etc) of each metric
type Metric struct {
	MetricCollector prometheus.Collector
	ID              string
	Name            string
	Description     string
	Type            string
	Args            []string
}

// NewMetric associates prometheus.Collector based on Metric.Type
func NewMetric(m *Metric, subsystem string) prometheus.Collector {
	switch m.Type {
	case "counter_vec":
		return prometheus.NewCounterVec(prometheus.CounterOpts{Subsystem: subsystem, Name: m.Name, Help: m.Description}, m.Args)
	case "counter":
		return prometheus.NewCounter(prometheus.CounterOpts{Subsystem: subsystem, Name: m.Name, Help: m.Description})
	case "gauge_vec":
		return prometheus.NewGaugeVec(prometheus.GaugeOpts{Subsystem: subsystem, Name: m.Name, Help: m.Description}, m.Args)
	case "gauge":
		return prometheus.NewGauge(prometheus.GaugeOpts{Subsystem: subsystem, Name: m.Name, Help: m.Description})
	case "histogram_vec":
		return prometheus.NewHistogramVec(prometheus.HistogramOpts{Subsystem: subsystem, Name: m.Name, Help: m.Description, Buckets: HistogramBuckets}, m.Args)
	case "histogram":
		return prometheus.NewHistogram(prometheus.HistogramOpts{Subsystem: subsystem, Name: m.Name, Help: m.Description, Buckets: HistogramBuckets})
	case "summary_vec":
		return prometheus.NewSummaryVec(prometheus.SummaryOpts{Subsystem: subsystem, Name: m.Name, Help: m.Description}, m.Args)
	case "summary":
		return prometheus.NewSummary(prometheus.SummaryOpts{Subsystem: subsystem, Name: m.Name, Help: m.Description})
	}
	return nil
}

// register adds c to reg, reusing an identical collector that is already
// registered so tests and fx restarts do not panic.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

const paymentSubsystem = "paygate"

var gatewayCalls = &Metric{
	ID:          "gwCalls",
	Name:        "gateway_calls_total",
	Description: "Adapter invocations partitioned by gateway, operation and outcome.",
	Type:        "counter_vec",
	Args:        []string{"gateway", "operation", "outcome"},
}

var gatewayLatency = &Metric{
	ID:          "gwDur",
	Name:        "gateway_call_dur_ms",
	Description: "Adapter call latency in milliseconds.",
	Type:        "histogram_vec",
	Args:        []string{"gateway", "operation"},
}

var gatewayHealthy = &Metric{
	ID:          "gwHealthy",
	Name:        "gateway_healthy",
	Description: "1 when the gateway is considered healthy by the health monitor.",
	Type:        "gauge_vec",
	Args:        []string{"gateway"},
}

var walletOps = &Metric{
	ID:          "walletOps",
	Name:        "wallet_operations_total",
	Description: "Committed wallet ledger entries by type.",
	Type:        "counter_vec",
	Args:        []string{"type"},
}

var expiredPayments = &Metric{
	ID:          "expired",
	Name:        "expired_payments_total",
	Description: "Payments expired by the cleanup sweep.",
	Type:        "counter",
}

// PaymentMetrics holds the domain collectors. A nil *PaymentMetrics is valid
// and records nothing.
type PaymentMetrics struct {
	calls   *prometheus.CounterVec
	latency *prometheus.HistogramVec
	healthy *prometheus.GaugeVec
	wallet  *prometheus.CounterVec
	expired prometheus.Counter
}

func NewPaymentMetrics(reg prometheus.Registerer) (*PaymentMetrics, error) {
	m := &PaymentMetrics{}
	var err error
	if m.calls, err = register(reg, NewMetric(gatewayCalls, paymentSubsystem).(*prometheus.CounterVec)); err != nil {
		return nil, err
	}
	if m.latency, err = register(reg, NewMetric(gatewayLatency, paymentSubsystem).(*prometheus.HistogramVec)); err != nil {
		return nil, err
	}
	if m.healthy, err = register(reg, NewMetric(gatewayHealthy, paymentSubsystem).(*prometheus.GaugeVec)); err != nil {
		return nil, err
	}
	if m.wallet, err = register(reg, NewMetric(walletOps, paymentSubsystem).(*prometheus.CounterVec)); err != nil {
		return nil, err
	}
	if m.expired, err = register(reg, NewMetric(expiredPayments, paymentSubsystem).(prometheus.Counter)); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *PaymentMetrics) ObserveGatewayCall(gateway, operation string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.calls.WithLabelValues(gateway, operation, outcome).Inc()
	m.latency.WithLabelValues(gateway, operation).Observe(float64(elapsed) / float64(time.Millisecond))
}

func (m *PaymentMetrics) SetGatewayHealthy(gateway string, healthy bool) {
	if m == nil {
		return
	}
	v := 0.0
	if healthy {
		v = 1
	}
	m.healthy.WithLabelValues(gateway).Set(v)
}

func (m *PaymentMetrics) IncWalletOp(kind string) {
	if m == nil {
		return
	}
	m.wallet.WithLabelValues(kind).Inc()
}

func (m *PaymentMetrics) AddExpired(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.expired.Add(float64(n))
}

const (
	RefererKey = "X-Referer"
)

var Module = fx.Options(
	fx.Provide(func() prometheus.Registerer { return prometheus.DefaultRegisterer }),
	fx.Provide(NewPaymentMetrics),
)
