package metrics

// HTTP request metrics for gin, adapted from github.com/zsais/go-gin-prometheus
// with an injectable registerer and logger and without the push gateway.

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var reqCnt = &Metric{
	ID:          "reqCnt",
	Name:        "req_total",
	Description: "How many HTTP requests processed, partitioned by status code and HTTP method.",
	Type:        "counter_vec",
	Args:        []string{"code", "method", "url", "ref"},
}

var reqDur = &Metric{
	ID:          "reqDur",
	Name:        "req_dur_ms",
	Description: "The HTTP request latencies in milliseconds.",
	Type:        "histogram_vec",
	Args:        []string{"code", "method", "url", "ref"},
}

var resSz = &Metric{
	ID:          "resSz",
	Name:        "resp_sz_bytes",
	Description: "The HTTP response sizes in bytes.",
	Type:        "summary_vec",
	Args:        []string{"code", "method", "url", "ref"},
}

const defaultMetricPath = "/metrics"

type Logger interface {
	Errorf(format string, v ...interface{})
	Infow(msg string, keysAndValues ...interface{})
}

// URLLabelFn maps a request to the "url" label. Use the route template to keep
// cardinality bounded, e.g. "/api/v1/payment/transaction/:id".
type URLLabelFn func(c *gin.Context) string

// Prometheus collects HTTP metrics and serves them on a separate listener.
type Prometheus struct {
	reqCnt *prometheus.CounterVec
	reqDur *prometheus.HistogramVec
	resSz  *prometheus.SummaryVec

	gatherer      prometheus.Gatherer
	listenAddress string
	metricsPath   string
	urlLabel      URLLabelFn
	logger        Logger
	srv           *http.Server
}

type NewPrometheusOptions struct {
	Subsystem   string
	MetricsPath string
	Registerer  prometheus.Registerer
	Gatherer    prometheus.Gatherer
	URLLabelFn  URLLabelFn
	Logger      Logger
}

func NewPrometheus(options NewPrometheusOptions) (*Prometheus, error) {
	p := &Prometheus{
		metricsPath: options.MetricsPath,
		urlLabel:    options.URLLabelFn,
		logger:      options.Logger,
		gatherer:    options.Gatherer,
	}
	if p.metricsPath == "" {
		p.metricsPath = defaultMetricPath
	}
	if p.urlLabel == nil {
		p.urlLabel = func(c *gin.Context) string {
			if fp := c.FullPath(); fp != "" {
				return fp
			}
			return "unmatched"
		}
	}
	reg := options.Registerer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if p.gatherer == nil {
		p.gatherer = prometheus.DefaultGatherer
	}

	var err error
	if p.reqCnt, err = register(reg, NewMetric(reqCnt, options.Subsystem).(*prometheus.CounterVec)); err != nil {
		return nil, err
	}
	if p.reqDur, err = register(reg, NewMetric(reqDur, options.Subsystem).(*prometheus.HistogramVec)); err != nil {
		return nil, err
	}
	if p.resSz, err = register(reg, NewMetric(resSz, options.Subsystem).(*prometheus.SummaryVec)); err != nil {
		return nil, err
	}
	return p, nil
}

// SetListenAddress exposes metrics on a dedicated address instead of the API engine,
// which keeps GET /metrics out of the access log.
func (p *Prometheus) SetListenAddress(address string) {
	p.listenAddress = address
}

func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.gatherer, promhttp.HandlerOpts{})
}

// Use adds the middleware to e and mounts the metrics endpoint, either on e
// or on the dedicated listener.
func (p *Prometheus) Use(e *gin.Engine) {
	e.Use(p.HandlerFunc())
	if p.listenAddress == "" {
		e.GET(p.metricsPath, gin.WrapH(p.Handler()))
		return
	}
	mux := http.NewServeMux()
	mux.Handle(p.metricsPath, p.Handler())
	p.srv = &http.Server{Addr: p.listenAddress, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := p.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed && p.logger != nil {
			p.logger.Errorf("metrics server error: %v", err)
		}
	}()
	if p.logger != nil {
		p.logger.Infow("metrics started", "addr", p.listenAddress, "path", p.metricsPath)
	}
}

func (p *Prometheus) Shutdown(ctx context.Context) error {
	if p.srv == nil {
		return nil
	}
	return p.srv.Shutdown(ctx)
}

// HandlerFunc defines handler function for middleware
func (p *Prometheus) HandlerFunc() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == p.metricsPath {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		url := p.urlLabel(c)
		ref := c.Request.Header.Get(RefererKey)

		p.reqDur.WithLabelValues(status, c.Request.Method, url, ref).Observe(MillisecondsSince(start))
		p.reqCnt.WithLabelValues(status, c.Request.Method, url, ref).Inc()
		p.resSz.WithLabelValues(status, c.Request.Method, url, ref).Observe(float64(c.Writer.Size()))
	}
}

func MillisecondsSince(t time.Time) float64 {
	return float64(time.Since(t)) / float64(time.Millisecond)
}
