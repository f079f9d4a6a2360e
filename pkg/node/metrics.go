package node

import (
	"context"
	"net/http"
	"time"

	"github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	fx "github.com/robotalks/pwmlink/pkg/framework"
	"github.com/robotalks/pwmlink/pkg/link"
)

// Receive results used as metric labels.
const (
	resultAccepted = "accepted"
)

// Metrics are the node counters exported to Prometheus.
type Metrics struct {
	FramesSent   prometheus.Counter
	SendErrors   prometheus.Counter
	FramesRecv   *prometheus.CounterVec // labels: result=accepted|noise|parse|stale
	ADCFaults    prometheus.Counter
	LastAccepted prometheus.Gauge
	Duty         prometheus.Gauge
	RealDuty     prometheus.Gauge
	PeerError    prometheus.Gauge
}

// NewMetrics creates and registers the node metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FramesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pwmlink_frames_sent_total",
			Help: "Frames sent to the peer.",
		}),
		SendErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pwmlink_send_errors_total",
			Help: "Frames that failed to send.",
		}),
		FramesRecv: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pwmlink_frames_received_total",
			Help: "Received lines by result.",
		}, []string{"result"}),
		ADCFaults: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pwmlink_adc_faults_total",
			Help: "Failed ADC conversions.",
		}),
		LastAccepted: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pwmlink_last_accepted_seq",
			Help: "Sequence of the last accepted frame, -1 if none.",
		}),
		Duty: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pwmlink_duty_percent",
			Help: "Commanded local duty cycle.",
		}),
		RealDuty: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pwmlink_real_duty_percent",
			Help: "Local duty cycle derived from the filtered voltage.",
		}),
		PeerError: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pwmlink_peer_error_percent",
			Help: "Last discrepancy reported by the peer.",
		}),
	}
	m.LastAccepted.Set(-1)
	reg.MustRegister(m.FramesSent, m.SendErrors, m.FramesRecv, m.ADCFaults,
		m.LastAccepted, m.Duty, m.RealDuty, m.PeerError)
	return m
}

func (m *Metrics) received(fault link.FaultKind) {
	label := fault.String()
	if fault == link.FaultNone {
		label = resultAccepted
	}
	m.FramesRecv.WithLabelValues(label).Inc()
}

// NewRegistry creates a registry with the Go runtime collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// MetricsServer serves /metrics.
type MetricsServer struct {
	Addr     string
	Gatherer prometheus.Gatherer
}

// Name implements Named.
func (s *MetricsServer) Name() string {
	return "metrics"
}

// Run implements Runnable.
func (s *MetricsServer) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: s.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	glog.Infof("serving metrics on %s", s.Addr)
	return fx.RunWithContextCancel(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}, func() error {
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			return err
		}
		return nil
	})
}
