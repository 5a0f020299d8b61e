package relay

import (
	"context"
	"errors"
	goLog "log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	metricsNamespace = "veilchat"
	metricsSubsystem = "relay"
)

// Metrics are the relay's Prometheus instruments. A nil *Metrics records
// nothing.
type Metrics struct {
	connected     prometheus.Gauge
	registrations prometheus.Counter
	messages      prometheus.Counter
	dropped       prometheus.Counter
}

// NewMetrics creates the relay instruments and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "connected_clients",
			Help:      "Number of currently connected clients",
		}),
		registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "registrations_total",
			Help:      "Number of register frames rebroadcast",
		}),
		messages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "messages_total",
			Help:      "Number of message frames rebroadcast",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "dropped_peers_total",
			Help:      "Number of peers disconnected for falling behind",
		}),
	}
	for _, c := range []prometheus.Collector{m.connected, m.registrations, m.messages, m.dropped} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) peerUp() {
	if m != nil {
		m.connected.Inc()
	}
}

func (m *Metrics) peerDown() {
	if m != nil {
		m.connected.Dec()
	}
}

func (m *Metrics) registered() {
	if m != nil {
		m.registrations.Inc()
	}
}

func (m *Metrics) relayed() {
	if m != nil {
		m.messages.Inc()
	}
}

func (m *Metrics) droppedPeer() {
	if m != nil {
		m.dropped.Inc()
	}
}

// ServeMetrics exposes g on addr at /metrics until ctx is cancelled.
func ServeMetrics(ctx context.Context, addr string, g prometheus.Gatherer, errLog *goLog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{ErrorLog: errLog}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ErrorLog:          errLog,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
