package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	RoomsGauge       prometheus.Gauge
	ConnectionsGauge prometheus.Gauge
	MovesRelayed     prometheus.Counter
	Settlements      *prometheus.CounterVec
	SettleDuration   prometheus.Histogram
	RoomsReaped      prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		RoomsGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "chess",
			Subsystem: "rooms",
			Name:      "live_total",
			Help:      "Rooms currently registered",
		}),
		ConnectionsGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "chess",
			Subsystem: "ws",
			Name:      "connections_total",
			Help:      "Open websocket connections",
		}),
		MovesRelayed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chess",
			Subsystem: "rooms",
			Name:      "moves_relayed_total",
			Help:      "Moves forwarded between players",
		}),
		Settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chess",
			Subsystem: "match",
			Name:      "settlements_total",
			Help:      "Completed settlements by result",
		}, []string{"result"}),
		SettleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "chess",
			Subsystem: "match",
			Name:      "settle_duration_ms",
			Help:      "Settlement persistence duration in ms",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		}),
		RoomsReaped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chess",
			Subsystem: "rooms",
			Name:      "reaped_total",
			Help:      "Stale rooms removed by the reaper",
		}),
	}

	prometheus.MustRegister(
		m.RoomsGauge,
		m.ConnectionsGauge,
		m.MovesRelayed,
		m.Settlements,
		m.SettleDuration,
		m.RoomsReaped,
	)

	return m
}

func Handler() http.Handler {
	return promhttp.Handler()
}

// The helpers below are nil-safe so components can run without a registry,
// as in tests.

func (m *Metrics) SetRooms(n int) {
	if m == nil {
		return
	}
	m.RoomsGauge.Set(float64(n))
}

func (m *Metrics) ConnOpened() {
	if m == nil {
		return
	}
	m.ConnectionsGauge.Inc()
}

func (m *Metrics) ConnClosed() {
	if m == nil {
		return
	}
	m.ConnectionsGauge.Dec()
}

func (m *Metrics) MoveRelayed() {
	if m == nil {
		return
	}
	m.MovesRelayed.Inc()
}

func (m *Metrics) SettlementDone(result string, millis float64) {
	if m == nil {
		return
	}
	m.Settlements.WithLabelValues(result).Inc()
	m.SettleDuration.Observe(millis)
}

func (m *Metrics) RoomReaped() {
	if m == nil {
		return
	}
	m.RoomsReaped.Inc()
}
