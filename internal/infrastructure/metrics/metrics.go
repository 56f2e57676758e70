// Package metrics exposes the Prometheus instrumentation for the game
// server: HTTP traffic, room lifecycle counters, and the live WebSocket
// connection gauge.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	RoomsCreated      prometheus.Counter
	RoomsDeleted      *prometheus.CounterVec
	ActiveRooms       prometheus.Gauge
	PlayersJoined     prometheus.Counter
	RoundsStarted     prometheus.Counter
	RoundDuration     prometheus.Histogram
	GamesEnded        *prometheus.CounterVec
	ActiveConnections prometheus.Gauge
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "haptiq_http_requests_total",
			Help: "Total number of HTTP requests processed.",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "haptiq_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		RoomsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "haptiq_rooms_created_total",
			Help: "Rooms created since the server started.",
		}),
		RoomsDeleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "haptiq_rooms_deleted_total",
			Help: "Rooms deleted, labeled by reason.",
		}, []string{"reason"}),
		ActiveRooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "haptiq_rooms_active",
			Help: "Rooms currently alive.",
		}),
		PlayersJoined: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "haptiq_players_joined_total",
			Help: "Players added to rooms since the server started.",
		}),
		RoundsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "haptiq_rounds_started_total",
			Help: "Haptic rounds started since the server started.",
		}),
		RoundDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "haptiq_round_duration_seconds",
			Help:    "Time from round start to verdict.",
			Buckets: []float64{5, 10, 15, 20, 30, 60, 120},
		}),
		GamesEnded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "haptiq_games_ended_total",
			Help: "Finished games, labeled by winning side.",
		}, []string{"winner"}),
		ActiveConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "haptiq_ws_connections",
			Help: "Currently open WebSocket connections.",
		}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.RoomsCreated,
		m.RoomsDeleted,
		m.ActiveRooms,
		m.PlayersJoined,
		m.RoundsStarted,
		m.RoundDuration,
		m.GamesEnded,
		m.ActiveConnections,
	)

	return m
}

// Handler serves the /metrics endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveGameEnded records a finished game under the crew or imposter label.
func (m *Metrics) ObserveGameEnded(crewWon bool) {
	winner := "imposter"
	if crewWon {
		winner = "crew"
	}
	m.GamesEnded.WithLabelValues(winner).Inc()
}
