package monitoring

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"meetup-api/internal/cache"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	eventSignUps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "event_signups_total",
			Help: "Total event sign up attempts",
		},
		[]string{"result"},
	)

	sessionStatusChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_status_changes_total",
			Help: "Total session status changes by target status",
		},
		[]string{"status"},
	)

	attendanceMarked = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "attendance_marked_total",
			Help: "Total attendees marked as present",
		},
	)

	eventsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "events_created_total",
			Help: "Total events created through the API",
		},
	)

	availablePlaces = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "event_available_places",
			Help: "Available places per event, from cached stats",
		},
		[]string{"event_slug"},
	)
)

// StatsSource lists cached event stats.
type StatsSource interface {
	Keys(ctx context.Context) ([]string, error)
	GetEntry(ctx context.Context, key string) (*cache.Entry, error)
}

type Monitor struct {
	stats    StatsSource
	interval time.Duration
}

func NewMonitor(stats StatsSource, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Monitor{stats: stats, interval: interval}
}

// Run collects gauges until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.collectStatsMetrics(ctx)
		}
	}
}

func (m *Monitor) collectStatsMetrics(ctx context.Context) {
	keys, err := m.stats.Keys(ctx)
	if err != nil {
		slog.Warn("Failed to list cached stats", "error", err)
		return
	}

	for _, key := range keys {
		entry, err := m.stats.GetEntry(ctx, key)
		if err != nil {
			continue
		}
		availablePlaces.WithLabelValues(entry.EventSlug).Set(float64(entry.Stats.AvailablePlace))
	}
}

func (m *Monitor) TrackSignUp(result string) {
	eventSignUps.WithLabelValues(result).Inc()
}

func (m *Monitor) TrackSessionStatus(status string) {
	sessionStatusChanges.WithLabelValues(status).Inc()
}

func (m *Monitor) TrackAttendance(count int) {
	attendanceMarked.Add(float64(count))
}

func (m *Monitor) TrackEventCreated() {
	eventsCreated.Inc()
}

// Serve exposes /metrics on its own listener and stops when ctx is done.
func Serve(ctx context.Context, port string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("Metrics server listening", "port", port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("Metrics server stopped", "error", err)
	}
}
