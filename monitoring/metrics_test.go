package monitoring

import (
	"context"
	"errors"
	"testing"
	"time"

	"meetup-api/internal/cache"
	"meetup-api/models"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

type fakeStats struct {
	keys    []string
	entries map[string]*cache.Entry
	err     error
}

func (f *fakeStats) Keys(ctx context.Context) ([]string, error) {
	return f.keys, f.err
}

func (f *fakeStats) GetEntry(ctx context.Context, key string) (*cache.Entry, error) {
	entry, ok := f.entries[key]
	if !ok {
		return nil, cache.ErrMiss
	}
	return entry, nil
}

func TestMonitor_CollectStatsMetrics(t *testing.T) {
	source := &fakeStats{
		keys: []string{"event:stats:a", "event:stats:b", "event:stats:gone"},
		entries: map[string]*cache.Entry{
			"event:stats:a": {EventSlug: "gophercon-abc123", Stats: models.EventStats{AvailablePlace: 12}},
			"event:stats:b": {EventSlug: "rustconf-xyz789", Stats: models.EventStats{AvailablePlace: -2}},
		},
	}

	m := NewMonitor(source, time.Minute)
	m.collectStatsMetrics(context.Background())

	assert.Equal(t, 12.0, testutil.ToFloat64(availablePlaces.WithLabelValues("gophercon-abc123")))
	assert.Equal(t, -2.0, testutil.ToFloat64(availablePlaces.WithLabelValues("rustconf-xyz789")))
}

func TestMonitor_CollectKeysError(t *testing.T) {
	m := NewMonitor(&fakeStats{err: errors.New("redis down")}, time.Minute)
	assert.NotPanics(t, func() { m.collectStatsMetrics(context.Background()) })
}

func TestMonitor_Counters(t *testing.T) {
	m := NewMonitor(&fakeStats{}, 0)
	assert.Equal(t, 30*time.Second, m.interval)

	before := testutil.ToFloat64(eventSignUps.WithLabelValues("created"))
	m.TrackSignUp("created")
	assert.Equal(t, before+1, testutil.ToFloat64(eventSignUps.WithLabelValues("created")))

	beforeMarked := testutil.ToFloat64(attendanceMarked)
	m.TrackAttendance(3)
	assert.Equal(t, beforeMarked+3, testutil.ToFloat64(attendanceMarked))
}

func TestMonitor_RunStopsOnCancel(t *testing.T) {
	m := NewMonitor(&fakeStats{}, time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop")
	}
}
