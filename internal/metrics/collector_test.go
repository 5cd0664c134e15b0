package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"picture-frame/internal/filesystem"
)

// =============================================================================
// Mock StatsProvider
// =============================================================================

type mockStatsProvider struct {
	mu    sync.Mutex
	stats Stats
	calls int
}

func (m *mockStatsProvider) GetStats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.stats
}

func (m *mockStatsProvider) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// =============================================================================
// Collector Tests
// =============================================================================

func TestNewCollector(t *testing.T) {
	provider := &mockStatsProvider{}
	collector := NewCollector(provider, 5*time.Second)

	if collector == nil {
		t.Fatal("NewCollector returned nil")
	}
	if collector.interval != 5*time.Second {
		t.Errorf("interval = %v, want 5s", collector.interval)
	}
	if collector.provider != provider {
		t.Error("provider not stored")
	}
}

func TestCollectUpdatesGauges(t *testing.T) {
	provider := &mockStatsProvider{
		stats: Stats{
			Staged:          3,
			Candidates:      1200,
			InFlight:        2,
			CacheDepth:      10,
			MetadataRecords: 450,
		},
	}

	NewCollector(provider, time.Minute).Collect()

	tests := []struct {
		name  string
		value float64
		want  float64
	}{
		{name: "queue length", value: testutil.ToFloat64(StagingQueueLength), want: 3},
		{name: "candidates", value: testutil.ToFloat64(StagingCandidates), want: 1200},
		{name: "in flight", value: testutil.ToFloat64(StagingInFlight), want: 2},
		{name: "cache depth", value: testutil.ToFloat64(StagingCacheDepth), want: 10},
		{name: "metadata records", value: testutil.ToFloat64(MetadataRecords), want: 450},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != tt.want {
				t.Errorf("gauge = %v, want %v", tt.value, tt.want)
			}
		})
	}
}

func TestCollectWithNilProvider(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("Collect() panicked with nil provider: %v", r)
		}
	}()

	NewCollector(nil, time.Second).Collect()
}

func TestCollectorImmediateCollection(t *testing.T) {
	provider := &mockStatsProvider{}
	collector := NewCollector(provider, time.Hour)

	collector.Start()
	defer collector.Stop()

	deadline := time.Now().Add(time.Second)
	for provider.callCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("collector did not collect immediately on start")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestCollectorMultipleCycles(t *testing.T) {
	provider := &mockStatsProvider{}
	collector := NewCollector(provider, 10*time.Millisecond)

	collector.Start()
	time.Sleep(60 * time.Millisecond)
	collector.Stop()

	if got := provider.callCount(); got < 2 {
		t.Errorf("expected several collection cycles, got %d", got)
	}
}

func TestCollectorStopHaltsCollection(t *testing.T) {
	provider := &mockStatsProvider{}
	collector := NewCollector(provider, 5*time.Millisecond)

	collector.Start()
	time.Sleep(20 * time.Millisecond)
	collector.Stop()
	time.Sleep(10 * time.Millisecond)

	after := provider.callCount()
	time.Sleep(30 * time.Millisecond)

	if provider.callCount() != after {
		t.Error("collector kept collecting after Stop")
	}
}

func TestCollectorStopTwice(t *testing.T) {
	collector := NewCollector(&mockStatsProvider{}, time.Hour)
	collector.Start()
	collector.Stop()
	collector.Stop()
}

func TestSetAppInfo(t *testing.T) {
	SetAppInfo("1.2.3", "abc123", "go1.25")

	got := testutil.ToFloat64(AppInfo.WithLabelValues("1.2.3", "abc123", "go1.25"))
	if got != 1 {
		t.Errorf("AppInfo = %v, want 1", got)
	}
}

func TestFilesystemObserverRecords(t *testing.T) {
	obs := NewFilesystemObserver()

	before := testutil.ToFloat64(FilesystemStaleErrors.WithLabelValues("open", "media"))
	obs.ObserveRetry(filesystem.RetryEvent{Op: "open", Volume: "media", Kind: filesystem.RetryStale})
	obs.ObserveRetry(filesystem.RetryEvent{Op: "open", Volume: "media", Kind: filesystem.RetryAttempt})

	if got := testutil.ToFloat64(FilesystemStaleErrors.WithLabelValues("open", "media")); got != before+1 {
		t.Errorf("stale errors = %v, want %v", got, before+1)
	}
	if got := testutil.ToFloat64(FilesystemRetryAttempts.WithLabelValues("open", "media")); got < 1 {
		t.Errorf("retry attempts = %v, want >= 1", got)
	}
}
