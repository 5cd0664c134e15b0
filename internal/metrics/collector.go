package metrics

import (
	"sync"
	"time"

	"picture-frame/internal/logging"
)

// StatsProvider supplies the counters sampled by a Collector.
type StatsProvider interface {
	GetStats() Stats
}

// Stats is one sample of frame state.
type Stats struct {
	Staged          int
	Candidates      int
	InFlight        int
	CacheDepth      int
	MetadataRecords int
}

// Collector samples a StatsProvider on a fixed interval into gauges that
// would be awkward to maintain at every mutation.
type Collector struct {
	provider StatsProvider
	interval time.Duration

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewCollector creates a Collector. Nothing runs until Start.
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		provider: provider,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

// Start samples once immediately, then every interval until Stop.
func (c *Collector) Start() {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		c.Collect()
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				c.Collect()
			case <-c.stop:
				return
			}
		}
	}()
}

// Stop ends sampling and waits for an in-progress sample. It may be called
// more than once.
func (c *Collector) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
	c.wg.Wait()
}

// Collect takes one sample.
func (c *Collector) Collect() {
	if c.provider == nil {
		return
	}
	s := c.provider.GetStats()

	StagingQueueLength.Set(float64(s.Staged))
	StagingCandidates.Set(float64(s.Candidates))
	StagingInFlight.Set(float64(s.InFlight))
	StagingCacheDepth.Set(float64(s.CacheDepth))
	MetadataRecords.Set(float64(s.MetadataRecords))

	logging.Debug("Metrics collected: staged=%d/%d candidates=%d in-flight=%d metadata=%d",
		s.Staged, s.CacheDepth, s.Candidates, s.InFlight, s.MetadataRecords)
}
