package staging

import (
	"context"

	"picture-frame/internal/logging"
	"picture-frame/internal/metrics"
)

// Start launches the population workers. Calling it again has no effect.
func (c *Cache) Start(ctx context.Context) {
	c.startOnce.Do(func() {
		c.ctx, c.cancel = context.WithCancel(ctx)

		logging.Info("Starting %d staging workers (depth %d)", c.workers, c.cfg.Depth)
		for i := 0; i < c.workers; i++ {
			c.wg.Add(1)
			go c.worker(i)
		}
	})
}

func (c *Cache) worker(id int) {
	defer c.wg.Done()

	for {
		select {
		case <-c.ctx.Done():
			logging.Debug("Staging worker %d stopping", id)
			return
		case <-c.requests:
			// A rejection frees the slot this request was meant to fill
			// and shrinks the candidate set, so queue one replacement.
			if c.PickAndStage(c.ctx) == OutcomeRejected {
				c.submit()
			}
		}
	}
}

// submit queues one population request without blocking.
func (c *Cache) submit() bool {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return false
	}

	select {
	case c.requests <- struct{}{}:
		return true
	default:
		logging.Warn("Staging request queue full, dropping request")
		metrics.StagingRequestsDropped.Inc()
		return false
	}
}

// Close stops accepting requests, cancels running attempts and waits for
// the workers to exit. Staged files stay on disk; call Clean to remove them.
func (c *Cache) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()

		// A Start after Close becomes a no-op.
		c.startOnce.Do(func() {})
		if c.cancel != nil {
			c.cancel()
		}
		c.wg.Wait()

		// Drop requests queued but never picked up.
	drain:
		for {
			select {
			case <-c.requests:
			default:
				break drain
			}
		}
		logging.Info("Staging workers stopped")
	})
	return nil
}

// Closed reports whether Close has been called.
func (c *Cache) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// FillOrErr is Fill for callers that need to distinguish a closed cache.
func (c *Cache) FillOrErr() (int, error) {
	if c.Closed() {
		return 0, ErrClosed
	}
	return c.Fill(), nil
}
