package workflow

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gbarton/yt4kids/internal/logging"
)

// Start arms the poll ticker. Each tick runs on its own goroutine so ticks
// that land during a long download still observe the busy slot.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("queue manager already running")
	}
	runCtx, cancel := context.WithCancelCause(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(1)
	m.mu.Unlock()

	m.logger.Info("queue manager started",
		logging.Duration("poll_interval", m.pollInterval),
		logging.Int("max_attempts", m.maxAttempts),
		logging.Int("batch_size", m.batchSize),
	)
	go m.run(runCtx)
	return nil
}

// Stop cancels the loop and any in-flight fetch, waits for tick goroutines,
// then drops the pending cooldown so the slot is free. An interrupted fetch
// does not count against the entry's attempts.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	inflight := m.inflight
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel(errManagerStopped)
	if inflight != nil {
		inflight(errManagerStopped)
	}
	m.wg.Wait()
	m.clearCooldown()
	m.logger.Info("queue manager stopped")
}

// Running reports whether the poll loop is active.
func (m *Manager) Running() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}

func (m *Manager) run(ctx context.Context) {
	defer m.wg.Done()
	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.wg.Add(1)
			go func() {
				defer m.wg.Done()
				m.Tick(ctx)
			}()
		}
	}
}

// Tick attempts one download. When the slot is held the tick is dropped.
func (m *Manager) Tick(ctx context.Context) TickResult {
	select {
	case m.slot <- struct{}{}:
	default:
		m.logger.Info("manager already busy", logging.String(logging.FieldEventType, "tick_dropped"))
		return TickResult{Outcome: TickBusy}
	}

	result := m.downloadNext(ctx, m.releaser())
	m.recordResult(result)
	return result
}

// releaser returns an idempotent release for the slot held by the caller.
func (m *Manager) releaser() func() {
	var once sync.Once
	return func() {
		once.Do(func() { <-m.slot })
	}
}

// scheduleRelease frees the slot one poll interval from now.
func (m *Manager) scheduleRelease(release func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	until := m.now().Add(m.pollInterval)
	var timer *time.Timer
	timer = time.AfterFunc(m.pollInterval, func() {
		m.mu.Lock()
		if m.cooldown == timer {
			m.cooldown = nil
			m.pendingRelease = nil
			m.cooldownUntil = time.Time{}
		}
		m.mu.Unlock()
		release()
	})
	m.cooldown = timer
	m.pendingRelease = release
	m.cooldownUntil = until
}

func (m *Manager) clearCooldown() {
	m.mu.Lock()
	timer := m.cooldown
	release := m.pendingRelease
	m.cooldown = nil
	m.pendingRelease = nil
	m.cooldownUntil = time.Time{}
	m.mu.Unlock()

	if timer != nil && timer.Stop() && release != nil {
		release()
	}
}
