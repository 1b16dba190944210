package workflow

import (
	"github.com/gbarton/yt4kids/internal/queue"
)

// Status returns the latest manager information. The daemon adds queue stats.
func (m *Manager) Status() StatusSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	summary := StatusSummary{
		Running:       m.running,
		Busy:          len(m.slot) > 0,
		LastOutcome:   m.lastOutcome,
		LastAttemptAt: m.lastAttemptAt,
		CooldownUntil: m.cooldownUntil,
		PollInterval:  m.pollInterval,
		MaxAttempts:   m.maxAttempts,
	}
	if m.lastErr != nil {
		summary.LastError = m.lastErr.Error()
	}
	if m.lastEntry != nil {
		copy := *m.lastEntry
		summary.LastEntry = &copy
	}
	return summary
}

func (m *Manager) recordResult(result TickResult) {
	if result.Outcome == TickNoWork || result.Outcome == TickBusy {
		return
	}
	m.mu.Lock()
	m.lastOutcome = result.Outcome
	m.lastErr = result.Err
	m.mu.Unlock()
}

func (m *Manager) setLastEntry(entry *queue.Entry) {
	m.mu.Lock()
	if entry != nil {
		copy := *entry
		m.lastEntry = &copy
	} else {
		m.lastEntry = nil
	}
	m.mu.Unlock()
}
