package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/gbarton/yt4kids/internal/logging"
	"github.com/gbarton/yt4kids/internal/services"
)

// runPreflightChecks validates storage and tool readiness before an attempt.
// Returns nil when all checks pass, or an error describing all failures.
func (m *Manager) runPreflightChecks(ctx context.Context) error {
	if m.preflight == nil {
		return nil
	}
	results := m.preflight(ctx, m.cfg)
	if len(results) == 0 {
		return nil
	}

	var failures []string
	for _, r := range results {
		if r.Passed {
			m.logger.Debug("preflight check passed",
				logging.String("check", r.Name),
				logging.String("detail", r.Detail),
				logging.String(logging.FieldEventType, "preflight_passed"),
			)
			continue
		}
		logging.ErrorWithContext(m.logger, "preflight check failed", "preflight_failed",
			logging.String("check", r.Name),
			logging.String("detail", r.Detail),
			logging.String(logging.FieldErrorHint, "fix the reported issue; the next tick retries without using an attempt"),
		)
		failures = append(failures, fmt.Sprintf("%s: %s", r.Name, r.Detail))
	}

	if len(failures) > 0 {
		return services.Wrap(services.ErrConfiguration, "preflight", "checks", strings.Join(failures, "; "), nil)
	}
	return nil
}
