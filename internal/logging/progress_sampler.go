package logging

import "strings"

const defaultProgressByteStep = 50 << 20

// ProgressSampler thins progress callbacks down to a handful of log lines per
// stream. With a known total it emits once per percent step, otherwise once
// per byte step. A stage change always emits.
type ProgressSampler struct {
	percentStep float64
	byteStep    int64

	started bool
	stage   string
	known   bool
	mark    int64
}

// NewProgressSampler returns a sampler; non-positive steps fall back to 10%
// and 50 MiB.
func NewProgressSampler(percentStep float64, byteStep int64) *ProgressSampler {
	if percentStep <= 0 {
		percentStep = 10
	}
	if byteStep <= 0 {
		byteStep = defaultProgressByteStep
	}
	return &ProgressSampler{percentStep: percentStep, byteStep: byteStep}
}

// Observe records done of total bytes for stage. It returns the percent
// complete (-1 when total is unknown) and whether the update should be logged.
// A nil sampler logs everything.
func (s *ProgressSampler) Observe(stage string, done, total int64) (float64, bool) {
	percent := -1.0
	if total > 0 {
		percent = min(float64(max(done, 0))/float64(total)*100, 100)
	}
	if s == nil {
		return percent, true
	}

	known := percent >= 0
	var mark int64
	if known {
		mark = int64(percent / s.percentStep)
	} else {
		mark = max(done, 0) / s.byteStep
	}

	stage = strings.TrimSpace(stage)
	if !s.started || stage != s.stage || known != s.known {
		s.started, s.stage, s.known, s.mark = true, stage, known, mark
		return percent, true
	}
	if mark > s.mark {
		s.mark = mark
		return percent, true
	}
	return percent, false
}

// Reset forgets the current stream so the next update is logged.
func (s *ProgressSampler) Reset() {
	if s != nil {
		*s = ProgressSampler{percentStep: s.percentStep, byteStep: s.byteStep}
	}
}
