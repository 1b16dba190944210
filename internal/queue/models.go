package queue

import "time"

// State is the scheduling state derived from an entry's flags.
type State string

const (
	StatePending  State = "pending"
	StateComplete State = "complete"
	StateSkipped  State = "skipped"
)

// States lists every State in display order.
var States = []State{StatePending, StateComplete, StateSkipped}

// FileKindVideo marks a record for a downloaded video file.
const FileKindVideo = "VIDEO_FILE"

// DefaultListLimit caps List when the caller passes a non-positive limit.
const DefaultListLimit = 1000

// Entry is a single download request keyed by the remote video identifier.
type Entry struct {
	ID          string
	AuthorID    string
	Title       string
	RequestedAt time.Time
	Complete    bool
	Skip        bool
	Attempts    int
	LastError   string
	UpdatedAt   time.Time
}

// State reports whether the entry is pending, complete, or skipped. Complete
// wins if both flags are somehow set.
func (e *Entry) State() State {
	switch {
	case e == nil:
		return ""
	case e.Complete:
		return StateComplete
	case e.Skip:
		return StateSkipped
	default:
		return StatePending
	}
}

// Eligible reports whether the manager may attempt this entry.
func (e *Entry) Eligible() bool {
	return e != nil && !e.Complete && !e.Skip
}

// FileRecord describes a file placed in the storage tree after a successful download.
type FileRecord struct {
	ID            string
	AuthorID      string
	Filename      string
	FileExtension string
	ContentLength int64
	Kind          string
	CreatedAt     time.Time
}
