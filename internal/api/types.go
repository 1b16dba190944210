package api

// QueueEntry is the transport representation of a download request.
type QueueEntry struct {
	ID          string `json:"id"`
	AuthorID    string `json:"authorId,omitempty"`
	Title       string `json:"title,omitempty"`
	State       string `json:"state"`
	Complete    bool   `json:"complete"`
	Skip        bool   `json:"skip"`
	Attempts    int    `json:"attempts"`
	LastError   string `json:"lastError,omitempty"`
	RequestedAt string `json:"requestedAt,omitempty"`
	UpdatedAt   string `json:"updatedAt,omitempty"`
}

// FileRecord describes a downloaded file placed in the storage tree.
type FileRecord struct {
	ID            string `json:"id"`
	AuthorID      string `json:"authorId"`
	Filename      string `json:"filename"`
	FileExtension string `json:"fileExtension"`
	ContentLength int64  `json:"contentLength"`
	Kind          string `json:"kind"`
	CreatedAt     string `json:"createdAt,omitempty"`
}

// ManagerStatus summarizes the queue manager.
type ManagerStatus struct {
	Running        bool           `json:"running"`
	Busy           bool           `json:"busy"`
	LastError      string         `json:"lastError,omitempty"`
	LastOutcome    string         `json:"lastOutcome,omitempty"`
	LastEntry      *QueueEntry    `json:"lastEntry,omitempty"`
	LastAttemptAt  string         `json:"lastAttemptAt,omitempty"`
	CooldownUntil  string         `json:"cooldownUntil,omitempty"`
	PollIntervalMS int64          `json:"pollIntervalMs"`
	MaxAttempts    int            `json:"maxAttempts"`
	QueueStats     map[string]int `json:"queueStats"`
}

// DependencyStatus reports availability of an external binary.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description,omitempty"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
	Severity    string `json:"severity,omitempty"`
}

// StatusLine is a labelled health line rendered by status output.
type StatusLine struct {
	Label    string `json:"label"`
	Severity string `json:"severity"`
	Detail   string `json:"detail"`
}

// DependencySummary aggregates dependency availability.
type DependencySummary struct {
	Total           int    `json:"total"`
	Available       int    `json:"available"`
	MissingRequired int    `json:"missingRequired"`
	MissingOptional int    `json:"missingOptional"`
	Severity        string `json:"severity"`
	Detail          string `json:"detail"`
}

// StorageStatus reports disk usage of the storage directory.
type StorageStatus struct {
	Path        string  `json:"path"`
	TotalBytes  uint64  `json:"totalBytes"`
	FreeBytes   uint64  `json:"freeBytes"`
	UsedPercent float64 `json:"usedPercent"`
	Error       string  `json:"error,omitempty"`
}

// DaemonStatus aggregates runtime information returned by the daemon.
type DaemonStatus struct {
	Running      bool               `json:"running"`
	PID          int                `json:"pid"`
	QueueDBPath  string             `json:"queueDbPath"`
	LockFilePath string             `json:"lockFilePath"`
	StorageDir   string             `json:"storageDir"`
	Manager      ManagerStatus      `json:"manager"`
	Storage      *StorageStatus     `json:"storage,omitempty"`
	Dependencies []DependencyStatus `json:"dependencies"`
}

// QueueListResponse wraps a list of queue entries.
type QueueListResponse struct {
	Entries []QueueEntry `json:"entries"`
}

// QueueEntryResponse wraps a single queue entry.
type QueueEntryResponse struct {
	Entry QueueEntry `json:"entry"`
}

// QueueStatsResponse wraps per-state counts.
type QueueStatsResponse struct {
	Stats map[string]int `json:"stats"`
}

// FileRecordResponse wraps a single file record.
type FileRecordResponse struct {
	File FileRecord `json:"file"`
}

// EnqueueRequest is the body accepted by the enqueue endpoint.
type EnqueueRequest struct {
	ID       string `json:"id"`
	AuthorID string `json:"authorId,omitempty"`
	Title    string `json:"title,omitempty"`
}

// TickResponse reports the outcome of a manually triggered tick.
type TickResponse struct {
	Outcome  string `json:"outcome"`
	EntryID  string `json:"entryId,omitempty"`
	Attempts int    `json:"attempts,omitempty"`
	Error    string `json:"error,omitempty"`
}

// ClearCompletedResponse reports how many completed entries were removed.
type ClearCompletedResponse struct {
	Removed int64 `json:"removed"`
}

// LogEvent is a structured log line served to API consumers.
type LogEvent struct {
	Sequence      uint64            `json:"seq"`
	Timestamp     string            `json:"ts"`
	Level         string            `json:"level"`
	Message       string            `json:"msg"`
	Component     string            `json:"component,omitempty"`
	Stage         string            `json:"stage,omitempty"`
	ItemID        string            `json:"itemId,omitempty"`
	CorrelationID string            `json:"correlationId,omitempty"`
	Fields        map[string]string `json:"fields,omitempty"`
}

// LogStreamResponse carries a batch of log events and the cursor for the next poll.
type LogStreamResponse struct {
	Events []LogEvent `json:"events"`
	Next   uint64     `json:"next"`
}
