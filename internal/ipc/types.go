package ipc

import "github.com/gbarton/yt4kids/internal/api"

// ServiceName is the net/rpc service the daemon registers.
const ServiceName = "YT4Kids"

// StartRequest triggers queue manager startup.
type StartRequest struct{}

// StartResponse indicates whether the daemon was started.
type StartResponse struct {
	Started bool   `json:"started"`
	Message string `json:"message"`
}

// StopRequest stops the queue manager.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// QueueEntry mirrors the HTTP API queue DTO for IPC callers.
type QueueEntry = api.QueueEntry

// StatusResponse is the combined daemon and manager status.
type StatusResponse = api.DaemonStatus

// QueueListRequest bounds queue listing.
type QueueListRequest struct {
	Limit int `json:"limit"`
}

// QueueListResponse contains queue entries, newest request first.
type QueueListResponse struct {
	Entries []QueueEntry `json:"entries"`
}

// QueueDescribeRequest fetches a single entry by video id.
type QueueDescribeRequest struct {
	ID string `json:"id"`
}

// QueueDescribeResponse contains a single entry and its file record, if downloaded.
// Found is false when no entry has the requested id.
type QueueDescribeResponse struct {
	Found bool            `json:"found"`
	Entry QueueEntry      `json:"entry"`
	File  *api.FileRecord `json:"file,omitempty"`
}

// QueueAddRequest enqueues a download.
type QueueAddRequest struct {
	ID       string `json:"id"`
	AuthorID string `json:"author_id"`
	Title    string `json:"title"`
}

// QueueAddResponse returns the stored entry.
type QueueAddResponse struct {
	Entry QueueEntry `json:"entry"`
}

// QueueSkipRequest toggles the skip flag of entries.
type QueueSkipRequest struct {
	IDs []string `json:"ids"`
}

// QueueSkipResponse reports per-entry skip outcomes.
type QueueSkipResponse = api.SkipEntriesResult

// QueueRemoveRequest deletes entries.
type QueueRemoveRequest struct {
	IDs []string `json:"ids"`
}

// QueueRemoveResponse reports per-entry remove outcomes.
type QueueRemoveResponse = api.RemoveEntriesResult

// QueueClearCompletedRequest removes completed entries.
type QueueClearCompletedRequest struct{}

// QueueClearCompletedResponse reports number of removed entries.
type QueueClearCompletedResponse struct {
	Removed int64 `json:"removed"`
}

// TickRequest runs one manager tick immediately.
type TickRequest struct{}

// TickResponse reports what the tick did.
type TickResponse = api.TickResponse

// TestNotificationRequest triggers a test notification.
type TestNotificationRequest struct{}

// TestNotificationResponse reports notification test outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}

// LogTailRequest reads buffered daemon log events after Since.
type LogTailRequest struct {
	Since      uint64 `json:"since"`
	Limit      int    `json:"limit"`
	Follow     bool   `json:"follow"`
	WaitMillis int    `json:"wait_millis"`
	ItemID     string `json:"item_id,omitempty"`
	Component  string `json:"component,omitempty"`
}

// LogTailResponse carries events and the cursor for the next request.
type LogTailResponse = api.LogStreamResponse
