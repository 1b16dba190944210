package queue

import "errors"

// ErrNotFound is returned by operations that require an existing entry.
var ErrNotFound = errors.New("queue entry not found")
