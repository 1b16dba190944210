package queueaccess

import (
	"errors"
	"fmt"

	"github.com/gbarton/yt4kids/internal/ipc"
	"github.com/gbarton/yt4kids/internal/queue"
)

// Session is an open Access plus the handle that must be released with it.
type Session struct {
	Access Access
	// Daemon is true when requests go through the running daemon.
	Daemon bool
	// DialErr keeps the reason the daemon was bypassed, if any.
	DialErr error

	release func() error
}

// Close releases the IPC connection or queue database.
func (s Session) Close() error {
	if s.release == nil {
		return nil
	}
	return s.release()
}

// OpenWithFallback prefers the daemon so writes are serialized with the queue
// manager. When the daemon cannot be dialed it opens the database directly.
func OpenWithFallback(
	dial func() (*ipc.Client, error),
	openStore func() (*queue.Store, error),
) (Session, error) {
	var dialErr error
	if dial != nil {
		client, err := dial()
		if err == nil {
			return Session{Access: NewIPCAccess(client), Daemon: true, release: client.Close}, nil
		}
		dialErr = err
	}

	if openStore == nil {
		return Session{}, errors.Join(errors.New("open queue store: no store opener configured"), dialErr)
	}
	store, err := openStore()
	if err != nil {
		return Session{}, fmt.Errorf("open queue store: %w", err)
	}
	return Session{Access: NewStoreAccess(store), DialErr: dialErr, release: store.Close}, nil
}
