package queueaccess

import (
	"context"
	"errors"

	"github.com/gbarton/yt4kids/internal/api"
	"github.com/gbarton/yt4kids/internal/ipc"
	"github.com/gbarton/yt4kids/internal/queue"
)

// Access provides queue operations regardless of IPC or direct store backing.
type Access interface {
	Stats(ctx context.Context) (map[string]int, error)
	List(ctx context.Context, limit int) ([]api.QueueEntry, error)
	Describe(ctx context.Context, id string) (*api.QueueEntry, *api.FileRecord, error)
	Add(ctx context.Context, id, authorID, title string) (*api.QueueEntry, error)
	Skip(ctx context.Context, ids []string) (api.SkipEntriesResult, error)
	Remove(ctx context.Context, ids []string) (api.RemoveEntriesResult, error)
	ClearCompleted(ctx context.Context) (int64, error)
}

// NewIPCAccess returns an Access backed by daemon IPC.
func NewIPCAccess(client *ipc.Client) Access {
	return &ipcAccess{client: client}
}

// NewStoreAccess returns an Access backed by direct DB access.
func NewStoreAccess(store *queue.Store) Access {
	return &storeAccess{store: store, service: api.NewQueueService(store)}
}

type ipcAccess struct {
	client *ipc.Client
}

func (a *ipcAccess) Stats(_ context.Context) (map[string]int, error) {
	resp, err := a.client.Status()
	if err != nil {
		return nil, err
	}
	return resp.Manager.QueueStats, nil
}

func (a *ipcAccess) List(_ context.Context, limit int) ([]api.QueueEntry, error) {
	resp, err := a.client.QueueList(limit)
	if err != nil {
		return nil, err
	}
	return resp.Entries, nil
}

func (a *ipcAccess) Describe(_ context.Context, id string) (*api.QueueEntry, *api.FileRecord, error) {
	resp, err := a.client.QueueDescribe(id)
	if err != nil {
		return nil, nil, err
	}
	if resp == nil || !resp.Found {
		return nil, nil, nil
	}
	return &resp.Entry, resp.File, nil
}

func (a *ipcAccess) Add(_ context.Context, id, authorID, title string) (*api.QueueEntry, error) {
	resp, err := a.client.QueueAdd(id, authorID, title)
	if err != nil {
		return nil, err
	}
	return &resp.Entry, nil
}

func (a *ipcAccess) Skip(_ context.Context, ids []string) (api.SkipEntriesResult, error) {
	resp, err := a.client.QueueSkip(ids)
	if err != nil {
		return api.SkipEntriesResult{}, err
	}
	return *resp, nil
}

func (a *ipcAccess) Remove(_ context.Context, ids []string) (api.RemoveEntriesResult, error) {
	resp, err := a.client.QueueRemove(ids)
	if err != nil {
		return api.RemoveEntriesResult{}, err
	}
	return *resp, nil
}

func (a *ipcAccess) ClearCompleted(_ context.Context) (int64, error) {
	resp, err := a.client.QueueClearCompleted()
	if err != nil {
		return 0, err
	}
	return resp.Removed, nil
}

type storeAccess struct {
	store   *queue.Store
	service *api.QueueService
}

func (a *storeAccess) Stats(ctx context.Context) (map[string]int, error) {
	return a.service.Stats(ctx)
}

func (a *storeAccess) List(ctx context.Context, limit int) ([]api.QueueEntry, error) {
	return a.service.List(ctx, limit)
}

func (a *storeAccess) Describe(ctx context.Context, id string) (*api.QueueEntry, *api.FileRecord, error) {
	entry, err := a.service.Describe(ctx, id)
	if err != nil || entry == nil {
		return nil, nil, err
	}
	file, err := a.service.File(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return entry, file, nil
}

func (a *storeAccess) Add(ctx context.Context, id, authorID, title string) (*api.QueueEntry, error) {
	entry, err := a.store.Enqueue(ctx, id, authorID, title)
	if err != nil {
		return nil, err
	}
	dto := api.FromEntry(entry)
	return &dto, nil
}

func (a *storeAccess) Skip(ctx context.Context, ids []string) (api.SkipEntriesResult, error) {
	if len(ids) == 0 {
		return api.SkipEntriesResult{}, errors.New("queue skip requires at least one id")
	}
	return api.ToggleSkipByID(ctx, a.store, ids)
}

func (a *storeAccess) Remove(ctx context.Context, ids []string) (api.RemoveEntriesResult, error) {
	if len(ids) == 0 {
		return api.RemoveEntriesResult{}, errors.New("queue remove requires at least one id")
	}
	return api.RemoveEntriesByID(ctx, a.store, ids)
}

func (a *storeAccess) ClearCompleted(ctx context.Context) (int64, error) {
	return a.store.ClearCompleted(ctx)
}
