package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func call[Resp any](c *Client, method string, req any) (*Resp, error) {
	var resp Resp
	if err := c.client.Call(ServiceName+"."+method, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Start requests the daemon to start processing.
func (c *Client) Start() (*StartResponse, error) {
	return call[StartResponse](c, "Start", StartRequest{})
}

// Stop requests the daemon to stop processing.
func (c *Client) Stop() (*StopResponse, error) {
	return call[StopResponse](c, "Stop", StopRequest{})
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	return call[StatusResponse](c, "Status", StatusRequest{})
}

// QueueList returns up to limit entries.
func (c *Client) QueueList(limit int) (*QueueListResponse, error) {
	return call[QueueListResponse](c, "QueueList", QueueListRequest{Limit: limit})
}

// QueueDescribe returns details for a single entry.
func (c *Client) QueueDescribe(id string) (*QueueDescribeResponse, error) {
	return call[QueueDescribeResponse](c, "QueueDescribe", QueueDescribeRequest{ID: id})
}

// QueueAdd enqueues a download, resetting any existing entry with the same id.
func (c *Client) QueueAdd(id, authorID, title string) (*QueueAddResponse, error) {
	return call[QueueAddResponse](c, "QueueAdd", QueueAddRequest{ID: id, AuthorID: authorID, Title: title})
}

// QueueSkip toggles the skip flag of each entry.
func (c *Client) QueueSkip(ids []string) (*QueueSkipResponse, error) {
	return call[QueueSkipResponse](c, "QueueSkip", QueueSkipRequest{IDs: ids})
}

// QueueRemove deletes entries.
func (c *Client) QueueRemove(ids []string) (*QueueRemoveResponse, error) {
	return call[QueueRemoveResponse](c, "QueueRemove", QueueRemoveRequest{IDs: ids})
}

// QueueClearCompleted removes completed entries.
func (c *Client) QueueClearCompleted() (*QueueClearCompletedResponse, error) {
	return call[QueueClearCompletedResponse](c, "QueueClearCompleted", QueueClearCompletedRequest{})
}

// Tick runs one manager tick immediately.
func (c *Client) Tick() (*TickResponse, error) {
	return call[TickResponse](c, "Tick", TickRequest{})
}

// TestNotification triggers a notification test via the daemon.
func (c *Client) TestNotification() (*TestNotificationResponse, error) {
	return call[TestNotificationResponse](c, "TestNotification", TestNotificationRequest{})
}

// LogTail returns buffered log events from the daemon.
func (c *Client) LogTail(req LogTailRequest) (*LogTailResponse, error) {
	return call[LogTailResponse](c, "LogTail", req)
}
