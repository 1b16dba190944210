package logs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gbarton/yt4kids/internal/api"
)

// ErrAPIUnavailable is returned when the HTTP API is disabled or unreachable.
var ErrAPIUnavailable = errors.New("log API unavailable")

// StatusError is a non-2xx response from /api/logs.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("log API returned status %d", e.Code)
	}
	return fmt.Sprintf("log API returned status %d: %s", e.Code, e.Message)
}

// StreamClient reads events from the daemon's /api/logs endpoint.
type StreamClient struct {
	endpoint *url.URL
	token    string
	http     *http.Client
}

// StreamQuery mirrors the /api/logs query parameters.
type StreamQuery struct {
	Since     uint64
	Limit     int
	Follow    bool
	Tail      bool
	Component string
	ItemID    string
}

func (q StreamQuery) values() url.Values {
	v := url.Values{}
	set := func(key, value string) {
		if value = strings.TrimSpace(value); value != "" {
			v.Set(key, value)
		}
	}
	if q.Since > 0 {
		set("since", strconv.FormatUint(q.Since, 10))
	}
	if q.Limit > 0 {
		set("limit", strconv.Itoa(q.Limit))
	}
	if q.Follow {
		set("follow", "1")
	}
	if q.Tail {
		set("tail", "1")
	}
	set("component", q.Component)
	set("item", q.ItemID)
	return v
}

// NewStreamClient builds a client for host:port or a base URL. An empty bind
// yields a nil client, which reports ErrAPIUnavailable on Fetch.
func NewStreamClient(bind, token string) (*StreamClient, error) {
	bind = strings.TrimSpace(bind)
	if bind == "" {
		return nil, nil
	}
	if !strings.Contains(bind, "://") {
		bind = "http://" + bind
	}
	base, err := url.Parse(bind)
	if err != nil {
		return nil, fmt.Errorf("parse api address: %w", err)
	}
	// Follow requests block server-side, so the client sets no timeout and
	// relies on the request context.
	return &StreamClient{
		endpoint: &url.URL{Scheme: base.Scheme, Host: base.Host, User: base.User, Path: "/api/logs"},
		token:    strings.TrimSpace(token),
		http:     &http.Client{},
	}, nil
}

// Fetch performs one poll.
func (c *StreamClient) Fetch(ctx context.Context, q StreamQuery) (api.LogStreamResponse, error) {
	var out api.LogStreamResponse
	if c == nil {
		return out, ErrAPIUnavailable
	}
	u := *c.endpoint
	u.RawQuery = q.values().Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return out, err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return out, statusError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, fmt.Errorf("decode log events: %w", err)
	}
	return out, nil
}

func statusError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&body)
	return &StatusError{Code: resp.StatusCode, Message: body.Error}
}

// IsAPIUnavailable reports whether err means the API could not be reached,
// as opposed to the API answering with an error.
func IsAPIUnavailable(err error) bool {
	var opErr *net.OpError
	return errors.Is(err, ErrAPIUnavailable) || errors.As(err, &opErr)
}
