package sqlclient

import (
	"context"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/tuannm99/recordset/internal/codec"
	"github.com/tuannm99/recordset/internal/mapper"
	"github.com/tuannm99/recordset/internal/wire"
)

// QueryError is a failure reported by the server for one request.
type QueryError struct {
	ID  uint64
	Msg string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("sqlclient: query %d: %s", e.ID, e.Msg)
}

// Client runs queries against a recordset server. Every query uses its own
// connection, which the returned Decoder owns, so Query may be called
// concurrently.
type Client struct {
	addr string
	dial net.Dialer
	id   atomic.Uint64

	// Optional per-query read/write timeout (0 = no timeout).
	rwTimeout time.Duration
}

func New(addr string, dialTimeout time.Duration) *Client {
	return &Client{addr: addr, dial: net.Dialer{Timeout: dialTimeout}}
}

// SetRWTimeout bounds each query, including reading its whole result.
// Useful to avoid hanging forever if server dies.
func (c *Client) SetRWTimeout(d time.Duration) {
	if c == nil {
		return
	}
	c.rwTimeout = d
}

// Query sends sql and returns a Decoder positioned on the first result set.
// Closing the Decoder, or reading it to the end, closes the connection.
func (c *Client) Query(ctx context.Context, sql string, args ...any) (*codec.Decoder, error) {
	if c == nil {
		return nil, fmt.Errorf("sqlclient: nil client")
	}

	conn, err := c.dial.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return nil, err
	}
	d, err := c.exchange(ctx, conn, sql, args)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return d, nil
}

func (c *Client) exchange(ctx context.Context, conn net.Conn, sql string, args []any) (*codec.Decoder, error) {
	if err := c.applyDeadline(ctx, conn); err != nil {
		return nil, err
	}
	// unblock the handshake if ctx is cancelled before a deadline hits
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()

	reqID := c.id.Add(1)
	if err := wire.WriteFrame(conn, wire.QueryRequest{ID: reqID, SQL: sql, Args: args}); err != nil {
		return nil, err
	}

	var resp wire.QueryResponse
	if err := wire.ReadFrame(conn, &resp); err != nil {
		return nil, err
	}
	if resp.ID != reqID {
		return nil, fmt.Errorf("sqlclient: response id mismatch: got=%d want=%d", resp.ID, reqID)
	}
	if resp.Error != "" {
		return nil, &QueryError{ID: reqID, Msg: resp.Error}
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return codec.NewDecoder(conn)
}

func (c *Client) applyDeadline(ctx context.Context, conn net.Conn) error {
	// Prefer context deadline if present; otherwise use rwTimeout.
	if dl, ok := ctx.Deadline(); ok {
		return conn.SetDeadline(dl)
	}
	if c.rwTimeout > 0 {
		return conn.SetDeadline(time.Now().Add(c.rwTimeout))
	}
	return nil
}

// QueryAll runs sql and maps every row of its first result set onto T.
func QueryAll[T any](ctx context.Context, c *Client, strict bool, sql string, args ...any) ([]T, error) {
	d, err := c.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = d.Close() }()
	return mapper.MapAll[T](d, strict)
}
