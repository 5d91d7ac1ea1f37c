package tcp

import (
	"bufio"
	"context"
	"net"
	"sync"
	"time"

	"github.com/sanLimbu/tasksync/internal"
	"github.com/sanLimbu/tasksync/internal/protocol"
)

// Client is the client side of a session. Requests are strictly sequential: Send holds the
// connection until the response has been read.
type Client struct {
	mu   sync.Mutex
	conn net.Conn
	br   *bufio.Reader
	err  error
}

// Dial connects to a tasksync server listening on address.
func Dial(ctx context.Context, address string) (*Client, error) {
	var d net.Dialer

	conn, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "dial %s", address)
	}

	return NewClient(conn), nil
}

// NewClient wraps an established connection, the Client takes ownership of conn.
func NewClient(conn net.Conn) *Client {
	return &Client{
		conn: conn,
		br:   bufio.NewReader(conn),
	}
}

// Send writes m and waits for its response. A returned error is always a transport or local
// failure, business failures arrive as a protocol.RPCError response. After a transport
// failure the connection is closed and every later Send fails.
func (c *Client) Send(ctx context.Context, m protocol.Message) (protocol.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.err != nil {
		return nil, c.err
	}

	frame, err := protocol.EncodeMessage(m)
	if err != nil {
		return nil, err
	}

	deadline, _ := ctx.Deadline()
	if err := c.conn.SetDeadline(deadline); err != nil {
		return nil, c.fail(ctx, err)
	}

	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetDeadline(time.Unix(1, 0))
	})
	defer stop()

	if _, err := c.conn.Write(frame); err != nil {
		return nil, c.fail(ctx, err)
	}

	res, err := protocol.ReadResponse(c.br)
	if err != nil {
		return nil, c.fail(ctx, err)
	}

	return res, nil
}

// Broken reports whether a previous Send failed.
func (c *Client) Broken() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.err != nil
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) fail(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = ctxErr
	} else if deadline, ok := ctx.Deadline(); ok && !time.Now().Before(deadline) {
		// The socket deadline may fire just before the context's own timer.
		err = context.DeadlineExceeded
	}

	c.err = internal.WrapErrorf(err, internal.ErrorCodeUnknown, "send")
	_ = c.conn.Close()

	return c.err
}
