package tcp

import (
	"context"
	"time"

	"github.com/jackc/puddle/v2"

	"github.com/sanLimbu/tasksync/internal"
	"github.com/sanLimbu/tasksync/internal/protocol"
)

const poolDialTimeout = 5 * time.Second

// Pool shares a bounded number of Clients between goroutines. Connections are dialed lazily
// and destroyed after a transport failure.
type Pool struct {
	clients *puddle.Pool[*Client]
}

// NewPool returns a pool holding at most size connections to address.
func NewPool(address string, size int) (*Pool, error) {
	if size < 1 {
		size = 1
	}

	clients, err := puddle.NewPool(&puddle.Config[*Client]{
		Constructor: func(ctx context.Context) (*Client, error) {
			ctx, cancel := context.WithTimeout(ctx, poolDialTimeout)
			defer cancel()

			return Dial(ctx, address)
		},
		Destructor: func(c *Client) {
			_ = c.Close()
		},
		MaxSize: int32(size),
	})
	if err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeInvalidArgument, "puddle.NewPool")
	}

	return &Pool{clients: clients}, nil
}

// Send runs m on a pooled Client, see Client.Send.
func (p *Pool) Send(ctx context.Context, m protocol.Message) (protocol.Response, error) {
	res, err := p.clients.Acquire(ctx)
	if err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "pool.Acquire")
	}

	c := res.Value()

	out, err := c.Send(ctx, m)

	if c.Broken() {
		res.Destroy()
	} else {
		res.Release()
	}

	return out, err
}

// Close closes every connection, waiting for the ones in use to be returned.
func (p *Pool) Close() error {
	p.clients.Close()

	return nil
}
