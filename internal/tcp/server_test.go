package tcp_test

import (
	"bufio"
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sanLimbu/tasksync/internal"
	"github.com/sanLimbu/tasksync/internal/protocol"
	"github.com/sanLimbu/tasksync/internal/service"
	"github.com/sanLimbu/tasksync/internal/tcp"
)

func TestServer_Scenario(t *testing.T) {
	t.Parallel()

	client := dial(t, startServer(t, newMemRepo()))
	ctx := context.Background()

	res, err := client.Send(ctx, protocol.Add{Task: internal.Task{
		ID:          99,
		Description: "buy milk",
		Priority:    internal.PriorityMedium,
	}})
	require.NoError(t, err)
	assert.Equal(t, protocol.Nothing{}, res)

	res, err = client.Send(ctx, protocol.List{})
	require.NoError(t, err)
	assert.Equal(t, protocol.Tasks{{ID: 1, Description: "buy milk", Priority: internal.PriorityMedium}}, res)

	res, err = client.Send(ctx, protocol.Update{
		ID:    1,
		Delta: internal.TaskDelta{Complete: internal.Changed(true)},
	})
	require.NoError(t, err)
	assert.Equal(t, protocol.Nothing{}, res)

	res, err = client.Send(ctx, protocol.List{})
	require.NoError(t, err)
	assert.Equal(t, protocol.Tasks{{ID: 1, Complete: true, Description: "buy milk", Priority: internal.PriorityMedium}}, res)
}

func TestServer_EmptyList(t *testing.T) {
	t.Parallel()

	client := dial(t, startServer(t, newMemRepo()))

	res, err := client.Send(context.Background(), protocol.List{})
	require.NoError(t, err)
	assert.Equal(t, protocol.Tasks{}, res)
}

func TestServer_UpdateMissing(t *testing.T) {
	t.Parallel()

	client := dial(t, startServer(t, newMemRepo()))

	res, err := client.Send(context.Background(), protocol.Update{
		ID:    7,
		Delta: internal.TaskDelta{Description: internal.Changed("x")},
	})
	require.NoError(t, err)
	assert.Equal(t, protocol.TaskDoesntExist(7), res)

	// Nothing was written and the session survives a business error.
	res, err = client.Send(context.Background(), protocol.List{})
	require.NoError(t, err)
	assert.Equal(t, protocol.Tasks{}, res)
}

func TestServer_UpdateRemovedConcurrently(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	repo.vanishOnFind = true

	client := dial(t, startServer(t, repo))
	ctx := context.Background()

	res, err := client.Send(ctx, protocol.Add{Task: internal.Task{Description: "buy milk"}})
	require.NoError(t, err)
	assert.Equal(t, protocol.Nothing{}, res)

	res, err = client.Send(ctx, protocol.Update{
		ID:    1,
		Delta: internal.TaskDelta{Complete: internal.Changed(true)},
	})
	require.NoError(t, err)
	assert.Equal(t, protocol.TaskDoesntExist(1), res)

	res, err = client.Send(ctx, protocol.List{})
	require.NoError(t, err)
	assert.Equal(t, protocol.Tasks{}, res)
}

func TestServer_RemoveMissing(t *testing.T) {
	t.Parallel()

	client := dial(t, startServer(t, newMemRepo()))

	res, err := client.Send(context.Background(), protocol.Remove{ID: 42})
	require.NoError(t, err)
	assert.Equal(t, protocol.Nothing{}, res)
}

func TestServer_UnknownPriority(t *testing.T) {
	t.Parallel()

	conn, err := net.Dial("tcp", startServer(t, newMemRepo()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	br := bufio.NewReader(conn)

	payload := []byte(`{"Add":{"id":null,"complete":false,"description":"x","priority":"Urgent","due_date":null}}`)
	require.NoError(t, protocol.WriteFrame(conn, payload))

	res, err := protocol.ReadResponse(br)
	require.NoError(t, err)
	assert.Equal(t, protocol.UnknownPriority("Urgent"), res)

	require.NoError(t, protocol.WriteMessage(conn, protocol.List{}))

	res, err = protocol.ReadResponse(br)
	require.NoError(t, err)
	assert.Equal(t, protocol.Tasks{}, res)
}

func TestServer_ConnectionIndependence(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	repo.failDelete = 13

	addr := startServer(t, repo)
	a := dial(t, addr)
	b := dial(t, addr)
	ctx := context.Background()

	_, err := b.Send(ctx, protocol.Add{Task: internal.Task{Description: "kept"}})
	require.NoError(t, err)

	_, err = a.Send(ctx, protocol.Remove{ID: 13})
	require.Error(t, err)
	assert.True(t, a.Broken())

	res, err := b.Send(ctx, protocol.List{})
	require.NoError(t, err)
	assert.Equal(t, protocol.Tasks{{ID: 1, Description: "kept"}}, res)

	c := dial(t, addr)

	res, err = c.Send(ctx, protocol.List{})
	require.NoError(t, err)
	assert.Len(t, res, 1)
}

func TestServer_ServeConn(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  []byte
		output error
	}{
		{
			"clean close",
			nil,
			nil,
		},
		{
			"truncated header",
			[]byte{0x05},
			protocol.ErrTruncated,
		},
		{
			"truncated payload",
			[]byte{0x08, 0x00, '"', 'L', 'i'},
			protocol.ErrTruncated,
		},
		{
			"malformed",
			[]byte{0x05, 0x00, 'h', 'e', 'l', 'l', 'o'},
			protocol.ErrMalformedMessage,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := tcp.NewServer(zap.NewNop(),
				tcp.NewTaskHandler(service.NewTask(zap.NewNop(), newMemRepo(), nil, nil)))

			server, peer := net.Pipe()
			t.Cleanup(func() { _ = server.Close() })

			go func() {
				if len(tt.input) > 0 {
					_, _ = peer.Write(tt.input)
				}
				_ = peer.Close()
			}()

			err := srv.ServeConn(context.Background(), server)
			if tt.output == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.output)
			}
		})
	}
}

func TestServer_Shutdown(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := tcp.NewServer(zap.NewNop(),
		tcp.NewTaskHandler(service.NewTask(zap.NewNop(), newMemRepo(), nil, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() { done <- srv.Serve(ctx, ln) }()

	client := dial(t, ln.Addr().String())

	_, err = client.Send(context.Background(), protocol.List{})
	require.NoError(t, err)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}

	_, err = client.Send(context.Background(), protocol.List{})
	assert.Error(t, err)
}
