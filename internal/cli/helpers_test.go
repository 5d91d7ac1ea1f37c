package cli

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sanLimbu/tasksync/internal/protocol"
)

var errDial = errors.New("connection refused")

type fakeSender struct {
	mu      sync.Mutex
	address string
	sent    []protocol.Message
	res     protocol.Response
	sendErr error
	dialErr error
	closed  bool
}

func (f *fakeSender) dial(_ context.Context, address string) (Sender, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.dialErr != nil {
		return nil, f.dialErr
	}

	f.address = address

	return f, nil
}

func (f *fakeSender) Send(_ context.Context, m protocol.Message) (protocol.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.sent = append(f.sent, m)

	if f.sendErr != nil {
		return nil, f.sendErr
	}

	if f.res == nil {
		return protocol.Nothing{}, nil
	}

	return f.res, nil
}

func (f *fakeSender) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true

	return nil
}

func execute(t *testing.T, sender *fakeSender, args ...string) (string, error) {
	t.Helper()

	buf := &bytes.Buffer{}

	cmd := newRootCommand(sender.dial)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(append([]string{"--color=false"}, args...))

	err := cmd.ExecuteContext(context.Background())

	return buf.String(), err
}

func lastSent(t *testing.T, sender *fakeSender) protocol.Message {
	t.Helper()

	require.NotEmpty(t, sender.sent)

	return sender.sent[len(sender.sent)-1]
}
