package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	internaldomain "github.com/sanLimbu/tasksync/internal"
	kafkarepo "github.com/sanLimbu/tasksync/internal/kafka"
)

type fakeIndexer struct {
	indexed []internaldomain.Task
	deleted []internaldomain.TaskID
	err     error
}

func (f *fakeIndexer) Index(_ context.Context, task internaldomain.Task) error {
	f.indexed = append(f.indexed, task)
	return f.err
}

func (f *fakeIndexer) Delete(_ context.Context, id internaldomain.TaskID) error {
	f.deleted = append(f.deleted, id)
	return f.err
}

func encode(t *testing.T, evt kafkarepo.Event) []byte {
	t.Helper()

	b, err := json.Marshal(evt)
	require.NoError(t, err)

	return b
}

func TestServer_handle(t *testing.T) {
	t.Parallel()

	indexer := &fakeIndexer{}
	srv := &Server{logger: zap.NewNop(), task: indexer}
	ctx := context.Background()

	task := internaldomain.Task{ID: 3, Description: "find me"}

	assert.True(t, srv.handle(ctx, encode(t, kafkarepo.Event{ID: "a", Type: kafkarepo.EventCreated, Value: task})))
	assert.True(t, srv.handle(ctx, encode(t, kafkarepo.Event{ID: "b", Type: kafkarepo.EventDeleted, Value: internaldomain.Task{ID: 3}})))
	assert.True(t, srv.handle(ctx, encode(t, kafkarepo.Event{ID: "c", Type: "tasks.event.archived"})))
	assert.True(t, srv.handle(ctx, []byte("not json")))

	assert.Equal(t, []internaldomain.Task{task}, indexer.indexed)
	assert.Equal(t, []internaldomain.TaskID{3}, indexer.deleted)

	indexer.err = errors.New("index unavailable")
	assert.False(t, srv.handle(ctx, encode(t, kafkarepo.Event{ID: "d", Type: kafkarepo.EventUpdated, Value: task})))
}
