package rabbitmq_test

import (
	"context"
	"testing"
	"time"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanLimbu/tasksync/internal"
	"github.com/sanLimbu/tasksync/internal/rabbitmq"
)

type publishing struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeChannel struct {
	published []publishing
}

func (c *fakeChannel) Publish(exchange, key string, _, _ bool, msg amqp.Publishing) error {
	c.published = append(c.published, publishing{exchange, key, msg})
	return nil
}

func TestTask_Publish(t *testing.T) {
	t.Parallel()

	ch := &fakeChannel{}
	repo := rabbitmq.NewTask(ch)
	ctx := context.Background()

	due := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	task := internal.Task{ID: 8, Description: "queue me", Priority: internal.PriorityLowest, DueDate: &due}

	require.NoError(t, repo.Created(ctx, task))
	require.NoError(t, repo.Updated(ctx, task))
	require.NoError(t, repo.Deleted(ctx, 8))

	require.Len(t, ch.published, 3)

	for _, p := range ch.published {
		assert.Equal(t, rabbitmq.Exchange, p.exchange)
	}

	assert.Equal(t, rabbitmq.RoutingKeyCreated, ch.published[0].key)
	assert.Equal(t, rabbitmq.RoutingKeyUpdated, ch.published[1].key)
	assert.Equal(t, rabbitmq.RoutingKeyDeleted, ch.published[2].key)

	got, err := rabbitmq.DecodeTask(ch.published[0].msg.Body)
	require.NoError(t, err)
	assert.Equal(t, task.ID, got.ID)
	assert.Equal(t, task.Description, got.Description)
	assert.Equal(t, task.Priority, got.Priority)
	assert.True(t, due.Equal(*got.DueDate))

	id, err := rabbitmq.DecodeID(ch.published[2].msg.Body)
	require.NoError(t, err)
	assert.Equal(t, internal.TaskID(8), id)
}

func TestDecodeTask_Invalid(t *testing.T) {
	t.Parallel()

	_, err := rabbitmq.DecodeTask([]byte("nope"))
	assert.Error(t, err)

	_, err = rabbitmq.DecodeID(nil)
	assert.Error(t, err)
}
