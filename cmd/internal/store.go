package internal

import (
	"context"

	"go.uber.org/zap"

	"github.com/sanLimbu/tasksync/internal"
	"github.com/sanLimbu/tasksync/internal/envvar"
	"github.com/sanLimbu/tasksync/internal/kafka"
	"github.com/sanLimbu/tasksync/internal/memcached"
	"github.com/sanLimbu/tasksync/internal/postgresql"
	"github.com/sanLimbu/tasksync/internal/rabbitmq"
	"github.com/sanLimbu/tasksync/internal/redis"
	"github.com/sanLimbu/tasksync/internal/service"
	"github.com/sanLimbu/tasksync/internal/sqlite"
)

// Store holds the dependencies of the task service. Close releases every one of them.
type Store struct {
	Repository service.TaskRepository
	MsgBroker  service.TaskMessageBrokerRepository
	Locker     service.Locker

	closers []func()
}

// Close releases the store dependencies in the reverse order they were created.
func (s *Store) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// NewStore builds the repository selected by STORE_DRIVER, wrapped in the memcached cache when
// MEMCACHED_HOST is set, plus the optional message broker and distributed locker.
func NewStore(ctx context.Context, conf *envvar.Configuration, logger *zap.Logger) (_ *Store, err error) {
	res := &Store{}

	defer func() {
		if err != nil {
			res.Close()
		}
	}()

	driver, err := conf.GetDefault("STORE_DRIVER", "sqlite")
	if err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "conf.Get STORE_DRIVER")
	}

	var repo memcached.TaskStore

	switch driver {
	case "sqlite":
		db, err := NewSQLite(conf)
		if err != nil {
			return nil, err
		}

		res.closers = append(res.closers, func() { _ = db.Close() })
		repo = sqlite.NewTask(db)
	case "postgresql":
		pool, err := NewPostgreSQL(ctx, conf)
		if err != nil {
			return nil, err
		}

		res.closers = append(res.closers, pool.Close)

		pg := postgresql.NewTask(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			return nil, err
		}

		repo = pg
	default:
		return nil, internal.NewErrorf(internal.ErrorCodeInvalidArgument, "unknown STORE_DRIVER %q", driver)
	}

	mc, err := NewMemcached(conf)
	if err != nil {
		return nil, err
	}

	if mc != nil {
		repo = memcached.NewTask(mc, repo, logger)
	}

	res.Repository = repo

	rdb, err := NewRedis(conf)
	if err != nil {
		return nil, err
	}

	if rdb != nil {
		res.closers = append(res.closers, func() { _ = rdb.Close() })
		res.Locker = redis.NewLocker(rdb, logger)
	}

	if err := res.newMsgBroker(conf); err != nil {
		return nil, err
	}

	return res, nil
}

func (s *Store) newMsgBroker(conf *envvar.Configuration) error {
	broker, err := conf.Get("MESSAGE_BROKER")
	if err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "conf.Get MESSAGE_BROKER")
	}

	switch broker {
	case "":
	case "kafka":
		producer, err := NewKafkaProducer(conf)
		if err != nil {
			return err
		}

		s.closers = append(s.closers, func() {
			producer.Producer.Flush(5000)
			producer.Producer.Close()
		})
		s.MsgBroker = kafka.NewTask(producer.Producer, producer.Topic)
	case "rabbitmq":
		rmq, err := NewRabbitMQ(conf)
		if err != nil {
			return err
		}

		s.closers = append(s.closers, rmq.Close)
		s.MsgBroker = rabbitmq.NewTask(rmq.Channel)
	default:
		return internal.NewErrorf(internal.ErrorCodeInvalidArgument, "unknown MESSAGE_BROKER %q", broker)
	}

	return nil
}
