package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/sanLimbu/tasksync/cmd/internal"
	internaldomain "github.com/sanLimbu/tasksync/internal"
	"github.com/sanLimbu/tasksync/internal/elasticsearch"
	"github.com/sanLimbu/tasksync/internal/envvar"
	"github.com/sanLimbu/tasksync/internal/rabbitmq"
)

const rabbitMQConsumerName = "elasticsearch-indexer"

func main() {
	var env string

	flag.StringVar(&env, "env", "", "Environment Variables filename")
	flag.Parse()

	errC, err := run(env)
	if err != nil {
		log.Fatalf("Couldn't run: %s", err)
	}

	if err := <-errC; err != nil {
		log.Fatalf("Error while running: %s", err)
	}
}

func run(env string) (<-chan error, error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "zap.NewProduction")
	}

	if err := envvar.Load(env); err != nil {
		return nil, internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "envvar.Load")
	}

	vault, err := internal.NewVaultProvider()
	if err != nil {
		return nil, internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "internal.NewVaultProvider")
	}

	conf := envvar.New(vault)

	esClient, err := internal.NewElasticSearch(conf)
	if err != nil {
		return nil, internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "internal.NewElasticSearch")
	}

	rmq, err := internal.NewRabbitMQ(conf)
	if err != nil {
		return nil, internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "internal.NewRabbitMQ")
	}

	otExporter, err := internal.NewOTExporter(conf, "tasksync-elasticsearch-indexer", nil)
	if err != nil {
		return nil, internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "internal.NewOTExporter")
	}

	srv := &Server{
		logger: logger,
		rmq:    rmq,
		task:   elasticsearch.NewTask(esClient),
		done:   make(chan struct{}),
	}

	errC := make(chan error, 1)

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
		syscall.SIGQUIT)

	go func() {
		<-ctx.Done()
		logger.Info("Shutdown signal received")

		ctxTimeout, cancel := context.WithTimeout(context.Background(), 10*time.Second)

		defer func() {
			_ = logger.Sync()
			rmq.Close()
			stop()
			cancel()
			close(errC)
		}()

		if err := srv.Shutdown(ctxTimeout); err != nil {
			errC <- err
			return
		}

		if err := otExporter.Shutdown(ctxTimeout); err != nil {
			errC <- err
			return
		}

		logger.Info("Shutdown completed")
	}()

	go func() {
		logger.Info("Listening and serving")

		if err := srv.ListenAndServe(); err != nil {
			errC <- err
		}
	}()

	return errC, nil
}

// Indexer is the search index being kept up to date.
type Indexer interface {
	Index(ctx context.Context, task internaldomain.Task) error
	Delete(ctx context.Context, id internaldomain.TaskID) error
}

// Server consumes task events and indexes them.
type Server struct {
	logger *zap.Logger
	rmq    *internal.RabbitMQ
	task   Indexer
	done   chan struct{}
}

// ListenAndServe binds a queue to the task exchange and starts consuming in the background.
func (s *Server) ListenAndServe() error {
	queue, err := s.rmq.Channel.QueueDeclare(
		"",    // name
		false, // durable
		false, // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "channel.QueueDeclare")
	}

	err = s.rmq.Channel.QueueBind(
		queue.Name,        // queue name
		"tasks.event.*",   // routing key
		rabbitmq.Exchange, // exchange
		false,
		nil,
	)
	if err != nil {
		return internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "channel.QueueBind")
	}

	msgs, err := s.rmq.Channel.Consume(
		queue.Name,           // queue
		rabbitMQConsumerName, // consumer
		false,                // auto-ack
		false,                // exclusive
		false,                // no-local
		false,                // no-wait
		nil,                  // args
	)
	if err != nil {
		return internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "channel.Consume")
	}

	go func() {
		for msg := range msgs {
			s.logger.Info("Received message", zap.String("routingKey", msg.RoutingKey))

			if ack, requeue := s.handle(context.Background(), msg.RoutingKey, msg.Body); ack {
				_ = msg.Ack(false)
			} else {
				_ = msg.Nack(false, requeue)
			}
		}

		s.logger.Info("No more messages to consume. Exiting.")

		s.done <- struct{}{}
	}()

	return nil
}

// handle indexes one message. Messages that can't be decoded are dropped, failed index
// operations are requeued.
func (s *Server) handle(ctx context.Context, routingKey string, body []byte) (ack, requeue bool) {
	var err error

	switch routingKey {
	case rabbitmq.RoutingKeyCreated, rabbitmq.RoutingKeyUpdated:
		task, derr := rabbitmq.DecodeTask(body)
		if derr != nil {
			s.logger.Info("Dropping message, invalid task", zap.Error(derr))
			return false, false
		}

		err = s.task.Index(ctx, task)
	case rabbitmq.RoutingKeyDeleted:
		id, derr := rabbitmq.DecodeID(body)
		if derr != nil {
			s.logger.Info("Dropping message, invalid id", zap.Error(derr))
			return false, false
		}

		err = s.task.Delete(ctx, id)
	default:
		s.logger.Info("Dropping message, unknown routing key", zap.String("routingKey", routingKey))
		return false, false
	}

	if err != nil {
		s.logger.Error("Indexing failed", zap.String("routingKey", routingKey), zap.Error(err))
		return false, true
	}

	return true, false
}

// Shutdown cancels the consumer and waits for the loop to exit.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server")

	_ = s.rmq.Channel.Cancel(rabbitMQConsumerName, false)

	select {
	case <-ctx.Done():
		return internaldomain.WrapErrorf(ctx.Err(), internaldomain.ErrorCodeUnknown, "context.Done")
	case <-s.done:
		return nil
	}
}
