package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"go.uber.org/zap"

	"github.com/sanLimbu/tasksync/cmd/internal"
	internaldomain "github.com/sanLimbu/tasksync/internal"
	"github.com/sanLimbu/tasksync/internal/elasticsearch"
	"github.com/sanLimbu/tasksync/internal/envvar"
	kafkarepo "github.com/sanLimbu/tasksync/internal/kafka"
)

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

	es, err := internal.NewElasticSearch(conf)
	if err != nil {
		return nil, internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "internal.NewElasticSearch")
	}

	kafka, err := internal.NewKafkaConsumer(conf, "elasticsearch-indexer")
	if err != nil {
		return nil, internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "internal.NewKafkaConsumer")
	}

	otExporter, err := internal.NewOTExporter(conf, "tasksync-elasticsearch-indexer", nil)
	if err != nil {
		return nil, internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "internal.NewOTExporter")
	}

	srv := &Server{
		logger: logger,
		kafka:  kafka,
		task:   elasticsearch.NewTask(es),
		doneC:  make(chan struct{}),
		closeC: make(chan struct{}),
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
			_ = kafka.Consumer.Unsubscribe()
			_ = kafka.Consumer.Close()
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
	kafka  *internal.KafkaConsumer
	task   Indexer
	doneC  chan struct{}
	closeC chan struct{}
}

// ListenAndServe starts consuming messages in the background.
func (s *Server) ListenAndServe() error {
	commit := func(msg *kafka.Message) {
		if _, err := s.kafka.Consumer.CommitMessage(msg); err != nil {
			s.logger.Error("commit failed", zap.Error(err))
		}
	}

	go func() {
		run := true

		for run {
			select {
			case <-s.closeC:
				run = false
			default:
				msg, ok := s.kafka.Consumer.Poll(150).(*kafka.Message)
				if !ok {
					continue
				}

				if s.handle(context.Background(), msg.Value) {
					commit(msg)
				}
			}
		}

		s.logger.Info("No more messages to consume. Exiting.")

		s.doneC <- struct{}{}
	}()

	return nil
}

// handle indexes one event and reports whether the message can be committed. Invalid messages
// are committed so they are not read again.
func (s *Server) handle(ctx context.Context, value []byte) bool {
	evt, err := kafkarepo.DecodeEvent(value)
	if err != nil {
		s.logger.Info("Ignoring message, invalid", zap.Error(err))
		return true
	}

	switch evt.Type {
	case kafkarepo.EventCreated, kafkarepo.EventUpdated:
		err = s.task.Index(ctx, evt.Value)
	case kafkarepo.EventDeleted:
		err = s.task.Delete(ctx, evt.Value.ID)
	default:
		s.logger.Info("Ignoring message, unknown type", zap.String("type", evt.Type))
		return true
	}

	if err != nil {
		s.logger.Error("Indexing failed", zap.String("type", evt.Type), zap.String("event", evt.ID), zap.Error(err))
		return false
	}

	s.logger.Info("Consumed", zap.String("type", evt.Type), zap.String("event", evt.ID))

	return true
}

// Shutdown stops consuming and waits for the loop to exit.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server")

	close(s.closeC)

	select {
	case <-ctx.Done():
		return internaldomain.WrapErrorf(ctx.Err(), internaldomain.ErrorCodeUnknown, "context.Done")
	case <-s.doneC:
		return nil
	}
}
