package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sanLimbu/tasksync/cmd/internal"
	internaldomain "github.com/sanLimbu/tasksync/internal"
	"github.com/sanLimbu/tasksync/internal/envvar"
	"github.com/sanLimbu/tasksync/internal/service"
	"github.com/sanLimbu/tasksync/internal/tcp"
)

func main() {
	var env, address, metricsAddress string
	var debug bool

	flag.StringVar(&env, "env", "", "Environment Variables filename")
	flag.StringVar(&address, "address", "", "Task server address, defaults to TASKSYNC_SERVER or "+tcp.DefaultServerURL)
	flag.StringVar(&metricsAddress, "metrics", ":9235", "HTTP address serving /metrics, empty disables it")
	flag.BoolVar(&debug, "debug", false, "Development logging and traces written to stderr")
	flag.Parse()

	errC, err := run(env, address, metricsAddress, debug)
	if err != nil {
		log.Fatalf("Couldn't run: %s", err)
	}

	if err := <-errC; err != nil {
		log.Fatalf("Error while running: %s", err)
	}
}

func run(env, address, metricsAddress string, debug bool) (<-chan error, error) {
	logger, err := newLogger(debug)
	if err != nil {
		return nil, internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "zap.New")
	}

	if err := envvar.Load(env); err != nil {
		return nil, internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "envvar.Load")
	}

	vault, err := internal.NewVaultProvider()
	if err != nil {
		return nil, internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "internal.NewVaultProvider")
	}

	conf := envvar.New(vault)

	if address == "" {
		if address, err = conf.GetDefault("TASKSYNC_SERVER", tcp.DefaultServerURL); err != nil {
			return nil, internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "conf.Get TASKSYNC_SERVER")
		}
	}

	listenAddress, err := tcp.ServerAddress(address)
	if err != nil {
		return nil, internaldomain.WrapErrorf(err, internaldomain.ErrorCodeInvalidArgument, "tcp.ServerAddress")
	}

	var traceOut io.Writer
	if debug {
		traceOut = os.Stderr
	}

	otExporter, err := internal.NewOTExporter(conf, "tasksync-server", traceOut)
	if err != nil {
		return nil, internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "internal.NewOTExporter")
	}

	store, err := internal.NewStore(context.Background(), conf, logger)
	if err != nil {
		return nil, internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "internal.NewStore")
	}

	svc := service.NewTask(logger, store.Repository, store.MsgBroker, store.Locker)
	srv := tcp.NewServer(logger, tcp.NewTaskHandler(svc))

	ln, err := net.Listen("tcp", listenAddress)
	if err != nil {
		store.Close()
		return nil, internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "net.Listen")
	}

	var metricsSrv *http.Server

	if metricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())

		metricsSrv = &http.Server{
			Addr:              metricsAddress,
			Handler:           mux,
			ReadHeaderTimeout: time.Second,
		}
	}

	errC := make(chan error, 1)

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
		syscall.SIGQUIT)

	serveDone := make(chan struct{})

	go func() {
		<-ctx.Done()
		logger.Info("Shutdown signal received")

		ctxTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)

		defer func() {
			_ = logger.Sync()
			store.Close()
			stop()
			cancel()
			close(errC)
		}()

		select {
		case <-serveDone:
		case <-ctxTimeout.Done():
			errC <- internaldomain.WrapErrorf(ctxTimeout.Err(), internaldomain.ErrorCodeUnknown, "waiting for sessions")
			return
		}

		if metricsSrv != nil {
			if err := metricsSrv.Shutdown(ctxTimeout); err != nil {
				errC <- err
				return
			}
		}

		if err := otExporter.Shutdown(ctxTimeout); err != nil {
			errC <- err
			return
		}

		logger.Info("Shutdown completed")
	}()

	go func() {
		defer close(serveDone)

		logger.Info("Listening and serving", zap.String("address", ln.Addr().String()))

		if err := srv.Serve(ctx, ln); err != nil {
			errC <- err
			stop()
		}
	}()

	if metricsSrv != nil {
		go func() {
			logger.Info("Serving metrics", zap.String("address", metricsAddress))

			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Warn("metrics server failed", zap.Error(err))
			}
		}()
	}

	return errC, nil
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}

	return zap.NewProduction()
}
