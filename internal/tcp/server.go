package tcp

import (
	"bufio"
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"

	"github.com/sanLimbu/tasksync/internal"
	"github.com/sanLimbu/tasksync/internal/protocol"
)

const otelName = "github.com/sanLimbu/tasksync/internal/tcp"

// Handler produces exactly one Response per Message.
type Handler interface {
	Handle(ctx context.Context, m protocol.Message) (protocol.Response, error)
}

// Server accepts connections and runs one session per connection. Sessions share nothing but
// the Handler, a failing session is logged and closed without affecting the others.
type Server struct {
	logger  *zap.Logger
	handler Handler
	metrics serverMetrics

	mu    sync.Mutex
	conns map[net.Conn]struct{}
	wg    sync.WaitGroup
}

type serverMetrics struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
	sessions metric.Int64UpDownCounter
}

// NewServer returns a Server answering every session with handler.
func NewServer(logger *zap.Logger, handler Handler) *Server {
	return &Server{
		logger:  logger,
		handler: handler,
		metrics: newServerMetrics(logger),
		conns:   make(map[net.Conn]struct{}),
	}
}

func newServerMetrics(logger *zap.Logger) serverMetrics {
	meter := otel.Meter(otelName)

	res, err := buildServerMetrics(meter)
	if err != nil {
		logger.Warn("creating metric instruments failed, metrics disabled", zap.Error(err))

		res, _ = buildServerMetrics(noop.NewMeterProvider().Meter(otelName))
	}

	return res
}

func buildServerMetrics(meter metric.Meter) (serverMetrics, error) {
	requests, err := meter.Int64Counter("tasksync.requests",
		metric.WithDescription("Requests handled, by message and outcome."))
	if err != nil {
		return serverMetrics{}, err
	}

	duration, err := meter.Float64Histogram("tasksync.request.duration",
		metric.WithDescription("Time spent dispatching a request."),
		metric.WithUnit("s"))
	if err != nil {
		return serverMetrics{}, err
	}

	sessions, err := meter.Int64UpDownCounter("tasksync.sessions.active",
		metric.WithDescription("Open client sessions."))
	if err != nil {
		return serverMetrics{}, err
	}

	return serverMetrics{
		requests: requests,
		duration: duration,
		sessions: sessions,
	}, nil
}

// Serve accepts connections on ln until ctx is done. When it returns the listener and every
// open connection have been closed and all sessions have finished.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)

	go func() {
		<-ctx.Done()
		_ = ln.Close()
		s.closeConns()
	}()

	defer func() {
		cancel()
		s.wg.Wait()
	}()

	var backoff time.Duration

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}

			var nerr net.Error
			if errors.As(err, &nerr) && nerr.Timeout() {
				backoff = nextBackoff(backoff)
				s.logger.Warn("accept failed, retrying", zap.Error(err), zap.Duration("backoff", backoff))
				time.Sleep(backoff)

				continue
			}

			return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "ln.Accept")
		}

		backoff = 0

		s.track(conn, true)

		if ctx.Err() != nil {
			// closeConns may have run before conn was tracked.
			_ = conn.Close()
		}

		s.wg.Add(1)

		go func() {
			defer s.wg.Done()
			defer s.track(conn, false)
			defer conn.Close()

			if err := s.ServeConn(ctx, conn); err != nil {
				s.logger.Error("session failed",
					zap.String("remote", conn.RemoteAddr().String()),
					zap.Error(err))
			}
		}()
	}
}

// ServeConn runs the request/response loop on conn until the peer closes it. A clean close
// between frames returns nil. The caller owns conn.
func (s *Server) ServeConn(ctx context.Context, conn net.Conn) error {
	logger := s.logger.With(
		zap.String("session", uuid.NewString()),
		zap.String("remote", conn.RemoteAddr().String()),
	)

	s.metrics.sessions.Add(ctx, 1)
	defer s.metrics.sessions.Add(context.Background(), -1)

	logger.Debug("session started")

	br := bufio.NewReader(conn)

	for {
		msg, err := protocol.ReadMessage(br)
		if err != nil {
			if errors.Is(err, protocol.ErrConnectionClosed) {
				logger.Debug("session closed by peer")
				return nil
			}

			if ctx.Err() != nil {
				logger.Debug("session closed by server shutdown")
				return nil
			}

			// The frame was read completely, only its contents were rejected.
			var perr *internal.UnknownPriorityError
			if errors.As(err, &perr) {
				logger.Info("rejecting unknown priority", zap.String("priority", perr.Value))

				if err := protocol.WriteResponse(conn, protocol.UnknownPriority(perr.Value)); err != nil {
					return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "protocol.WriteResponse")
				}

				continue
			}

			return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "protocol.ReadMessage")
		}

		res, err := s.dispatch(ctx, msg)
		if err != nil {
			return err
		}

		if err := protocol.WriteResponse(conn, res); err != nil {
			return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "protocol.WriteResponse")
		}
	}
}

func (s *Server) dispatch(ctx context.Context, msg protocol.Message) (protocol.Response, error) {
	name := protocol.MessageName(msg)

	ctx, span := otel.Tracer(otelName).Start(ctx, "Server."+name)
	defer span.End()

	start := time.Now()

	res, err := s.handler.Handle(ctx, msg)

	outcome := "ok"

	switch {
	case err != nil:
		outcome = "failed"

		span.RecordError(err)
		span.SetStatus(codes.Error, "handler failed")
	default:
		if _, ok := res.(protocol.RPCError); ok {
			outcome = "rpc_error"
		}
	}

	attrs := metric.WithAttributes(
		attribute.String("message", name),
		attribute.String("outcome", outcome),
	)

	s.metrics.requests.Add(ctx, 1, attrs)
	s.metrics.duration.Record(ctx, time.Since(start).Seconds(), attrs)

	if err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "handle %s", name)
	}

	return res, nil
}

func (s *Server) track(conn net.Conn, add bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if add {
		s.conns[conn] = struct{}{}
	} else {
		delete(s.conns, conn)
	}
}

func (s *Server) closeConns() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for conn := range s.conns {
		_ = conn.Close()
	}
}

func nextBackoff(d time.Duration) time.Duration {
	if d == 0 {
		return 5 * time.Millisecond
	}

	if d *= 2; d > time.Second {
		d = time.Second
	}

	return d
}
