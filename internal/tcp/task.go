package tcp

import (
	"context"

	"github.com/sanLimbu/tasksync/internal"
	"github.com/sanLimbu/tasksync/internal/protocol"
	"github.com/sanLimbu/tasksync/internal/service"
)

// TaskService is the business logic behind the protocol, implemented by service.Task.
type TaskService interface {
	Add(ctx context.Context, task internal.Task) (internal.Task, error)
	List(ctx context.Context) ([]internal.Task, error)
	Update(ctx context.Context, id internal.TaskID, delta internal.TaskDelta) (internal.Task, error)
	Remove(ctx context.Context, id internal.TaskID) error
}

// TaskHandler maps protocol messages to TaskService calls.
type TaskHandler struct {
	svc TaskService
}

// NewTaskHandler returns a Handler dispatching to svc.
func NewTaskHandler(svc TaskService) *TaskHandler {
	return &TaskHandler{
		svc: svc,
	}
}

// Handle returns the response for m. Business failures are returned as a protocol.RPCError
// response, any returned error means the session can't continue.
func (h *TaskHandler) Handle(ctx context.Context, m protocol.Message) (protocol.Response, error) {
	switch m := m.(type) {
	case protocol.Add:
		if _, err := h.svc.Add(ctx, m.Task); err != nil {
			return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "svc.Add")
		}

		return protocol.Nothing{}, nil
	case protocol.List:
		tasks, err := h.svc.List(ctx)
		if err != nil {
			return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "svc.List")
		}

		return protocol.Tasks(tasks), nil
	case protocol.Update:
		if _, err := h.svc.Update(ctx, m.ID, m.Delta); err != nil {
			if service.IsNotFound(err) {
				return protocol.TaskDoesntExist(m.ID), nil
			}

			return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "svc.Update")
		}

		return protocol.Nothing{}, nil
	case protocol.Remove:
		if err := h.svc.Remove(ctx, m.ID); err != nil {
			return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "svc.Remove")
		}

		return protocol.Nothing{}, nil
	}

	return nil, internal.NewErrorf(internal.ErrorCodeInvalidArgument, "unknown message %T", m)
}
