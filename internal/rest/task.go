package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/mercari/go-circuitbreaker"

	"github.com/sanLimbu/tasksync/internal"
	"github.com/sanLimbu/tasksync/internal/protocol"
)

// TaskClient sends protocol messages to the task server, implemented by *tcp.Pool.
type TaskClient interface {
	Send(ctx context.Context, m protocol.Message) (protocol.Response, error)
}

// TaskHandler exposes the task server over HTTP.
type TaskHandler struct {
	client TaskClient
	cb     *circuitbreaker.CircuitBreaker
}

// NewTaskHandler returns a handler sending requests through client, guarded by a circuit breaker.
func NewTaskHandler(client TaskClient) *TaskHandler {
	return &TaskHandler{
		client: client,
		cb: circuitbreaker.New(
			circuitbreaker.WithOpenTimeout(5*time.Second),
			circuitbreaker.WithTripFunc(circuitbreaker.NewTripFuncConsecutiveFailures(3)),
		),
	}
}

// Register connects the handlers to the router.
func (t *TaskHandler) Register(r chi.Router) {
	r.Get("/", t.index)
	r.Get("/tasks", t.list)
	r.Post("/tasks", t.create)
	r.Patch("/tasks/{id}", t.update)
	r.Delete("/tasks/{id}", t.delete)
}

// Task is an activity that needs to be completed.
type Task struct {
	ID          uint32     `json:"id"`
	Complete    bool       `json:"complete"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
}

// NewTask converts a domain task.
func NewTask(task internal.Task) Task {
	return Task{
		ID:          uint32(task.ID),
		Complete:    task.Complete,
		Description: task.Description,
		Priority:    task.Priority.String(),
		DueDate:     task.DueDate,
	}
}

// ReadTasksResponse defines the response returned back after listing tasks.
type ReadTasksResponse struct {
	Tasks []Task `json:"tasks"`
}

// CreateTaskRequest defines the request used for creating tasks.
type CreateTaskRequest struct {
	Complete    bool       `json:"complete"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
}

// Validate checks the request before it is sent to the task server.
func (c CreateTaskRequest) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Description, validation.Required),
		validation.Field(&c.Priority, validation.By(func(interface{}) error {
			if c.Priority == "" {
				return nil
			}

			_, err := internal.ParsePriority(c.Priority)
			return err
		})),
	)
}

// Convert returns the domain task described by the request.
func (c CreateTaskRequest) Convert() (internal.Task, error) {
	task := internal.Task{
		Complete:    c.Complete,
		Description: c.Description,
		DueDate:     c.DueDate,
	}

	if c.Priority != "" {
		p, err := internal.ParsePriority(c.Priority)
		if err != nil {
			return internal.Task{}, err
		}

		task.Priority = p
	}

	if err := task.Validate(); err != nil {
		return internal.Task{}, err
	}

	return task, nil
}

func (t *TaskHandler) list(w http.ResponseWriter, r *http.Request) {
	tasks, err := t.listTasks(r.Context())
	if err != nil {
		renderErrorResponse(w, r, "list failed", err)
		return
	}

	res := make([]Task, len(tasks))
	for i, task := range tasks {
		res[i] = NewTask(task)
	}

	renderResponse(w, r, &ReadTasksResponse{Tasks: res}, http.StatusOK)
}

func (t *TaskHandler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		renderErrorResponse(w, r, "invalid request",
			internal.WrapErrorf(err, internal.ErrorCodeInvalidArgument, "json decoder"))
		return
	}

	if err := req.Validate(); err != nil {
		renderErrorResponse(w, r, "invalid request",
			internal.WrapErrorf(err, internal.ErrorCodeInvalidArgument, "req.Validate"))
		return
	}

	task, err := req.Convert()
	if err != nil {
		renderErrorResponse(w, r, "invalid request",
			internal.WrapErrorf(err, internal.ErrorCodeInvalidArgument, "req.Convert"))
		return
	}

	if err := t.sendNothing(r.Context(), protocol.Add{Task: task}); err != nil {
		renderErrorResponse(w, r, "create failed", err)
		return
	}

	renderResponse(w, r, struct{}{}, http.StatusCreated)
}

func (t *TaskHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := internal.ParseTaskID(chi.URLParam(r, "id"))
	if err != nil {
		renderErrorResponse(w, r, "invalid task id", err)
		return
	}

	var fields map[string]json.RawMessage
	if err := render.DecodeJSON(r.Body, &fields); err != nil {
		renderErrorResponse(w, r, "invalid request",
			internal.WrapErrorf(err, internal.ErrorCodeInvalidArgument, "json decoder"))
		return
	}

	delta, err := NewTaskDelta(fields)
	if err != nil {
		renderErrorResponse(w, r, "invalid request", err)
		return
	}

	if err := t.sendNothing(r.Context(), protocol.Update{ID: id, Delta: delta}); err != nil {
		renderErrorResponse(w, r, "update failed", err)
		return
	}

	renderResponse(w, r, struct{}{}, http.StatusOK)
}

func (t *TaskHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := internal.ParseTaskID(chi.URLParam(r, "id"))
	if err != nil {
		renderErrorResponse(w, r, "invalid task id", err)
		return
	}

	if err := t.sendNothing(r.Context(), protocol.Remove{ID: id}); err != nil {
		renderErrorResponse(w, r, "delete failed", err)
		return
	}

	renderResponse(w, r, struct{}{}, http.StatusOK)
}

// NewTaskDelta builds a partial update from a JSON object, absent keys stay unchanged and a
// null due_date clears it.
func NewTaskDelta(fields map[string]json.RawMessage) (internal.TaskDelta, error) {
	var delta internal.TaskDelta

	invalid := func(err error, key string) error {
		return internal.WrapErrorf(err, internal.ErrorCodeInvalidArgument, "invalid %s", key)
	}

	for key, raw := range fields {
		switch key {
		case "complete":
			var v *bool
			if err := json.Unmarshal(raw, &v); err != nil || v == nil {
				return delta, invalid(err, key)
			}

			delta.Complete = internal.Changed(*v)
		case "description":
			var v *string
			if err := json.Unmarshal(raw, &v); err != nil || v == nil {
				return delta, invalid(err, key)
			}

			delta.Description = internal.Changed(*v)
		case "priority":
			var v *string
			if err := json.Unmarshal(raw, &v); err != nil || v == nil {
				return delta, invalid(err, key)
			}

			p, err := internal.ParsePriority(*v)
			if err != nil {
				return delta, err
			}

			delta.Priority = internal.Changed(p)
		case "due_date":
			var v *time.Time
			if err := json.Unmarshal(raw, &v); err != nil {
				return delta, invalid(err, key)
			}

			delta.DueDate = internal.Changed(v)
		default:
			return delta, internal.NewErrorf(internal.ErrorCodeInvalidArgument, "unknown field %q", key)
		}
	}

	if err := delta.Validate(); err != nil {
		return delta, internal.WrapErrorf(err, internal.ErrorCodeInvalidArgument, "delta.Validate")
	}

	return delta, nil
}

func (t *TaskHandler) listTasks(ctx context.Context) ([]internal.Task, error) {
	res, err := t.send(ctx, protocol.List{})
	if err != nil {
		return nil, err
	}

	tasks, ok := res.(protocol.Tasks)
	if !ok {
		return nil, internal.NewErrorf(internal.ErrorCodeUnknown, "unexpected response %T", res)
	}

	return tasks, nil
}

func (t *TaskHandler) sendNothing(ctx context.Context, m protocol.Message) error {
	res, err := t.send(ctx, m)
	if err != nil {
		return err
	}

	if _, ok := res.(protocol.Nothing); !ok {
		return internal.NewErrorf(internal.ErrorCodeUnknown, "unexpected response %T", res)
	}

	return nil
}

// send runs m through the circuit breaker, an RPCError response is returned as an error.
func (t *TaskHandler) send(ctx context.Context, m protocol.Message) (protocol.Response, error) {
	v, err := t.cb.Do(ctx, func() (interface{}, error) {
		return t.client.Send(ctx, m)
	})
	if err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "client.Send")
	}

	res, _ := v.(protocol.Response)

	if rerr, ok := res.(protocol.RPCError); ok {
		code := internal.ErrorCodeUnknown

		switch rerr.Code {
		case protocol.RPCErrorTaskDoesntExist:
			code = internal.ErrorCodeNotFound
		case protocol.RPCErrorUnknownPriority:
			code = internal.ErrorCodeInvalidArgument
		}

		return nil, internal.WrapErrorf(rerr, code, "server")
	}

	return res, nil
}
