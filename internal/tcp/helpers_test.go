package tcp_test

import (
	"context"
	"errors"
	"net"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sanLimbu/tasksync/internal"
	"github.com/sanLimbu/tasksync/internal/service"
	"github.com/sanLimbu/tasksync/internal/tcp"
)

var errStorage = errors.New("storage unavailable")

type memRepo struct {
	mu     sync.Mutex
	nextID internal.TaskID
	tasks  map[internal.TaskID]internal.Task

	// failDelete makes Delete of that id fail.
	failDelete internal.TaskID
	// vanishOnFind deletes a task right after Find returns it, like a Remove from another
	// connection landing between Find and Update.
	vanishOnFind bool
}

func newMemRepo() *memRepo {
	return &memRepo{tasks: make(map[internal.TaskID]internal.Task)}
}

func (r *memRepo) Create(_ context.Context, task internal.Task) (internal.TaskID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	task.ID = r.nextID
	r.tasks[task.ID] = task

	return task.ID, nil
}

func (r *memRepo) All(context.Context) ([]internal.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res := make([]internal.Task, 0, len(r.tasks))
	for _, task := range r.tasks {
		res = append(res, task)
	}

	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })

	return res, nil
}

func (r *memRepo) Find(_ context.Context, id internal.TaskID) (internal.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, ok := r.tasks[id]
	if !ok {
		return internal.Task{}, internal.NewErrorf(internal.ErrorCodeNotFound, "task %s", id)
	}

	if r.vanishOnFind {
		delete(r.tasks, id)
	}

	return task, nil
}

func (r *memRepo) Update(_ context.Context, task internal.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[task.ID]; !ok {
		return internal.NewErrorf(internal.ErrorCodeNotFound, "task %s", task.ID)
	}

	r.tasks[task.ID] = task

	return nil
}

func (r *memRepo) Delete(_ context.Context, id internal.TaskID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id == r.failDelete {
		return errStorage
	}

	delete(r.tasks, id)

	return nil
}

// startServer serves repo on a loopback listener until the test ends and returns its address.
func startServer(t *testing.T, repo service.TaskRepository) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	svc := service.NewTask(zap.NewNop(), repo, nil, nil)
	srv := tcp.NewServer(zap.NewNop(), tcp.NewTaskHandler(svc))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() { done <- srv.Serve(ctx, ln) }()

	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})

	return ln.Addr().String()
}

func dial(t *testing.T, addr string) *tcp.Client {
	t.Helper()

	client, err := tcp.Dial(context.Background(), addr)
	require.NoError(t, err)

	t.Cleanup(func() { _ = client.Close() })

	return client
}
