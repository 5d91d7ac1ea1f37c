package service

import (
	"context"
	"sync"

	"github.com/sanLimbu/tasksync/internal"
)

// KeyedLocker is an in-process Locker holding one mutex per task id. Locks on different ids
// never wait on each other, entries are dropped once nobody holds or waits for them.
type KeyedLocker struct {
	mu    sync.Mutex
	locks map[internal.TaskID]*keyedLock
}

type keyedLock struct {
	sem  chan struct{}
	refs int
}

// NewKeyedLocker returns an empty KeyedLocker.
func NewKeyedLocker() *KeyedLocker {
	return &KeyedLocker{
		locks: make(map[internal.TaskID]*keyedLock),
	}
}

// Lock blocks until id is available or ctx is done.
func (l *KeyedLocker) Lock(ctx context.Context, id internal.TaskID) (func(), error) {
	l.mu.Lock()

	k, ok := l.locks[id]
	if !ok {
		k = &keyedLock{sem: make(chan struct{}, 1)}
		l.locks[id] = k
	}

	k.refs++

	l.mu.Unlock()

	select {
	case k.sem <- struct{}{}:
	case <-ctx.Done():
		l.release(id, k)
		return nil, internal.WrapErrorf(ctx.Err(), internal.ErrorCodeUnknown, "lock task %s", id)
	}

	var once sync.Once

	return func() {
		once.Do(func() {
			<-k.sem
			l.release(id, k)
		})
	}, nil
}

func (l *KeyedLocker) release(id internal.TaskID, k *keyedLock) {
	l.mu.Lock()
	defer l.mu.Unlock()

	k.refs--
	if k.refs == 0 {
		delete(l.locks, id)
	}
}

func (l *KeyedLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.locks)
}
