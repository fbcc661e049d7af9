package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// keyedLocker serializes mutations per post id. Entries are dropped once nobody holds or waits for them.
type keyedLocker struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyedLocker() *keyedLocker {
	return &keyedLocker{
		locks: make(map[string]*keyedLock),
	}
}

func (k *keyedLocker) Lock(key string) (unlock func()) {
	k.mu.Lock()
	lock, ok := k.locks[key]
	if !ok {
		lock = &keyedLock{}
		k.locks[key] = lock
	}
	lock.refs++
	k.mu.Unlock()

	lock.mu.Lock()

	return func() {
		lock.mu.Unlock()

		k.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// pendingMutation is one optimistic change: apply it locally, confirm it remotely,
// then reconcile on success or roll back on failure.
type pendingMutation struct {
	op     string
	postID string

	// precheck runs remotely before anything local changes; its errors are returned as is.
	precheck func(ctx context.Context) error
	// apply changes local state; an error here aborts without rollback.
	apply     func() error
	remote    func(ctx context.Context) error
	reconcile func()
	rollback  func()
}

type mutationRunner struct {
	logger  *zap.Logger
	locks   *keyedLocker
	timeout time.Duration
}

func (r *mutationRunner) run(ctx context.Context, m pendingMutation) error {
	unlock := r.locks.Lock(m.postID)
	defer unlock()

	if m.precheck != nil {
		if err := r.call(ctx, m.precheck); err != nil {
			return remoteFailure(err)
		}
	}

	if err := m.apply(); err != nil {
		return err
	}

	if err := r.call(ctx, m.remote); err != nil {
		if m.rollback != nil {
			m.rollback()
		}
		r.logger.Sugar().Errorf("failed to sync %s of post(%s), rolled back: %s", m.op, m.postID, err.Error())
		return &SyncError{Op: m.op, PostID: m.postID, Err: remoteFailure(err)}
	}

	if m.reconcile != nil {
		m.reconcile()
	}

	return nil
}

// call bounds fn by the runner timeout. It is detached from the caller's cancellation:
// a dispatched write always settles and is reconciled or rolled back.
func (r *mutationRunner) call(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()

	return fn(ctx)
}
