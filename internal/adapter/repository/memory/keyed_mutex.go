package memory

import (
	"context"
	"sync"
)

// keyedMutex is a set of named mutexes whose Lock honours context cancellation.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	token chan struct{}
	refs  int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyLock)}
}

func (k *keyedMutex) Lock(ctx context.Context, key string) error {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyLock{token: make(chan struct{}, 1)}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	select {
	case l.token <- struct{}{}:
		return nil
	case <-ctx.Done():
		k.mu.Lock()
		k.release(key, l)
		k.mu.Unlock()
		return ctx.Err()
	}
}

func (k *keyedMutex) Unlock(key string) {
	k.mu.Lock()
	defer k.mu.Unlock()

	l, ok := k.locks[key]
	if !ok {
		panic("memory: unlock of unlocked key " + key)
	}
	<-l.token
	k.release(key, l)
}

// release must be called with k.mu held.
func (k *keyedMutex) release(key string, l *keyLock) {
	l.refs--
	if l.refs == 0 {
		delete(k.locks, key)
	}
}
