package lock

import (
	"context"
	"sync"
)

type keyEntry struct {
	ch   chan struct{}
	refs int
}

// KeyedMutex is an in-process Locker. Entries are reference counted and dropped once no
// goroutine holds or waits on them.
type KeyedMutex struct {
	mu      sync.Mutex
	entries map[string]*keyEntry
}

// NewKeyedMutex creates an empty in-process locker
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{entries: make(map[string]*keyEntry)}
}

func (k *KeyedMutex) Lock(ctx context.Context, keys []string) (func(), error) {
	keys = normalizeKeys(keys)
	acquired := make([]string, 0, len(keys))
	for _, key := range keys {
		if err := k.acquire(ctx, key); err != nil {
			k.releaseAll(acquired)
			return nil, err
		}
		acquired = append(acquired, key)
	}

	var once sync.Once
	return func() {
		once.Do(func() { k.releaseAll(acquired) })
	}, nil
}

// Len returns the number of keys currently held or awaited
func (k *KeyedMutex) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}

func (k *KeyedMutex) acquire(ctx context.Context, key string) error {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &keyEntry{ch: make(chan struct{}, 1)}
		k.entries[key] = e
	}
	e.refs++
	k.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		k.mu.Lock()
		k.unref(key, e)
		k.mu.Unlock()
		return ctx.Err()
	}
}

func (k *KeyedMutex) releaseAll(keys []string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	for i := len(keys) - 1; i >= 0; i-- {
		e := k.entries[keys[i]]
		<-e.ch
		k.unref(keys[i], e)
	}
}

func (k *KeyedMutex) unref(key string, e *keyEntry) {
	e.refs--
	if e.refs == 0 {
		delete(k.entries, key)
	}
}
