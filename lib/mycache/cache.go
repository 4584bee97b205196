package mycache

import (
	"context"
	"sync"
	"time"

	"github.com/rajuvisuals/storefront/lib/mytime"
)

// Cache is a time-boxed key-value cache for read-mostly data.
// An entry older than its ttl is treated as absent.
type Cache[T any] interface {
	Get(c context.Context, key string) (T, bool)
	Put(c context.Context, key string, value T)
	Invalidate(c context.Context, key string)
}

type entry[T any] struct {
	value     T
	expiresAt time.Time
}

type inMemoryCache[T any] struct {
	sync.Mutex
	ttl     time.Duration
	nower   mytime.Nower
	entries map[string]entry[T]
}

func New[T any](ttl time.Duration, nower mytime.Nower) Cache[T] {
	return &inMemoryCache[T]{
		ttl:     ttl,
		nower:   nower,
		entries: make(map[string]entry[T]),
	}
}

func (ch *inMemoryCache[T]) Get(c context.Context, key string) (T, bool) {
	ch.Lock()
	defer ch.Unlock()

	e, found := ch.entries[key]
	if !found {
		return *new(T), false
	}

	if ch.nower.Now().After(e.expiresAt) {
		delete(ch.entries, key)
		return *new(T), false
	}

	return e.value, true
}

func (ch *inMemoryCache[T]) Put(c context.Context, key string, value T) {
	ch.Lock()
	defer ch.Unlock()

	ch.entries[key] = entry[T]{
		value:     value,
		expiresAt: ch.nower.Now().Add(ch.ttl),
	}
}

func (ch *inMemoryCache[T]) Invalidate(c context.Context, key string) {
	ch.Lock()
	defer ch.Unlock()

	delete(ch.entries, key)
}
