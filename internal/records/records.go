// Package records keeps each game's fastest completion time in a small
// string key-value store scoped to one visitor.
package records

import (
	"context"
	"errors"
	"log"
	"strconv"
	"strings"
	"sync"
)

// KeyPrefix namespaces best-time keys by subject.
const KeyPrefix = "best_time_"

// KeyFor returns the persisted identifier for a subject's best time.
func KeyFor(subject string) string {
	return KeyPrefix + subject
}

// KV is a string key-value store for one persistence scope.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Scoper hands out the KV for a scope (one visitor).
type Scoper interface {
	Scope(scope string) KV
}

// ErrUnavailable reports that storage cannot be used at all.
var ErrUnavailable = errors.New("records storage unavailable")

// Book reads and improves one best-time record.
type Book struct {
	kv  KV
	key string
}

// NewBook returns a Book over key. A nil kv yields a Book that never has a record.
func NewBook(kv KV, key string) *Book {
	return &Book{kv: kv, key: key}
}

// Key returns the persisted identifier.
func (b *Book) Key() string {
	return b.key
}

// Read returns the stored best time in seconds. Missing, unreadable or
// malformed values all read as no record.
func (b *Book) Read(ctx context.Context) (int, bool) {
	seconds, ok, err := b.load(ctx)
	if err != nil {
		log.Printf("records read key=%s err=%v", b.key, err)
		return 0, false
	}
	return seconds, ok
}

// load reads the record. Only a storage failure is an error; a malformed
// value reads as absent so the next completion replaces it.
func (b *Book) load(ctx context.Context) (int, bool, error) {
	if b == nil || b.kv == nil {
		return 0, false, nil
	}
	raw, ok, err := b.kv.Get(ctx, b.key)
	if err != nil {
		return 0, false, err
	}
	if !ok {
		return 0, false, nil
	}
	seconds, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || seconds < 0 {
		log.Printf("records malformed key=%s value=%q", b.key, raw)
		return 0, false, nil
	}
	return seconds, true, nil
}

// MaybeUpdate stores seconds when no record exists or seconds beats the
// stored one. It reports whether a write happened. When the stored record
// cannot be read nothing is written, so a record never gets worse.
func (b *Book) MaybeUpdate(ctx context.Context, seconds int) bool {
	if b == nil || b.kv == nil || seconds < 0 {
		return false
	}
	best, ok, err := b.load(ctx)
	if err != nil {
		log.Printf("records read key=%s err=%v", b.key, err)
		return false
	}
	if ok && seconds >= best {
		return false
	}
	if err := b.kv.Set(ctx, b.key, strconv.Itoa(seconds)); err != nil {
		log.Printf("records write key=%s err=%v", b.key, err)
		return false
	}
	return true
}

// MemoryKV is an in-process Scoper used when no database is configured.
type MemoryKV struct {
	mu     sync.RWMutex
	scopes map[string]map[string]string
}

// NewMemoryKV creates an empty in-memory store.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{scopes: make(map[string]map[string]string)}
}

// Scope returns the KV for scope.
func (m *MemoryKV) Scope(scope string) KV {
	return memoryScope{m: m, scope: scope}
}

type memoryScope struct {
	m     *MemoryKV
	scope string
}

func (s memoryScope) Get(_ context.Context, key string) (string, bool, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	value, ok := s.m.scopes[s.scope][key]
	return value, ok, nil
}

func (s memoryScope) Set(_ context.Context, key, value string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	values, ok := s.m.scopes[s.scope]
	if !ok {
		values = make(map[string]string)
		s.m.scopes[s.scope] = values
	}
	values[key] = value
	return nil
}
