package ledger

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"veriscan/internal/model"
)

// Entry is one key/value pair of contract state.
type Entry struct {
	Key   string
	Value []byte
}

// StateReader reads committed contract state.
type StateReader interface {
	// Get returns the value for key and whether it exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Scan returns all entries whose key starts with prefix, in creation order.
	Scan(ctx context.Context, prefix string) ([]Entry, error)
}

// StateWriter is a StateReader that can stage writes within a block.
type StateWriter interface {
	StateReader
	Put(ctx context.Context, key string, value []byte) error
}

// BlockHeader describes the transaction a block commits.
type BlockHeader struct {
	TxHash    string
	Method    string
	Caller    model.Address
	Timestamp time.Time
}

// StateStore persists contract state as an append-only sequence of blocks.
type StateStore interface {
	// View runs fn against the latest committed state.
	View(ctx context.Context, fn func(StateReader) error) error
	// Apply runs fn and commits its writes together with the block header.
	// Nothing is committed when fn returns an error. It returns the block number.
	Apply(ctx context.Context, header BlockHeader, fn func(StateWriter) error) (uint64, error)
	Close()
}

type memoryEntry struct {
	value   []byte
	created uint64
}

// MemoryStore is an in-process StateStore for tests and single-node runs.
type MemoryStore struct {
	mu     sync.RWMutex
	state  map[string]memoryEntry
	blocks []BlockHeader
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		state: make(map[string]memoryEntry),
	}
}

func (s *MemoryStore) View(ctx context.Context, fn func(StateReader) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&memoryTx{store: s})
}

func (s *MemoryStore) Apply(ctx context.Context, header BlockHeader, fn func(StateWriter) error) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	number := uint64(len(s.blocks)) + 1
	tx := &memoryTx{store: s, staged: make(map[string][]byte), number: number}
	if err := fn(tx); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	for _, key := range tx.order {
		entry, ok := s.state[key]
		if !ok {
			entry.created = number
		}
		entry.value = tx.staged[key]
		s.state[key] = entry
	}
	s.blocks = append(s.blocks, header)
	return number, nil
}

// Height returns the number of committed blocks.
func (s *MemoryStore) Height() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(len(s.blocks))
}

func (s *MemoryStore) Close() {}

// memoryTx overlays staged writes on the committed map. The caller holds the store lock.
type memoryTx struct {
	store  *MemoryStore
	staged map[string][]byte
	order  []string
	number uint64
}

func (t *memoryTx) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if v, ok := t.staged[key]; ok {
		return cloneBytes(v), true, nil
	}
	entry, ok := t.store.state[key]
	if !ok {
		return nil, false, nil
	}
	return cloneBytes(entry.value), true, nil
}

func (t *memoryTx) Scan(ctx context.Context, prefix string) ([]Entry, error) {
	type row struct {
		Entry
		created uint64
	}
	var rows []row
	for key, entry := range t.store.state {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		value := entry.value
		if v, ok := t.staged[key]; ok {
			value = v
		}
		rows = append(rows, row{Entry: Entry{Key: key, Value: cloneBytes(value)}, created: entry.created})
	}
	for _, key := range t.order {
		if _, committed := t.store.state[key]; committed || !strings.HasPrefix(key, prefix) {
			continue
		}
		rows = append(rows, row{Entry: Entry{Key: key, Value: cloneBytes(t.staged[key])}, created: t.number})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].created != rows[j].created {
			return rows[i].created < rows[j].created
		}
		return rows[i].Key < rows[j].Key
	})

	entries := make([]Entry, len(rows))
	for i, r := range rows {
		entries[i] = r.Entry
	}
	return entries, nil
}

func (t *memoryTx) Put(ctx context.Context, key string, value []byte) error {
	if _, ok := t.staged[key]; !ok {
		t.order = append(t.order, key)
	}
	t.staged[key] = cloneBytes(value)
	return nil
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
