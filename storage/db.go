// Package storage implements the keyed persistent store spec.md §6
// describes: get/set/has/remove over opaque byte keys, durable across
// operations. Two backends satisfy Store: MemDB for tests and short-lived
// processes, LevelDB for anything that needs to survive a restart.
package storage

import (
	"errors"
	"sort"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// ErrNotFound is returned by Get when the key has no stored value.
var ErrNotFound = errors.New("storage: key not found")

// Store is the keyed persistent map every engine's state adapter is built
// on. It is the Go shape of spec.md §6's "Store abstraction (consumed)".
type Store interface {
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	Set(key []byte, value []byte) error
	Delete(key []byte) error
	// Iterate calls fn for every stored key with the given prefix, in
	// lexicographic key order, until fn returns false or all matches are
	// visited. Used by queries that scan a domain (listing all token ids,
	// timestamp-range lookups).
	Iterate(prefix []byte, fn func(key, value []byte) bool) error
	Close() error
}

// MemDB is an in-memory Store, the backend cmd/vaultd uses in its -mem
// development mode.
type MemDB struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemDB constructs an empty in-memory store.
func NewMemDB() *MemDB {
	return &MemDB{data: make(map[string][]byte)}
}

func (db *MemDB) Get(key []byte) ([]byte, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	v, ok := db.data[string(key)]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (db *MemDB) Has(key []byte) (bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	_, ok := db.data[string(key)]
	return ok, nil
}

func (db *MemDB) Set(key []byte, value []byte) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.data[string(key)] = append([]byte(nil), value...)
	return nil
}

func (db *MemDB) Delete(key []byte) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	delete(db.data, string(key))
	return nil
}

func (db *MemDB) Iterate(prefix []byte, fn func(key, value []byte) bool) error {
	db.mu.RLock()
	type kv struct {
		key   string
		value []byte
	}
	matches := make([]kv, 0)
	for k, v := range db.data {
		if len(k) < len(prefix) || k[:len(prefix)] != string(prefix) {
			continue
		}
		matches = append(matches, kv{key: k, value: append([]byte(nil), v...)})
	}
	db.mu.RUnlock()
	sort.Slice(matches, func(i, j int) bool { return matches[i].key < matches[j].key })
	for _, m := range matches {
		if !fn([]byte(m.key), m.value) {
			return nil
		}
	}
	return nil
}

func (db *MemDB) Close() error { return nil }

// LevelDB is the durable Store backend used when the vault needs to survive
// a process restart.
type LevelDB struct {
	db *leveldb.DB
}

// NewLevelDB opens (creating if absent) a LevelDB database at path.
func NewLevelDB(path string) (*LevelDB, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}
	return &LevelDB{db: db}, nil
}

func (l *LevelDB) Get(key []byte) ([]byte, error) {
	v, err := l.db.Get(key, nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return v, nil
}

func (l *LevelDB) Has(key []byte) (bool, error) {
	return l.db.Has(key, nil)
}

func (l *LevelDB) Set(key []byte, value []byte) error {
	return l.db.Put(key, value, nil)
}

func (l *LevelDB) Delete(key []byte) error {
	return l.db.Delete(key, nil)
}

func (l *LevelDB) Iterate(prefix []byte, fn func(key, value []byte) bool) error {
	iter := l.db.NewIterator(util.BytesPrefix(prefix), nil)
	defer iter.Release()
	for iter.Next() {
		if !fn(append([]byte(nil), iter.Key()...), append([]byte(nil), iter.Value()...)) {
			break
		}
	}
	return iter.Error()
}

func (l *LevelDB) Close() error {
	return l.db.Close()
}
