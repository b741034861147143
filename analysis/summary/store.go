package summary

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

// FileStore persists summaries in a single msgpack file. Summaries are keyed
// by the string key(k) so that they survive across processes.
//
// Nothing is written until Flush.
type FileStore[K comparable, S any] struct {
	mu    sync.Mutex
	path  string
	key   func(K) string
	data  map[string]S
	dirty bool
}

// OpenFileStore reads the store at path. A missing file yields an empty store.
func OpenFileStore[K comparable, S any](path string, key func(K) string) (*FileStore[K, S], error) {
	st := &FileStore[K, S]{
		path: path,
		key:  key,
		data: make(map[string]S),
	}

	f, err := os.Open(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return st, nil
	case err != nil:
		return nil, fmt.Errorf("failed to open summary store: %w", err)
	}
	defer f.Close()

	if err := msgpack.NewDecoder(f).Decode(&st.data); err != nil {
		return nil, fmt.Errorf("failed to decode summary store %s: %w", path, err)
	}
	return st, nil
}

// Load implements Store.
func (st *FileStore[K, S]) Load(k K) (S, bool, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, found := st.data[st.key(k)]
	return s, found, nil
}

// Save implements Store.
func (st *FileStore[K, S]) Save(k K, s S) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.data[st.key(k)] = s
	st.dirty = true
	return nil
}

// Len is the number of stored summaries.
func (st *FileStore[K, S]) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.data)
}

// Flush writes the store to its file if it changed since it was opened.
func (st *FileStore[K, S]) Flush() error {
	st.mu.Lock()
	defer st.mu.Unlock()

	if !st.dirty {
		return nil
	}

	tmp := st.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create summary store: %w", err)
	}

	if err := msgpack.NewEncoder(f).Encode(&st.data); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode summary store: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write summary store: %w", err)
	}
	if err := os.Rename(tmp, st.path); err != nil {
		return fmt.Errorf("failed to replace summary store: %w", err)
	}

	st.dirty = false
	return nil
}
