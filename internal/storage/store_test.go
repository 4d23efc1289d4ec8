package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]func(t *testing.T) Store {
	return map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewMemoryStore() },
		"file": func(t *testing.T) Store {
			s, err := NewFileStore(filepath.Join(t.TempDir(), "data", "store.json"))
			require.NoError(t, err)
			return s
		},
		"badger": func(t *testing.T) Store {
			s, err := NewInMemoryBadgerStore()
			require.NoError(t, err)
			return s
		},
		"sqlite": func(t *testing.T) Store {
			s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "kv.db"))
			require.NoError(t, err)
			return s
		},
	}
}

func TestStoreContract(t *testing.T) {
	ctx := context.Background()

	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			defer s.Close()

			_, err := s.Get(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Put(ctx, "k", []byte(`{"a":1}`)))
			got, err := s.Get(ctx, "k")
			require.NoError(t, err)
			assert.JSONEq(t, `{"a":1}`, string(got))

			// last writer wins
			require.NoError(t, s.Put(ctx, "k", []byte(`{"b":[true]}`)))
			got, err = s.Get(ctx, "k")
			require.NoError(t, err)
			assert.JSONEq(t, `{"b":[true]}`, string(got))

			// returned slices are not aliased with stored state
			got[0] = 'x'
			again, err := s.Get(ctx, "k")
			require.NoError(t, err)
			assert.JSONEq(t, `{"b":[true]}`, string(again))
		})
	}
}

func TestFileStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.json")

	s, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, "sos", []byte(`{"schedules":[]}`)))

	reopened, err := NewFileStore(path)
	require.NoError(t, err)
	got, err := reopened.Get(ctx, "sos")
	require.NoError(t, err)
	assert.JSONEq(t, `{"schedules":[]}`, string(got))

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestFileStore_RejectsInvalidJSON(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "store.json"))
	require.NoError(t, err)
	assert.Error(t, s.Put(context.Background(), "k", []byte(`{nope`)))
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0600))

	_, err := NewFileStore(path)
	assert.Error(t, err)
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "kv.db")

	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, "sos", []byte(`{"contacts":[]}`)))
	require.NoError(t, s.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()
	got, err := reopened.Get(ctx, "sos")
	require.NoError(t, err)
	assert.JSONEq(t, `{"contacts":[]}`, string(got))
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	for _, backend := range []string{BackendMemory, BackendFile, BackendSQLite} {
		s, err := Open(backend, filepath.Join(dir, backend))
		require.NoError(t, err, backend)
		require.NoError(t, s.Close())
	}

	_, err := Open("redis", "")
	assert.Error(t, err)

	_, err = Open(BackendFile, "")
	assert.Error(t, err)
}
