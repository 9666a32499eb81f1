package registry_test

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/repofleet/internal/registry"
)

func newClonedStore(testInstance *testing.T, metadataRoot string) *registry.Store {
	testInstance.Helper()
	store, storeError := registry.NewStore(metadataRoot, registry.NamespaceCloned, zap.NewNop())
	require.NoError(testInstance, storeError)
	testInstance.Cleanup(func() {
		require.NoError(testInstance, store.Close())
	})
	return store
}

func TestStoreKeysAreSortedRegardlessOfInsertionOrder(testInstance *testing.T) {
	store := newClonedStore(testInstance, testInstance.TempDir())

	for _, code := range []string{"svc2", "kernel", "web", "svc1"} {
		require.NoError(testInstance, store.Set(code, registry.Entry{Name: "api/" + code, Path: "/work/" + code}))
	}

	keys, keysError := store.Keys()
	require.NoError(testInstance, keysError)
	require.Equal(testInstance, []string{"kernel", "svc1", "svc2", "web"}, keys)

	entries, entriesError := store.Entries()
	require.NoError(testInstance, entriesError)
	require.Len(testInstance, entries, 4)
	require.Equal(testInstance, registry.Entry{Code: "kernel", Name: "api/kernel", Path: "/work/kernel"}, entries[0])
}

func TestStoreGetAndOverwrite(testInstance *testing.T) {
	store := newClonedStore(testInstance, testInstance.TempDir())

	_, missingError := store.Get("svc1")
	require.ErrorIs(testInstance, missingError, registry.ErrEntryNotFound)

	require.NoError(testInstance, store.Set("svc1", registry.Entry{Name: "api/service-one", Path: "/old"}))
	require.NoError(testInstance, store.Set("svc1", registry.Entry{Name: "api/service-one", Path: "/new"}))

	entry, getError := store.Get("svc1")
	require.NoError(testInstance, getError)
	require.Equal(testInstance, registry.Entry{Code: "svc1", Name: "api/service-one", Path: "/new"}, entry)

	require.ErrorIs(testInstance, store.Set("  ", registry.Entry{}), registry.ErrEmptyCode)
}

func TestStoreReadsDoNotCreateDatabase(testInstance *testing.T) {
	metadataRoot := testInstance.TempDir()
	store := newClonedStore(testInstance, metadataRoot)

	keys, keysError := store.Keys()
	require.NoError(testInstance, keysError)
	require.Empty(testInstance, keys)

	_, statError := os.Stat(filepath.Join(metadataRoot, registry.NamespaceCloned))
	require.ErrorIs(testInstance, statError, os.ErrNotExist)
}

func TestStorePersistsAcrossReopen(testInstance *testing.T) {
	metadataRoot := testInstance.TempDir()

	firstStore, firstError := registry.NewStore(metadataRoot, registry.NamespaceCloned, nil)
	require.NoError(testInstance, firstError)
	require.NoError(testInstance, firstStore.Set("svc1", registry.Entry{Name: "api/service-one", Path: "/work/svc1"}))
	require.NoError(testInstance, firstStore.Close())

	secondStore := newClonedStore(testInstance, metadataRoot)
	entry, getError := secondStore.Get("svc1")
	require.NoError(testInstance, getError)
	require.Equal(testInstance, "/work/svc1", entry.Path)
	require.FileExists(testInstance, filepath.Join(metadataRoot, registry.NamespaceCloned, "registry.db"))
}

func TestStoreClearRemovesEverything(testInstance *testing.T) {
	metadataRoot := testInstance.TempDir()
	store := newClonedStore(testInstance, metadataRoot)
	require.NoError(testInstance, store.Set("svc1", registry.Entry{Name: "api/service-one", Path: "/work/svc1"}))

	require.NoError(testInstance, store.Clear())
	require.NoDirExists(testInstance, filepath.Join(metadataRoot, registry.NamespaceCloned))

	keys, keysError := store.Keys()
	require.NoError(testInstance, keysError)
	require.Empty(testInstance, keys)

	require.NoError(testInstance, store.Set("svc2", registry.Entry{Name: "api/service-two", Path: "/work/svc2"}))
	keys, keysError = store.Keys()
	require.NoError(testInstance, keysError)
	require.Equal(testInstance, []string{"svc2"}, keys)
}

func TestStoreAcceptsConcurrentWriters(testInstance *testing.T) {
	store := newClonedStore(testInstance, testInstance.TempDir())

	var waitGroup sync.WaitGroup
	for writerIndex := 0; writerIndex < 16; writerIndex++ {
		waitGroup.Add(1)
		go func(writerIndex int) {
			defer waitGroup.Done()
			code := fmt.Sprintf("svc%02d", writerIndex)
			assert.NoError(testInstance, store.Set(code, registry.Entry{Name: code, Path: "/work/" + code}))
		}(writerIndex)
	}
	waitGroup.Wait()

	keys, keysError := store.Keys()
	require.NoError(testInstance, keysError)
	require.Len(testInstance, keys, 16)
	require.Equal(testInstance, "svc00", keys[0])
	require.Equal(testInstance, "svc15", keys[15])
}

func TestNewStoreRejectsUnknownNamespace(testInstance *testing.T) {
	_, storeError := registry.NewStore(testInstance.TempDir(), "archive", nil)
	require.Error(testInstance, storeError)
}
