package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"
)

const (
	// NamespaceCloned holds one entry per component cloned into the workspace.
	NamespaceCloned = "cloned"
	// NamespaceSettings is reserved for workspace-level settings.
	NamespaceSettings = "settings"

	databaseFileNameConstant         = "registry.db"
	databaseFilePermissionsConstant  = 0o600
	directoryPermissionsConstant     = 0o755
	databaseOpenTimeoutConstant      = 5 * time.Second
	entryNotFoundMessageConstant     = "registry entry not found"
	emptyCodeMessageConstant         = "registry entry code is empty"
	unknownNamespaceTemplateConstant = "unknown registry namespace %q"
	openErrorTemplateConstant        = "unable to open registry %s: %w"
	readErrorTemplateConstant        = "unable to read registry entry %s: %w"
	writeErrorTemplateConstant       = "unable to write registry entry %s: %w"
	listErrorTemplateConstant        = "unable to list registry %s: %w"
	clearErrorTemplateConstant       = "unable to clear registry %s: %w"
	entryNotFoundTemplateConstant    = "%w: %s"
	logMessageOpenedConstant         = "registry opened"
	logMessageClearedConstant        = "registry cleared"
	logMessageEntryStoredConstant    = "registry entry stored"
	logFieldNamespaceConstant        = "namespace"
	logFieldLocationConstant         = "location"
	logFieldCodeConstant             = "component_code"
)

// ErrEntryNotFound reports a lookup for a code that has never been stored.
var ErrEntryNotFound = errors.New(entryNotFoundMessageConstant)

// ErrEmptyCode reports an attempt to store an entry without a code.
var ErrEmptyCode = errors.New(emptyCodeMessageConstant)

// Entry records where a component lives on disk.
type Entry struct {
	Code string `json:"-"`
	Name string `json:"name"`
	Path string `json:"path"`
}

// Store is a durable key-value registry scoped to one namespace.
// The backing database is opened on first use and is safe for concurrent callers.
type Store struct {
	namespace string
	location  string
	logger    *zap.Logger

	mutex    sync.RWMutex
	database *bolt.DB
}

// NewStore binds a store to <metadataRoot>/<namespace>/registry.db without touching the filesystem.
func NewStore(metadataRoot string, namespace string, logger *zap.Logger) (*Store, error) {
	if namespace != NamespaceCloned && namespace != NamespaceSettings {
		return nil, fmt.Errorf(unknownNamespaceTemplateConstant, namespace)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		namespace: namespace,
		location:  filepath.Join(metadataRoot, namespace),
		logger:    logger,
	}, nil
}

// Get returns the entry stored under code or an error wrapping ErrEntryNotFound.
func (store *Store) Get(code string) (Entry, error) {
	var entry Entry
	found := false
	viewError := store.view(func(bucket *bolt.Bucket) error {
		encoded := bucket.Get([]byte(code))
		if encoded == nil {
			return nil
		}
		found = true
		return json.Unmarshal(encoded, &entry)
	})
	if viewError != nil {
		return Entry{}, fmt.Errorf(readErrorTemplateConstant, code, viewError)
	}
	if !found {
		return Entry{}, fmt.Errorf(entryNotFoundTemplateConstant, ErrEntryNotFound, code)
	}
	entry.Code = code
	return entry, nil
}

// Set stores entry under code, replacing any previous value.
func (store *Store) Set(code string, entry Entry) error {
	if len(strings.TrimSpace(code)) == 0 {
		return ErrEmptyCode
	}
	encoded, encodeError := json.Marshal(entry)
	if encodeError != nil {
		return fmt.Errorf(writeErrorTemplateConstant, code, encodeError)
	}

	database, openError := store.open()
	if openError != nil {
		return openError
	}
	defer store.mutex.RUnlock()

	updateError := database.Update(func(transaction *bolt.Tx) error {
		bucket, bucketError := transaction.CreateBucketIfNotExists([]byte(store.namespace))
		if bucketError != nil {
			return bucketError
		}
		return bucket.Put([]byte(code), encoded)
	})
	if updateError != nil {
		return fmt.Errorf(writeErrorTemplateConstant, code, updateError)
	}

	store.logger.Debug(logMessageEntryStoredConstant, zap.String(logFieldNamespaceConstant, store.namespace), zap.String(logFieldCodeConstant, code))
	return nil
}

// Keys returns every stored code in lexicographic order.
func (store *Store) Keys() ([]string, error) {
	keys := []string{}
	viewError := store.view(func(bucket *bolt.Bucket) error {
		return bucket.ForEach(func(key []byte, _ []byte) error {
			keys = append(keys, string(key))
			return nil
		})
	})
	if viewError != nil {
		return nil, fmt.Errorf(listErrorTemplateConstant, store.namespace, viewError)
	}
	return keys, nil
}

// Entries returns every stored entry ordered by code.
func (store *Store) Entries() ([]Entry, error) {
	entries := []Entry{}
	viewError := store.view(func(bucket *bolt.Bucket) error {
		return bucket.ForEach(func(key []byte, encoded []byte) error {
			var entry Entry
			if decodeError := json.Unmarshal(encoded, &entry); decodeError != nil {
				return fmt.Errorf(readErrorTemplateConstant, string(key), decodeError)
			}
			entry.Code = string(key)
			entries = append(entries, entry)
			return nil
		})
	})
	if viewError != nil {
		return nil, fmt.Errorf(listErrorTemplateConstant, store.namespace, viewError)
	}
	return entries, nil
}

// Clear closes the database and deletes the namespace directory. The store reopens empty on next use.
func (store *Store) Clear() error {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	if closeError := store.closeLocked(); closeError != nil {
		return fmt.Errorf(clearErrorTemplateConstant, store.namespace, closeError)
	}
	if removeError := os.RemoveAll(store.location); removeError != nil {
		return fmt.Errorf(clearErrorTemplateConstant, store.namespace, removeError)
	}

	store.logger.Debug(logMessageClearedConstant, zap.String(logFieldNamespaceConstant, store.namespace), zap.String(logFieldLocationConstant, store.location))
	return nil
}

// Close releases the database file lock.
func (store *Store) Close() error {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	return store.closeLocked()
}

func (store *Store) closeLocked() error {
	if store.database == nil {
		return nil
	}
	closeError := store.database.Close()
	store.database = nil
	return closeError
}

// view runs inspect against the namespace bucket. A registry that was never written reads as empty.
func (store *Store) view(inspect func(bucket *bolt.Bucket) error) error {
	if !store.exists() {
		return nil
	}

	database, openError := store.open()
	if openError != nil {
		return openError
	}
	defer store.mutex.RUnlock()

	return database.View(func(transaction *bolt.Tx) error {
		bucket := transaction.Bucket([]byte(store.namespace))
		if bucket == nil {
			return nil
		}
		return inspect(bucket)
	})
}

func (store *Store) exists() bool {
	store.mutex.RLock()
	defer store.mutex.RUnlock()
	if store.database != nil {
		return true
	}
	_, statError := os.Stat(filepath.Join(store.location, databaseFileNameConstant))
	return statError == nil
}

// open returns the database with the read lock held; callers must release it with RUnlock.
func (store *Store) open() (*bolt.DB, error) {
	store.mutex.RLock()
	if store.database != nil {
		return store.database, nil
	}
	store.mutex.RUnlock()

	store.mutex.Lock()
	if store.database == nil {
		if openError := store.openLocked(); openError != nil {
			store.mutex.Unlock()
			return nil, openError
		}
	}
	store.mutex.Unlock()

	return store.open()
}

func (store *Store) openLocked() error {
	if mkdirError := os.MkdirAll(store.location, directoryPermissionsConstant); mkdirError != nil {
		return fmt.Errorf(openErrorTemplateConstant, store.location, mkdirError)
	}
	databasePath := filepath.Join(store.location, databaseFileNameConstant)
	database, openError := bolt.Open(databasePath, databaseFilePermissionsConstant, &bolt.Options{Timeout: databaseOpenTimeoutConstant})
	if openError != nil {
		return fmt.Errorf(openErrorTemplateConstant, databasePath, openError)
	}
	store.database = database
	store.logger.Debug(logMessageOpenedConstant, zap.String(logFieldNamespaceConstant, store.namespace), zap.String(logFieldLocationConstant, databasePath))
	return nil
}
