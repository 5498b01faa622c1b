package credentials

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

const (
	storeDirName  = "taskboard"
	storeFileName = "credentials.json"
)

var _ Store = (*FileStore)(nil)

// FileStore persists credentials as a JSON file under the user config
// directory (~/.config/taskboard/credentials.json). Writes replace the file
// atomically so a crash mid-write never leaves partial credentials behind.
type FileStore struct {
	path   string
	lock   sync.Mutex
	values map[string]string
}

// NewFileStore loads (or initializes) the credential file at path. An absent
// file is treated as an empty store.
func NewFileStore(path string) (*FileStore, error) {
	fs := &FileStore{path: path, values: make(map[string]string)}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return fs, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "[NewFileStore] read credentials file")
	}
	if err := json.Unmarshal(data, &fs.values); err != nil {
		return nil, errors.Wrap(err, "[NewFileStore] parse credentials file")
	}
	return fs, nil
}

// DefaultPath returns the standard credential file location for the current
// user.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "[DefaultPath] user home dir")
	}
	return filepath.Join(home, ".config", storeDirName, storeFileName), nil
}

func (fs *FileStore) Get(key string) (string, bool) {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	v, ok := fs.values[key]
	return v, ok
}

func (fs *FileStore) Set(key, value string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	fs.values[key] = value
	return fs.flush()
}

func (fs *FileStore) ClearAll() error {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	fs.values = make(map[string]string)
	return fs.flush()
}

// flush writes the current values to disk. Callers must hold the lock.
func (fs *FileStore) flush() error {
	data, err := json.MarshalIndent(fs.values, "", "  ")
	if err != nil {
		return errors.Wrap(err, "[FileStore.flush] marshal")
	}
	if err := os.MkdirAll(filepath.Dir(fs.path), 0o700); err != nil {
		return errors.Wrap(err, "[FileStore.flush] create config dir")
	}

	tmp, err := os.CreateTemp(filepath.Dir(fs.path), storeFileName+".*")
	if err != nil {
		return errors.Wrap(err, "[FileStore.flush] create temp file")
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(err, "[FileStore.flush] write temp file")
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(err, "[FileStore.flush] chmod temp file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "[FileStore.flush] close temp file")
	}
	if err := os.Rename(tmpName, fs.path); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "[FileStore.flush] replace credentials file")
	}
	return nil
}
