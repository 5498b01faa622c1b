package credentialsfake

import (
	"sync"

	"github.com/jrsteele09/taskboard-client/credentials"
)

var _ credentials.Store = (*FakeStore)(nil)

// FakeStore is an in-memory credential store for tests.
type FakeStore struct {
	values map[string]string
	lock   sync.RWMutex
}

func NewFakeStore() *FakeStore {
	return &FakeStore{values: make(map[string]string)}
}

func (fs *FakeStore) Get(key string) (string, bool) {
	fs.lock.RLock()
	defer fs.lock.RUnlock()
	v, ok := fs.values[key]
	return v, ok
}

func (fs *FakeStore) Set(key, value string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	fs.values[key] = value
	return nil
}

func (fs *FakeStore) ClearAll() error {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	fs.values = make(map[string]string)
	return nil
}

// Len reports how many values are stored, for asserting a full clear.
func (fs *FakeStore) Len() int {
	fs.lock.RLock()
	defer fs.lock.RUnlock()
	return len(fs.values)
}
