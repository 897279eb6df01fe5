// Package storefake provides an in-memory Store for tests.
package storefake

import (
	"sync"

	"github.com/fundfolio/go-portfolio-client/internal/utils"
	"github.com/fundfolio/go-portfolio-client/tokenstore"
)

type FakeStore struct {
	mu    sync.Mutex
	token *string

	// Err, when set, is returned by every operation.
	Err error
}

var _ tokenstore.Store = (*FakeStore)(nil)

func NewFakeStore() *FakeStore {
	return &FakeStore{}
}

func (f *FakeStore) Save(token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.token = utils.Ptr(token)
	return nil
}

func (f *FakeStore) Retrieve() (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return "", false, f.Err
	}
	if f.token == nil {
		return "", false, nil
	}
	return utils.Value(f.token), true, nil
}

func (f *FakeStore) Remove() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.token = nil
	return nil
}
