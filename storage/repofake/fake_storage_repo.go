package fakestoragerepo

import (
	"context"
	"errors"
	"sync"

	apperrors "github.com/jrsteele09/go-appeals-client/internal/errors"
	"github.com/jrsteele09/go-appeals-client/storage"
)

var _ storage.Repo = (*FakeStorageRepo)(nil)

// ErrInjected is returned by operations configured to fail.
var ErrInjected = errors.New("injected storage failure")

// FakeStorageRepo is an in-memory Repo. It doubles as the "memory" store backend
// and lets tests inject read and write failures per key.
type FakeStorageRepo struct {
	values  map[string]string
	failGet map[string]bool
	failSet map[string]bool
	failAll bool
	clears  int
	lock    sync.RWMutex
}

func NewFakeStorageRepo() *FakeStorageRepo {
	return &FakeStorageRepo{
		values:  make(map[string]string),
		failGet: make(map[string]bool),
		failSet: make(map[string]bool),
	}
}

// FailGet makes Get fail for key
func (r *FakeStorageRepo) FailGet(key string) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.failGet[key] = true
}

// FailSet makes Set fail for key
func (r *FakeStorageRepo) FailSet(key string) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.failSet[key] = true
}

// FailEverything makes every operation fail
func (r *FakeStorageRepo) FailEverything(fail bool) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.failAll = fail
}

func (r *FakeStorageRepo) Get(_ context.Context, key string) (string, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	if r.failAll || r.failGet[key] {
		return "", ErrInjected
	}
	v, ok := r.values[key]
	if !ok {
		return "", apperrors.ErrNotFound
	}
	return v, nil
}

func (r *FakeStorageRepo) Set(_ context.Context, key, value string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.failAll || r.failSet[key] {
		return ErrInjected
	}
	r.values[key] = value
	return nil
}

func (r *FakeStorageRepo) Remove(_ context.Context, key string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.failAll {
		return ErrInjected
	}
	delete(r.values, key)
	return nil
}

func (r *FakeStorageRepo) Clear(_ context.Context) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.failAll {
		return ErrInjected
	}
	r.values = make(map[string]string)
	r.clears++
	return nil
}

// Len returns the number of stored keys
func (r *FakeStorageRepo) Len() int {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return len(r.values)
}

// Clears returns how many times Clear succeeded
func (r *FakeStorageRepo) Clears() int {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.clears
}
