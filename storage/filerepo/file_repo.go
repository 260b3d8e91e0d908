// Package filerepo persists the credential store as a single JSON document on disk,
// optionally sealed with NaCl secretbox.
package filerepo

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	apperrors "github.com/jrsteele09/go-appeals-client/internal/errors"
	"github.com/jrsteele09/go-appeals-client/storage"
	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	saltSize  = 16
	nonceSize = 24
	keySize   = 32
	hkdfInfo  = "eappeal-credential-store"
)

var _ storage.Repo = (*FileRepo)(nil)

// ErrDecrypt is returned when the store file cannot be opened with the configured passphrase.
var ErrDecrypt = errors.New("store file could not be decrypted")

type FileRepo struct {
	path       string
	passphrase []byte
	lock       sync.Mutex
}

type Option func(*FileRepo)

// WithPassphrase seals the file with a key derived from passphrase (HKDF-SHA256, random salt per write).
func WithPassphrase(passphrase string) Option {
	return func(r *FileRepo) {
		if passphrase != "" {
			r.passphrase = []byte(passphrase)
		}
	}
}

func New(path string, options ...Option) *FileRepo {
	r := &FileRepo{path: path}
	for _, opt := range options {
		opt(r)
	}
	return r
}

func (r *FileRepo) Get(_ context.Context, key string) (string, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	values, err := r.load()
	if err != nil {
		return "", err
	}
	v, ok := values[key]
	if !ok {
		return "", apperrors.ErrNotFound
	}
	return v, nil
}

func (r *FileRepo) Set(_ context.Context, key, value string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	values, err := r.load()
	if err != nil {
		return err
	}
	values[key] = value
	return r.save(values)
}

func (r *FileRepo) Remove(_ context.Context, key string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	values, err := r.load()
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	return r.save(values)
}

// Clear deletes the file, which also recovers from a corrupt or undecryptable store.
func (r *FileRepo) Clear(_ context.Context) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if err := os.Remove(r.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("[FileRepo.Clear] %w", err)
	}
	return nil
}

func (r *FileRepo) load() (map[string]string, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("[FileRepo.load] read: %w", err)
	}
	if len(data) == 0 {
		return map[string]string{}, nil
	}

	if r.passphrase != nil {
		if data, err = r.open(data); err != nil {
			return nil, err
		}
	}

	values := map[string]string{}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("[FileRepo.load] decode: %w", err)
	}
	return values, nil
}

func (r *FileRepo) save(values map[string]string) error {
	data, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("[FileRepo.save] encode: %w", err)
	}
	if r.passphrase != nil {
		if data, err = r.seal(data); err != nil {
			return err
		}
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("[FileRepo.save] mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".store-*")
	if err != nil {
		return fmt.Errorf("[FileRepo.save] temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("[FileRepo.save] write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("[FileRepo.save] sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("[FileRepo.save] close: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return fmt.Errorf("[FileRepo.save] chmod: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("[FileRepo.save] rename: %w", err)
	}
	return nil
}

func (r *FileRepo) deriveKey(salt []byte) (*[keySize]byte, error) {
	var key [keySize]byte
	kdf := hkdf.New(sha256.New, r.passphrase, salt, []byte(hkdfInfo))
	if _, err := io.ReadFull(kdf, key[:]); err != nil {
		return nil, fmt.Errorf("[FileRepo.deriveKey] %w", err)
	}
	return &key, nil
}

// seal lays the file out as salt || nonce || box
func (r *FileRepo) seal(plain []byte) ([]byte, error) {
	header := make([]byte, saltSize+nonceSize)
	if _, err := rand.Read(header); err != nil {
		return nil, fmt.Errorf("[FileRepo.seal] rand: %w", err)
	}
	key, err := r.deriveKey(header[:saltSize])
	if err != nil {
		return nil, err
	}
	var nonce [nonceSize]byte
	copy(nonce[:], header[saltSize:])
	return secretbox.Seal(header, plain, &nonce, key), nil
}

func (r *FileRepo) open(sealed []byte) ([]byte, error) {
	if len(sealed) < saltSize+nonceSize+secretbox.Overhead {
		return nil, ErrDecrypt
	}
	key, err := r.deriveKey(sealed[:saltSize])
	if err != nil {
		return nil, err
	}
	var nonce [nonceSize]byte
	copy(nonce[:], sealed[saltSize:saltSize+nonceSize])
	plain, ok := secretbox.Open(nil, sealed[saltSize+nonceSize:], &nonce, key)
	if !ok {
		return nil, ErrDecrypt
	}
	return plain, nil
}
