// Package apitest provides fixtures for testing the service clients against an httptest server.
package apitest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jrsteele09/go-appeals-client/api"
	"github.com/jrsteele09/go-appeals-client/storage"
	fakestoragerepo "github.com/jrsteele09/go-appeals-client/storage/repofake"
	"github.com/stretchr/testify/require"
)

// Recorder counts invalid-credential notifications.
type Recorder struct {
	calls atomic.Int32
}

func (r *Recorder) HandleInvalidCredential(context.Context) {
	r.calls.Add(1)
}

func (r *Recorder) Calls() int {
	return int(r.calls.Load())
}

// Server is an httptest server that answers reachability probes and records every other request.
type Server struct {
	*httptest.Server

	lock     sync.Mutex
	requests []*http.Request
	bodies   [][]byte
}

// NewServer starts a server serving fn for all non-HEAD requests.
func NewServer(t *testing.T, fn http.HandlerFunc) *Server {
	t.Helper()
	s := &Server{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusOK)
			return
		}
		body, _ := io.ReadAll(r.Body)
		s.lock.Lock()
		s.requests = append(s.requests, r.Clone(context.Background()))
		s.bodies = append(s.bodies, body)
		s.lock.Unlock()
		r.Body = io.NopCloser(bytes.NewReader(body))
		fn(w, r)
	}))
	t.Cleanup(s.Close)
	return s
}

// Requests returns the recorded non-probe requests.
func (s *Server) Requests() []*http.Request {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]*http.Request(nil), s.requests...)
}

// LastBody returns the body of the most recent request.
func (s *Server) LastBody() []byte {
	s.lock.Lock()
	defer s.lock.Unlock()
	if len(s.bodies) == 0 {
		return nil
	}
	return s.bodies[len(s.bodies)-1]
}

// Fixture bundles an authenticated client wired to a fake store.
type Fixture struct {
	Server   *Server
	Store    *storage.Service
	Repo     *fakestoragerepo.FakeStorageRepo
	Recorder *Recorder
	Auth     *api.AuthClient
}

// NewFixture returns a client for fn. handler defaults to a Recorder when nil.
func NewFixture(t *testing.T, fn http.HandlerFunc, handler api.InvalidCredentialHandler) *Fixture {
	t.Helper()
	f := &Fixture{
		Server:   NewServer(t, fn),
		Repo:     fakestoragerepo.NewFakeStorageRepo(),
		Recorder: &Recorder{},
	}
	f.Store = storage.New(f.Repo)
	if handler == nil {
		handler = f.Recorder
	}

	client, err := api.New(f.Server.URL, api.WithInvalidCredentialHandler(handler))
	require.NoError(t, err)
	f.Auth = api.NewAuthClient(client, f.Store)
	return f
}

// SignIn stores a credential pair.
func (f *Fixture) SignIn(t *testing.T, access, refresh string) {
	t.Helper()
	require.NoError(t, f.Store.SetTokens(context.Background(), access, refresh))
}

// WriteJSON writes body with a JSON content type.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	switch b := body.(type) {
	case string:
		_, _ = io.WriteString(w, b)
	default:
		_ = json.NewEncoder(w).Encode(b)
	}
}
