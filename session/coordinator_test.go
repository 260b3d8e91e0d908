package session_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jrsteele09/go-appeals-client/apimodel"
	"github.com/jrsteele09/go-appeals-client/credentials"
	apperrors "github.com/jrsteele09/go-appeals-client/internal/errors"
	"github.com/jrsteele09/go-appeals-client/session"
	"github.com/jrsteele09/go-appeals-client/storage"
	fakestoragerepo "github.com/jrsteele09/go-appeals-client/storage/repofake"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	user  *apimodel.User
	err   error
	calls atomic.Int32
}

func (f *fakeFetcher) ProfileWithToken(_ context.Context, _ string) (*apimodel.User, error) {
	f.calls.Add(1)
	return f.user, f.err
}

// interruptingStore runs onRead during Identity and onWrite after SetTokens, standing in
// for an in-flight request whose 401 lands in the middle of a transition.
type interruptingStore struct {
	*storage.Service
	onRead  func()
	onWrite func()
}

func (s *interruptingStore) Identity(ctx context.Context) (*apimodel.User, bool) {
	if s.onRead != nil {
		s.onRead()
	}
	return s.Service.Identity(ctx)
}

func (s *interruptingStore) SetTokens(ctx context.Context, access, refresh string) error {
	err := s.Service.SetTokens(ctx, access, refresh)
	if s.onWrite != nil {
		s.onWrite()
	}
	return err
}

func setup(t *testing.T, opts ...session.Option) (*session.Coordinator, *storage.Service, *fakestoragerepo.FakeStorageRepo) {
	t.Helper()
	repo := fakestoragerepo.NewFakeStorageRepo()
	store := storage.New(repo)
	return session.New(store, opts...), store, repo
}

func TestCoordinator_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("complete pair authenticates", func(t *testing.T) {
		c, store, _ := setup(t)
		user := &apimodel.User{ID: "1", FullName: "Ali"}

		require.NoError(t, c.Login(ctx, credentials.Pair{Access: "T1", Refresh: "R1"}, user))

		st := c.State()
		require.True(t, st.IsAuthenticated())
		require.Equal(t, "T1", st.Credential.Access)
		require.Equal(t, user, st.Identity)

		access, ok := store.AccessToken(ctx)
		require.True(t, ok)
		require.Equal(t, "T1", access)
		got, ok := store.Identity(ctx)
		require.True(t, ok)
		require.Equal(t, "Ali", got.FullName)
	})

	t.Run("incomplete pair leaves state unchanged", func(t *testing.T) {
		c, _, repo := setup(t)
		var changes int
		c.Subscribe(func(session.State) { changes++ })

		err := c.Login(ctx, credentials.Pair{Access: "T1"}, nil)
		require.ErrorIs(t, err, apperrors.ErrIncompleteCredentials)
		require.Equal(t, session.Unauthenticated, c.State().Status)
		require.Zero(t, changes)
		require.Zero(t, repo.Len())
	})

	t.Run("persist failure ends unauthenticated", func(t *testing.T) {
		c, _, repo := setup(t)
		repo.FailSet(storage.KeyAccessToken)

		err := c.Login(ctx, credentials.Pair{Access: "T1", Refresh: "R1"}, nil)
		require.ErrorIs(t, err, fakestoragerepo.ErrInjected)
		require.Equal(t, session.Unauthenticated, c.State().Status)
	})

	t.Run("logout during login wins", func(t *testing.T) {
		store := &interruptingStore{Service: storage.New(fakestoragerepo.NewFakeStorageRepo())}
		c := session.New(store)
		store.onWrite = func() { c.HandleInvalidCredential(ctx) }

		err := c.Login(ctx, credentials.Pair{Access: "T1", Refresh: "R1"}, &apimodel.User{ID: "1"})
		require.ErrorIs(t, err, apperrors.ErrSessionEnded)
		require.Equal(t, session.Unauthenticated, c.State().Status)
		_, ok := store.Tokens(ctx)
		require.False(t, ok)
		_, ok = store.Service.Identity(ctx)
		require.False(t, ok)
	})
}

func TestCoordinator_Bootstrap(t *testing.T) {
	ctx := context.Background()

	t.Run("no stored credential", func(t *testing.T) {
		c, _, _ := setup(t)
		var seen []session.Status
		c.Subscribe(func(st session.State) { seen = append(seen, st.Status) })

		st := c.Bootstrap(ctx, nil)
		require.Equal(t, session.Unauthenticated, st.Status)
		require.Equal(t, []session.Status{session.Authenticating, session.Unauthenticated}, seen)
	})

	t.Run("stored credential with identity", func(t *testing.T) {
		c, store, _ := setup(t)
		require.NoError(t, store.SetTokens(ctx, "T1", "R1"))
		store.SetIdentity(ctx, &apimodel.User{ID: "3"})
		fetcher := &fakeFetcher{}

		st := c.Bootstrap(ctx, fetcher)
		require.True(t, st.IsAuthenticated())
		require.Equal(t, apimodel.FlexID("3"), st.Identity.ID)
		require.Zero(t, fetcher.calls.Load())
	})

	t.Run("identity backfilled", func(t *testing.T) {
		c, store, _ := setup(t)
		require.NoError(t, store.SetTokens(ctx, "T1", "R1"))
		fetcher := &fakeFetcher{user: &apimodel.User{ID: "9", Region: "nukus"}}

		st := c.Bootstrap(ctx, fetcher)
		require.True(t, st.IsAuthenticated())
		require.Equal(t, "nukus", st.Identity.Region)

		cached, ok := store.Identity(ctx)
		require.True(t, ok)
		require.Equal(t, apimodel.FlexID("9"), cached.ID)
	})

	t.Run("backfill failure keeps session", func(t *testing.T) {
		c, store, _ := setup(t)
		require.NoError(t, store.SetTokens(ctx, "T1", "R1"))

		st := c.Bootstrap(ctx, &fakeFetcher{err: errors.New("offline")})
		require.True(t, st.IsAuthenticated())
		require.Nil(t, st.Identity)
	})

	t.Run("logout during restore wins", func(t *testing.T) {
		store := &interruptingStore{Service: storage.New(fakestoragerepo.NewFakeStorageRepo())}
		require.NoError(t, store.SetTokens(ctx, "T1", "R1"))
		c := session.New(store)
		store.onRead = func() { c.HandleInvalidCredential(ctx) }
		fetcher := &fakeFetcher{user: &apimodel.User{ID: "9"}}

		st := c.Bootstrap(ctx, fetcher)
		require.Equal(t, session.Unauthenticated, st.Status)
		require.Equal(t, session.Unauthenticated, c.State().Status)
		_, ok := store.AccessToken(ctx)
		require.False(t, ok)
		require.Zero(t, fetcher.calls.Load())
	})

	t.Run("storage outage reads as logged out", func(t *testing.T) {
		c, store, repo := setup(t)
		require.NoError(t, store.SetTokens(ctx, "T1", "R1"))
		repo.FailEverything(true)

		require.Equal(t, session.Unauthenticated, c.Bootstrap(ctx, nil).Status)
	})
}

func TestCoordinator_Logout(t *testing.T) {
	ctx := context.Background()

	t.Run("twice in succession", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		c, _, repo := setup(t, session.WithMetrics(reg))
		require.NoError(t, c.Login(ctx, credentials.Pair{Access: "T1", Refresh: "R1"}, &apimodel.User{ID: "1"}))

		require.NoError(t, c.Logout(ctx))
		require.NoError(t, c.Logout(ctx))

		require.Equal(t, session.State{Status: session.Unauthenticated}, c.State())
		require.Zero(t, repo.Len())
		require.Equal(t, 2, repo.Clears())

		mfs, err := reg.Gather()
		require.NoError(t, err)
		require.Len(t, mfs, 1)
		require.Equal(t, "appeals_client_logouts_total", mfs[0].GetName())
		require.Equal(t, float64(2), mfs[0].GetMetric()[0].GetCounter().GetValue())
	})

	t.Run("concurrent", func(t *testing.T) {
		c, _, repo := setup(t)
		require.NoError(t, c.Login(ctx, credentials.Pair{Access: "T1", Refresh: "R1"}, nil))

		var wg sync.WaitGroup
		errs := make(chan error, 16)
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- c.Logout(ctx)
			}()
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			require.NoError(t, err)
		}
		require.Equal(t, session.Unauthenticated, c.State().Status)
		require.Zero(t, repo.Len())
		require.Equal(t, 16, repo.Clears())
	})

	t.Run("store failure still resets state", func(t *testing.T) {
		c, _, repo := setup(t)
		require.NoError(t, c.Login(ctx, credentials.Pair{Access: "T1", Refresh: "R1"}, nil))
		repo.FailEverything(true)

		require.Error(t, c.Logout(ctx))
		require.Equal(t, session.Unauthenticated, c.State().Status)
	})
}

func TestCoordinator_LogoutHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("default handler logs out", func(t *testing.T) {
		c, _, repo := setup(t)
		require.NoError(t, c.Login(ctx, credentials.Pair{Access: "T1", Refresh: "R1"}, nil))

		c.HandleInvalidCredential(ctx)
		require.Equal(t, session.Unauthenticated, c.State().Status)
		require.Zero(t, repo.Len())
	})

	t.Run("last registration wins", func(t *testing.T) {
		c, _, _ := setup(t)
		var first, second atomic.Int32
		c.SetLogoutHandler(func(context.Context) error { first.Add(1); return nil })
		c.SetLogoutHandler(func(context.Context) error { second.Add(1); return nil })

		c.HandleInvalidCredential(ctx)
		require.Zero(t, first.Load())
		require.Equal(t, int32(1), second.Load())
	})

	t.Run("nil restores default", func(t *testing.T) {
		c, _, _ := setup(t)
		var calls atomic.Int32
		c.SetLogoutHandler(func(context.Context) error { calls.Add(1); return nil })
		c.SetLogoutHandler(nil)
		require.NoError(t, c.Login(ctx, credentials.Pair{Access: "T1", Refresh: "R1"}, nil))

		c.HandleInvalidCredential(ctx)
		require.Zero(t, calls.Load())
		require.Equal(t, session.Unauthenticated, c.State().Status)
	})
}

func TestCoordinator_UpdateIdentity(t *testing.T) {
	ctx := context.Background()
	c, store, _ := setup(t)

	c.UpdateIdentity(ctx, &apimodel.User{ID: "1"})
	require.Nil(t, c.State().Identity)

	require.NoError(t, c.Login(ctx, credentials.Pair{Access: "T1", Refresh: "R1"}, nil))
	c.UpdateIdentity(ctx, &apimodel.User{ID: "1", FullName: "Updated"})
	require.Equal(t, "Updated", c.State().Identity.FullName)

	cached, ok := store.Identity(ctx)
	require.True(t, ok)
	require.Equal(t, "Updated", cached.FullName)
}

func TestCoordinator_Unsubscribe(t *testing.T) {
	c, _, _ := setup(t)
	var calls int
	unsubscribe := c.Subscribe(func(session.State) { calls++ })

	require.NoError(t, c.Logout(context.Background()))
	unsubscribe()
	unsubscribe()
	require.NoError(t, c.Logout(context.Background()))
	require.Equal(t, 1, calls)
}
