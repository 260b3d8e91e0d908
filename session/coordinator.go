// Package session holds the process-wide session coordinator. Every service client reports
// credential invalidity to the same Coordinator, which clears the credential store and
// resets the session state that the UI layer subscribes to.
package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/jrsteele09/go-appeals-client/apimodel"
	"github.com/jrsteele09/go-appeals-client/credentials"
	apperrors "github.com/jrsteele09/go-appeals-client/internal/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
)

// Store is the part of the credential store the coordinator needs.
type Store interface {
	Tokens(ctx context.Context) (credentials.Pair, bool)
	SetTokens(ctx context.Context, access, refresh string) error
	Identity(ctx context.Context) (*apimodel.User, bool)
	SetIdentity(ctx context.Context, user *apimodel.User)
	ClearAll(ctx context.Context) error
}

// ProfileFetcher loads the identity for a freshly restored credential.
type ProfileFetcher interface {
	ProfileWithToken(ctx context.Context, access string) (*apimodel.User, error)
}

// LogoutHandler is invoked when a request proves the credential is invalid.
type LogoutHandler func(ctx context.Context) error

// Coordinator owns the session state. Construct one per process and pass it to every
// client as their api.InvalidCredentialHandler.
type Coordinator struct {
	store   Store
	handler atomic.Pointer[LogoutHandler]
	logouts prometheus.Counter

	lock  sync.RWMutex
	state State
	// epoch counts logouts; a transition to Authenticated started under an older epoch is dropped
	epoch uint64

	subsLock sync.Mutex
	subs     map[int]func(State)
	nextSub  int
}

// Option defines a function type to modify the Coordinator instance.
type Option func(*Coordinator)

// WithMetrics registers appeals_client_logouts_total with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *Coordinator) {
		c.logouts = promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "appeals_client_logouts_total",
			Help: "Completed logouts, explicit or triggered by an invalid credential.",
		})
	}
}

// New creates a coordinator in the Unauthenticated state. Until SetLogoutHandler is called
// the coordinator's own Logout handles invalid credentials.
func New(store Store, options ...Option) *Coordinator {
	c := &Coordinator{
		store: store,
		subs:  make(map[int]func(State)),
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// SetLogoutHandler replaces the live handler. The last registration wins; nil restores the default.
func (c *Coordinator) SetLogoutHandler(h LogoutHandler) {
	if h == nil {
		c.handler.Store(nil)
		return
	}
	c.handler.Store(&h)
}

// HandleInvalidCredential runs the live logout handler. It may be called concurrently by any
// number of in-flight requests.
func (c *Coordinator) HandleInvalidCredential(ctx context.Context) {
	var err error
	if h := c.handler.Load(); h != nil {
		err = (*h)(ctx)
	} else {
		err = c.Logout(ctx)
	}
	if err != nil {
		log.Err(err).Msg("logout after invalid credential failed")
	}
}

// State returns the current snapshot.
func (c *Coordinator) State() State {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.state
}

// Subscribe registers fn for every state change and returns a function that removes it.
// fn runs on the goroutine that changed the state.
func (c *Coordinator) Subscribe(fn func(State)) (unsubscribe func()) {
	c.subsLock.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.subsLock.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.subsLock.Lock()
			delete(c.subs, id)
			c.subsLock.Unlock()
		})
	}
}

// Bootstrap restores the session from the store. A stored pair moves the session to
// Authenticated; a missing identity is then fetched with fetcher (which may be nil) and
// a failure to fetch it leaves the session authenticated.
func (c *Coordinator) Bootstrap(ctx context.Context, fetcher ProfileFetcher) State {
	epoch := c.begin()

	pair, ok := c.store.Tokens(ctx)
	if !ok {
		log.Debug().Msg("no stored credential")
		return c.setState(State{Status: Unauthenticated})
	}

	identity, _ := c.store.Identity(ctx)
	st, ok := c.authenticate(epoch, State{Status: Authenticated, Credential: &pair, Identity: identity})
	if !ok {
		log.Info().Msg("session ended while restoring, staying signed out")
		return st
	}
	if identity != nil || fetcher == nil {
		return st
	}

	user, err := fetcher.ProfileWithToken(ctx, pair.Access)
	if err != nil {
		log.Warn().Err(err).Msg("identity backfill failed, continuing without profile")
		return c.State()
	}
	return c.backfillIdentity(ctx, pair, user)
}

// Login stores a freshly issued pair and marks the session authenticated. An incomplete
// pair is rejected with the state left as it was.
func (c *Coordinator) Login(ctx context.Context, pair credentials.Pair, identity *apimodel.User) error {
	if err := pair.Validate(); err != nil {
		return fmt.Errorf("[Coordinator.Login] %w", err)
	}

	epoch := c.begin()
	if err := c.store.SetTokens(ctx, pair.Access, pair.Refresh); err != nil {
		c.setState(State{Status: Unauthenticated})
		return fmt.Errorf("[Coordinator.Login] persist credential: %w", err)
	}
	if identity != nil {
		c.store.SetIdentity(ctx, identity)
	}

	if _, ok := c.authenticate(epoch, State{Status: Authenticated, Credential: &pair, Identity: identity}); !ok {
		if err := c.store.ClearAll(ctx); err != nil {
			log.Error().Err(err).Msg("failed to clear credential stored by an interrupted login")
		}
		return fmt.Errorf("[Coordinator.Login] %w", apperrors.ErrSessionEnded)
	}
	log.Info().Msg("session authenticated")
	return nil
}

// Logout clears the store and resets the state. Every call does the full clear, so repeated
// or concurrent calls converge on the same end state. The only error is a store failure,
// and the state is reset regardless.
func (c *Coordinator) Logout(ctx context.Context) error {
	c.lock.Lock()
	c.epoch++
	c.lock.Unlock()

	err := c.store.ClearAll(ctx)
	c.setState(State{Status: Unauthenticated})
	if c.logouts != nil {
		c.logouts.Inc()
	}
	if err != nil {
		return fmt.Errorf("[Coordinator.Logout] clear store: %w", err)
	}
	log.Info().Msg("session ended")
	return nil
}

// UpdateIdentity replaces the cached profile of an authenticated session.
func (c *Coordinator) UpdateIdentity(ctx context.Context, user *apimodel.User) {
	st := c.State()
	if !st.IsAuthenticated() || user == nil {
		return
	}
	c.backfillIdentity(ctx, *st.Credential, user)
}

// backfillIdentity attaches user only if the session still holds pair.
func (c *Coordinator) backfillIdentity(ctx context.Context, pair credentials.Pair, user *apimodel.User) State {
	c.lock.Lock()
	if !c.state.IsAuthenticated() || *c.state.Credential != pair {
		st := c.state
		c.lock.Unlock()
		return st
	}
	c.state = State{Status: Authenticated, Credential: c.state.Credential, Identity: user}
	st := c.state
	c.lock.Unlock()

	c.store.SetIdentity(ctx, user)
	c.notify(st)
	return st
}

// begin moves to Authenticating and returns the logout epoch the transition started in.
func (c *Coordinator) begin() uint64 {
	c.lock.Lock()
	epoch := c.epoch
	c.state = State{Status: Authenticating}
	st := c.state
	c.lock.Unlock()

	c.notify(st)
	return epoch
}

// authenticate applies st only if no logout happened since begin returned epoch.
// Otherwise it returns the current state and false.
func (c *Coordinator) authenticate(epoch uint64, st State) (State, bool) {
	c.lock.Lock()
	if c.epoch != epoch {
		cur := c.state
		c.lock.Unlock()
		return cur, false
	}
	c.state = st
	c.lock.Unlock()

	c.notify(st)
	return st, true
}

func (c *Coordinator) setState(st State) State {
	c.lock.Lock()
	c.state = st
	c.lock.Unlock()

	c.notify(st)
	return st
}

func (c *Coordinator) notify(st State) {
	c.subsLock.Lock()
	fns := make([]func(State), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subsLock.Unlock()

	for _, fn := range fns {
		fn(st)
	}
}
