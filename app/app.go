// Package app is the composition root. It builds the credential store, the single session
// coordinator and the service clients, and hands the coordinator to the executor so every
// client reports invalid credentials to the same place.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jrsteele09/go-appeals-client/accounts"
	"github.com/jrsteele09/go-appeals-client/api"
	"github.com/jrsteele09/go-appeals-client/apimodel"
	"github.com/jrsteele09/go-appeals-client/appeals"
	"github.com/jrsteele09/go-appeals-client/credentials"
	"github.com/jrsteele09/go-appeals-client/i18n"
	"github.com/jrsteele09/go-appeals-client/internal/config"
	"github.com/jrsteele09/go-appeals-client/notifications"
	"github.com/jrsteele09/go-appeals-client/ratings"
	"github.com/jrsteele09/go-appeals-client/session"
	"github.com/jrsteele09/go-appeals-client/storage"
	"github.com/jrsteele09/go-appeals-client/storage/filerepo"
	"github.com/jrsteele09/go-appeals-client/storage/redisrepo"
	fakestoragerepo "github.com/jrsteele09/go-appeals-client/storage/repofake"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

type App struct {
	Config     config.Config
	Registry   *prometheus.Registry
	Translator i18n.Translator

	Store   *storage.Service
	Session *session.Coordinator
	Client  *api.Client
	Auth    *api.AuthClient

	Accounts      *accounts.Service
	Appeals       *appeals.Service
	Notifications *notifications.Service
	Ratings       *ratings.Service

	closers []func() error
}

type options struct {
	repo       storage.Repo
	httpClient *http.Client
}

// Option defines a function type to modify how the App is built.
type Option func(*options)

// WithRepo replaces the configured store backend.
func WithRepo(repo storage.Repo) Option {
	return func(o *options) {
		o.repo = repo
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) {
		o.httpClient = hc
	}
}

// New wires the application. It does not restore the session; call Start for that.
func New(ctx context.Context, cfg config.Config, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{
		Config:     cfg,
		Registry:   prometheus.NewRegistry(),
		Translator: i18n.Default().Translator(cfg.GetLanguage()),
	}

	repo := o.repo
	if repo == nil {
		var err error
		if repo, err = a.openRepo(ctx, cfg); err != nil {
			return nil, err
		}
	}
	a.Store = storage.New(repo)
	a.Session = session.New(a.Store, session.WithMetrics(a.Registry))

	clientOpts := []api.ClientOption{
		api.WithMetrics(api.NewMetrics(a.Registry)),
		api.WithInvalidCredentialHandler(a.Session),
	}
	if o.httpClient != nil {
		clientOpts = append(clientOpts, api.WithHTTPClient(o.httpClient))
	}
	client, err := api.NewFromConfig(cfg, clientOpts...)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("[app.New] %w", err)
	}
	a.Client = client
	a.Auth = api.NewAuthClient(client, a.Store)

	a.Accounts = accounts.New(a.Auth)
	a.Appeals = appeals.New(a.Auth)
	a.Notifications = notifications.New(a.Auth)
	a.Ratings = ratings.New(a.Auth, a.Store)

	log.Debug().
		Str("baseURL", client.BaseURL()).
		Str("store", string(cfg.GetStoreBackend())).
		Msg("application wired")
	return a, nil
}

func (a *App) openRepo(ctx context.Context, cfg config.StoreConfig) (storage.Repo, error) {
	switch cfg.GetStoreBackend() {
	case config.StoreBackendMemory:
		return fakestoragerepo.NewFakeStorageRepo(), nil
	case config.StoreBackendRedis:
		rdb, err := redisrepo.Connect(ctx, cfg.GetRedisAddr(), cfg.GetRedisPassword(), cfg.GetRedisDB())
		if err != nil {
			return nil, fmt.Errorf("[app.New] %w", err)
		}
		a.closers = append(a.closers, rdb.Close)
		return redisrepo.New(rdb, cfg.GetRedisKey()), nil
	default:
		var fileOpts []filerepo.Option
		if p := cfg.GetStorePassphrase(); p != "" {
			fileOpts = append(fileOpts, filerepo.WithPassphrase(p))
		}
		return filerepo.New(cfg.GetStorePath(), fileOpts...), nil
	}
}

// Start restores the stored session and backfills the profile if it is missing.
func (a *App) Start(ctx context.Context) session.State {
	return a.Session.Bootstrap(ctx, a.Accounts)
}

// SignIn logs in with phone and password, fetches the profile and opens the session.
// A failed profile fetch does not prevent signing in.
func (a *App) SignIn(ctx context.Context, phone, password string) (*session.State, error) {
	pair, err := a.Accounts.Login(ctx, phone, password)
	if err != nil {
		return nil, err
	}

	user, err := a.Accounts.ProfileWithToken(ctx, pair.Access)
	if err != nil {
		log.Warn().Err(err).Msg("profile fetch after login failed")
	}

	if err := a.Session.Login(ctx, credentials.Pair{Access: pair.Access, Refresh: pair.Refresh}, user); err != nil {
		return nil, err
	}
	st := a.Session.State()
	return &st, nil
}

// SignOut ends the session.
func (a *App) SignOut(ctx context.Context) error {
	return a.Session.Logout(ctx)
}

// RefreshProfile reloads the profile and stores it as the session identity.
func (a *App) RefreshProfile(ctx context.Context) (*apimodel.User, error) {
	user, err := a.Accounts.Profile(ctx)
	if err != nil {
		return nil, err
	}
	a.Session.UpdateIdentity(ctx, user)
	return user, nil
}

// Close releases the store backend.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	a.closers = nil
	return errors.Join(errs...)
}
