package api

import (
	"context"

	"github.com/jrsteele09/go-appeals-client/credentials"
	apperrors "github.com/jrsteele09/go-appeals-client/internal/errors"
	"github.com/rs/zerolog/log"
)

// AccessTokenSource provides the currently stored access credential.
type AccessTokenSource interface {
	AccessToken(ctx context.Context) (string, bool)
}

// AuthClient executes requests that require a bearer credential.
type AuthClient struct {
	client *Client
	tokens AccessTokenSource
}

func NewAuthClient(client *Client, tokens AccessTokenSource) *AuthClient {
	return &AuthClient{client: client, tokens: tokens}
}

// Client returns the unauthenticated executor underneath.
func (a *AuthClient) Client() *Client {
	return a.client
}

// Do attaches the stored access credential and executes r. With no stored credential the
// invalid-credential handler runs and ErrTokenNotFound is returned without any network call.
func (a *AuthClient) Do(ctx context.Context, r *Request) (*Result, error) {
	access, ok := a.tokens.AccessToken(ctx)
	if !ok {
		log.Info().Str("path", r.Path).Msg("no stored credential for authenticated request")
		a.client.handler.HandleInvalidCredential(context.WithoutCancel(ctx))
		return nil, apperrors.ErrTokenNotFound
	}

	authed := *r
	authed.Token = credentials.Pair{Access: access}.OAuth2Token()
	return a.client.Do(ctx, &authed)
}

// DoWithToken executes r with an explicitly supplied access credential, used straight after
// login before the credential has been stored.
func (a *AuthClient) DoWithToken(ctx context.Context, access string, r *Request) (*Result, error) {
	authed := *r
	authed.Token = credentials.Pair{Access: access}.OAuth2Token()
	return a.client.Do(ctx, &authed)
}
