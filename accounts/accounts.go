// Package accounts is the authentication service client: registration, login and the
// signed-in user's profile.
package accounts

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-appeals-client/api"
	"github.com/jrsteele09/go-appeals-client/apimodel"
	apperrors "github.com/jrsteele09/go-appeals-client/internal/errors"
	"github.com/rs/zerolog/log"
)

// RegistrationData is the POST /users/create/ payload.
type RegistrationData struct {
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Region   string `json:"region"`
	Address  string `json:"address"`
	Password string `json:"password"`
}

// RegistrationResponse is returned by a successful registration.
type RegistrationResponse struct {
	User    apimodel.User `json:"user"`
	Token   string        `json:"token,omitempty"`
	Message string        `json:"message,omitempty"`
}

type loginData struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// UpdateUserData holds the profile fields to change. Nil fields are left untouched.
type UpdateUserData struct {
	FullName *string `json:"full_name,omitempty"`
	Email    *string `json:"email,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Region   *string `json:"region,omitempty"`
	Password *string `json:"password,omitempty"`
}

type Service struct {
	auth *api.AuthClient
}

func New(auth *api.AuthClient) *Service {
	return &Service{auth: auth}
}

// Register creates an account. It needs no credential.
func (s *Service) Register(ctx context.Context, data RegistrationData) (*RegistrationResponse, error) {
	res, err := s.auth.Client().Do(ctx, &api.Request{
		Method: http.MethodPost,
		Path:   api.RouteUsersCreate,
		JSON:   data,
	})
	if err != nil {
		log.Err(err).Msg("registration failed")
		return nil, fmt.Errorf("[accounts.Register] %w", err)
	}
	return api.DecodeJSON[RegistrationResponse](res)
}

// Login exchanges phone and password for a credential pair. Failures wrap ErrLoginFailed
// and keep the underlying cause.
func (s *Service) Login(ctx context.Context, phone, password string) (*apimodel.TokenPair, error) {
	if strings.TrimSpace(phone) == "" || password == "" {
		return nil, apperrors.ErrLoginFailed
	}

	res, err := s.auth.Client().Do(ctx, &api.Request{
		Method: http.MethodPost,
		Path:   api.RouteAuthToken,
		JSON:   loginData{Phone: phone, Password: password},
	})
	if err != nil {
		log.Err(err).Msg("login failed")
		return nil, fmt.Errorf("%w: %w", apperrors.ErrLoginFailed, err)
	}

	pair, err := api.DecodeJSON[apimodel.TokenPair](res)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrLoginFailed, err)
	}
	return pair, nil
}

// Profile fetches the signed-in user with the stored credential.
func (s *Service) Profile(ctx context.Context) (*apimodel.User, error) {
	res, err := s.auth.Do(ctx, &api.Request{Path: api.RouteUsersMe})
	if err != nil {
		return nil, fmt.Errorf("[accounts.Profile] %w", err)
	}
	return api.DecodeJSON[apimodel.User](res)
}

// ProfileWithToken fetches the user with an explicit access credential, used between
// login and storing the credential. An empty access falls back to Profile.
func (s *Service) ProfileWithToken(ctx context.Context, access string) (*apimodel.User, error) {
	if access == "" {
		return s.Profile(ctx)
	}
	res, err := s.auth.DoWithToken(ctx, access, &api.Request{Path: api.RouteUsersMe})
	if err != nil {
		return nil, fmt.Errorf("[accounts.ProfileWithToken] %w", err)
	}
	return api.DecodeJSON[apimodel.User](res)
}

func (s *Service) UpdateProfile(ctx context.Context, data UpdateUserData) (*apimodel.User, error) {
	res, err := s.auth.Do(ctx, &api.Request{
		Method: http.MethodPut,
		Path:   api.RouteUsersUpdate,
		JSON:   data,
	})
	if err != nil {
		return nil, fmt.Errorf("[accounts.UpdateProfile] %w", err)
	}
	return api.DecodeJSON[apimodel.User](res)
}

// DeleteAccount removes the signed-in user's account. The caller is expected to log out.
func (s *Service) DeleteAccount(ctx context.Context) error {
	if _, err := s.auth.Do(ctx, &api.Request{Method: http.MethodDelete, Path: api.RouteUsersDelete}); err != nil {
		return fmt.Errorf("[accounts.DeleteAccount] %w", err)
	}
	return nil
}
