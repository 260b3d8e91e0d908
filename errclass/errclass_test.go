package errclass_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jrsteele09/go-appeals-client/api"
	"github.com/jrsteele09/go-appeals-client/errclass"
	"github.com/jrsteele09/go-appeals-client/i18n"
	apperrors "github.com/jrsteele09/go-appeals-client/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want errclass.Category
	}{
		{"nil", nil, errclass.Unknown},
		{"missing token", fmt.Errorf("[x] %w", apperrors.ErrTokenNotFound), errclass.AuthInvalid},
		{"server rejected credential", &api.HTTPError{StatusCode: 401, CredentialInvalid: true}, errclass.AuthInvalid},
		{"plain 401", &api.HTTPError{StatusCode: 401}, errclass.ClientError},
		{"timeout", fmt.Errorf("%w: %w", apperrors.ErrTimeout, context.DeadlineExceeded), errclass.Timeout},
		{"unreachable", fmt.Errorf("%w: dial", apperrors.ErrServerUnreachable), errclass.NetworkUnreachable},
		{"network", fmt.Errorf("%w: reset", apperrors.ErrNetwork), errclass.NetworkUnreachable},
		{"not found", fmt.Errorf("[x] %w", &api.HTTPError{StatusCode: 404}), errclass.ClientError},
		{"server", &api.HTTPError{StatusCode: 502}, errclass.ServerError},
		{"local validation", apperrors.ErrInvalidRating, errclass.ClientError},
		{"login failed", fmt.Errorf("%w: %w", apperrors.ErrLoginFailed, &api.HTTPError{StatusCode: 401}), errclass.ClientError},
		{"other", errors.New("boom"), errclass.Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, errclass.Classify(tt.err))
		})
	}
}

func TestRetryable(t *testing.T) {
	require.True(t, errclass.Retryable(errclass.Timeout))
	require.True(t, errclass.Retryable(errclass.NetworkUnreachable))
	require.True(t, errclass.Retryable(errclass.ServerError))
	require.False(t, errclass.Retryable(errclass.AuthInvalid))
	require.False(t, errclass.Retryable(errclass.ClientError))
	require.False(t, errclass.Retryable(errclass.Unknown))
}

func TestMessage(t *testing.T) {
	en := i18n.Default().Translator("en")

	require.Equal(t, en.T(errclass.KeySessionExpired), errclass.Message(apperrors.ErrTokenNotFound, en, ""))
	require.Equal(t, en.T(errclass.KeyServerUnreachable), errclass.Message(apperrors.ErrServerUnreachable, en, ""))
	require.Equal(t, en.T(errclass.KeyNetwork), errclass.Message(apperrors.ErrNetwork, en, ""))
	require.Equal(t, en.T(errclass.KeyServer), errclass.Message(&api.HTTPError{StatusCode: 500}, en, ""))
	require.Equal(t, en.T(errclass.KeyForbidden), errclass.Message(&api.HTTPError{StatusCode: 403}, en, ""))
	require.Equal(t, en.T("errors.invalid_rating"), errclass.Message(apperrors.ErrInvalidRating, en, ""))
	require.Equal(t, en.T(errclass.KeyGeneric), errclass.Message(errors.New("?"), en, ""))
	require.Equal(t, en.T(errclass.KeyNotFound), errclass.Message(errors.New("?"), en, errclass.KeyNotFound))

	t.Run("bad request lists fields", func(t *testing.T) {
		err := &api.HTTPError{StatusCode: 400, Body: `{"text":["This field is required."],"category":["Invalid pk."]}`}
		msg := errclass.Message(err, en, "")
		require.Equal(t, en.T(errclass.KeyBadRequest)+"\ncategory: Invalid pk.\ntext: This field is required.", msg)
	})

	t.Run("custom translator", func(t *testing.T) {
		tr := i18n.Func(func(key string) string { return "<" + key + ">" })
		require.Equal(t, "<errors.timeout>", errclass.Message(apperrors.ErrTimeout, tr, ""))
	})
}

func TestFieldErrors(t *testing.T) {
	t.Run("nested and flat", func(t *testing.T) {
		err := fmt.Errorf("[x] %w", &api.HTTPError{
			StatusCode: 400,
			Body:       `{"phone":["Enter a valid phone number.","Already taken."],"detail":"Bad input","sender":{"email":["Invalid email."]},"count":3}`,
		})
		require.Equal(t, map[string][]string{
			"phone":        {"Enter a valid phone number.", "Already taken."},
			"detail":       {"Bad input"},
			"sender.email": {"Invalid email."},
		}, errclass.FieldErrors(err))
	})

	t.Run("non json or server error", func(t *testing.T) {
		require.Nil(t, errclass.FieldErrors(&api.HTTPError{StatusCode: 400, Body: "<html>"}))
		require.Nil(t, errclass.FieldErrors(&api.HTTPError{StatusCode: 500, Body: `{"detail":"x"}`}))
		require.Nil(t, errclass.FieldErrors(&api.HTTPError{StatusCode: 400, Body: `["x"]`}))
		require.Nil(t, errclass.FieldErrors(errors.New("x")))
	})
}
