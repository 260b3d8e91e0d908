// Package errclass turns request failures into a category and a user-facing message.
// It only reads errors; ending the session is the executor's job.
package errclass

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/jrsteele09/go-appeals-client/api"
	"github.com/jrsteele09/go-appeals-client/i18n"
	apperrors "github.com/jrsteele09/go-appeals-client/internal/errors"
	"github.com/tidwall/gjson"
)

type Category int

const (
	Unknown Category = iota
	AuthInvalid
	NetworkUnreachable
	Timeout
	ClientError
	ServerError
)

func (c Category) String() string {
	switch c {
	case AuthInvalid:
		return "auth_invalid"
	case NetworkUnreachable:
		return "network_unreachable"
	case Timeout:
		return "timeout"
	case ClientError:
		return "client_error"
	case ServerError:
		return "server_error"
	default:
		return "unknown"
	}
}

// Message keys in the i18n catalog.
const (
	KeySessionExpired    = "errors.session_expired"
	KeyNetwork           = "errors.network"
	KeyServerUnreachable = "errors.server_unreachable"
	KeyTimeout           = "errors.timeout"
	KeyBadRequest        = "errors.bad_request"
	KeyForbidden         = "errors.forbidden"
	KeyNotFound          = "errors.not_found"
	KeyClient            = "errors.client"
	KeyServer            = "errors.server"
	KeyGeneric           = "errors.generic"
	KeyLoginFailed       = "errors.login_failed"
)

// local validation failures and their message keys
var localKeys = []struct {
	err error
	key string
}{
	{apperrors.ErrInvalidRating, "errors.invalid_rating"},
	{apperrors.ErrInvalidResponseID, "errors.invalid_id"},
	{apperrors.ErrInvalidID, "errors.invalid_id"},
	{apperrors.ErrInvalidPagination, KeyBadRequest},
	{apperrors.ErrEmptyAppealText, "errors.empty_appeal_text"},
	{apperrors.ErrInvalidCategory, "errors.invalid_category"},
	{apperrors.ErrIncompleteCredentials, KeyLoginFailed},
}

// Classify returns the category of err.
func Classify(err error) Category {
	if err == nil {
		return Unknown
	}

	switch {
	case errors.Is(err, apperrors.ErrTokenNotFound), errors.Is(err, apperrors.ErrCredentialInvalid):
		return AuthInvalid
	case errors.Is(err, apperrors.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return Timeout
	case errors.Is(err, apperrors.ErrServerUnreachable), errors.Is(err, apperrors.ErrNetwork):
		return NetworkUnreachable
	}

	var httpErr *api.HTTPError
	if errors.As(err, &httpErr) {
		switch {
		case httpErr.StatusCode >= 500:
			return ServerError
		case httpErr.StatusCode >= 400:
			return ClientError
		}
		return Unknown
	}

	if localKey(err) != "" || errors.Is(err, apperrors.ErrLoginFailed) {
		return ClientError
	}
	return Unknown
}

// Retryable reports whether repeating the request could succeed.
func Retryable(c Category) bool {
	return c == NetworkUnreachable || c == Timeout || c == ServerError
}

// Message returns the localized message for err. fallbackKey is used for Unknown
// failures; an empty fallbackKey means the generic message.
func Message(err error, t i18n.Translator, fallbackKey string) string {
	if fallbackKey == "" {
		fallbackKey = KeyGeneric
	}

	switch Classify(err) {
	case AuthInvalid:
		return t.T(KeySessionExpired)
	case Timeout:
		return t.T(KeyTimeout)
	case NetworkUnreachable:
		if errors.Is(err, apperrors.ErrServerUnreachable) {
			return t.T(KeyServerUnreachable)
		}
		return t.T(KeyNetwork)
	case ServerError:
		return t.T(KeyServer)
	case ClientError:
		return clientMessage(err, t)
	default:
		return t.T(fallbackKey)
	}
}

func clientMessage(err error, t i18n.Translator) string {
	if key := localKey(err); key != "" {
		return t.T(key)
	}
	if errors.Is(err, apperrors.ErrLoginFailed) {
		return t.T(KeyLoginFailed)
	}

	var httpErr *api.HTTPError
	if !errors.As(err, &httpErr) {
		return t.T(KeyClient)
	}

	switch httpErr.StatusCode {
	case http.StatusBadRequest:
		msg := t.T(KeyBadRequest)
		if detail := formatFieldErrors(FieldErrors(err)); detail != "" {
			msg += "\n" + detail
		}
		return msg
	case http.StatusForbidden:
		return t.T(KeyForbidden)
	case http.StatusNotFound:
		return t.T(KeyNotFound)
	default:
		return t.T(KeyClient)
	}
}

func localKey(err error) string {
	for _, lk := range localKeys {
		if errors.Is(err, lk.err) {
			return lk.key
		}
	}
	return ""
}

// FieldErrors extracts per-field messages from the JSON body of a 4xx response.
// Nested objects are flattened into dotted field names. It returns nil when nothing is found.
func FieldErrors(err error) map[string][]string {
	var httpErr *api.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode < 400 || httpErr.StatusCode >= 500 {
		return nil
	}
	if !gjson.Valid(httpErr.Body) {
		return nil
	}

	root := gjson.Parse(httpErr.Body)
	if !root.IsObject() {
		return nil
	}

	out := map[string][]string{}
	collectFieldErrors(root, "", out)
	if len(out) == 0 {
		return nil
	}
	return out
}

func collectFieldErrors(v gjson.Result, prefix string, out map[string][]string) {
	v.ForEach(func(key, value gjson.Result) bool {
		field := key.String()
		if prefix != "" {
			field = prefix + "." + field
		}
		switch {
		case value.IsObject():
			collectFieldErrors(value, field, out)
		case value.IsArray():
			value.ForEach(func(_, item gjson.Result) bool {
				if item.IsObject() {
					collectFieldErrors(item, field, out)
				} else if s := strings.TrimSpace(item.String()); s != "" {
					out[field] = append(out[field], s)
				}
				return true
			})
		case value.Type == gjson.String:
			if s := strings.TrimSpace(value.Str); s != "" {
				out[field] = append(out[field], s)
			}
		}
		return true
	})
}

func formatFieldErrors(fields map[string][]string) string {
	if len(fields) == 0 {
		return ""
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := make([]string, 0, len(names))
	for _, name := range names {
		lines = append(lines, name+": "+strings.Join(fields[name], "; "))
	}
	return strings.Join(lines, "\n")
}
