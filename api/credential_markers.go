package api

import (
	"strings"

	"github.com/tidwall/gjson"
)

// Markers in a 401 body that mean the credential itself is no longer accepted.
// These track the server's SimpleJWT error format; the nested "message" envelope is
// what the appeals API returns, the top-level fields are SimpleJWT's default shape.
var (
	invalidCredentialCodes   = []string{"token_not_valid"}
	invalidCredentialPhrases = []string{"Token is expired", "Given token not valid"}

	credentialCodePaths   = []string{"message.code", "code"}
	credentialDetailPaths = []string{"message.detail", "detail"}
)

// CredentialInvalid reports whether a 401 body says the access credential is invalid.
// A body that is not valid JSON is treated as invalid: an ambiguous 401 still logs out.
func CredentialInvalid(body []byte) bool {
	if !gjson.ValidBytes(body) {
		return true
	}

	parsed := gjson.ParseBytes(body)
	for _, path := range credentialCodePaths {
		code := parsed.Get(path)
		if code.Type != gjson.String {
			continue
		}
		for _, marker := range invalidCredentialCodes {
			if code.Str == marker {
				return true
			}
		}
	}

	for _, path := range credentialDetailPaths {
		detail := parsed.Get(path)
		if detail.Type != gjson.String {
			continue
		}
		for _, phrase := range invalidCredentialPhrases {
			if strings.Contains(detail.Str, phrase) {
				return true
			}
		}
	}
	return false
}
