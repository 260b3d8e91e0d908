// Package credentials models the access/refresh credential pair issued by the appeals API.
package credentials

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	apperrors "github.com/jrsteele09/go-appeals-client/internal/errors"
	"golang.org/x/oauth2"
)

const bearerTokenType = "Bearer"

// Pair is the access credential and its companion refresh credential.
// Both are set together or neither is set. The refresh credential is kept only
// because the server issues it; nothing exchanges it for a new access token.
type Pair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Validate rejects a pair with either side missing.
func (p Pair) Validate() error {
	if strings.TrimSpace(p.Access) == "" || strings.TrimSpace(p.Refresh) == "" {
		return apperrors.ErrIncompleteCredentials
	}
	return nil
}

// OAuth2Token converts the pair for use with golang.org/x/oauth2 helpers such as SetAuthHeader.
// Expiry is filled from the access token's exp claim when it can be read.
func (p Pair) OAuth2Token() *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken:  p.Access,
		TokenType:    bearerTokenType,
		RefreshToken: p.Refresh,
	}
	if claims, err := p.Claims(); err == nil && claims.ExpiresAt != nil {
		tok.Expiry = *claims.ExpiresAt
	}
	return tok
}

// Claims is the diagnostic view of an access token. It is parsed without
// signature verification and must never be used to decide whether a session is valid:
// only the server's 401 response ends a session.
type Claims struct {
	UserID    string
	TokenType string
	JTI       string
	IssuedAt  *time.Time
	ExpiresAt *time.Time
}

// Expired reports whether the exp claim is in the past relative to now.
func (c *Claims) Expired(now time.Time) bool {
	return c != nil && c.ExpiresAt != nil && now.After(*c.ExpiresAt)
}

// Claims parses the access token payload without verifying it.
func (p Pair) Claims() (*Claims, error) {
	return InspectAccessToken(p.Access)
}

// InspectAccessToken reads the claims of a JWT access token without verifying its signature.
func InspectAccessToken(raw string) (*Claims, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, apperrors.ErrTokenNotFound
	}

	token, _, err := jwt.NewParser().ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("[InspectAccessToken] ParseUnverified: %w", err)
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("[InspectAccessToken] unexpected claims type %T", token.Claims)
	}

	claims := &Claims{
		UserID:    claimString(mc, "user_id"),
		TokenType: claimString(mc, "token_type"),
		JTI:       claimString(mc, "jti"),
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		t := exp.Time
		claims.ExpiresAt = &t
	}
	if iat, err := mc.GetIssuedAt(); err == nil && iat != nil {
		t := iat.Time
		claims.IssuedAt = &t
	}
	return claims, nil
}

func claimString(mc jwt.MapClaims, key string) string {
	v, ok := mc[key]
	if !ok || v == nil {
		return ""
	}
	switch tv := v.(type) {
	case string:
		return tv
	case float64:
		return fmt.Sprintf("%.0f", tv)
	default:
		return fmt.Sprint(tv)
	}
}
