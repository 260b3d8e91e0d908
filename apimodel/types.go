// Package apimodel holds the wire types shared between the service clients and the session layer.
package apimodel

// User is the profile returned by /users/me and cached as the session identity.
// Identity is advisory: a session may be authenticated while the profile is still unknown.
type User struct {
	ID       FlexID `json:"id,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Email    string `json:"email,omitempty"`
	FullName string `json:"full_name,omitempty"`
	Region   string `json:"region,omitempty"`
}

// TokenPair is the response from POST /auth/token/.
type TokenPair struct {
	// Access is the bearer credential attached to every authenticated request.
	Access string `json:"access"`

	// Refresh is stored alongside Access but never exchanged: an expired access
	// token always ends the session.
	Refresh string `json:"refresh"`
}

// Page is the paginated list envelope used by /appeals/me and /notifications/list.
type Page[T any] struct {
	Limit    int     `json:"limit"`
	Offset   int     `json:"offset"`
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// HasNext reports whether the server advertised a further page.
func (p *Page[T]) HasNext() bool {
	return p != nil && p.Next != nil && *p.Next != ""
}
