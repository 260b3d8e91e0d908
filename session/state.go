package session

import (
	"github.com/jrsteele09/go-appeals-client/apimodel"
	"github.com/jrsteele09/go-appeals-client/credentials"
)

// Status is the session lifecycle state.
type Status int

const (
	Unauthenticated Status = iota
	Authenticating
	Authenticated
)

func (s Status) String() string {
	switch s {
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// State is an immutable snapshot of the session. Credential is set only when Authenticated.
type State struct {
	Status     Status
	Credential *credentials.Pair
	Identity   *apimodel.User
}

func (s State) IsAuthenticated() bool {
	return s.Status == Authenticated && s.Credential != nil
}
