// Package session carries the resolved caller identity through the
// application explicitly. Nothing in this codebase reads a current user from
// an ambient singleton; every store and bridge call takes an Identity value.
package session

import "errors"

// ErrUnauthenticated reports that no caller identity could be resolved.
// Mutating operations must return it before touching the store.
var ErrUnauthenticated = errors.New("unauthenticated: no resolvable session identity")

// Identity is the authenticated caller's unique user reference, resolved
// per-request from the access token.
type Identity struct {
	UserID uint
}

// Anonymous is the zero identity. It is valid input only for paths that
// explicitly degrade (the agent bridge pass-through).
var Anonymous = Identity{}

// Resolved reports whether the identity refers to an authenticated user.
func (id Identity) Resolved() bool {
	return id.UserID != 0
}
