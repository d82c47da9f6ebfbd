// Package store is the persistence gateway. Every operation requires an
// explicit, resolved session identity, performs one logical database
// operation, and maps failures into a uniform *PersistenceError. Multi-
// statement writes (skills replace, master designation) run inside a single
// transaction so a partial failure cannot leave the user's records torn.
package store

import (
	"fmt"

	"gorm.io/gorm"

	"jobpilot/internal/session"
)

// Store exposes CRUD over the four record kinds the service owns.
type Store struct {
	db *gorm.DB
}

// New wraps a GORM handle.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// PersistenceError reports a store-level failure for a named operation.
// The message is surfaced verbatim to callers; operations never retry.
type PersistenceError struct {
	Op      string
	Message string
	Err     error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// failed wraps a database error, or returns nil when there was none.
func failed(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Message: err.Error(), Err: err}
}

// requireIdentity short-circuits before any store access when the caller
// identity is unresolved.
func requireIdentity(id session.Identity) error {
	if !id.Resolved() {
		return session.ErrUnauthenticated
	}
	return nil
}
