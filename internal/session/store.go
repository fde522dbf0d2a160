// Package session implements the server-side session store. Sessions are
// keyed by an opaque id carried in a signed cookie; the record holding the
// verified identity and role lives only on the server, so the authorization
// gate never trusts client-supplied fields. The flash slot is the one-shot
// notice shown on the next rendered page.
package session

import (
	"context"
	"errors"
)

// Record is the immutable identity attached to a session at login. Role is
// consulted by the authorization gate on every request.
type Record struct {
	UserID   uint64 `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Flash is a one-shot notice stored alongside a session and removed when
// read. Kind is "error" or "success" and picks the banner style.
type Flash struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// ErrSessionNotFound is returned when the id has no live session, either
// because it expired or because the user logged out.
var ErrSessionNotFound = errors.New("session not found")

// Store persists sessions across requests until logout or expiry.
type Store interface {
	// Create stores the record under a new opaque id and returns the id.
	Create(ctx context.Context, rec Record) (string, error)
	// Get returns the record for a live session.
	Get(ctx context.Context, id string) (*Record, error)
	// Delete ends a session. Deleting an unknown id is not an error.
	Delete(ctx context.Context, id string) error
	// SetFlash stores the one-shot notice for the session.
	SetFlash(ctx context.Context, id string, f Flash) error
	// PopFlash returns and clears the notice, or nil when none is set.
	PopFlash(ctx context.Context, id string) (*Flash, error)
}
