// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrConflict indicates a uniqueness violation (duplicate email,
// username or milestone assignment), while ErrBlocked signals that a
// destructive operation was refused by a referential guard (deleting a
// participant who still owns donations).
package repository

import "errors"

// ErrConflict is returned when an insert or update would violate a
// uniqueness rule enforced at the application layer. Handlers should
// translate this into a "already exists" notice, never a raw error.
var ErrConflict = errors.New("conflict")

// ErrBlocked is returned when a delete cannot be performed because
// dependent records still reference the row, such as removing a
// participant who owns donations.
var ErrBlocked = errors.New("blocked")
