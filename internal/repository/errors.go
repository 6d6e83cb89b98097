// Package repository defines the persistence contracts of the portal and
// the MySQL implementation of them.  The sentinel values below are shared
// by every backend so that services can translate storage failures into
// domain errors without knowing which engine is in use.
package repository

import "errors"

// ErrNotFound is returned when no record matches the lookup, including
// conditional writes whose condition did not hold (for example replacing
// an invoice that was already sent).
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when a unique key such as an account username
// is already taken.
var ErrDuplicate = errors.New("duplicate key")

// ErrActiveSessionExists is returned by SessionStore.CreateActive when the
// account already holds a live session.  Nothing is written in that case.
var ErrActiveSessionExists = errors.New("active session exists")

// ErrEntityInactive is returned by SessionStore.CreateActive when the
// account owns an entity that is deactivated.  Nothing is left live.
var ErrEntityInactive = errors.New("entity inactive")
