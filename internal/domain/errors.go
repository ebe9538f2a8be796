package domain

import "errors"

var (
	// ErrUnknownKind indicates a target's type string has no registered
	// collector. Detected at registration time; the target is skipped with
	// a warning rather than failing the process.
	ErrUnknownKind = errors.New("unknown target kind")

	// ErrTokenNotFound indicates no credential is stored in the keyring
	// for the requested name.
	ErrTokenNotFound = errors.New("token not found")

	// ErrNoTargets indicates the servers file produced no usable targets.
	ErrNoTargets = errors.New("no targets configured")
)
