package domain

import "errors"

// ErrSessionSetup is returned when the host cannot start or attach the session,
// typically because the response has already been committed.
var ErrSessionSetup = errors.New("session setup failed")

// ErrInvalidNamespaceName is returned when a namespace name violates the naming rules.
var ErrInvalidNamespaceName = errors.New("invalid namespace name")

// ErrSessionNotStarted is returned when an operation runs against an inactive session store.
var ErrSessionNotStarted = errors.New("session not started")

// ErrSessionNotFound is returned when a session ID cannot be found in a backend.
var ErrSessionNotFound = errors.New("session not found")
