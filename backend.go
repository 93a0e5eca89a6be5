package webstore

import (
	"fmt"
	"strings"
)

// Backend identifies one of the three storage backends.
type Backend uint8

const (
	// Local is the page-scoped store. It survives a reload.
	Local Backend = iota + 1
	// Session is the session-scoped volatile store.
	Session
	// Cookie is the flat string store attached to transport headers.
	Cookie
)

// DefaultBackend is used when an operation receives an empty identifier.
const DefaultBackend = "local"

func (b Backend) String() string {
	switch b {
	case Local:
		return "local"
	case Session:
		return "session"
	case Cookie:
		return "cookie"
	}
	return fmt.Sprintf("backend(%d)", uint8(b))
}

// ParseBackend resolves a backend identifier, case-insensitively.
// Accepted values are l/local, s/session and c/cookie.
func ParseBackend(id string) (Backend, error) {
	switch strings.ToLower(id) {
	case "l", "local":
		return Local, nil
	case "s", "session":
		return Session, nil
	case "c", "cookie":
		return Cookie, nil
	}
	return 0, fmt.Errorf("%w: %q (want local, session or cookie)", ErrUnknownBackend, id)
}
