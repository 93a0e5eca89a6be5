// Package webstore provides a typed key/value facade over three storage
// backends: a page-scoped store, a session-scoped store and a small flat
// string store carried in transport headers (cookies).
//
// # Overview
//
// Every value is stored as a single string "<tag>_prfx_<payload>", where the
// tag is one of string, number, boolean, object or array. Reads decode the
// payload back into a Value, so callers never serialize by hand.
//
// # Backends
//
// Operations take a backend identifier, matched case-insensitively:
//
//	l, local     page-scoped store (Memory, or Badger when persistent)
//	s, session   session-scoped store (Memory)
//	c, cookie    flat string store (CookieStorage over a Jar)
//
// An empty identifier selects the default backend, local unless configured
// otherwise. Any other identifier fails with ErrUnknownBackend.
//
// # Quick Start
//
//	s := webstore.New()
//	ctx := context.Background()
//
//	s.Set(ctx, "user", map[string]any{"name": "Ann", "age": 3}, "local")
//	v, _ := s.Get(ctx, "user", "local") // webstore.Object{"name": "Ann", "age": 3.0}
//
//	s.Set(ctx, "count", 42, "session")
//	n, _ := webstore.GetAs[int](ctx, s, "count", "session")
//
// # Flat string store
//
// A Jar exposes only one string of "; "-joined "name=value" segments.
// CookieStorage rebuilds count, key-by-index and clear on top of it by
// re-parsing that string on every call. Keys and values are
// percent-encoded, so ";" and "=" round-trip safely. HeaderJar keeps the
// string in the Cookie header of an http.Header.
//
// # Error Handling
//
//	_, err := s.Get(ctx, "missing", "local")
//	if errors.Is(err, webstore.ErrNotFound) {
//	    // absent, or stored but undecodable
//	}
//
// Empty keys fail with ErrInvalidKey. Values that cannot be decoded are
// logged and reported as ErrNotFound unless WithStrictDecode is set.
package webstore
