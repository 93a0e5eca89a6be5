package webstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"reflect"

	"go.uber.org/multierr"
)

var (
	ErrNotFound        = errors.New("webstore: not found")
	ErrInvalidKey      = errors.New("webstore: invalid key")
	ErrUnknownBackend  = errors.New("webstore: unknown backend")
	ErrDecode          = errors.New("webstore: decode failure")
	ErrUnsupportedType = errors.New("webstore: unsupported type")
	ErrMalformedCookie = errors.New("webstore: malformed cookie")
	ErrInvalidConfig   = errors.New("webstore: invalid config")
	ErrClosed          = errors.New("webstore: closed")
)

// Driver is the raw string storage every backend provides.
// Implementations must be thread-safe.
type Driver interface {
	// Get returns ErrNotFound when the key is absent.
	Get(ctx context.Context, key string) (string, error)
	// Set stores value under key; the last write wins.
	Set(ctx context.Context, key, value string) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Len(ctx context.Context) (int, error)
	// Key returns the key at index, or ErrNotFound when out of range.
	Key(ctx context.Context, index int) (string, error)
}

// Option customizes Store behavior.
type Option func(*store)

// WithLocal specifies the page-scoped driver.
// If not provided, NewMemory() is used.
func WithLocal(d Driver) Option {
	return func(s *store) {
		if d != nil {
			s.local = d
		}
	}
}

// WithSession specifies the session-scoped driver.
// If not provided, NewMemory() is used.
func WithSession(d Driver) Option {
	return func(s *store) {
		if d != nil {
			s.session = d
		}
	}
}

// WithJar specifies the flat string store behind the cookie backend.
// If not provided, an empty MemoryJar is used.
func WithJar(j Jar) Option {
	return func(s *store) {
		if j != nil {
			s.jar = j
		}
	}
}

// WithLogger specifies a logger for operation logging.
// If not provided, a no-op logger is used (no logging).
func WithLogger(logger Logger) Option {
	return func(s *store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithLogTag sets a tag prefix for all log messages.
func WithLogTag(tag string) Option {
	return func(s *store) {
		s.logTag = tag
	}
}

// WithDefaultBackend sets the backend used for an empty identifier.
func WithDefaultBackend(id string) Option {
	return func(s *store) {
		if id != "" {
			s.defaultID = id
		}
	}
}

// WithStrictDecode makes Get return ErrDecode for corrupt values instead of
// reporting them as ErrNotFound.
func WithStrictDecode() Option {
	return func(s *store) {
		s.strict = true
	}
}

// WithMetrics records operation counts into m.
func WithMetrics(m *Metrics) Option {
	return func(s *store) {
		s.metrics = m
	}
}

// Item is a key paired with its value.
type Item[V any] struct {
	Key   string
	Value V
}

// Store exposes typed key/value operations over the three backends.
// The backend argument is an identifier accepted by ParseBackend; an empty
// identifier selects the default backend.
type Store interface {
	// Set encodes data with its type tag and stores it.
	Set(ctx context.Context, key string, data any, backend string) error
	// Get returns ErrNotFound when the key is absent or its value cannot be
	// decoded.
	Get(ctx context.Context, key, backend string) (Value, error)
	Remove(ctx context.Context, key, backend string) error
	Clear(ctx context.Context, backend string) error
	// Items lists every entry with its decoded value. Entries that cannot
	// be decoded carry a nil Value.
	Items(ctx context.Context, backend string) ([]Item[Value], error)
	Has(ctx context.Context, key, backend string) (bool, error)
	// Close releases drivers that hold resources.
	Close() error
}

type store struct {
	local     Driver
	session   Driver
	jar       Jar
	logger    Logger
	logTag    string
	defaultID string
	strict    bool
	metrics   *Metrics
}

// New creates a Store. Without options every backend is in memory.
func New(opts ...Option) Store {
	return newStore(opts...)
}

func newStore(opts ...Option) *store {
	s := &store{
		local:     NewMemory(),
		session:   NewMemory(),
		jar:       NewMemoryJar(""),
		logger:    defaultLogger,
		defaultID: DefaultBackend,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *store) logf(level string, ctx context.Context, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if s.logTag != "" {
		msg = s.logTag + " " + msg
	}
	switch level {
	case "info":
		s.logger.Info(ctx, "%s", msg)
	case "warn":
		s.logger.Warn(ctx, "%s", msg)
	case "error":
		s.logger.Error(ctx, "%s", msg)
	case "debug":
		s.logger.Debug(ctx, "%s", msg)
	}
}

// resolve maps an identifier to its driver. The cookie backend gets a fresh
// adapter over the shared jar on every call.
func (s *store) resolve(id string) (Backend, Driver, error) {
	if id == "" {
		id = s.defaultID
	}
	b, err := ParseBackend(id)
	if err != nil {
		return 0, nil, err
	}
	switch b {
	case Local:
		return b, s.local, nil
	case Session:
		return b, s.session, nil
	default:
		return b, NewCookieStorage(s.jar), nil
	}
}

func (s *store) Set(ctx context.Context, key string, data any, backend string) error {
	if key == "" {
		return ErrInvalidKey
	}
	b, d, err := s.resolve(backend)
	if err != nil {
		return err
	}
	if isNil(data) {
		s.logf("warn", ctx, "Set %s: data is nil and will read back as not found", key)
	}
	s.metrics.op(b, "set")
	if err := d.Set(ctx, key, Encode(data)); err != nil {
		s.logf("error", ctx, "Set %s on %s failed: %v", key, b, err)
		return err
	}
	return nil
}

func (s *store) Get(ctx context.Context, key, backend string) (Value, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}
	b, d, err := s.resolve(backend)
	if err != nil {
		return nil, err
	}
	s.metrics.op(b, "get")
	return s.get(ctx, b, d, key)
}

func (s *store) get(ctx context.Context, b Backend, d Driver, key string) (Value, error) {
	raw, err := d.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logf("error", ctx, "Get %s on %s failed: %v", key, b, err)
		}
		return nil, err
	}
	v, err := DecodeRaw(raw)
	if err != nil {
		s.metrics.decodeFailure(b)
		s.logf("error", ctx, "Get %s on %s: %v", key, b, err)
		if s.strict {
			return nil, err
		}
		return nil, ErrNotFound
	}
	return v, nil
}

func (s *store) Remove(ctx context.Context, key, backend string) error {
	if key == "" {
		return ErrInvalidKey
	}
	b, d, err := s.resolve(backend)
	if err != nil {
		return err
	}
	s.metrics.op(b, "remove")
	if err := d.Delete(ctx, key); err != nil {
		s.logf("error", ctx, "Remove %s on %s failed: %v", key, b, err)
		return err
	}
	return nil
}

func (s *store) Clear(ctx context.Context, backend string) error {
	b, d, err := s.resolve(backend)
	if err != nil {
		return err
	}
	s.metrics.op(b, "clear")
	if err := d.Clear(ctx); err != nil {
		s.logf("error", ctx, "Clear %s failed: %v", b, err)
		return err
	}
	return nil
}

// Items walks Len and Key rather than any native listing, so every driver
// is enumerated through the same contract.
func (s *store) Items(ctx context.Context, backend string) ([]Item[Value], error) {
	b, d, err := s.resolve(backend)
	if err != nil {
		return nil, err
	}
	s.metrics.op(b, "items")

	n, err := d.Len(ctx)
	if err != nil {
		s.logf("error", ctx, "Items %s failed: %v", b, err)
		return nil, err
	}
	items := make([]Item[Value], 0, n)
	for i := 0; i < n; i++ {
		key, err := d.Key(ctx, i)
		if err != nil && !errors.Is(err, ErrNotFound) {
			s.logf("error", ctx, "Items %s failed at %d: %v", b, i, err)
			return nil, err
		}
		if key == "" {
			continue
		}
		v, err := s.get(ctx, b, d, key)
		if err != nil && !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrDecode) {
			return nil, err
		}
		items = append(items, Item[Value]{Key: key, Value: v})
	}
	return items, nil
}

func (s *store) Has(ctx context.Context, key, backend string) (bool, error) {
	if key == "" {
		return false, ErrInvalidKey
	}
	b, d, err := s.resolve(backend)
	if err != nil {
		return false, err
	}
	s.metrics.op(b, "has")
	_, err = d.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		s.logf("error", ctx, "Has %s on %s failed: %v", key, b, err)
		return false, err
	}
	return true, nil
}

func (s *store) Close() error {
	var errs error
	for _, d := range []Driver{s.local, s.session} {
		if c, ok := d.(io.Closer); ok {
			errs = multierr.Append(errs, c.Close())
		}
	}
	if errs != nil {
		s.logf("error", context.Background(), "Close failed: %v", errs)
	}
	return errs
}

// GetAs reads key and converts its value into T. Numbers arrive as
// float64, so integer targets above 2^53 receive the rounded value.
func GetAs[T any](ctx context.Context, s Store, key, backend string) (T, error) {
	var out T
	v, err := s.Get(ctx, key, backend)
	if err != nil {
		return out, err
	}
	if err := Unmarshal(v, &out); err != nil {
		return out, err
	}
	return out, nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
