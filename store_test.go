package webstore

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockDriver overrides single Driver methods; the rest fall through to an
// in-memory driver.
type mockDriver struct {
	mem        *Memory
	getFunc    func(ctx context.Context, key string) (string, error)
	setFunc    func(ctx context.Context, key, value string) error
	deleteFunc func(ctx context.Context, key string) error
	clearFunc  func(ctx context.Context) error
	lenFunc    func(ctx context.Context) (int, error)
	keyFunc    func(ctx context.Context, index int) (string, error)
}

func (m *mockDriver) backing() *Memory {
	if m.mem == nil {
		m.mem = NewMemory()
	}
	return m.mem
}

func (m *mockDriver) Get(ctx context.Context, key string) (string, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, key)
	}
	return m.backing().Get(ctx, key)
}

func (m *mockDriver) Set(ctx context.Context, key, value string) error {
	if m.setFunc != nil {
		return m.setFunc(ctx, key, value)
	}
	return m.backing().Set(ctx, key, value)
}

func (m *mockDriver) Delete(ctx context.Context, key string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, key)
	}
	return m.backing().Delete(ctx, key)
}

func (m *mockDriver) Clear(ctx context.Context) error {
	if m.clearFunc != nil {
		return m.clearFunc(ctx)
	}
	return m.backing().Clear(ctx)
}

func (m *mockDriver) Len(ctx context.Context) (int, error) {
	if m.lenFunc != nil {
		return m.lenFunc(ctx)
	}
	return m.backing().Len(ctx)
}

func (m *mockDriver) Key(ctx context.Context, index int) (string, error) {
	if m.keyFunc != nil {
		return m.keyFunc(ctx, index)
	}
	return m.backing().Key(ctx, index)
}

var allBackends = []string{"local", "session", "cookie"}

func TestWithLocal(t *testing.T) {
	mock := &mockDriver{}
	s := New(WithLocal(mock))

	impl, ok := s.(*store)
	if !ok {
		t.Fatal("expected *store")
	}
	if impl.local != mock {
		t.Error("WithLocal failed: expected mock driver")
	}
}

func TestWithLocal_Nil(t *testing.T) {
	s := New(WithLocal(nil), WithSession(nil), WithJar(nil), WithLogger(nil))
	impl := s.(*store)

	if impl.local == nil || impl.session == nil || impl.jar == nil || impl.logger == nil {
		t.Error("nil options should keep defaults")
	}
}

func TestStore_DefaultBackend(t *testing.T) {
	local := &mockDriver{}
	s := New(WithLocal(local))
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", "v", ""))

	raw, err := local.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "string_prfx_v", raw)

	v, err := s.Get(ctx, "k", "")
	require.NoError(t, err)
	assert.Equal(t, String("v"), v)
}

func TestStore_WithDefaultBackend(t *testing.T) {
	s := New(WithDefaultBackend("session"))
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", 1, ""))

	ok, err := s.Has(ctx, "k", "session")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Has(ctx, "k", "local")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_BackendIdentifiers(t *testing.T) {
	s := New()
	ctx := context.Background()

	for _, id := range []string{"l", "L", "Local", "s", "SESSION", "c", "Cookie"} {
		require.NoError(t, s.Set(ctx, "k", id, id), id)
		v, err := s.Get(ctx, "k", id)
		require.NoError(t, err, id)
		assert.Equal(t, String(id), v, id)
	}
}

func TestStore_RoundTrip(t *testing.T) {
	values := map[string]struct {
		in   any
		want Value
	}{
		"string":  {"hello", String("hello")},
		"empty":   {"", String("")},
		"number":  {42, Number(42)},
		"float":   {-3.25, Number(-3.25)},
		"boolean": {true, Boolean(true)},
		"false":   {false, Boolean(false)},
		"object":  {map[string]any{"name": "Ann", "age": 3}, Object{"name": "Ann", "age": float64(3)}},
		"array":   {[]int{1, 2, 3}, Array{float64(1), float64(2), float64(3)}},
		"nested":  {Array{"a", Object{"b": true}}, Array{"a", map[string]any{"b": true}}},
		"special": {"value!@#$%^&*()_+; a=b", String("value!@#$%^&*()_+; a=b")},
		"long":    {strings.Repeat("a", 10000), String(strings.Repeat("a", 10000))},
		"prefix":  {"a_prfx_b", String("a_prfx_b")},
	}

	ctx := context.Background()
	for _, backend := range allBackends {
		s := New()
		for name, tc := range values {
			t.Run(backend+"/"+name, func(t *testing.T) {
				key := "key!@#$%^&*()_+ " + name
				require.NoError(t, s.Set(ctx, key, tc.in, backend))

				got, err := s.Get(ctx, key, backend)
				require.NoError(t, err)
				assert.Equal(t, tc.want, got)
			})
		}
	}
}

func TestStore_UserObject(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "user", map[string]any{"name": "Ann", "age": 3}, "local"))

	type user struct {
		Name string `json:"name"`
		Age  int    `json:"age"`
	}
	u, err := GetAs[user](ctx, s, "user", "local")
	require.NoError(t, err)
	assert.Equal(t, user{Name: "Ann", Age: 3}, u)
}

func TestStore_NumberInSession(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "count", 42, "session"))

	v, err := s.Get(ctx, "count", "session")
	require.NoError(t, err)
	assert.Equal(t, KindNumber, v.Kind())
	assert.Equal(t, float64(42), v.Any())
}

func TestStore_BooleanInCookie(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "flag", true, "cookie"))

	v, err := s.Get(ctx, "flag", "cookie")
	require.NoError(t, err)
	assert.Equal(t, Boolean(true), v)

	require.NoError(t, s.Remove(ctx, "flag", "cookie"))

	_, err = s.Get(ctx, "flag", "cookie")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_RemoveMissingKey(t *testing.T) {
	ctx := context.Background()
	for _, backend := range allBackends {
		s := New()
		require.NoError(t, s.Set(ctx, "keep", "v", backend))

		assert.NoError(t, s.Remove(ctx, "missing", backend), backend)

		ok, err := s.Has(ctx, "keep", backend)
		require.NoError(t, err)
		assert.True(t, ok, backend)
	}
}

func TestStore_ItemsConsistency(t *testing.T) {
	ctx := context.Background()
	for _, backend := range allBackends {
		t.Run(backend, func(t *testing.T) {
			s := New()
			require.NoError(t, s.Set(ctx, "a", "1", backend))
			require.NoError(t, s.Set(ctx, "b", 2, backend))
			require.NoError(t, s.Set(ctx, "c", []string{"x"}, backend))
			require.NoError(t, s.Remove(ctx, "b", backend))
			require.NoError(t, s.Set(ctx, "a", "one", backend))

			items, err := s.Items(ctx, backend)
			require.NoError(t, err)
			assert.Equal(t, []Item[Value]{
				{Key: "a", Value: String("one")},
				{Key: "c", Value: Array{"x"}},
			}, items)

			for _, item := range items {
				ok, err := s.Has(ctx, item.Key, backend)
				require.NoError(t, err)
				assert.True(t, ok)
			}
		})
	}
}

func TestStore_Clear(t *testing.T) {
	ctx := context.Background()
	for _, backend := range allBackends {
		t.Run(backend, func(t *testing.T) {
			s := New()
			require.NoError(t, s.Set(ctx, "item1", "value1", backend))
			require.NoError(t, s.Set(ctx, "item2", Object{"a": float64(1)}, backend))

			require.NoError(t, s.Clear(ctx, backend))

			items, err := s.Items(ctx, backend)
			require.NoError(t, err)
			assert.Empty(t, items)

			_, err = s.Get(ctx, "item1", backend)
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStore_ClearIsolatesBackends(t *testing.T) {
	s := New()
	ctx := context.Background()

	for _, backend := range allBackends {
		require.NoError(t, s.Set(ctx, "k", backend, backend))
	}
	require.NoError(t, s.Clear(ctx, "session"))

	for _, backend := range []string{"local", "cookie"} {
		ok, err := s.Has(ctx, "k", backend)
		require.NoError(t, err)
		assert.True(t, ok, backend)
	}
}

func TestStore_HasMatchesGet(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "existingItem", "value", "local"))

	for _, key := range []string{"existingItem", "nonExistingItem"} {
		ok, err := s.Has(ctx, key, "local")
		require.NoError(t, err)
		_, getErr := s.Get(ctx, key, "local")
		assert.Equal(t, ok, getErr == nil, key)
	}
}

func TestStore_NilDataWarns(t *testing.T) {
	logger := &mockLogger{}
	s := New(WithLogger(logger), WithLogTag("[test]"))
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "nothing", nil, "local"))
	assert.True(t, logger.contains("WARN: [test] Set nothing: data is nil"))

	_, err := s.Get(ctx, "nothing", "local")
	assert.ErrorIs(t, err, ErrNotFound)

	var p *struct{}
	require.NoError(t, s.Set(ctx, "ptr", p, "local"))
	assert.True(t, logger.contains("Set ptr: data is nil"))
}

func TestStore_CorruptValue(t *testing.T) {
	local := &mockDriver{}
	logger := &mockLogger{}
	s := New(WithLocal(local), WithLogger(logger))
	ctx := context.Background()

	corrupt := map[string]string{
		"noSeparator": "plain",
		"badTag":      "date_prfx_2020",
		"badJSON":     "object_prfx_{",
		"arrayObject": "object_prfx_[1]",
		"nullObject":  "object_prfx_null",
		"objectArray": "array_prfx_{}",
		"badNumber":   "number_prfx_abc",
		"nanNumber":   "number_prfx_NaN",
	}
	for key, raw := range corrupt {
		require.NoError(t, local.Set(ctx, key, raw))

		_, err := s.Get(ctx, key, "local")
		assert.ErrorIs(t, err, ErrNotFound, key)
		assert.True(t, logger.contains("Get "+key+" on local"), key)

		ok, err := s.Has(ctx, key, "local")
		require.NoError(t, err)
		assert.True(t, ok, "Has reports the raw entry for %s", key)
	}
}

func TestStore_StrictDecode(t *testing.T) {
	local := &mockDriver{}
	s := New(WithLocal(local), WithStrictDecode())
	ctx := context.Background()

	require.NoError(t, local.Set(ctx, "bad", "number_prfx_abc"))

	_, err := s.Get(ctx, "bad", "local")
	assert.ErrorIs(t, err, ErrDecode)
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestStore_ItemsWithCorruptValue(t *testing.T) {
	local := &mockDriver{}
	s := New(WithLocal(local), WithStrictDecode())
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "good", "v", "local"))
	require.NoError(t, local.Set(ctx, "bad", "garbage"))

	items, err := s.Items(ctx, "local")
	require.NoError(t, err)
	assert.Equal(t, []Item[Value]{
		{Key: "good", Value: String("v")},
		{Key: "bad", Value: nil},
	}, items)
}

func TestStore_ItemsUsesLenAndKey(t *testing.T) {
	calls := 0
	local := &mockDriver{
		keyFunc: func(ctx context.Context, index int) (string, error) {
			calls++
			return []string{"x", "", "y"}[index], nil
		},
		lenFunc: func(ctx context.Context) (int, error) { return 3, nil },
	}
	s := New(WithLocal(local))
	ctx := context.Background()
	require.NoError(t, local.backing().Set(ctx, "x", "boolean_prfx_TRUE"))

	items, err := s.Items(ctx, "local")
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []Item[Value]{
		{Key: "x", Value: Boolean(true)},
		{Key: "y", Value: nil},
	}, items)
}

func TestStore_CookieSharesJar(t *testing.T) {
	jar := NewMemoryJar("")
	s := New(WithJar(jar))
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "a b", "x;y=z", "c"))
	assert.Equal(t, "a%20b=string_prfx_x%3By%3Dz", jar.Cookie())

	other := New(WithJar(jar))
	v, err := other.Get(ctx, "a b", "cookie")
	require.NoError(t, err)
	assert.Equal(t, String("x;y=z"), v)
}

func TestGetAs_NotFound(t *testing.T) {
	s := New()
	_, err := GetAs[string](context.Background(), s, "missing", "local")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetAs_TypeMismatch(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "k", "text", "local"))

	_, err := GetAs[int](ctx, s, "k", "local")
	assert.ErrorIs(t, err, ErrDecode)
}

func TestStore_NilSliceReadsAsEmptyArray(t *testing.T) {
	logger := &mockLogger{}
	s := New(WithLogger(logger))
	ctx := context.Background()

	var tags []string
	require.NoError(t, s.Set(ctx, "tags", tags, "local"))
	assert.False(t, logger.contains("data is nil"))

	v, err := s.Get(ctx, "tags", "local")
	require.NoError(t, err)
	assert.Equal(t, Array{}, v)

	got, err := GetAs[[]string](ctx, s, "tags", "local")
	require.NoError(t, err)
	assert.Empty(t, got)
}
