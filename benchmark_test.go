package webstore

import (
	"context"
	"fmt"
	"strings"
	"testing"
)

// Benchmark driver operations.

func BenchmarkMemory_Set(b *testing.B) {
	d := NewMemory()
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = d.Set(ctx, fmt.Sprintf("key:%d", i), "benchmark-value")
	}
}

func BenchmarkMemory_Get(b *testing.B) {
	d := NewMemory()
	ctx := context.Background()

	// Setup: populate with keys.
	for i := 0; i < 1000; i++ {
		_ = d.Set(ctx, fmt.Sprintf("key:%d", i), "benchmark-value")
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = d.Get(ctx, fmt.Sprintf("key:%d", i%1000))
	}
}

func BenchmarkCookieStorage_Get(b *testing.B) {
	for _, n := range []int{1, 10, 50} {
		b.Run(fmt.Sprintf("entries=%d", n), func(b *testing.B) {
			c := NewCookieStorage(NewMemoryJar(""))
			ctx := context.Background()
			for i := 0; i < n; i++ {
				_ = c.Set(ctx, fmt.Sprintf("key:%d", i), "benchmark-value")
			}

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_, _ = c.Get(ctx, fmt.Sprintf("key:%d", i%n))
			}
		})
	}
}

func BenchmarkCookieStorage_Key(b *testing.B) {
	c := NewCookieStorage(NewMemoryJar(""))
	ctx := context.Background()
	for i := 0; i < 50; i++ {
		_ = c.Set(ctx, fmt.Sprintf("key:%d", i), "benchmark-value")
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = c.Key(ctx, i%50)
	}
}

// Benchmark codec.

func BenchmarkEncode_Object(b *testing.B) {
	v := map[string]any{"name": "Ann", "age": 3, "tags": []string{"a", "b"}}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Encode(v)
	}
}

func BenchmarkDecodeRaw_Object(b *testing.B) {
	raw := Encode(map[string]any{"name": "Ann", "age": 3, "tags": []string{"a", "b"}})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = DecodeRaw(raw)
	}
}

// Benchmark facade operations.

func BenchmarkStore_SetGet(b *testing.B) {
	long := strings.Repeat("a", 10000)
	for _, backend := range allBackends {
		b.Run(backend, func(b *testing.B) {
			s := New()
			ctx := context.Background()

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_ = s.Set(ctx, "key", long, backend)
				_, _ = s.Get(ctx, "key", backend)
			}
		})
	}
}

func BenchmarkStore_Items(b *testing.B) {
	for _, backend := range allBackends {
		b.Run(backend, func(b *testing.B) {
			s := New()
			ctx := context.Background()
			for i := 0; i < 20; i++ {
				_ = s.Set(ctx, fmt.Sprintf("key:%d", i), i, backend)
			}

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_, _ = s.Items(ctx, backend)
			}
		})
	}
}
