package webstore

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// segmentSep joins the entries of a flat cookie string.
const segmentSep = "; "

// Jar is a flat string store: its whole content is one string of
// "name=value" segments joined by "; ". It offers no enumeration of its own.
type Jar interface {
	// Cookie returns the current flat string.
	Cookie() string
	// SetCookie applies a single assignment such as "k=v; path=/".
	// An existing name is replaced in place, a new one is appended and
	// a max-age <= 0 or an expires in the past removes the name.
	SetCookie(assignment string) error
}

// MemoryJar keeps the flat string in memory.
type MemoryJar struct {
	mu   sync.Mutex
	flat string
}

// NewMemoryJar creates a Jar seeded with an initial flat string.
func NewMemoryJar(initial string) *MemoryJar {
	return &MemoryJar{flat: initial}
}

func (j *MemoryJar) Cookie() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.flat
}

func (j *MemoryJar) SetCookie(assignment string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	flat, err := applyAssignment(j.flat, assignment, time.Now())
	if err != nil {
		return err
	}
	j.flat = flat
	return nil
}

// HeaderJar keeps the flat string in the Cookie header of h, typically the
// headers of an outgoing request.
type HeaderJar struct {
	mu sync.Mutex
	h  http.Header
}

// NewHeaderJar creates a Jar over h. A nil h gets a fresh header, which
// the caller can no longer observe.
func NewHeaderJar(h http.Header) *HeaderJar {
	if h == nil {
		h = http.Header{}
	}
	return &HeaderJar{h: h}
}

func (j *HeaderJar) Cookie() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.cookie()
}

// cookie joins repeated Cookie headers, which HTTP/2 allows.
func (j *HeaderJar) cookie() string {
	return strings.Join(j.h.Values("Cookie"), segmentSep)
}

func (j *HeaderJar) SetCookie(assignment string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	flat, err := applyAssignment(j.cookie(), assignment, time.Now())
	if err != nil {
		return err
	}
	if flat == "" {
		j.h.Del("Cookie")
		return nil
	}
	j.h.Set("Cookie", flat)
	return nil
}

func applyAssignment(flat, assignment string, now time.Time) (string, error) {
	parts := strings.Split(assignment, ";")
	name, value, ok := strings.Cut(parts[0], "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", fmt.Errorf("%w: %q", ErrMalformedCookie, assignment)
	}
	value = strings.TrimSpace(value)

	expired := false
	for _, attr := range parts[1:] {
		k, v, _ := strings.Cut(strings.TrimSpace(attr), "=")
		switch strings.ToLower(k) {
		case "max-age":
			age, err := strconv.Atoi(v)
			if err != nil {
				return "", fmt.Errorf("%w: max-age %q", ErrMalformedCookie, v)
			}
			expired = age <= 0
		case "expires":
			t, err := http.ParseTime(v)
			if err != nil {
				return "", fmt.Errorf("%w: expires %q", ErrMalformedCookie, v)
			}
			expired = !t.After(now)
		}
	}

	var segments []string
	if flat != "" {
		segments = strings.Split(flat, segmentSep)
	}

	out := make([]string, 0, len(segments)+1)
	replaced := false
	for _, seg := range segments {
		segName, _, _ := strings.Cut(seg, "=")
		if segName != name {
			out = append(out, seg)
			continue
		}
		if !expired && !replaced {
			out = append(out, name+"="+value)
		}
		replaced = true
	}
	if !replaced && !expired {
		out = append(out, name+"="+value)
	}
	return strings.Join(out, segmentSep), nil
}
