package webstore

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"go.uber.org/multierr"
)

// CookieStorage adapts a Jar to the Driver contract. The jar only exposes a
// single flat string, so every call re-parses it.
type CookieStorage struct {
	jar Jar
}

var _ Driver = (*CookieStorage)(nil)

// NewCookieStorage creates a Driver over jar.
func NewCookieStorage(jar Jar) *CookieStorage {
	return &CookieStorage{jar: jar}
}

// Len reports the number of segments. An empty flat string holds none.
func (c *CookieStorage) Len(ctx context.Context) (int, error) {
	flat := c.jar.Cookie()
	if flat == "" {
		return 0, nil
	}
	return len(strings.Split(flat, segmentSep)), nil
}

func (c *CookieStorage) Set(ctx context.Context, key, value string) error {
	return c.jar.SetCookie(escape(key) + "=" + escape(value) + "; path=/")
}

func (c *CookieStorage) Get(ctx context.Context, key string) (string, error) {
	re, err := regexp.Compile(`(?:^|; )` + regexp.QuoteMeta(escape(key)) + `=([^;]*)`)
	if err != nil {
		return "", err
	}
	m := re.FindStringSubmatch(c.jar.Cookie())
	if m == nil {
		return "", ErrNotFound
	}
	return unescape(m[1]), nil
}

func (c *CookieStorage) Delete(ctx context.Context, key string) error {
	return c.jar.SetCookie(escape(key) + "=; max-age=-1; path=/")
}

// Clear removes every segment one by one; the jar has no bulk primitive.
func (c *CookieStorage) Clear(ctx context.Context) error {
	var errs error
	for _, item := range c.Items() {
		errs = multierr.Append(errs, c.Delete(ctx, item.Key))
	}
	return errs
}

func (c *CookieStorage) Key(ctx context.Context, index int) (string, error) {
	items := c.Items()
	if index < 0 || index >= len(items) {
		return "", ErrNotFound
	}
	return items[index].Key, nil
}

// Items returns every segment decoded, in flat string order.
func (c *CookieStorage) Items() []Item[string] {
	flat := c.jar.Cookie()
	if flat == "" {
		return nil
	}
	segments := strings.Split(flat, segmentSep)
	items := make([]Item[string], 0, len(segments))
	for _, seg := range segments {
		k, v, _ := strings.Cut(seg, "=")
		items = append(items, Item[string]{Key: unescape(k), Value: unescape(v)})
	}
	return items
}

func (c *CookieStorage) Has(ctx context.Context, key string) bool {
	_, err := c.Get(ctx, key)
	return err == nil
}

// escape percent-encodes everything outside A-Z a-z 0-9 - _ . ~ so that
// neither "; " nor "=" can appear in a key or value.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// unescape returns s unchanged when it is not valid percent-encoding,
// which happens for segments written by someone else.
func unescape(s string) string {
	out, err := url.PathUnescape(s)
	if err != nil {
		return s
	}
	return out
}
