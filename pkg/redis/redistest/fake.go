// Package redistest provides an in-memory redis.Client for tests.
package redistest

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Client keeps strings, hashes and lists in maps. TTLs are recorded but
// never expire anything.
type Client struct {
	mu      sync.Mutex
	strings map[string]string
	hashes  map[string]map[string]string
	lists   map[string][]string
	ttls    map[string]time.Duration

	// Err is returned by every call when set
	Err error
}

// New returns an empty fake
func New() *Client {
	return &Client{
		strings: map[string]string{},
		hashes:  map[string]map[string]string{},
		lists:   map[string][]string{},
		ttls:    map[string]time.Duration{},
	}
}

// ErrNil mirrors the missing-key error of the real client
var ErrNil = fmt.Errorf("redis: nil")

func (c *Client) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	c.strings[key] = str(value)
	c.ttls[key] = ttl
	return nil
}

func (c *Client) Get(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return "", c.Err
	}
	v, ok := c.strings[key]
	if !ok {
		return "", ErrNil
	}
	return v, nil
}

func (c *Client) HSetAll(ctx context.Context, key string, fields map[string]interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	h, ok := c.hashes[key]
	if !ok {
		h = map[string]string{}
		c.hashes[key] = h
	}
	for k, v := range fields {
		h[k] = str(v)
	}
	return nil
}

func (c *Client) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return nil, c.Err
	}
	out := map[string]string{}
	for k, v := range c.hashes[key] {
		out[k] = v
	}
	return out, nil
}

func (c *Client) PushCapped(ctx context.Context, key string, max int64, value interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	list := append([]string{str(value)}, c.lists[key]...)
	if int64(len(list)) > max {
		list = list[:max]
	}
	c.lists[key] = list
	return nil
}

func (c *Client) LRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return nil, c.Err
	}
	list := c.lists[key]
	n := int64(len(list))
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop {
		return []string{}, nil
	}
	return append([]string(nil), list[start:stop+1]...), nil
}

func (c *Client) Expire(ctx context.Context, key string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	c.ttls[key] = ttl
	return nil
}

func (c *Client) Ping(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Err
}

func (c *Client) Close() error {
	return nil
}

// TTL returns the last TTL recorded for key
func (c *Client) TTL(key string) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ttls[key]
}

func str(v interface{}) string {
	switch s := v.(type) {
	case []byte:
		return string(s)
	case string:
		return s
	}
	return fmt.Sprint(v)
}
