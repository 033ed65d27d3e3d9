package valkey

import (
	"context"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"
)

// DefaultNamespace prefixes every key so the service can share a server.
const DefaultNamespace = "plotfit"

// Options configures Dial. Zero values take the defaults.
type Options struct {
	Addr      string
	Namespace string
	// ConnWriteTimeout bounds a single write; valkey-go's default is 10s,
	// which is longer than a parcel fetch is allowed to take.
	ConnWriteTimeout time.Duration
}

// Cache implements ports.CacheService using Valkey (Redis-compatible).
// Keys passed in are stored as "<namespace>:<key>".
type Cache struct {
	client valkey.Client
	prefix string
}

// New connects to addr with default options.
func New(addr string) (*Cache, error) {
	return Dial(Options{Addr: addr})
}

// Dial creates a Valkey client. Client-side caching is disabled so plain
// RESP2 servers work too.
func Dial(opts Options) (*Cache, error) {
	if opts.Namespace == "" {
		opts.Namespace = DefaultNamespace
	}
	if opts.ConnWriteTimeout <= 0 {
		opts.ConnWriteTimeout = 3 * time.Second
	}
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress:      []string{opts.Addr},
		DisableCache:     true,
		ConnWriteTimeout: opts.ConnWriteTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("valkey connect %s: %w", opts.Addr, err)
	}
	return &Cache{client: client, prefix: opts.Namespace + ":"}, nil
}

func (c *Cache) key(k string) string { return c.prefix + k }

// Get retrieves a value by key. A missing key is reported by IsMiss.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	return c.client.Do(ctx, c.client.B().Get().Key(c.key(key)).Build()).AsBytes()
}

// Set stores a value with a TTL in seconds. A non-positive TTL stores the
// value without expiry.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	set := c.client.B().Set().Key(c.key(key)).Value(valkey.BinaryString(value))
	if ttlSeconds <= 0 {
		return c.client.Do(ctx, set.Build()).Error()
	}
	return c.client.Do(ctx, set.Ex(time.Duration(ttlSeconds)*time.Second).Build()).Error()
}

// Delete removes a key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.client.Do(ctx, c.client.B().Del().Key(c.key(key)).Build()).Error()
}

// Ping checks the server is reachable.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Do(ctx, c.client.B().Ping().Build()).Error()
}

// Close releases the client.
func (c *Cache) Close() {
	c.client.Close()
}

// IsMiss reports whether err means the key does not exist.
func IsMiss(err error) bool {
	return valkey.IsValkeyNil(err)
}
