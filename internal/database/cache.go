package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"
)

var ErrCacheUnavailable = errors.New("cache client is not configured")

// CacheItem is a single typed value written under Key, or under
// HashPattern formatted with Key when a pattern is set.
type CacheItem[T any] struct {
	Cache       CacheClient
	Key         string
	Value       T
	Expiry      *time.Duration
	HashPattern *string
}

func (c CacheItem[T]) key() string {
	if c.HashPattern != nil {
		return fmt.Sprintf(*c.HashPattern, c.Key)
	}
	return c.Key
}

func (c CacheItem[T]) Set(ctx context.Context) error {
	builder := NewCacheBuilder(c.Cache, c.key()).WithContext(ctx).WithStruct(c.Value)
	if c.Expiry != nil {
		builder = builder.WithTTL(*c.Expiry)
	}
	return builder.Set()
}

func (c CacheItem[T]) Get(ctx context.Context) (T, bool, error) {
	var value T
	found, err := NewCacheBuilder(c.Cache, c.key()).WithContext(ctx).Get(&value)
	return value, found, err
}

func (c CacheItem[T]) Delete(ctx context.Context) error {
	return NewCacheBuilder(c.Cache, c.key()).WithContext(ctx).Delete()
}

type CacheBuilder struct {
	client CacheClient
	key    string
	value  any
	ttl    time.Duration
	ctx    context.Context
}

func NewCacheBuilder(client CacheClient, key string) *CacheBuilder {
	return &CacheBuilder{
		client: client,
		key:    key,
		ctx:    context.Background(),
	}
}

func (b *CacheBuilder) WithStruct(value any) *CacheBuilder {
	b.value = value
	return b
}

func (b *CacheBuilder) WithTTL(ttl time.Duration) *CacheBuilder {
	b.ttl = ttl
	return b
}

func (b *CacheBuilder) WithContext(ctx context.Context) *CacheBuilder {
	if ctx != nil {
		b.ctx = ctx
	}
	return b
}

func (b *CacheBuilder) Set() error {
	if b.client == nil {
		return ErrCacheUnavailable
	}

	payload, err := json.Marshal(b.value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	cmd := b.client.B().Set().Key(b.key).Value(valkey.BinaryString(payload))
	if b.ttl > 0 {
		seconds := int64(b.ttl / time.Second)
		if seconds < 1 {
			seconds = 1
		}
		return b.client.Do(b.ctx, cmd.ExSeconds(seconds).Build()).Error()
	}
	return b.client.Do(b.ctx, cmd.Build()).Error()
}

// Get decodes the cached value into target and reports whether the key
// existed.
func (b *CacheBuilder) Get(target any) (bool, error) {
	if b.client == nil {
		return false, ErrCacheUnavailable
	}

	payload, err := b.client.Do(b.ctx, b.client.B().Get().Key(b.key).Build()).AsBytes()
	if valkey.IsValkeyNil(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := json.Unmarshal(payload, target); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}
	return true, nil
}

func (b *CacheBuilder) Delete() error {
	if b.client == nil {
		return ErrCacheUnavailable
	}
	return b.client.Do(b.ctx, b.client.B().Del().Key(b.key).Build()).Error()
}
