package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raul-padua/agentic-product-price-scrapping/models"
)

func TestKey_DomainOrderInsensitive(t *testing.T) {
	a := Key("iphone 15", []string{"amazon.com", "Mercadolivre.com.br"}, "tvly-a")
	b := Key(" iphone 15 ", []string{"mercadolivre.com.br", "amazon.com"}, "tvly-a")
	c := Key("iphone 15", []string{"amazon.com"}, "tvly-a")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}

func TestKey_ScopedByCredential(t *testing.T) {
	a := Key("iphone 15", nil, "tvly-a")
	b := Key("iphone 15", nil, "tvly-b")

	assert.NotEqual(t, a, b)
	assert.NotContains(t, a, "tvly-a")
}

func TestMemory_SetGet(t *testing.T) {
	c := NewMemory(10, time.Minute)
	defer c.Close()
	ctx := context.Background()

	_, ok := c.Get(ctx, "missing")
	assert.False(t, ok)

	resp := &models.SearchResponse{OK: true}
	c.Set(ctx, "k", resp)

	got, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Same(t, resp, got)
}

func TestMemory_Expiry(t *testing.T) {
	c := NewMemory(10, time.Minute)
	defer c.Close()
	ctx := context.Background()

	now := time.Now()
	c.now = func() time.Time { return now }
	c.Set(ctx, "k", &models.SearchResponse{OK: true})

	c.now = func() time.Time { return now.Add(2 * time.Minute) }
	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)

	c.evictExpired()
	assert.Equal(t, 0, c.Len())
}

func TestMemory_Capacity(t *testing.T) {
	c := NewMemory(2, time.Minute)
	defer c.Close()
	ctx := context.Background()

	c.Set(ctx, "a", &models.SearchResponse{})
	c.Set(ctx, "b", &models.SearchResponse{})
	c.Set(ctx, "b", &models.SearchResponse{})
	assert.Equal(t, 2, c.Len())

	c.Set(ctx, "c", &models.SearchResponse{})
	assert.Equal(t, 2, c.Len())
	_, ok := c.Get(ctx, "c")
	assert.True(t, ok)
}

type fakeRedis struct {
	data   map[string]string
	getErr error
	ttl    time.Duration
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.data[key] = string(value.([]byte))
	f.ttl = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Close() error { return nil }

func TestRedis_RoundTrip(t *testing.T) {
	fake := &fakeRedis{data: map[string]string{}}
	r := NewRedisWithClient(fake, 5*time.Minute)
	ctx := context.Background()

	answer := "Best price is R$ 4.999"
	r.Set(ctx, "k", &models.SearchResponse{OK: true, Answer: &answer})

	assert.Equal(t, 5*time.Minute, fake.ttl)
	_, stored := fake.data[redisKeyPrefix+"k"]
	assert.True(t, stored)

	got, ok := r.Get(ctx, "k")
	require.True(t, ok)
	assert.True(t, got.OK)
	require.NotNil(t, got.Answer)
	assert.Equal(t, answer, *got.Answer)
}

func TestRedis_Misses(t *testing.T) {
	ctx := context.Background()

	_, ok := NewRedisWithClient(&fakeRedis{data: map[string]string{}}, time.Minute).Get(ctx, "absent")
	assert.False(t, ok)

	_, ok = NewRedisWithClient(&fakeRedis{getErr: errors.New("connection refused")}, time.Minute).Get(ctx, "k")
	assert.False(t, ok)

	corrupt := &fakeRedis{data: map[string]string{redisKeyPrefix + "k": "{not json"}}
	_, ok = NewRedisWithClient(corrupt, time.Minute).Get(ctx, "k")
	assert.False(t, ok)
}

func TestRedis_ValueIsJSON(t *testing.T) {
	fake := &fakeRedis{data: map[string]string{}}
	NewRedisWithClient(fake, time.Minute).Set(context.Background(), "k", &models.SearchResponse{OK: true})

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(fake.data[redisKeyPrefix+"k"]), &decoded))
	assert.Equal(t, true, decoded["ok"])
}
