package drafts

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRedis answers the store's commands from a map.
type fakeRedis struct {
	data   map[string]string
	ttls   map[string]time.Duration
	err    error
	closed bool
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(ctx context.Context, key string) *goredis.StringCmd {
	cmd := goredis.NewStringCmd(ctx, "get", key)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	v, ok := f.data[key]
	if !ok {
		cmd.SetErr(goredis.Nil)
		return cmd
	}
	cmd.SetVal(v)
	return cmd
}

func (f *fakeRedis) Set(ctx context.Context, key string, value any, expiration time.Duration) *goredis.StatusCmd {
	cmd := goredis.NewStatusCmd(ctx, "set", key, value)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	f.ttls[key] = expiration
	cmd.SetVal("OK")
	return cmd
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *goredis.IntCmd {
	args := []any{"del"}
	for _, k := range keys {
		args = append(args, k)
	}
	cmd := goredis.NewIntCmd(ctx, args...)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	cmd.SetVal(n)
	return cmd
}

func (f *fakeRedis) Close() error {
	f.closed = true
	return nil
}

func TestRedisStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	rdb := newFakeRedis()
	s := newRedisStore(rdb, 2*time.Hour)
	key := Key("p1", V2)

	_, err := s.Load(ctx, key)
	assert.True(t, errors.Is(err, ErrNotFound))

	saved, err := s.Save(ctx, key, json.RawMessage(`{"name":"Vex"}`))
	require.NoError(t, err)
	assert.Equal(t, key, saved.Key)
	assert.Contains(t, rdb.data, "tabforge:"+key)
	assert.Equal(t, 2*time.Hour, rdb.ttls["tabforge:"+key])

	got, err := s.Load(ctx, key)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Vex"}`, string(got.Data))
	assert.True(t, saved.SavedAt.Equal(got.SavedAt))

	require.NoError(t, s.Delete(ctx, key))
	_, err = s.Load(ctx, key)
	assert.True(t, errors.Is(err, ErrNotFound))
	require.NoError(t, s.Delete(ctx, key))

	require.NoError(t, s.Close())
	assert.True(t, rdb.closed)
}

func TestRedisStore_CommandErrors(t *testing.T) {
	ctx := context.Background()
	rdb := newFakeRedis()
	rdb.err = errors.New("connection reset")
	s := newRedisStore(rdb, time.Hour)

	_, err := s.Save(ctx, "k", json.RawMessage(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "saving draft k")

	_, err = s.Load(ctx, "k")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.ErrorIs(t, err, rdb.err)

	err = s.Delete(ctx, "k")
	assert.ErrorIs(t, err, rdb.err)
}

func TestRedisStore_CorruptValue(t *testing.T) {
	rdb := newFakeRedis()
	rdb.data["tabforge:k"] = "not json"
	s := newRedisStore(rdb, time.Hour)

	_, err := s.Load(context.Background(), "k")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding draft")
}
