package database

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linker-backend/pkg/logger"
)

func newMiniRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client, "test"), mr
}

func TestRedisStore(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) Store {
		store, _ := newMiniRedisStore(t)
		return store
	})
}

func TestRedisStoreKeyLayout(t *testing.T) {
	ctx := context.Background()
	store, mr := newMiniRedisStore(t)
	links := store.Collection(CollectionLinks)

	id, err := links.InsertOne(ctx, Document{FieldOwner: "u1", "title": "a"})
	require.NoError(t, err)

	assert.True(t, mr.Exists("test:links:doc:"+id))
	ids, err := mr.List("test:links:ids")
	require.NoError(t, err)
	assert.Equal(t, []string{id}, ids)
	owned, err := mr.List("test:links:owner:u1")
	require.NoError(t, err)
	assert.Equal(t, []string{id}, owned)

	n, err := links.DeleteOne(ctx, Filter{FieldID: id, FieldOwner: "u1"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.False(t, mr.Exists("test:links:doc:"+id))
}

func TestRedisStoreReindexesOwner(t *testing.T) {
	ctx := context.Background()
	store, _ := newMiniRedisStore(t)
	links := store.Collection(CollectionLinks)

	id, err := links.InsertOne(ctx, Document{FieldOwner: "u1", "title": "a"})
	require.NoError(t, err)

	res, err := links.UpdateOne(ctx, Filter{FieldID: id}, Document{FieldOwner: "u2"})
	require.NoError(t, err)
	assert.Equal(t, UpdateResult{Matched: 1, Modified: 1}, res)

	docs, err := links.Find(ctx, Filter{FieldOwner: "u1"}, 0)
	require.NoError(t, err)
	assert.Empty(t, docs)

	docs, err = links.Find(ctx, Filter{FieldOwner: "u2"}, 0)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, id, docs[0].String(FieldID))
}

func TestRedisStoreUnchangedUpdate(t *testing.T) {
	ctx := context.Background()
	store, _ := newMiniRedisStore(t)
	links := store.Collection(CollectionLinks)

	_, err := links.InsertOne(ctx, Document{FieldOwner: "u1", "category": "other"})
	require.NoError(t, err)

	res, err := links.UpdateMany(ctx, Filter{FieldOwner: "u1"}, Document{"category": "other"})
	require.NoError(t, err)
	assert.Equal(t, UpdateResult{Matched: 1, Modified: 0}, res)
}

func TestConnectRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := ConnectRedis(context.Background(), DefaultRedisConnectOptions("redis://"+mr.Addr()), logger.Nop())
	require.NoError(t, err)
	defer client.Close()

	store := NewRedisStore(client, "")
	assert.Equal(t, "linker", store.prefix)
	assert.NoError(t, store.HealthCheck(context.Background()))
}

func TestConnectRedisGivesUp(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	opts := RedisConnectOptions{
		URL:            "redis://" + addr,
		ConnectTimeout: 200 * time.Millisecond,
		RetryInterval:  20 * time.Millisecond,
		MaxWait:        50 * time.Millisecond,
		PingTimeout:    50 * time.Millisecond,
	}
	start := time.Now()
	_, err := ConnectRedis(context.Background(), opts, logger.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis unavailable")
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestConnectRedisRejectsBadInput(t *testing.T) {
	_, err := ConnectRedis(context.Background(), DefaultRedisConnectOptions("not a url"), logger.Nop())
	assert.ErrorContains(t, err, "invalid REDIS_URL")

	_, err = ConnectRedis(context.Background(), RedisConnectOptions{URL: "redis://localhost:6379"}, logger.Nop())
	assert.ErrorContains(t, err, "invalid redis connect options")
}
