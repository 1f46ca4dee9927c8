package storage

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func setupRedisStore(t *testing.T) Store {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedis(client, "test")
}

func TestRedisStoreRoundTrip(t *testing.T) {
	store := setupRedisStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, KeySeenOnboarding, true); err != nil {
		t.Fatalf("save: %v", err)
	}

	var flag bool
	found, err := store.Load(ctx, KeySeenOnboarding, &flag)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !found || !flag {
		t.Fatalf("expected true flag, found=%v flag=%v", found, flag)
	}
}

func TestRedisStoreMissingAndRemove(t *testing.T) {
	store := setupRedisStore(t)
	ctx := context.Background()

	var flag bool
	found, err := store.Load(ctx, KeySeenOnboarding, &flag)
	if err != nil {
		t.Fatalf("load missing: %v", err)
	}
	if found {
		t.Fatalf("expected absent key")
	}

	if err := store.Save(ctx, KeyUserSession, map[string]string{"token": "t1"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Remove(ctx, KeyUserSession); err != nil {
		t.Fatalf("remove: %v", err)
	}

	var got map[string]string
	found, err = store.Load(ctx, KeyUserSession, &got)
	if err != nil {
		t.Fatalf("load after remove: %v", err)
	}
	if found {
		t.Fatalf("expected key gone after remove")
	}
}
