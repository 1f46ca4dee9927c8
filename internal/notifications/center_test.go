package notifications

import (
	"context"
	"testing"

	"github.com/parent-portal/parent_portal/internal/auth"
	"github.com/parent-portal/parent_portal/internal/backend"
	"github.com/parent-portal/parent_portal/internal/logging"
	"github.com/parent-portal/parent_portal/internal/storage"
)

func newTestCenter() (*Center, storage.Store, *backend.Memory) {
	store := storage.NewMemory()
	remote := backend.NewMemory()
	authSvc := auth.NewService(remote, logging.Discard())
	return NewCenter(store, authSvc, logging.Discard()), store, remote
}

func TestListSeedsFreshInstall(t *testing.T) {
	center, store, _ := newTestCenter()
	ctx := context.Background()

	items, err := center.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected seeded notifications, got %d", len(items))
	}
	if items[0].Title != "Welcome" {
		t.Fatalf("unexpected seed: %+v", items[0])
	}

	// Seed must be persisted so subsequent loads are stable.
	var persisted []Item
	if found, _ := store.Load(ctx, storage.KeyNotifications, &persisted); !found || len(persisted) != 3 {
		t.Fatalf("expected persisted seed, got %v", persisted)
	}
}

func TestMarkReadAndUnread(t *testing.T) {
	center, _, _ := newTestCenter()
	ctx := context.Background()

	if _, err := center.List(ctx); err != nil {
		t.Fatalf("list: %v", err)
	}

	if err := center.MarkRead(ctx, "1"); err != nil {
		t.Fatalf("mark read: %v", err)
	}

	unread, err := center.Unread(ctx)
	if err != nil {
		t.Fatalf("unread: %v", err)
	}
	if len(unread) != 1 || unread[0].ID != "3" {
		t.Fatalf("expected only item 3 unread, got %+v", unread)
	}
}

func TestPreferencesDefaultAndRoundTrip(t *testing.T) {
	center, _, _ := newTestCenter()
	ctx := context.Background()

	prefs, err := center.Preferences(ctx)
	if err != nil {
		t.Fatalf("preferences: %v", err)
	}
	if prefs != DefaultPreferences() {
		t.Fatalf("expected all-on defaults, got %+v", prefs)
	}

	prefs.News = false
	if err := center.SavePreferences(ctx, prefs); err != nil {
		t.Fatalf("save preferences: %v", err)
	}

	got, err := center.Preferences(ctx)
	if err != nil {
		t.Fatalf("reload preferences: %v", err)
	}
	if got.News || !got.Attendance {
		t.Fatalf("unexpected preferences after save: %+v", got)
	}
}

func TestRegisterPushToken(t *testing.T) {
	center, _, remote := newTestCenter()
	ctx := context.Background()

	// No session, no token, nothing blows up.
	center.RegisterPushToken(ctx, "")
	center.RegisterPushToken(ctx, "push-1")

	remote.Seed("profiles", backend.Row{"id": "u1", "phone": "+555", "name": "Amina"})
	remote.SetSession(backend.RemoteSession{AccessToken: "t1", UserID: "u1"})

	center.RegisterPushToken(ctx, "push-1")
	if rows := remote.Rows("profiles"); rows[0].String("push_token") != "push-1" {
		t.Fatalf("expected push token attached, got %v", rows[0])
	}
}
