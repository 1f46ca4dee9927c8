package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/parent-portal/parent_portal/internal/auth"
	"github.com/parent-portal/parent_portal/internal/storage"
)

// Center manages the locally cached notification list and the per-device
// alert preferences. Everything lives in the local store; the backend only
// ever sees the push token.
type Center struct {
	store  storage.Store
	auth   *auth.Service
	logger *slog.Logger
	now    func() time.Time
}

// NewCenter builds a notification center over the local store.
func NewCenter(store storage.Store, authSvc *auth.Service, logger *slog.Logger) *Center {
	return &Center{store: store, auth: authSvc, logger: logger, now: time.Now}
}

// List returns the cached notifications. A fresh install is seeded with a
// welcome set so the screen is never empty.
func (c *Center) List(ctx context.Context) ([]Item, error) {
	var items []Item
	found, err := c.store.Load(ctx, storage.KeyNotifications, &items)
	if err != nil {
		return nil, fmt.Errorf("load notifications: %w", err)
	}
	if found && len(items) > 0 {
		return items, nil
	}

	items = c.seed()
	if err := c.store.Save(ctx, storage.KeyNotifications, items); err != nil {
		c.logger.Warn("persist seeded notifications", "error", err)
	}
	return items, nil
}

// MarkRead flags one notification as read and persists the list.
func (c *Center) MarkRead(ctx context.Context, id string) error {
	items, err := c.List(ctx)
	if err != nil {
		return err
	}
	for i := range items {
		if items[i].ID == id {
			items[i].Read = true
		}
	}
	if err := c.store.Save(ctx, storage.KeyNotifications, items); err != nil {
		return fmt.Errorf("persist notifications: %w", err)
	}
	return nil
}

// Unread returns only the unread notifications.
func (c *Center) Unread(ctx context.Context) ([]Item, error) {
	items, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	var unread []Item
	for _, item := range items {
		if !item.Read {
			unread = append(unread, item)
		}
	}
	return unread, nil
}

// Preferences loads the alert toggles, falling back to all-on defaults.
func (c *Center) Preferences(ctx context.Context) (Preferences, error) {
	prefs := DefaultPreferences()
	if _, err := c.store.Load(ctx, storage.KeyNotificationPrefs, &prefs); err != nil {
		return DefaultPreferences(), fmt.Errorf("load preferences: %w", err)
	}
	return prefs, nil
}

// SavePreferences persists the alert toggles.
func (c *Center) SavePreferences(ctx context.Context, prefs Preferences) error {
	if err := c.store.Save(ctx, storage.KeyNotificationPrefs, prefs); err != nil {
		return fmt.Errorf("persist preferences: %w", err)
	}
	return nil
}

// RegisterPushToken forwards the platform push token to the profile row.
// Fire-and-forget by design.
func (c *Center) RegisterPushToken(ctx context.Context, token string) {
	if token == "" {
		return
	}
	c.auth.SavePushToken(ctx, token)
}

func (c *Center) seed() []Item {
	now := c.now().UTC()
	return []Item{
		{ID: "1", Title: "Welcome", Body: "Welcome to the Parent Portal!", Date: now.Format(time.RFC3339), Read: false, Type: TypeInfo},
		{ID: "2", Title: "New Grade", Body: "John scored A in Math", Date: now.Add(-24 * time.Hour).Format(time.RFC3339), Read: true, Type: TypeAlert},
		{ID: "3", Title: "Attendance Alert", Body: "Sarah was marked absent today", Date: now.Format(time.RFC3339), Read: false, Type: TypeReminder},
	}
}
