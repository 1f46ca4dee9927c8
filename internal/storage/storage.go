package storage

import "context"

// Well-known keys persisted by the app core. Values under these keys are
// JSON documents; there is no transactionality across keys.
const (
	KeyUserSession       = "user_session"
	KeySeenOnboarding    = "has_seen_onboarding"
	KeyNotificationPrefs = "notification_preferences"
	KeyNotifications     = "notifications"
)

// Store is the device-local persistent key-value store. Values are
// JSON-serialized on save and decoded into dest on load. Load reports
// whether a value was present; an absent key is not an error.
type Store interface {
	Save(ctx context.Context, key string, value any) error
	Load(ctx context.Context, key string, dest any) (bool, error)
	Remove(ctx context.Context, key string) error
}
