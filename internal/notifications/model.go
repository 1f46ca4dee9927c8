package notifications

// Item kinds.
const (
	TypeAlert    = "alert"
	TypeInfo     = "info"
	TypeReminder = "reminder"
)

// Item is a locally cached notification.
type Item struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Body  string `json:"body"`
	Date  string `json:"date"`
	Read  bool   `json:"read"`
	Type  string `json:"type"`
}

// Preferences are the per-device alert toggles. Everything defaults to on.
type Preferences struct {
	Attendance  bool `json:"attendance"`
	Performance bool `json:"performance"`
	News        bool `json:"news"`
	Reminders   bool `json:"reminders"`
}

// DefaultPreferences returns the all-on defaults for a fresh install.
func DefaultPreferences() Preferences {
	return Preferences{Attendance: true, Performance: true, News: true, Reminders: true}
}
