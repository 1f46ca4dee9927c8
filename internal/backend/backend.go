package backend

import (
	"context"
	"errors"
	"fmt"
)

// RemoteSession is the credential issued by the hosted backend at OTP
// verification time: an opaque bearer token plus the remote user identity.
type RemoteSession struct {
	AccessToken string `json:"access_token"`
	UserID      string `json:"user_id"`
	Phone       string `json:"phone"`
}

// Row is a single record from a backend table. Column values decode with
// JSON semantics (numbers arrive as float64).
type Row map[string]any

// Filter restricts table operations to rows whose columns equal the given
// values. Row-level security on the server is the real boundary; these
// filters narrow results for clarity and bandwidth.
type Filter map[string]any

var (
	// ErrNetwork marks transport-level failures reaching the backend.
	ErrNetwork = errors.New("backend unreachable")
	// ErrUnauthorized is returned when the backend rejects the caller's credential.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound is returned when a single-row lookup matches nothing.
	ErrNotFound = errors.New("row not found")
	// ErrNoSessionIssued is returned when OTP verification succeeds at the
	// transport level but the backend does not issue a session.
	ErrNoSessionIssued = errors.New("no session issued")
)

// AuthError is a rejection from the backend's auth endpoints (bad phone
// number, rate limit, wrong or expired code). The remote message is carried
// verbatim for user-facing display.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

// Client is the remote backend-as-a-service boundary: phone-OTP auth plus
// equality-filtered CRUD on named tables. The client holds the current
// remote session and attaches it to table operations.
type Client interface {
	SendOTP(ctx context.Context, phone string) error
	VerifyOTP(ctx context.Context, phone, code string) (RemoteSession, error)
	SignOut(ctx context.Context) error

	Session() *RemoteSession
	SetSession(sess RemoteSession)
	ClearSession()

	Select(ctx context.Context, table string, filter Filter) ([]Row, error)
	SelectOne(ctx context.Context, table string, filter Filter) (Row, error)
	Insert(ctx context.Context, table string, row Row) (Row, error)
	Update(ctx context.Context, table string, filter Filter, patch Row) (Row, error)
	Delete(ctx context.Context, table string, filter Filter) error
}

// String reads a column as a string, returning "" when absent or mistyped.
func (r Row) String(key string) string {
	v, _ := r[key].(string)
	return v
}

// Float reads a numeric column.
func (r Row) Float(key string) float64 {
	switch v := r[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}

// Int reads a numeric column as an int.
func (r Row) Int(key string) int {
	return int(r.Float(key))
}

// Clone returns a shallow copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Matches reports whether the row satisfies every equality predicate.
func (f Filter) Matches(row Row) bool {
	for col, want := range f {
		if fmt.Sprint(row[col]) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}
