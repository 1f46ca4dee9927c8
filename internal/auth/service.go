package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/parent-portal/parent_portal/internal/backend"
)

// fallbackName is the profile name synthesized when the server-side
// provisioning trigger has not created the row yet.
const fallbackName = "New Parent"

var (
	// ErrInvalidOTP means verification was rejected or no session was issued.
	ErrInvalidOTP = errors.New("invalid or expired code")
	// ErrNoActiveSession means the operation needs a signed-in user.
	ErrNoActiveSession = errors.New("no user logged in")
)

// ProfileUpdateError wraps a failed remote profile update.
type ProfileUpdateError struct {
	Err error
}

func (e *ProfileUpdateError) Error() string {
	return fmt.Sprintf("update profile: %v", e.Err)
}

func (e *ProfileUpdateError) Unwrap() error {
	return e.Err
}

// Service implements the OTP login protocol against the remote backend.
type Service struct {
	client backend.Client
	logger *slog.Logger
}

// NewService creates an auth service over the given backend client.
func NewService(client backend.Client, logger *slog.Logger) *Service {
	return &Service{client: client, logger: logger}
}

// Login asks the backend to send a one-time passcode to phone. Remote
// rejections are propagated verbatim for user-facing display.
func (s *Service) Login(ctx context.Context, phone string) error {
	return s.client.SendOTP(ctx, normalizePhone(phone))
}

// VerifyOTP exchanges phone+code for a session and returns the signed-in
// profile with its bearer token. When the auto-provisioned profile row is
// missing it synthesizes a default one and tries to insert it; the insert
// is best-effort and never blocks the login.
func (s *Service) VerifyOTP(ctx context.Context, phone, code string) (Profile, string, error) {
	sess, err := s.client.VerifyOTP(ctx, normalizePhone(phone), code)
	if err != nil {
		var authErr *backend.AuthError
		if errors.Is(err, backend.ErrNoSessionIssued) || errors.As(err, &authErr) {
			return Profile{}, "", fmt.Errorf("%w: %v", ErrInvalidOTP, err)
		}
		return Profile{}, "", err
	}
	s.client.SetSession(sess)

	row, err := s.client.SelectOne(ctx, profilesTable, backend.Filter{"id": sess.UserID})
	if err != nil {
		// Provisioning race: the trigger that creates the profile row on
		// first login has not fired yet.
		profile := Profile{ID: sess.UserID, Phone: sess.Phone, Name: fallbackName, Email: ""}
		if _, insErr := s.client.Insert(ctx, profilesTable, backend.Row{
			"id":    profile.ID,
			"phone": profile.Phone,
			"name":  profile.Name,
			"email": profile.Email,
		}); insErr != nil {
			s.logger.Error("create backup profile row", "user", sess.UserID, "error", insErr)
		}
		return profile, sess.AccessToken, nil
	}

	return profileFromRow(row), sess.AccessToken, nil
}

// Logout invalidates the remote session and drops the client's credential.
// The caller decides whether a remote failure blocks anything; local
// sign-out policy lives upstream.
func (s *Service) Logout(ctx context.Context) error {
	err := s.client.SignOut(ctx)
	s.client.ClearSession()
	return err
}

// UpdateProfile applies a typed partial update to the signed-in user's
// profile row and returns the stored result.
func (s *Service) UpdateProfile(ctx context.Context, patch ProfilePatch) (Profile, error) {
	sess := s.client.Session()
	if sess == nil {
		return Profile{}, ErrNoActiveSession
	}

	row := patch.row()
	if len(row) == 0 {
		return Profile{}, &ProfileUpdateError{Err: errors.New("empty patch")}
	}

	updated, err := s.client.Update(ctx, profilesTable, backend.Filter{"id": sess.UserID}, row)
	if err != nil {
		return Profile{}, &ProfileUpdateError{Err: err}
	}
	return profileFromRow(updated), nil
}

// SavePushToken attaches a push-notification token to the profile row.
// Fire-and-forget: without a session it does nothing, and failures are
// only logged at debug level.
func (s *Service) SavePushToken(ctx context.Context, token string) {
	sess := s.client.Session()
	if sess == nil {
		return
	}
	if _, err := s.client.Update(ctx, profilesTable, backend.Filter{"id": sess.UserID}, backend.Row{"push_token": token}); err != nil {
		s.logger.Debug("save push token", "error", err)
	}
}

// Restore adopts a previously persisted session as the client credential
// without re-validating the token (trust-on-read).
func (s *Service) Restore(profile Profile, token string) {
	s.client.SetSession(backend.RemoteSession{AccessToken: token, UserID: profile.ID, Phone: profile.Phone})
}

// normalizePhone ensures the number carries a leading + as the backend expects.
func normalizePhone(phone string) string {
	if phone == "" || phone[0] == '+' {
		return phone
	}
	return "+" + phone
}
