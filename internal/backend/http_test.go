package backend_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/parent-portal/parent_portal/internal/backend"
	"github.com/parent-portal/parent_portal/internal/backendtest"
	"github.com/parent-portal/parent_portal/internal/logging"
)

const testAPIKey = "anon-key"

func setupClient(t *testing.T) (*backend.HTTPClient, *backendtest.Server) {
	t.Helper()
	srv := backendtest.New(testAPIKey)
	if err := srv.Start(); err != nil {
		t.Fatalf("start fake backend: %v", err)
	}
	t.Cleanup(srv.Close)

	client := backend.NewHTTPClient(srv.URL(), testAPIKey, 5*time.Second, logging.Discard())
	return client, srv
}

func TestOTPLoginFlow(t *testing.T) {
	client, srv := setupClient(t)
	ctx := context.Background()

	srv.RegisterUser("+5551234567", "u1")
	srv.Seed("profiles", backend.Row{"id": "u1", "phone": "+5551234567", "name": "Amina"})

	if err := client.SendOTP(ctx, "+5551234567"); err != nil {
		t.Fatalf("send otp: %v", err)
	}

	// Wrong code is rejected with the remote message.
	_, err := client.VerifyOTP(ctx, "+5551234567", "000000")
	var authErr *backend.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %v", err)
	}

	sess, err := client.VerifyOTP(ctx, "+5551234567", backendtest.FixedOTP)
	if err != nil {
		t.Fatalf("verify otp: %v", err)
	}
	if sess.AccessToken == "" || sess.UserID != "u1" {
		t.Fatalf("unexpected session: %+v", sess)
	}

	client.SetSession(sess)

	row, err := client.SelectOne(ctx, "profiles", backend.Filter{"id": "u1"})
	if err != nil {
		t.Fatalf("select profile: %v", err)
	}
	if row.String("name") != "Amina" {
		t.Fatalf("unexpected profile row: %v", row)
	}

	if err := client.SignOut(ctx); err != nil {
		t.Fatalf("sign out: %v", err)
	}
}

func TestSendOTPRejectedPhone(t *testing.T) {
	client, _ := setupClient(t)

	err := client.SendOTP(context.Background(), "")
	var authErr *backend.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %v", err)
	}
	if authErr.Message != "phone number is required" {
		t.Fatalf("remote message must pass through verbatim, got %q", authErr.Message)
	}
}

func TestTableCRUD(t *testing.T) {
	client, srv := setupClient(t)
	ctx := context.Background()

	stored, err := client.Insert(ctx, "leaves", backend.Row{"student_id": "s1", "type": "Sick Leave", "status": "Pending"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if stored.String("id") == "" {
		t.Fatalf("expected server-assigned id, got %v", stored)
	}

	updated, err := client.Update(ctx, "leaves", backend.Filter{"id": stored.String("id")}, backend.Row{"status": "Approved"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.String("status") != "Approved" {
		t.Fatalf("unexpected updated row: %v", updated)
	}

	if err := client.Delete(ctx, "leaves", backend.Filter{"id": stored.String("id")}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if rows := srv.Rows("leaves"); len(rows) != 0 {
		t.Fatalf("expected table emptied, got %v", rows)
	}
}

func TestUpdateMissingRow(t *testing.T) {
	client, _ := setupClient(t)

	_, err := client.Update(context.Background(), "leaves", backend.Filter{"id": "nope"}, backend.Row{"status": "Approved"})
	if !errors.Is(err, backend.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUnauthorizedClearsSessionAndFiresHook(t *testing.T) {
	client, _ := setupClient(t)
	ctx := context.Background()

	hookFired := false
	client.OnUnauthorized(func() { hookFired = true })
	client.SetSession(backend.RemoteSession{AccessToken: "stale-token", UserID: "u1"})

	_, err := client.Select(ctx, "profiles", backend.Filter{"id": "u1"})
	if !errors.Is(err, backend.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if !hookFired {
		t.Fatalf("expected unauthorized hook to fire")
	}
	if client.Session() != nil {
		t.Fatalf("expected stale session dropped")
	}
}

func TestRowLevelSecurityScopesStudents(t *testing.T) {
	client, srv := setupClient(t)
	ctx := context.Background()

	srv.RegisterUser("+111", "p1")
	srv.Seed("students",
		backend.Row{"id": "s1", "parent_id": "p1", "name": "John"},
		backend.Row{"id": "s2", "parent_id": "p2", "name": "Other"},
	)

	if err := client.SendOTP(ctx, "+111"); err != nil {
		t.Fatalf("send otp: %v", err)
	}
	sess, err := client.VerifyOTP(ctx, "+111", backendtest.FixedOTP)
	if err != nil {
		t.Fatalf("verify otp: %v", err)
	}
	client.SetSession(sess)

	rows, err := client.Select(ctx, "students", backend.Filter{})
	if err != nil {
		t.Fatalf("select students: %v", err)
	}
	if len(rows) != 1 || rows[0].String("id") != "s1" {
		t.Fatalf("expected only own rows visible, got %v", rows)
	}
}
