package backend

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

const defaultOTPCode = "123456"

// Memory is an in-memory Client for tests: scripted OTP codes, plain maps
// for tables, and per-call failure injection.
type Memory struct {
	mu           sync.Mutex
	otps         map[string]string
	usersByPhone map[string]string
	session      *RemoteSession
	tables       map[string][]Row

	// Failure injection. A non-nil error makes the corresponding call fail.
	SendErr    error
	VerifyErr  error
	SignOutErr error
	SelectErr  map[string]error
	InsertErr  map[string]error
	UpdateErr  map[string]error

	// NoSessionOnVerify makes VerifyOTP succeed at the transport level but
	// issue no session.
	NoSessionOnVerify bool
}

// NewMemory builds an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{
		otps:         make(map[string]string),
		usersByPhone: make(map[string]string),
		tables:       make(map[string][]Row),
		SelectErr:    make(map[string]error),
		InsertErr:    make(map[string]error),
		UpdateErr:    make(map[string]error),
	}
}

// IssueOTP pre-arranges the code the next verification of phone must present.
func (m *Memory) IssueOTP(phone, code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.otps[phone] = code
}

// RegisterUser fixes the remote user id issued for a phone number.
func (m *Memory) RegisterUser(phone, userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.usersByPhone[phone] = userID
}

// Seed replaces the contents of a table.
func (m *Memory) Seed(table string, rows ...Row) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[table] = nil
	for _, r := range rows {
		m.tables[table] = append(m.tables[table], r.Clone())
	}
}

// Rows returns a snapshot of a table's contents.
func (m *Memory) Rows(table string) []Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Row, 0, len(m.tables[table]))
	for _, r := range m.tables[table] {
		out = append(out, r.Clone())
	}
	return out
}

func (m *Memory) SendOTP(_ context.Context, phone string) error {
	if m.SendErr != nil {
		return m.SendErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.otps[phone]; !ok {
		m.otps[phone] = defaultOTPCode
	}
	return nil
}

func (m *Memory) VerifyOTP(_ context.Context, phone, code string) (RemoteSession, error) {
	if m.VerifyErr != nil {
		return RemoteSession{}, m.VerifyErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	want, ok := m.otps[phone]
	if !ok || want != code {
		return RemoteSession{}, &AuthError{Message: "token has expired or is invalid"}
	}
	delete(m.otps, phone)

	if m.NoSessionOnVerify {
		return RemoteSession{}, ErrNoSessionIssued
	}

	userID, ok := m.usersByPhone[phone]
	if !ok {
		userID = uuid.NewString()
		m.usersByPhone[phone] = userID
	}
	return RemoteSession{AccessToken: uuid.NewString(), UserID: userID, Phone: phone}, nil
}

func (m *Memory) SignOut(_ context.Context) error {
	return m.SignOutErr
}

func (m *Memory) Session() *RemoteSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil
	}
	sess := *m.session
	return &sess
}

func (m *Memory) SetSession(sess RemoteSession) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = &sess
}

func (m *Memory) ClearSession() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = nil
}

func (m *Memory) Select(_ context.Context, table string, filter Filter) ([]Row, error) {
	if err := m.SelectErr[table]; err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Row
	for _, row := range m.tables[table] {
		if filter.Matches(row) {
			out = append(out, row.Clone())
		}
	}
	return out, nil
}

func (m *Memory) SelectOne(ctx context.Context, table string, filter Filter) (Row, error) {
	rows, err := m.Select(ctx, table, filter)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rows[0], nil
}

func (m *Memory) Insert(_ context.Context, table string, row Row) (Row, error) {
	if err := m.InsertErr[table]; err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := row.Clone()
	if stored.String("id") == "" {
		stored["id"] = uuid.NewString()
	}
	m.tables[table] = append(m.tables[table], stored)
	return stored.Clone(), nil
}

func (m *Memory) Update(_ context.Context, table string, filter Filter, patch Row) (Row, error) {
	if err := m.UpdateErr[table]; err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var first Row
	for i, row := range m.tables[table] {
		if !filter.Matches(row) {
			continue
		}
		updated := row.Clone()
		for k, v := range patch {
			updated[k] = v
		}
		m.tables[table][i] = updated
		if first == nil {
			first = updated.Clone()
		}
	}
	if first == nil {
		return nil, ErrNotFound
	}
	return first, nil
}

func (m *Memory) Delete(_ context.Context, table string, filter Filter) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []Row
	for _, row := range m.tables[table] {
		if !filter.Matches(row) {
			kept = append(kept, row)
		}
	}
	m.tables[table] = kept
	return nil
}
