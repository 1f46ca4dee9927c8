// Package backendtest runs an in-process imitation of the hosted backend:
// phone-OTP auth under /auth/v1 and equality-filtered row access under
// /rest/v1/{table}. It backs the HTTP client tests and the CLI's offline mode.
package backendtest

import (
	"fmt"
	"net"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/parent-portal/parent_portal/internal/backend"
)

// FixedOTP is the code every login issues. Tests and the offline demo read
// it instead of a real SMS inbox.
const FixedOTP = "123456"

// Server is the fake backend. Tables live in memory; row-level security is
// emulated through per-table owner columns.
type Server struct {
	app    *fiber.App
	apiKey string

	mu       sync.Mutex
	codes    map[string]string
	users    map[string]string // phone -> user id
	sessions map[string]string // token -> user id
	tables   map[string][]backend.Row
	owners   map[string]string // table -> owner column

	ln  net.Listener
	url string
}

// New builds a fake backend accepting the given API key.
func New(apiKey string) *Server {
	s := &Server{
		apiKey:   apiKey,
		codes:    make(map[string]string),
		users:    make(map[string]string),
		sessions: make(map[string]string),
		tables:   make(map[string][]backend.Row),
		owners:   map[string]string{"profiles": "id", "students": "parent_id"},
	}

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Post("/auth/v1/otp", s.handleOTP)
	app.Post("/auth/v1/verify", s.handleVerify)
	app.Post("/auth/v1/logout", s.handleLogout)
	app.Get("/rest/v1/:table", s.handleSelect)
	app.Post("/rest/v1/:table", s.handleInsert)
	app.Patch("/rest/v1/:table", s.handleUpdate)
	app.Delete("/rest/v1/:table", s.handleDelete)
	s.app = app

	return s
}

// Start listens on a loopback port and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	s.ln = ln
	s.url = "http://" + ln.Addr().String()
	go func() {
		_ = s.app.Listener(ln)
	}()
	return nil
}

// URL returns the base URL clients should dial.
func (s *Server) URL() string {
	return s.url
}

// Close stops the server.
func (s *Server) Close() {
	_ = s.app.Shutdown()
}

// Seed replaces the contents of a table.
func (s *Server) Seed(table string, rows ...backend.Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[table] = nil
	for _, r := range rows {
		s.tables[table] = append(s.tables[table], r.Clone())
	}
}

// Rows returns a snapshot of a table.
func (s *Server) Rows(table string) []backend.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]backend.Row, 0, len(s.tables[table]))
	for _, r := range s.tables[table] {
		out = append(out, r.Clone())
	}
	return out
}

// RegisterUser fixes the user id issued for a phone number.
func (s *Server) RegisterUser(phone, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[phone] = userID
}

func (s *Server) handleOTP(c *fiber.Ctx) error {
	var req struct {
		Phone string `json:"phone"`
	}
	if err := c.BodyParser(&req); err != nil || req.Phone == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"msg": "phone number is required"})
	}

	s.mu.Lock()
	s.codes[req.Phone] = FixedOTP
	s.mu.Unlock()

	return c.JSON(fiber.Map{})
}

func (s *Server) handleVerify(c *fiber.Ctx) error {
	var req struct {
		Phone string `json:"phone"`
		Token string `json:"token"`
		Type  string `json:"type"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"msg": "invalid request"})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	code, ok := s.codes[req.Phone]
	if !ok || code != req.Token {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"msg": "token has expired or is invalid"})
	}
	delete(s.codes, req.Phone)

	userID, ok := s.users[req.Phone]
	if !ok {
		userID = uuid.NewString()
		s.users[req.Phone] = userID
	}
	token := uuid.NewString()
	s.sessions[token] = userID

	return c.JSON(fiber.Map{
		"access_token": token,
		"token_type":   "bearer",
		"user":         fiber.Map{"id": userID, "phone": req.Phone},
	})
}

func (s *Server) handleLogout(c *fiber.Ctx) error {
	token := bearerToken(c)
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
	return c.SendStatus(fiber.StatusNoContent)
}

// caller resolves the identity behind the request's bearer token. An API-key
// bearer is anonymous; an unknown token is rejected.
func (s *Server) caller(c *fiber.Ctx) (string, bool) {
	token := bearerToken(c)
	if token == s.apiKey {
		return "", true
	}
	s.mu.Lock()
	userID, ok := s.sessions[token]
	s.mu.Unlock()
	if !ok {
		return "", false
	}
	return userID, true
}

func (s *Server) handleSelect(c *fiber.Ctx) error {
	userID, ok := s.caller(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"msg": "invalid token"})
	}
	table := c.Params("table")
	filter := queryFilter(c)

	s.mu.Lock()
	defer s.mu.Unlock()

	rows := []backend.Row{}
	for _, row := range s.tables[table] {
		if filter.Matches(row) && s.visible(table, row, userID) {
			rows = append(rows, row.Clone())
		}
	}
	return c.JSON(rows)
}

func (s *Server) handleInsert(c *fiber.Ctx) error {
	if _, ok := s.caller(c); !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"msg": "invalid token"})
	}
	table := c.Params("table")

	var row backend.Row
	if err := c.BodyParser(&row); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"msg": "invalid row"})
	}

	s.mu.Lock()
	stored := row.Clone()
	if stored.String("id") == "" {
		stored["id"] = uuid.NewString()
	}
	s.tables[table] = append(s.tables[table], stored)
	s.mu.Unlock()

	return c.Status(fiber.StatusCreated).JSON([]backend.Row{stored})
}

func (s *Server) handleUpdate(c *fiber.Ctx) error {
	userID, ok := s.caller(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"msg": "invalid token"})
	}
	table := c.Params("table")
	filter := queryFilter(c)

	var patch backend.Row
	if err := c.BodyParser(&patch); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"msg": "invalid patch"})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	updated := []backend.Row{}
	for i, row := range s.tables[table] {
		if !filter.Matches(row) || !s.visible(table, row, userID) {
			continue
		}
		next := row.Clone()
		for k, v := range patch {
			next[k] = v
		}
		s.tables[table][i] = next
		updated = append(updated, next.Clone())
	}
	return c.JSON(updated)
}

func (s *Server) handleDelete(c *fiber.Ctx) error {
	userID, ok := s.caller(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"msg": "invalid token"})
	}
	table := c.Params("table")
	filter := queryFilter(c)

	s.mu.Lock()
	defer s.mu.Unlock()

	var kept []backend.Row
	for _, row := range s.tables[table] {
		if filter.Matches(row) && s.visible(table, row, userID) {
			continue
		}
		kept = append(kept, row)
	}
	s.tables[table] = kept
	return c.SendStatus(fiber.StatusNoContent)
}

// visible emulates row-level security: when a table declares an owner column
// and the caller is a real user, only that user's rows are reachable.
func (s *Server) visible(table string, row backend.Row, userID string) bool {
	col, scoped := s.owners[table]
	if !scoped || userID == "" {
		return true
	}
	return row.String(col) == userID
}

func bearerToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	return strings.TrimPrefix(header, "Bearer ")
}

func queryFilter(c *fiber.Ctx) backend.Filter {
	filter := backend.Filter{}
	for key, vals := range c.Queries() {
		if key == "select" || len(vals) == 0 {
			continue
		}
		if strings.HasPrefix(vals, "eq.") {
			filter[key] = strings.TrimPrefix(vals, "eq.")
		}
	}
	return filter
}
