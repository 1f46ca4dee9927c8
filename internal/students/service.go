package students

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/parent-portal/parent_portal/internal/auth"
	"github.com/parent-portal/parent_portal/internal/backend"
)

// Service reads and shapes student rows for the signed-in parent.
type Service struct {
	client backend.Client
	logger *slog.Logger
}

// NewService creates a student service over the given backend client.
func NewService(client backend.Client, logger *slog.Logger) *Service {
	return &Service{client: client, logger: logger}
}

// Children lists the parent's students. Row-level security already scopes
// the query server-side; the parent_id filter keeps it explicit.
func (s *Service) Children(ctx context.Context) ([]ChildProfile, error) {
	sess := s.client.Session()
	if sess == nil {
		return nil, auth.ErrNoActiveSession
	}

	rows, err := s.client.Select(ctx, studentsTable, backend.Filter{"parent_id": sess.UserID})
	if err != nil {
		return nil, err
	}

	children := make([]ChildProfile, 0, len(rows))
	for _, row := range rows {
		children = append(children, childFromRow(row))
	}
	return children, nil
}

// ChildDetails fetches a single student by id.
func (s *Service) ChildDetails(ctx context.Context, id string) (ChildProfile, error) {
	row, err := s.client.SelectOne(ctx, studentsTable, backend.Filter{"id": id})
	if err != nil {
		return ChildProfile{}, err
	}
	return childFromRow(row), nil
}

// AddChild creates a student linked to the signed-in parent. The parent's
// profile row must exist to satisfy the foreign key; if the provisioning
// trigger never created it, a minimal one is inserted first.
func (s *Service) AddChild(ctx context.Context, child ChildProfile) (ChildProfile, error) {
	sess := s.client.Session()
	if sess == nil {
		return ChildProfile{}, auth.ErrNoActiveSession
	}

	if _, err := s.client.SelectOne(ctx, "profiles", backend.Filter{"id": sess.UserID}); err != nil {
		if _, insErr := s.client.Insert(ctx, "profiles", backend.Row{
			"id":    sess.UserID,
			"phone": sess.Phone,
			"name":  "Parent",
			"email": "",
		}); insErr != nil {
			s.logger.Warn("create parent profile row", "error", insErr)
		}
	}

	row := backend.Row{
		"parent_id":   sess.UserID,
		"name":        child.Name,
		"grade":       child.Grade,
		"school_name": child.SchoolName,
		"age":         child.Age,
		"avatar_url":  child.AvatarURL,
	}
	stored, err := s.client.Insert(ctx, studentsTable, row)
	if err != nil {
		return ChildProfile{}, err
	}
	return childFromRow(stored), nil
}

// DeleteChild removes a student.
func (s *Service) DeleteChild(ctx context.Context, id string) error {
	return s.client.Delete(ctx, studentsTable, backend.Filter{"id": id})
}

// Attendance lists a student's attendance, newest first.
func (s *Service) Attendance(ctx context.Context, childID string) ([]AttendanceRecord, error) {
	rows, err := s.client.Select(ctx, attendanceTable, backend.Filter{"student_id": childID})
	if err != nil {
		return nil, err
	}

	records := make([]AttendanceRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, AttendanceRecord{
			ID:        row.String("id"),
			StudentID: row.String("student_id"),
			Date:      row.String("date"),
			Status:    capitalize(row.String("status")),
			CheckIn:   row.String("check_in"),
			CheckOut:  row.String("check_out"),
			Remarks:   row.String("remarks"),
		})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Date > records[j].Date })
	return records, nil
}

// Performance lists a student's graded reports, newest first.
func (s *Service) Performance(ctx context.Context, childID string) ([]PerformanceReport, error) {
	rows, err := s.client.Select(ctx, performanceTable, backend.Filter{"student_id": childID})
	if err != nil {
		return nil, err
	}

	reports := make([]PerformanceReport, 0, len(rows))
	for _, row := range rows {
		date := row.String("date")
		if date == "" {
			date = datePart(row.String("created_at"))
		}
		reports = append(reports, PerformanceReport{
			ID:        row.String("id"),
			StudentID: row.String("student_id"),
			Subject:   row.String("subject"),
			Score:     row.Float("score"),
			Total:     row.Float("total"),
			Grade:     row.String("grade"),
			Date:      date,
			Remarks:   row.String("remarks"),
		})
	}
	sort.Slice(reports, func(i, j int) bool { return reports[i].Date > reports[j].Date })
	return reports, nil
}

// capitalize maps raw backend statuses to display form: "present" -> "Present".
func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// datePart trims an ISO timestamp to its date component.
func datePart(ts string) string {
	if i := strings.IndexByte(ts, 'T'); i > 0 {
		return ts[:i]
	}
	return ts
}
