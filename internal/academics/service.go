package academics

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/parent-portal/parent_portal/internal/backend"
)

var dayOrder = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// Service reads and shapes academic rows: homework, timetable, syllabus.
type Service struct {
	client backend.Client
	logger *slog.Logger
}

// NewService creates an academics service over the given backend client.
func NewService(client backend.Client, logger *slog.Logger) *Service {
	return &Service{client: client, logger: logger}
}

// Homework lists a student's assignments, earliest due date first.
func (s *Service) Homework(ctx context.Context, childID string) ([]Assignment, error) {
	rows, err := s.client.Select(ctx, homeworkTable, backend.Filter{"student_id": childID})
	if err != nil {
		return nil, err
	}

	assignments := make([]Assignment, 0, len(rows))
	for _, row := range rows {
		assignments = append(assignments, Assignment{
			ID:          row.String("id"),
			StudentID:   row.String("student_id"),
			Subject:     row.String("subject"),
			Title:       row.String("title"),
			DueDate:     row.String("due_date"),
			Status:      row.String("status"),
			Description: row.String("description"),
		})
	}
	sort.Slice(assignments, func(i, j int) bool { return assignments[i].DueDate < assignments[j].DueDate })
	return assignments, nil
}

// UpdateHomeworkStatus flips an assignment between Pending and Completed.
func (s *Service) UpdateHomeworkStatus(ctx context.Context, assignmentID, status string) error {
	if status != StatusPending && status != StatusCompleted {
		return fmt.Errorf("invalid homework status %q", status)
	}
	_, err := s.client.Update(ctx, homeworkTable, backend.Filter{"id": assignmentID}, backend.Row{"status": status})
	return err
}

// Timetable groups a student's periods into per-day schedules, days ordered
// Mon..Sun, periods ascending. Missing teacher names render as "N/A".
func (s *Service) Timetable(ctx context.Context, childID string) ([]DaySchedule, error) {
	rows, err := s.client.Select(ctx, timetableTable, backend.Filter{"student_id": childID})
	if err != nil {
		return nil, err
	}

	grouped := make(map[string][]TimeSlot)
	for _, row := range rows {
		teacher := row.String("teacher")
		if teacher == "" {
			teacher = "N/A"
		}
		day := row.String("day")
		grouped[day] = append(grouped[day], TimeSlot{
			Period:  row.Int("period"),
			Time:    fmt.Sprintf("%s - %s", row.String("start_time"), row.String("end_time")),
			Subject: row.String("subject"),
			Teacher: teacher,
		})
	}

	schedule := make([]DaySchedule, 0, len(grouped))
	for day, slots := range grouped {
		sort.Slice(slots, func(i, j int) bool { return slots[i].Period < slots[j].Period })
		schedule = append(schedule, DaySchedule{Day: day, Slots: slots})
	}
	sort.Slice(schedule, func(i, j int) bool {
		return dayIndex(schedule[i].Day) < dayIndex(schedule[j].Day)
	})
	return schedule, nil
}

// Syllabus lists a student's topics ordered by subject.
func (s *Service) Syllabus(ctx context.Context, childID string) ([]SyllabusTopic, error) {
	rows, err := s.client.Select(ctx, syllabusTable, backend.Filter{"student_id": childID})
	if err != nil {
		return nil, err
	}

	topics := make([]SyllabusTopic, 0, len(rows))
	for _, row := range rows {
		topics = append(topics, SyllabusTopic{
			ID:             row.String("id"),
			StudentID:      row.String("student_id"),
			Subject:        row.String("subject"),
			Topic:          row.String("topic"),
			Status:         row.String("status"),
			CompletionDate: row.String("completion_date"),
		})
	}
	sort.Slice(topics, func(i, j int) bool { return topics[i].Subject < topics[j].Subject })
	return topics, nil
}

func dayIndex(day string) int {
	for i, d := range dayOrder {
		if d == day {
			return i
		}
	}
	return len(dayOrder)
}
