package academics

import (
	"context"
	"testing"

	"github.com/parent-portal/parent_portal/internal/backend"
	"github.com/parent-portal/parent_portal/internal/logging"
)

func newTestService() (*Service, *backend.Memory) {
	remote := backend.NewMemory()
	return NewService(remote, logging.Discard()), remote
}

func TestHomeworkOrderedByDueDate(t *testing.T) {
	svc, remote := newTestService()
	ctx := context.Background()

	remote.Seed(homeworkTable,
		backend.Row{"id": "h1", "student_id": "s1", "subject": "Math", "title": "Fractions", "due_date": "2024-03-10", "status": "Pending"},
		backend.Row{"id": "h2", "student_id": "s1", "subject": "English", "title": "Essay", "due_date": "2024-03-05", "status": "Completed"},
	)

	assignments, err := svc.Homework(ctx, "s1")
	if err != nil {
		t.Fatalf("homework: %v", err)
	}
	if len(assignments) != 2 {
		t.Fatalf("expected 2 assignments, got %d", len(assignments))
	}
	if assignments[0].ID != "h2" {
		t.Fatalf("expected earliest due date first, got %+v", assignments[0])
	}
}

func TestUpdateHomeworkStatus(t *testing.T) {
	svc, remote := newTestService()
	ctx := context.Background()

	remote.Seed(homeworkTable, backend.Row{"id": "h1", "student_id": "s1", "status": "Pending"})

	if err := svc.UpdateHomeworkStatus(ctx, "h1", StatusCompleted); err != nil {
		t.Fatalf("update status: %v", err)
	}
	if rows := remote.Rows(homeworkTable); rows[0].String("status") != StatusCompleted {
		t.Fatalf("expected status updated, got %v", rows[0])
	}

	if err := svc.UpdateHomeworkStatus(ctx, "h1", "Done"); err == nil {
		t.Fatalf("expected invalid status rejected")
	}
}

func TestTimetableGroupsAndOrdersDays(t *testing.T) {
	svc, remote := newTestService()
	ctx := context.Background()

	remote.Seed(timetableTable,
		backend.Row{"id": "t1", "student_id": "s1", "day": "Tue", "period": float64(1), "start_time": "08:00", "end_time": "08:45", "subject": "Math", "teacher": "Mr. Rao"},
		backend.Row{"id": "t2", "student_id": "s1", "day": "Mon", "period": float64(2), "start_time": "09:00", "end_time": "09:45", "subject": "English"},
		backend.Row{"id": "t3", "student_id": "s1", "day": "Mon", "period": float64(1), "start_time": "08:00", "end_time": "08:45", "subject": "Science", "teacher": "Ms. Iyer"},
	)

	schedule, err := svc.Timetable(ctx, "s1")
	if err != nil {
		t.Fatalf("timetable: %v", err)
	}
	if len(schedule) != 2 {
		t.Fatalf("expected 2 days, got %d", len(schedule))
	}
	if schedule[0].Day != "Mon" || schedule[1].Day != "Tue" {
		t.Fatalf("expected Mon before Tue, got %+v", schedule)
	}
	mon := schedule[0].Slots
	if len(mon) != 2 || mon[0].Period != 1 || mon[1].Period != 2 {
		t.Fatalf("expected periods ascending, got %+v", mon)
	}
	if mon[0].Time != "08:00 - 08:45" {
		t.Fatalf("expected rendered time range, got %q", mon[0].Time)
	}
	if mon[1].Teacher != "N/A" {
		t.Fatalf("expected N/A teacher default, got %q", mon[1].Teacher)
	}
}

func TestSyllabusOrderedBySubject(t *testing.T) {
	svc, remote := newTestService()
	ctx := context.Background()

	remote.Seed(syllabusTable,
		backend.Row{"id": "y1", "student_id": "s1", "subject": "Science", "topic": "Plants", "status": "In Progress"},
		backend.Row{"id": "y2", "student_id": "s1", "subject": "Math", "topic": "Algebra", "status": "Completed", "completion_date": "2024-02-20"},
	)

	topics, err := svc.Syllabus(ctx, "s1")
	if err != nil {
		t.Fatalf("syllabus: %v", err)
	}
	if len(topics) != 2 {
		t.Fatalf("expected 2 topics, got %d", len(topics))
	}
	if topics[0].Subject != "Math" {
		t.Fatalf("expected subjects ascending, got %+v", topics)
	}
	if topics[0].CompletionDate != "2024-02-20" {
		t.Fatalf("expected completion date mapped, got %+v", topics[0])
	}
}
