package students

import "github.com/parent-portal/parent_portal/internal/backend"

const (
	studentsTable    = "students"
	attendanceTable  = "attendance"
	performanceTable = "performance"
)

// ChildProfile is a student linked to the signed-in parent.
type ChildProfile struct {
	ID         string `json:"id"`
	ParentID   string `json:"parent_id"`
	Name       string `json:"name"`
	Grade      string `json:"grade,omitempty"`
	SchoolName string `json:"school_name,omitempty"`
	Age        int    `json:"age,omitempty"`
	AvatarURL  string `json:"avatar_url,omitempty"`
	CreatedAt  string `json:"created_at,omitempty"`
}

// AttendanceRecord is one day of attendance, shaped for display: the raw
// lowercase status from the backend is capitalized.
type AttendanceRecord struct {
	ID        string `json:"id"`
	StudentID string `json:"student_id"`
	Date      string `json:"date"`
	Status    string `json:"status"`
	CheckIn   string `json:"check_in,omitempty"`
	CheckOut  string `json:"check_out,omitempty"`
	Remarks   string `json:"remarks,omitempty"`
}

// PerformanceReport is a graded assessment. Date falls back to the date
// part of created_at when the backend row has no explicit date.
type PerformanceReport struct {
	ID        string  `json:"id"`
	StudentID string  `json:"student_id"`
	Subject   string  `json:"subject"`
	Score     float64 `json:"score"`
	Total     float64 `json:"total"`
	Grade     string  `json:"grade"`
	Date      string  `json:"date"`
	Remarks   string  `json:"remarks,omitempty"`
}

func childFromRow(row backend.Row) ChildProfile {
	return ChildProfile{
		ID:         row.String("id"),
		ParentID:   row.String("parent_id"),
		Name:       row.String("name"),
		Grade:      row.String("grade"),
		SchoolName: row.String("school_name"),
		Age:        row.Int("age"),
		AvatarURL:  row.String("avatar_url"),
		CreatedAt:  row.String("created_at"),
	}
}
