package academics

const (
	homeworkTable  = "homework"
	timetableTable = "timetable"
	syllabusTable  = "syllabus"
)

// Homework statuses a parent can set.
const (
	StatusPending   = "Pending"
	StatusCompleted = "Completed"
)

// Assignment is a homework row shaped for display.
type Assignment struct {
	ID          string `json:"id"`
	StudentID   string `json:"student_id"`
	Subject     string `json:"subject"`
	Title       string `json:"title"`
	DueDate     string `json:"due_date"`
	Status      string `json:"status"`
	Description string `json:"description,omitempty"`
}

// TimeSlot is one period of a school day. Time is rendered as
// "start - end" from the raw columns.
type TimeSlot struct {
	Period  int    `json:"period"`
	Time    string `json:"time"`
	Subject string `json:"subject"`
	Teacher string `json:"teacher"`
}

// DaySchedule groups a day's periods in ascending order.
type DaySchedule struct {
	Day   string     `json:"day"`
	Slots []TimeSlot `json:"slots"`
}

// SyllabusTopic tracks coverage of one topic.
type SyllabusTopic struct {
	ID             string `json:"id"`
	StudentID      string `json:"student_id"`
	Subject        string `json:"subject"`
	Topic          string `json:"topic"`
	Status         string `json:"status"`
	CompletionDate string `json:"completion_date,omitempty"`
}
