package admin

const (
	feesTable      = "fees"
	leavesTable    = "leaves"
	transportTable = "transport"
)

// Invoice statuses.
const (
	InvoicePaid    = "Paid"
	InvoiceUnpaid  = "Unpaid"
	InvoiceOverdue = "Overdue"
)

// Leave request statuses; new requests always start Pending.
const (
	LeavePending  = "Pending"
	LeaveApproved = "Approved"
	LeaveRejected = "Rejected"
)

// Invoice is a school fee line item.
type Invoice struct {
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	Amount  float64 `json:"amount"`
	DueDate string  `json:"due_date"`
	Status  string  `json:"status"`
	Date    string  `json:"date"`
}

// LeaveRequest is an absence application for a student.
type LeaveRequest struct {
	ID        string `json:"id"`
	StudentID string `json:"student_id"`
	Type      string `json:"type"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Reason    string `json:"reason"`
	Status    string `json:"status"`
	AppliedOn string `json:"applied_on"`
}

// Location is a bus position fix.
type Location struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address"`
}

// BusInfo is the live state of a student's school bus.
type BusInfo struct {
	ID               string   `json:"id"`
	RouteID          string   `json:"route_id"`
	DriverName       string   `json:"driver_name"`
	DriverPhone      string   `json:"driver_phone"`
	PlateNumber      string   `json:"plate_number"`
	CurrentLocation  Location `json:"current_location"`
	Status           string   `json:"status"`
	EstimatedArrival string   `json:"estimated_arrival"`
}
