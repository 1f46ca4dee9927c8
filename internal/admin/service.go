package admin

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/parent-portal/parent_portal/internal/backend"
)

// Service covers the administrative surface: fees, leave requests and bus
// tracking.
type Service struct {
	client backend.Client
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates an admin service over the given backend client.
func NewService(client backend.Client, logger *slog.Logger) *Service {
	return &Service{client: client, logger: logger, now: time.Now}
}

// Fees lists a student's invoices, newest first.
func (s *Service) Fees(ctx context.Context, studentID string) ([]Invoice, error) {
	rows, err := s.client.Select(ctx, feesTable, backend.Filter{"student_id": studentID})
	if err != nil {
		return nil, err
	}

	invoices := make([]Invoice, 0, len(rows))
	for _, row := range rows {
		invoices = append(invoices, Invoice{
			ID:      row.String("id"),
			Title:   row.String("title"),
			Amount:  row.Float("amount"),
			DueDate: row.String("due_date"),
			Status:  row.String("status"),
			Date:    row.String("date"),
		})
	}
	sort.Slice(invoices, func(i, j int) bool { return invoices[i].Date > invoices[j].Date })
	return invoices, nil
}

// PayFee marks an invoice paid. The actual charge happens out-of-band; this
// records the outcome.
func (s *Service) PayFee(ctx context.Context, invoiceID string) error {
	_, err := s.client.Update(ctx, feesTable, backend.Filter{"id": invoiceID}, backend.Row{"status": InvoicePaid})
	return err
}

// Leaves lists a student's leave requests, most recently applied first.
func (s *Service) Leaves(ctx context.Context, studentID string) ([]LeaveRequest, error) {
	rows, err := s.client.Select(ctx, leavesTable, backend.Filter{"student_id": studentID})
	if err != nil {
		return nil, err
	}

	leaves := make([]LeaveRequest, 0, len(rows))
	for _, row := range rows {
		leaves = append(leaves, leaveFromRow(row))
	}
	sort.Slice(leaves, func(i, j int) bool { return leaves[i].AppliedOn > leaves[j].AppliedOn })
	return leaves, nil
}

// ApplyLeave files a new request. Status and application date are assigned
// here, not by the caller.
func (s *Service) ApplyLeave(ctx context.Context, req LeaveRequest) (LeaveRequest, error) {
	row := backend.Row{
		"student_id": req.StudentID,
		"type":       req.Type,
		"start_date": req.StartDate,
		"end_date":   req.EndDate,
		"reason":     req.Reason,
		"status":     LeavePending,
		"applied_on": s.now().UTC().Format("2006-01-02"),
	}
	stored, err := s.client.Insert(ctx, leavesTable, row)
	if err != nil {
		return LeaveRequest{}, err
	}
	return leaveFromRow(stored), nil
}

// BusLocation fetches the live bus state for a student.
func (s *Service) BusLocation(ctx context.Context, childID string) (BusInfo, error) {
	row, err := s.client.SelectOne(ctx, transportTable, backend.Filter{"student_id": childID})
	if err != nil {
		return BusInfo{}, err
	}
	return BusInfo{
		ID:          row.String("id"),
		RouteID:     row.String("route_id"),
		DriverName:  row.String("driver_name"),
		DriverPhone: row.String("driver_phone"),
		PlateNumber: row.String("plate_number"),
		CurrentLocation: Location{
			Lat:     row.Float("lat"),
			Lng:     row.Float("lng"),
			Address: row.String("address"),
		},
		Status:           row.String("status"),
		EstimatedArrival: row.String("estimated_arrival"),
	}, nil
}

func leaveFromRow(row backend.Row) LeaveRequest {
	return LeaveRequest{
		ID:        row.String("id"),
		StudentID: row.String("student_id"),
		Type:      row.String("type"),
		StartDate: row.String("start_date"),
		EndDate:   row.String("end_date"),
		Reason:    row.String("reason"),
		Status:    row.String("status"),
		AppliedOn: row.String("applied_on"),
	}
}
