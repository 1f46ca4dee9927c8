package admin

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/parent-portal/parent_portal/internal/backend"
	"github.com/parent-portal/parent_portal/internal/logging"
)

func newTestService() (*Service, *backend.Memory) {
	remote := backend.NewMemory()
	svc := NewService(remote, logging.Discard())
	svc.now = func() time.Time { return time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC) }
	return svc, remote
}

func TestFeesNewestFirst(t *testing.T) {
	svc, remote := newTestService()
	ctx := context.Background()

	remote.Seed(feesTable,
		backend.Row{"id": "INV-001", "student_id": "s1", "title": "Tuition Fee - Term 1", "amount": float64(1500), "due_date": "2024-04-01", "status": InvoiceUnpaid, "date": "2024-03-01"},
		backend.Row{"id": "INV-002", "student_id": "s1", "title": "Book Fee", "amount": float64(300), "due_date": "2024-03-10", "status": InvoiceOverdue, "date": "2024-02-15"},
	)

	fees, err := svc.Fees(ctx, "s1")
	if err != nil {
		t.Fatalf("fees: %v", err)
	}
	if len(fees) != 2 {
		t.Fatalf("expected 2 invoices, got %d", len(fees))
	}
	if fees[0].ID != "INV-001" || fees[0].Amount != 1500 {
		t.Fatalf("unexpected first invoice: %+v", fees[0])
	}
}

func TestPayFeeMarksPaid(t *testing.T) {
	svc, remote := newTestService()
	ctx := context.Background()

	remote.Seed(feesTable, backend.Row{"id": "INV-001", "student_id": "s1", "status": InvoiceUnpaid})

	if err := svc.PayFee(ctx, "INV-001"); err != nil {
		t.Fatalf("pay fee: %v", err)
	}
	if rows := remote.Rows(feesTable); rows[0].String("status") != InvoicePaid {
		t.Fatalf("expected invoice paid, got %v", rows[0])
	}

	if err := svc.PayFee(ctx, "INV-404"); !errors.Is(err, backend.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown invoice, got %v", err)
	}
}

func TestApplyLeaveAssignsStatusAndDate(t *testing.T) {
	svc, remote := newTestService()
	ctx := context.Background()

	req := LeaveRequest{
		StudentID: "s1",
		Type:      "Sick Leave",
		StartDate: "2024-03-20",
		EndDate:   "2024-03-21",
		Reason:    "Fever",
		// Caller-supplied status must be ignored.
		Status: LeaveApproved,
	}

	stored, err := svc.ApplyLeave(ctx, req)
	if err != nil {
		t.Fatalf("apply leave: %v", err)
	}
	if stored.ID == "" {
		t.Fatalf("expected server-assigned id")
	}
	if stored.Status != LeavePending {
		t.Fatalf("new leave must be pending, got %q", stored.Status)
	}
	if stored.AppliedOn != "2024-03-15" {
		t.Fatalf("expected applied_on from clock, got %q", stored.AppliedOn)
	}

	if rows := remote.Rows(leavesTable); len(rows) != 1 {
		t.Fatalf("expected stored leave, got %v", rows)
	}
}

func TestLeavesNewestFirst(t *testing.T) {
	svc, remote := newTestService()
	ctx := context.Background()

	remote.Seed(leavesTable,
		backend.Row{"id": "l1", "student_id": "s1", "type": "Sick Leave", "status": LeaveApproved, "applied_on": "2024-02-01"},
		backend.Row{"id": "l2", "student_id": "s1", "type": "Family Function", "status": LeavePending, "applied_on": "2024-03-01"},
	)

	leaves, err := svc.Leaves(ctx, "s1")
	if err != nil {
		t.Fatalf("leaves: %v", err)
	}
	if leaves[0].ID != "l2" {
		t.Fatalf("expected most recent application first, got %+v", leaves[0])
	}
}

func TestBusLocation(t *testing.T) {
	svc, remote := newTestService()
	ctx := context.Background()

	remote.Seed(transportTable, backend.Row{
		"id": "BUS-101", "student_id": "s1", "route_id": "RT-05",
		"driver_name": "Rajesh Kumar", "driver_phone": "+91 98765 43210",
		"plate_number": "KA-01-AB-1234",
		"lat":          12.9716, "lng": 77.5946, "address": "MG Road, Bangalore",
		"status": "On Route", "estimated_arrival": "15 mins",
	})

	bus, err := svc.BusLocation(ctx, "s1")
	if err != nil {
		t.Fatalf("bus location: %v", err)
	}
	if bus.ID != "BUS-101" || bus.CurrentLocation.Lat != 12.9716 {
		t.Fatalf("unexpected bus info: %+v", bus)
	}
	if bus.CurrentLocation.Address != "MG Road, Bangalore" {
		t.Fatalf("unexpected address: %q", bus.CurrentLocation.Address)
	}

	if _, err := svc.BusLocation(ctx, "unknown"); !errors.Is(err, backend.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
