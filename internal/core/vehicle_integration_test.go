package core_test

import (
	"context"
	"errors"
	"testing"

	"garage-backend/internal/core"
)

func TestVehicle_CRUDAndIssues(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	svc := core.NewVehicleService(pool)
	ctx := context.Background()

	year := 2019
	vehicle, err := svc.CreateVehicle(ctx, core.VehicleInput{
		CustomerID:   5,
		Make:         "Honda",
		Model:        "Civic",
		Year:         &year,
		LicensePlate: "TEST-002",
	})
	if err != nil {
		t.Fatalf("CreateVehicle failed: %v", err)
	}

	// Duplicate plate is rejected with a validation error, not a raw DB error.
	_, err = svc.CreateVehicle(ctx, core.VehicleInput{
		CustomerID: 5, Make: "Honda", Model: "Civic", LicensePlate: "TEST-002",
	})
	var validErr *core.ValidationError
	if !errors.As(err, &validErr) {
		t.Errorf("duplicate plate: expected ValidationError, got %v", err)
	}

	issue, err := svc.ReportIssue(ctx, vehicle.ID, "Clutch slips under load")
	if err != nil {
		t.Fatalf("ReportIssue failed: %v", err)
	}
	if issue.Status != core.IssueOpen {
		t.Errorf("new issue status = %s, want Open", issue.Status)
	}

	updated, err := svc.UpdateIssueStatus(ctx, issue.ID, core.IssueInProgress)
	if err != nil {
		t.Fatalf("UpdateIssueStatus failed: %v", err)
	}
	if updated.Status != core.IssueInProgress {
		t.Errorf("issue status = %s, want InProgress", updated.Status)
	}

	if _, err := svc.GetVehicle(ctx, 999); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing vehicle, got %v", err)
	}

	if err := svc.DeleteVehicle(ctx, vehicle.ID); err != nil {
		t.Fatalf("DeleteVehicle failed: %v", err)
	}
	// Issues cascade with their vehicle.
	if _, err := svc.GetIssue(ctx, issue.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected ErrNotFound for cascaded issue, got %v", err)
	}
}
