package core_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"garage-backend/internal/core"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

func setupSolutionServices(t *testing.T) (*pgxpool.Pool, core.SolutionService, context.Context) {
	t.Helper()
	pool := setupTestDB(t)
	inventory := core.NewInventoryService(pool)
	return pool, core.NewSolutionService(pool, inventory), context.Background()
}

func laborCost(t *testing.T, s string) *decimal.Decimal {
	t.Helper()
	d := mustDecimal(t, s)
	return &d
}

func TestSolution_CreateReservesStockAndSnapshotsCost(t *testing.T) {
	pool, svc, ctx := setupSolutionServices(t)
	defer pool.Close()

	solution, err := svc.CreateSolution(ctx, 1, "Replace brake pads", time.Now(),
		laborCost(t, "200.00"),
		[]core.LineItemInput{{ItemID: 1, QuantityUsed: 4}},
		[]int{2, 3})
	if err != nil {
		t.Fatalf("CreateSolution failed: %v", err)
	}

	if got := itemQuantity(t, pool, 1); got != 6 {
		t.Errorf("stock after create = %d, want 6", got)
	}
	if len(solution.Items) != 1 {
		t.Fatalf("line items = %d, want 1", len(solution.Items))
	}
	if solution.Items[0].ItemCost == nil || !solution.Items[0].ItemCost.Equal(mustDecimal(t, "200.00")) {
		t.Errorf("item_cost snapshot = %v, want 200.00", solution.Items[0].ItemCost)
	}
	if len(solution.Mechanics) != 2 {
		t.Errorf("mechanics = %d, want 2", len(solution.Mechanics))
	}
}

func TestSolution_OnePerIssue(t *testing.T) {
	pool, svc, ctx := setupSolutionServices(t)
	defer pool.Close()

	if _, err := svc.CreateSolution(ctx, 1, "First", time.Now(), laborCost(t, "100"), nil, nil); err != nil {
		t.Fatalf("first CreateSolution failed: %v", err)
	}

	_, err := svc.CreateSolution(ctx, 1, "Second", time.Now(), laborCost(t, "100"), nil, nil)
	if !errors.Is(err, core.ErrSolutionExists) {
		t.Errorf("expected ErrSolutionExists, got %v", err)
	}
}

func TestSolution_CreateInsufficientStockRollsBack(t *testing.T) {
	pool, svc, ctx := setupSolutionServices(t)
	defer pool.Close()

	_, err := svc.CreateSolution(ctx, 1, "Too greedy", time.Now(), laborCost(t, "50"),
		[]core.LineItemInput{
			{ItemID: 2, QuantityUsed: 5},  // would succeed alone
			{ItemID: 1, QuantityUsed: 11}, // exceeds stock of 10
		}, nil)
	var stockErr *core.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}

	// The whole transaction rolls back: neither item loses stock and no
	// solution row survives.
	if got := itemQuantity(t, pool, 1); got != 10 {
		t.Errorf("item 1 quantity = %d, want 10", got)
	}
	if got := itemQuantity(t, pool, 2); got != 50 {
		t.Errorf("item 2 quantity = %d, want 50", got)
	}
	if _, err := svc.GetSolutionByIssue(ctx, 1); !errors.Is(err, core.ErrNoSolution) {
		t.Errorf("expected ErrNoSolution after rollback, got %v", err)
	}
}

func TestSolution_UpdateDiffAndAdjust(t *testing.T) {
	pool, svc, ctx := setupSolutionServices(t)
	defer pool.Close()

	solution, err := svc.CreateSolution(ctx, 1, "Replace brake pads", time.Now(),
		laborCost(t, "200"),
		[]core.LineItemInput{{ItemID: 1, QuantityUsed: 4}}, nil)
	if err != nil {
		t.Fatalf("CreateSolution failed: %v", err)
	}

	// Grow the kept item 4 → 7 (only 6 on hand, fine against net availability
	// of 10) and introduce a new item in the same update.
	updated, err := svc.UpdateSolution(ctx, solution.ID, "Replace pads and filter", time.Now(),
		laborCost(t, "220"),
		[]core.LineItemInput{
			{ItemID: 1, QuantityUsed: 7},
			{ItemID: 2, QuantityUsed: 2},
		})
	if err != nil {
		t.Fatalf("UpdateSolution failed: %v", err)
	}
	if got := itemQuantity(t, pool, 1); got != 3 {
		t.Errorf("item 1 quantity = %d, want 3", got)
	}
	if got := itemQuantity(t, pool, 2); got != 48 {
		t.Errorf("item 2 quantity = %d, want 48", got)
	}
	if len(updated.Items) != 2 {
		t.Errorf("line items = %d, want 2", len(updated.Items))
	}

	// Dropping an item from the set releases its reservation.
	_, err = svc.UpdateSolution(ctx, solution.ID, "Pads only", time.Now(),
		laborCost(t, "200"),
		[]core.LineItemInput{{ItemID: 1, QuantityUsed: 7}})
	if err != nil {
		t.Fatalf("second UpdateSolution failed: %v", err)
	}
	if got := itemQuantity(t, pool, 2); got != 50 {
		t.Errorf("item 2 quantity after removal = %d, want 50", got)
	}
}

func TestSolution_DeleteReleasesAllStock(t *testing.T) {
	pool, svc, ctx := setupSolutionServices(t)
	defer pool.Close()

	solution, err := svc.CreateSolution(ctx, 1, "Full service", time.Now(),
		laborCost(t, "300"),
		[]core.LineItemInput{
			{ItemID: 1, QuantityUsed: 4},
			{ItemID: 2, QuantityUsed: 10},
		}, nil)
	if err != nil {
		t.Fatalf("CreateSolution failed: %v", err)
	}

	if err := svc.DeleteSolution(ctx, solution.ID); err != nil {
		t.Fatalf("DeleteSolution failed: %v", err)
	}
	if got := itemQuantity(t, pool, 1); got != 10 {
		t.Errorf("item 1 quantity = %d, want 10", got)
	}
	if got := itemQuantity(t, pool, 2); got != 50 {
		t.Errorf("item 2 quantity = %d, want 50", got)
	}
}

func TestSolution_LineItemOperations(t *testing.T) {
	pool, svc, ctx := setupSolutionServices(t)
	defer pool.Close()

	solution, err := svc.CreateSolution(ctx, 1, "Brakes", time.Now(),
		laborCost(t, "150"),
		[]core.LineItemInput{{ItemID: 1, QuantityUsed: 2}}, nil)
	if err != nil {
		t.Fatalf("CreateSolution failed: %v", err)
	}
	lineID := solution.Items[0].ID

	if _, err := svc.UpdateLineItem(ctx, solution.ID, lineID, 5); err != nil {
		t.Fatalf("UpdateLineItem failed: %v", err)
	}
	if got := itemQuantity(t, pool, 1); got != 5 {
		t.Errorf("quantity after line update = %d, want 5", got)
	}

	if _, err := svc.RemoveLineItem(ctx, solution.ID, lineID); err != nil {
		t.Fatalf("RemoveLineItem failed: %v", err)
	}
	if got := itemQuantity(t, pool, 1); got != 10 {
		t.Errorf("quantity after line removal = %d, want 10", got)
	}
}

func TestSolution_AssignMechanicValidatesRole(t *testing.T) {
	pool, svc, ctx := setupSolutionServices(t)
	defer pool.Close()

	solution, err := svc.CreateSolution(ctx, 1, "Brakes", time.Now(), laborCost(t, "150"), nil, nil)
	if err != nil {
		t.Fatalf("CreateSolution failed: %v", err)
	}

	// User 4 is a storekeeper, not a mechanic.
	err = svc.AssignMechanic(ctx, solution.ID, 4)
	var mechErr *core.InvalidMechanicError
	if !errors.As(err, &mechErr) {
		t.Fatalf("expected InvalidMechanicError, got %v", err)
	}
	if mechErr.MechanicID != 4 {
		t.Errorf("mechanic_id = %d, want 4", mechErr.MechanicID)
	}

	if err := svc.AssignMechanic(ctx, solution.ID, 2); err != nil {
		t.Fatalf("AssignMechanic with real mechanic failed: %v", err)
	}
	if err := svc.UnassignMechanic(ctx, solution.ID, 2); err != nil {
		t.Fatalf("UnassignMechanic failed: %v", err)
	}
}
