package core_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"garage-backend/internal/core"

	"github.com/jackc/pgx/v5/pgxpool"
)

func setupQuotationServices(t *testing.T) (*pgxpool.Pool, core.SolutionService, core.QuotationService, context.Context) {
	t.Helper()
	pool := setupTestDB(t)
	inventory := core.NewInventoryService(pool)
	return pool, core.NewSolutionService(pool, inventory), core.NewQuotationService(pool), context.Background()
}

// seedSolution creates the standard test solution: 2 brake pad sets at 200.00
// each, labor 200.00, mechanics 2 and 3.
func seedSolution(t *testing.T, svc core.SolutionService, ctx context.Context) *core.RepairSolution {
	t.Helper()
	solution, err := svc.CreateSolution(ctx, 1, "Replace brake pads", time.Now(),
		laborCost(t, "200.00"),
		[]core.LineItemInput{{ItemID: 1, QuantityUsed: 2}},
		[]int{2, 3})
	if err != nil {
		t.Fatalf("CreateSolution failed: %v", err)
	}
	return solution
}

func countQuotations(t *testing.T, pool *pgxpool.Pool) int {
	t.Helper()
	var n int
	if err := pool.QueryRow(context.Background(), "SELECT count(*) FROM quotations").Scan(&n); err != nil {
		t.Fatalf("failed to count quotations: %v", err)
	}
	return n
}

// ── Tests ─────────────────────────────────────────────────────────────────────

func TestQuotation_CompileHappyPath(t *testing.T) {
	pool, solutions, quotations, ctx := setupQuotationServices(t)
	defer pool.Close()
	seedSolution(t, solutions, ctx)

	q, err := quotations.Compile(ctx, 1, []core.LaborShare{
		{MechanicID: 2, Share: mustDecimal(t, "120.50")},
		{MechanicID: 3, Share: mustDecimal(t, "79.50")},
	})
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	// 2 × 200.00 item total plus 200.00 labor.
	if !q.GrandTotal.Equal(mustDecimal(t, "600.00")) {
		t.Errorf("grand total = %s, want 600.00", q.GrandTotal)
	}
	if q.PaymentStatus != core.PaymentPending {
		t.Errorf("payment status = %s, want Pending", q.PaymentStatus)
	}
	if len(q.Items) != 1 {
		t.Fatalf("quoted items = %d, want 1", len(q.Items))
	}
	qi := q.Items[0]
	if qi.ItemName != "Brake Pad Set" || qi.QuantityUsed != 2 ||
		!qi.UnitPrice.Equal(mustDecimal(t, "200.00")) ||
		!qi.ItemTotal.Equal(mustDecimal(t, "400.00")) {
		t.Errorf("quoted item snapshot wrong: %+v", qi)
	}
	if len(q.Mechanics) != 2 {
		t.Errorf("quoted mechanics = %d, want 2", len(q.Mechanics))
	}
}

func TestQuotation_CompileUsesCurrentUnitPrice(t *testing.T) {
	pool, solutions, quotations, ctx := setupQuotationServices(t)
	defer pool.Close()
	seedSolution(t, solutions, ctx)

	// Reprice the item after the solution reserved it. The quotation must
	// price from the current inventory, not the reservation-time snapshot.
	inventory := core.NewInventoryService(pool)
	if _, err := inventory.UpdateItem(ctx, 1, "Brake Pad Set", core.CategorySparePart, mustDecimal(t, "250.00")); err != nil {
		t.Fatalf("UpdateItem failed: %v", err)
	}

	q, err := quotations.Compile(ctx, 1, []core.LaborShare{
		{MechanicID: 2, Share: mustDecimal(t, "200.00")},
	})
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if !q.GrandTotal.Equal(mustDecimal(t, "700.00")) {
		t.Errorf("grand total = %s, want 700.00 (2 × 250 + 200 labor)", q.GrandTotal)
	}
}

func TestQuotation_LaborMismatch(t *testing.T) {
	pool, solutions, quotations, ctx := setupQuotationServices(t)
	defer pool.Close()
	seedSolution(t, solutions, ctx)

	_, err := quotations.Compile(ctx, 1, []core.LaborShare{
		{MechanicID: 2, Share: mustDecimal(t, "120.50")},
		{MechanicID: 3, Share: mustDecimal(t, "79.49")},
	})
	var mismatch *core.LaborMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected LaborMismatchError, got %v", err)
	}
	if !mismatch.Declared.Equal(mustDecimal(t, "199.99")) || !mismatch.Recorded.Equal(mustDecimal(t, "200.00")) {
		t.Errorf("mismatch detail = declared %s / recorded %s", mismatch.Declared, mismatch.Recorded)
	}

	// Nothing persists on rejection.
	if n := countQuotations(t, pool); n != 0 {
		t.Errorf("quotations after mismatch = %d, want 0", n)
	}
}

func TestQuotation_RoundingForgivesSubCentDrift(t *testing.T) {
	pool, solutions, quotations, ctx := setupQuotationServices(t)
	defer pool.Close()
	seedSolution(t, solutions, ctx)

	// 66.668 + 66.667 + 66.667 = 200.002 → 200.00 after rounding.
	_, err := quotations.Compile(ctx, 1, []core.LaborShare{
		{MechanicID: 2, Share: mustDecimal(t, "66.668")},
		{MechanicID: 3, Share: mustDecimal(t, "66.667")},
		{MechanicID: 2, Share: mustDecimal(t, "66.667")},
	})
	if err != nil {
		t.Fatalf("Compile failed despite sub-cent drift: %v", err)
	}
}

func TestQuotation_MissingLaborShares(t *testing.T) {
	pool, solutions, quotations, ctx := setupQuotationServices(t)
	defer pool.Close()
	seedSolution(t, solutions, ctx)

	if _, err := quotations.Compile(ctx, 1, nil); !errors.Is(err, core.ErrMissingLaborShares) {
		t.Errorf("expected ErrMissingLaborShares, got %v", err)
	}
}

func TestQuotation_InvalidMechanicRollsBack(t *testing.T) {
	pool, solutions, quotations, ctx := setupQuotationServices(t)
	defer pool.Close()
	seedSolution(t, solutions, ctx)

	// User 4 is a storekeeper; the share set is otherwise valid.
	_, err := quotations.Compile(ctx, 1, []core.LaborShare{
		{MechanicID: 2, Share: mustDecimal(t, "100.00")},
		{MechanicID: 4, Share: mustDecimal(t, "100.00")},
	})
	var mechErr *core.InvalidMechanicError
	if !errors.As(err, &mechErr) {
		t.Fatalf("expected InvalidMechanicError, got %v", err)
	}
	if n := countQuotations(t, pool); n != 0 {
		t.Errorf("quotations after invalid mechanic = %d, want 0", n)
	}
}

func TestQuotation_NoSolutionAndNotFound(t *testing.T) {
	pool, _, quotations, ctx := setupQuotationServices(t)
	defer pool.Close()

	shares := []core.LaborShare{{MechanicID: 2, Share: mustDecimal(t, "10")}}

	// Issue 2 exists but has no solution.
	if _, err := quotations.Compile(ctx, 2, shares); !errors.Is(err, core.ErrNoSolution) {
		t.Errorf("expected ErrNoSolution, got %v", err)
	}
	// Issue 999 does not exist at all.
	if _, err := quotations.Compile(ctx, 999, shares); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestQuotation_CompileIsIdempotentlyRejected(t *testing.T) {
	pool, solutions, quotations, ctx := setupQuotationServices(t)
	defer pool.Close()
	seedSolution(t, solutions, ctx)

	shares := []core.LaborShare{{MechanicID: 2, Share: mustDecimal(t, "200.00")}}
	if _, err := quotations.Compile(ctx, 1, shares); err != nil {
		t.Fatalf("first Compile failed: %v", err)
	}
	if _, err := quotations.Compile(ctx, 1, shares); !errors.Is(err, core.ErrAlreadyQuoted) {
		t.Errorf("expected ErrAlreadyQuoted, got %v", err)
	}
	if n := countQuotations(t, pool); n != 1 {
		t.Errorf("quotations = %d, want 1", n)
	}
}

func TestQuotation_ConcurrentCompileExactlyOneWins(t *testing.T) {
	pool, solutions, quotations, ctx := setupQuotationServices(t)
	defer pool.Close()
	seedSolution(t, solutions, ctx)

	shares := []core.LaborShare{{MechanicID: 2, Share: mustDecimal(t, "200.00")}}

	var wg sync.WaitGroup
	results := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := quotations.Compile(ctx, 1, shares)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var won, lost int
	for err := range results {
		switch {
		case err == nil:
			won++
		case errors.Is(err, core.ErrAlreadyQuoted):
			lost++
		default:
			t.Errorf("unexpected error from concurrent compile: %v", err)
		}
	}
	if won != 1 || lost != 7 {
		t.Errorf("won = %d, lost = %d; want exactly 1 winner", won, lost)
	}
	if n := countQuotations(t, pool); n != 1 {
		t.Errorf("quotations = %d, want 1", n)
	}
}

func TestQuotation_MarkPaid(t *testing.T) {
	pool, solutions, quotations, ctx := setupQuotationServices(t)
	defer pool.Close()
	seedSolution(t, solutions, ctx)

	q, err := quotations.Compile(ctx, 1, []core.LaborShare{{MechanicID: 2, Share: mustDecimal(t, "200.00")}})
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	paid, err := quotations.MarkPaid(ctx, q.ID)
	if err != nil {
		t.Fatalf("MarkPaid failed: %v", err)
	}
	if paid.PaymentStatus != core.PaymentPaid {
		t.Errorf("payment status = %s, want Paid", paid.PaymentStatus)
	}

	if _, err := quotations.MarkPaid(ctx, 999); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing quotation, got %v", err)
	}
}
