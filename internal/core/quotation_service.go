package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// QuotationService turns a finalized repair solution plus a set of mechanic
// labor shares into an immutable quotation snapshot, or rejects the request.
type QuotationService interface {
	// Compile validates the labor shares against the solution's recorded labor
	// cost, computes per-item and grand totals from current inventory prices,
	// and persists the quotation with its snapshots in a single transaction.
	// Concurrent compiles for the same solution race on the quotations unique
	// constraint; exactly one wins and the loser sees ErrAlreadyQuoted.
	Compile(ctx context.Context, issueID int, shares []LaborShare) (*Quotation, error)

	GetQuotation(ctx context.Context, quotationID int) (*Quotation, error)
	GetQuotationByIssue(ctx context.Context, issueID int) (*Quotation, error)
	GetQuotations(ctx context.Context) ([]Quotation, error)
	// MarkPaid transitions Pending → Paid, the only mutation a quotation allows.
	MarkPaid(ctx context.Context, quotationID int) (*Quotation, error)
}

type quotationService struct {
	pool *pgxpool.Pool
}

func NewQuotationService(pool *pgxpool.Pool) QuotationService {
	return &quotationService{pool: pool}
}

func (s *quotationService) Compile(ctx context.Context, issueID int, shares []LaborShare) (*Quotation, error) {
	if len(shares) == 0 {
		return nil, ErrMissingLaborShares
	}
	for _, share := range shares {
		if share.Share.IsNegative() {
			return nil, &ValidationError{Field: "labor_share",
				Message: fmt.Sprintf("share for mechanic %d must not be negative", share.MechanicID)}
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM vehicle_issues WHERE id = $1)", issueID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check issue %d: %w", issueID, err)
	}
	if !exists {
		return nil, fmt.Errorf("vehicle issue %d: %w", issueID, ErrNotFound)
	}

	// Lock the solution row for the duration of the compile so the line items
	// and labor cost cannot shift underneath the snapshot.
	var solutionID int
	var laborCost *decimal.Decimal
	err = tx.QueryRow(ctx,
		"SELECT id, total_cost FROM repair_solutions WHERE issue_id = $1 FOR UPDATE",
		issueID,
	).Scan(&solutionID, &laborCost)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("issue %d: %w", issueID, ErrNoSolution)
		}
		return nil, fmt.Errorf("failed to fetch solution for issue %d: %w", issueID, err)
	}
	if laborCost == nil {
		return nil, &ValidationError{Field: "total_cost", Message: "solution has no recorded labor cost"}
	}

	var quoted bool
	if err := tx.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM quotations WHERE solution_id = $1)", solutionID).Scan(&quoted); err != nil {
		return nil, fmt.Errorf("failed to check existing quotation: %w", err)
	}
	if quoted {
		return nil, fmt.Errorf("solution %d: %w", solutionID, ErrAlreadyQuoted)
	}

	// Item totals from the item's current unit price, not the reservation-time
	// snapshot on the line item.
	type pricedLine struct {
		itemID       int
		itemName     string
		quantityUsed int
		unitPrice    decimal.Decimal
		lineTotal    decimal.Decimal
	}
	rows, err := tx.Query(ctx, `
		SELECT li.item_id, ii.item_name, li.quantity_used, ii.unit_price
		FROM solution_line_items li
		JOIN inventory_items ii ON ii.id = li.item_id
		WHERE li.solution_id = $1
		ORDER BY li.id
	`, solutionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query line items for solution %d: %w", solutionID, err)
	}
	var lines []pricedLine
	itemTotal := decimal.Zero
	for rows.Next() {
		var pl pricedLine
		if err := rows.Scan(&pl.itemID, &pl.itemName, &pl.quantityUsed, &pl.unitPrice); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan line item: %w", err)
		}
		pl.lineTotal = pl.unitPrice.Mul(decimal.NewFromInt(int64(pl.quantityUsed)))
		itemTotal = itemTotal.Add(pl.lineTotal)
		lines = append(lines, pl)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating line items: %w", err)
	}

	declared := decimal.Zero
	for _, share := range shares {
		declared = declared.Add(share.Share)
	}
	if !round2(declared).Equal(round2(*laborCost)) {
		return nil, &LaborMismatchError{Declared: declared, Recorded: *laborCost}
	}

	grandTotal := itemTotal.Add(*laborCost)

	var quotationID int
	err = tx.QueryRow(ctx, `
		INSERT INTO quotations (solution_id, grand_total)
		VALUES ($1, $2)
		RETURNING id
	`, solutionID, grandTotal).Scan(&quotationID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("solution %d: %w", solutionID, ErrAlreadyQuoted)
		}
		return nil, fmt.Errorf("failed to insert quotation: %w", err)
	}

	for _, pl := range lines {
		if _, err := tx.Exec(ctx, `
			INSERT INTO quoted_items (quotation_id, item_id, item_name, quantity_used, unit_price, item_total)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, quotationID, pl.itemID, pl.itemName, pl.quantityUsed, pl.unitPrice, pl.lineTotal); err != nil {
			return nil, fmt.Errorf("failed to insert quoted item for item %d: %w", pl.itemID, err)
		}
	}

	for _, share := range shares {
		var role *Role
		err := tx.QueryRow(ctx, "SELECT role FROM users WHERE id = $1 AND is_active = true", share.MechanicID).Scan(&role)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, &InvalidMechanicError{MechanicID: share.MechanicID, Reason: "no active user with this id"}
			}
			return nil, fmt.Errorf("failed to resolve mechanic %d: %w", share.MechanicID, err)
		}
		if role == nil || *role != RoleMechanic {
			return nil, &InvalidMechanicError{MechanicID: share.MechanicID, Reason: "user does not have the Mechanic role"}
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO quoted_mechanics (quotation_id, mechanic_id, labor_share)
			VALUES ($1, $2, $3)
		`, quotationID, share.MechanicID, share.Share); err != nil {
			return nil, fmt.Errorf("failed to insert quoted mechanic %d: %w", share.MechanicID, err)
		}
	}

	// Snapshot rows and the quotation header land together or not at all.
	if err := tx.Commit(ctx); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("solution %d: %w", solutionID, ErrAlreadyQuoted)
		}
		return nil, fmt.Errorf("failed to commit quotation: %w", err)
	}

	return s.GetQuotation(ctx, quotationID)
}

// ── Queries ───────────────────────────────────────────────────────────────────

func (s *quotationService) GetQuotation(ctx context.Context, quotationID int) (*Quotation, error) {
	return s.fetchQuotation(ctx,
		"SELECT id, solution_id, grand_total, payment_status, created_at, updated_at FROM quotations WHERE id = $1",
		quotationID)
}

func (s *quotationService) GetQuotationByIssue(ctx context.Context, issueID int) (*Quotation, error) {
	return s.fetchQuotation(ctx, `
		SELECT q.id, q.solution_id, q.grand_total, q.payment_status, q.created_at, q.updated_at
		FROM quotations q
		JOIN repair_solutions rs ON rs.id = q.solution_id
		WHERE rs.issue_id = $1
	`, issueID)
}

func (s *quotationService) fetchQuotation(ctx context.Context, query string, arg int) (*Quotation, error) {
	q := &Quotation{}
	err := s.pool.QueryRow(ctx, query, arg).Scan(
		&q.ID, &q.SolutionID, &q.GrandTotal, &q.PaymentStatus, &q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("quotation (arg=%d): %w", arg, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch quotation: %w", err)
	}
	if err := s.loadSnapshots(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

func (s *quotationService) loadSnapshots(ctx context.Context, q *Quotation) error {
	rows, err := s.pool.Query(ctx, `
		SELECT id, quotation_id, item_id, item_name, quantity_used, unit_price, item_total
		FROM quoted_items
		WHERE quotation_id = $1
		ORDER BY id
	`, q.ID)
	if err != nil {
		return fmt.Errorf("failed to query quoted items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var qi QuotedItem
		if err := rows.Scan(&qi.ID, &qi.QuotationID, &qi.ItemID, &qi.ItemName,
			&qi.QuantityUsed, &qi.UnitPrice, &qi.ItemTotal); err != nil {
			return fmt.Errorf("failed to scan quoted item: %w", err)
		}
		q.Items = append(q.Items, qi)
	}

	mrows, err := s.pool.Query(ctx, `
		SELECT qm.id, qm.quotation_id, qm.mechanic_id, u.name, qm.labor_share
		FROM quoted_mechanics qm
		JOIN users u ON u.id = qm.mechanic_id
		WHERE qm.quotation_id = $1
		ORDER BY qm.id
	`, q.ID)
	if err != nil {
		return fmt.Errorf("failed to query quoted mechanics: %w", err)
	}
	defer mrows.Close()
	for mrows.Next() {
		var qm QuotedMechanic
		if err := mrows.Scan(&qm.ID, &qm.QuotationID, &qm.MechanicID, &qm.MechanicName, &qm.LaborShare); err != nil {
			return fmt.Errorf("failed to scan quoted mechanic: %w", err)
		}
		q.Mechanics = append(q.Mechanics, qm)
	}

	return nil
}

func (s *quotationService) GetQuotations(ctx context.Context) ([]Quotation, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, solution_id, grand_total, payment_status, created_at, updated_at
		FROM quotations
		ORDER BY id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query quotations: %w", err)
	}
	defer rows.Close()

	var quotations []Quotation
	for rows.Next() {
		var q Quotation
		if err := rows.Scan(&q.ID, &q.SolutionID, &q.GrandTotal, &q.PaymentStatus, &q.CreatedAt, &q.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan quotation: %w", err)
		}
		quotations = append(quotations, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating quotations: %w", err)
	}

	for i := range quotations {
		if err := s.loadSnapshots(ctx, &quotations[i]); err != nil {
			return nil, err
		}
	}
	return quotations, nil
}

func (s *quotationService) MarkPaid(ctx context.Context, quotationID int) (*Quotation, error) {
	tag, err := s.pool.Exec(ctx,
		"UPDATE quotations SET payment_status = 'Paid', updated_at = NOW() WHERE id = $1",
		quotationID)
	if err != nil {
		return nil, fmt.Errorf("failed to mark quotation %d paid: %w", quotationID, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("quotation %d: %w", quotationID, ErrNotFound)
	}
	return s.GetQuotation(ctx, quotationID)
}
