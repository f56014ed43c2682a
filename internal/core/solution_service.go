package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// LineItemInput describes one part consumed by a repair solution.
type LineItemInput struct {
	ItemID       int `json:"item_id"`
	QuantityUsed int `json:"quantity_used"`
}

// SolutionService manages repair solutions for vehicle issues. Every line-item
// write goes through the inventory ledger inside the same transaction, so
// stock and line items never diverge.
type SolutionService interface {
	CreateSolution(ctx context.Context, issueID int, description string, solutionDate time.Time,
		laborCost *decimal.Decimal, items []LineItemInput, mechanicIDs []int) (*RepairSolution, error)
	GetSolutionByIssue(ctx context.Context, issueID int) (*RepairSolution, error)
	GetSolution(ctx context.Context, solutionID int) (*RepairSolution, error)
	// UpdateSolution replaces the solution's line-item set using diff-and-adjust:
	// items present before and after are adjusted in place, removed items release
	// their stock, added items reserve theirs — all in one transaction.
	UpdateSolution(ctx context.Context, solutionID int, description string, solutionDate time.Time,
		laborCost *decimal.Decimal, items []LineItemInput) (*RepairSolution, error)
	// DeleteSolution releases all reserved stock and removes the solution.
	DeleteSolution(ctx context.Context, solutionID int) error

	AddLineItem(ctx context.Context, solutionID int, input LineItemInput) (*RepairSolution, error)
	UpdateLineItem(ctx context.Context, solutionID, lineItemID, newQuantity int) (*RepairSolution, error)
	RemoveLineItem(ctx context.Context, solutionID, lineItemID int) (*RepairSolution, error)

	AssignMechanic(ctx context.Context, solutionID, mechanicID int) error
	UnassignMechanic(ctx context.Context, solutionID, mechanicID int) error
}

type solutionService struct {
	pool      *pgxpool.Pool
	inventory InventoryService
}

func NewSolutionService(pool *pgxpool.Pool, inventory InventoryService) SolutionService {
	return &solutionService{pool: pool, inventory: inventory}
}

// isUniqueViolation reports whether err is a Postgres unique-constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// ── Lifecycle ─────────────────────────────────────────────────────────────────

func (s *solutionService) CreateSolution(ctx context.Context, issueID int, description string, solutionDate time.Time,
	laborCost *decimal.Decimal, items []LineItemInput, mechanicIDs []int) (*RepairSolution, error) {

	if description == "" {
		return nil, &ValidationError{Field: "description", Message: "must not be empty"}
	}
	if laborCost != nil && laborCost.IsNegative() {
		return nil, &ValidationError{Field: "total_cost", Message: "must not be negative"}
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

	var solutionID int
	err = tx.QueryRow(ctx, `
		INSERT INTO repair_solutions (issue_id, description, solution_date, total_cost)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, issueID, description, solutionDate, laborCost).Scan(&solutionID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("issue %d: %w", issueID, ErrSolutionExists)
		}
		return nil, fmt.Errorf("failed to insert repair solution: %w", err)
	}

	for _, item := range items {
		if err := s.insertLineItemTx(ctx, tx, solutionID, item); err != nil {
			return nil, err
		}
	}

	for _, mechanicID := range mechanicIDs {
		if err := s.assignMechanicTx(ctx, tx, solutionID, mechanicID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit solution creation: %w", err)
	}
	return s.GetSolution(ctx, solutionID)
}

// insertLineItemTx reserves stock for the item and records the line,
// snapshotting the current unit price as item_cost.
func (s *solutionService) insertLineItemTx(ctx context.Context, tx pgx.Tx, solutionID int, input LineItemInput) error {
	if err := s.inventory.ReserveTx(ctx, tx, input.ItemID, input.QuantityUsed); err != nil {
		return err
	}

	_, err := tx.Exec(ctx, `
		INSERT INTO solution_line_items (solution_id, item_id, quantity_used, item_cost)
		SELECT $1, id, $2, unit_price FROM inventory_items WHERE id = $3
	`, solutionID, input.QuantityUsed, input.ItemID)
	if err != nil {
		return fmt.Errorf("failed to insert line item for inventory item %d: %w", input.ItemID, err)
	}
	return nil
}

func (s *solutionService) assignMechanicTx(ctx context.Context, tx pgx.Tx, solutionID, mechanicID int) error {
	var role *Role
	err := tx.QueryRow(ctx, "SELECT role FROM users WHERE id = $1 AND is_active = true", mechanicID).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &InvalidMechanicError{MechanicID: mechanicID, Reason: "no active user with this id"}
		}
		return fmt.Errorf("failed to resolve mechanic %d: %w", mechanicID, err)
	}
	if role == nil || *role != RoleMechanic {
		return &InvalidMechanicError{MechanicID: mechanicID, Reason: "user does not have the Mechanic role"}
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO mechanic_assignments (solution_id, mechanic_id)
		VALUES ($1, $2)
		ON CONFLICT (solution_id, mechanic_id) DO NOTHING
	`, solutionID, mechanicID); err != nil {
		return fmt.Errorf("failed to assign mechanic %d: %w", mechanicID, err)
	}
	return nil
}

func (s *solutionService) UpdateSolution(ctx context.Context, solutionID int, description string, solutionDate time.Time,
	laborCost *decimal.Decimal, items []LineItemInput) (*RepairSolution, error) {

	if laborCost != nil && laborCost.IsNegative() {
		return nil, &ValidationError{Field: "total_cost", Message: "must not be negative"}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE repair_solutions
		SET description = $1, solution_date = $2, total_cost = $3, updated_at = NOW()
		WHERE id = $4
	`, description, solutionDate, laborCost, solutionID)
	if err != nil {
		return nil, fmt.Errorf("failed to update solution %d: %w", solutionID, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("repair solution %d: %w", solutionID, ErrNotFound)
	}

	// Current reservations per item, to diff against the requested set.
	rows, err := tx.Query(ctx,
		"SELECT id, item_id, quantity_used FROM solution_line_items WHERE solution_id = $1",
		solutionID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch line items for solution %d: %w", solutionID, err)
	}
	type existingLine struct {
		lineID   int
		quantity int
	}
	existing := make(map[int]existingLine)
	for rows.Next() {
		var lineID, itemID, qty int
		if err := rows.Scan(&lineID, &itemID, &qty); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan line item: %w", err)
		}
		existing[itemID] = existingLine{lineID: lineID, quantity: qty}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating line items: %w", err)
	}

	requested := make(map[int]int, len(items))
	for _, item := range items {
		if _, dup := requested[item.ItemID]; dup {
			return nil, &ValidationError{Field: "items", Message: fmt.Sprintf("inventory item %d listed more than once", item.ItemID)}
		}
		requested[item.ItemID] = item.QuantityUsed
	}

	// Kept items: adjust in place against net availability.
	for itemID, newQty := range requested {
		prev, ok := existing[itemID]
		if !ok {
			continue
		}
		if newQty != prev.quantity {
			if err := s.inventory.AdjustTx(ctx, tx, itemID, prev.quantity, newQty); err != nil {
				return nil, err
			}
			if _, err := tx.Exec(ctx,
				"UPDATE solution_line_items SET quantity_used = $1 WHERE id = $2",
				newQty, prev.lineID); err != nil {
				return nil, fmt.Errorf("failed to update line item %d: %w", prev.lineID, err)
			}
		}
	}

	// Removed items: release their stock and drop the row.
	for itemID, prev := range existing {
		if _, keep := requested[itemID]; keep {
			continue
		}
		if err := s.inventory.ReleaseTx(ctx, tx, itemID, prev.quantity); err != nil {
			return nil, err
		}
		if _, err := tx.Exec(ctx, "DELETE FROM solution_line_items WHERE id = $1", prev.lineID); err != nil {
			return nil, fmt.Errorf("failed to delete line item %d: %w", prev.lineID, err)
		}
	}

	// Added items: reserve and insert.
	for _, item := range items {
		if _, was := existing[item.ItemID]; was {
			continue
		}
		if err := s.insertLineItemTx(ctx, tx, solutionID, item); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit solution update: %w", err)
	}
	return s.GetSolution(ctx, solutionID)
}

func (s *solutionService) DeleteSolution(ctx context.Context, solutionID int) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx,
		"SELECT item_id, quantity_used FROM solution_line_items WHERE solution_id = $1",
		solutionID)
	if err != nil {
		return fmt.Errorf("failed to fetch line items for solution %d: %w", solutionID, err)
	}
	type reservation struct{ itemID, quantity int }
	var reservations []reservation
	for rows.Next() {
		var r reservation
		if err := rows.Scan(&r.itemID, &r.quantity); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan line item: %w", err)
		}
		reservations = append(reservations, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating line items: %w", err)
	}

	for _, r := range reservations {
		if err := s.inventory.ReleaseTx(ctx, tx, r.itemID, r.quantity); err != nil {
			return err
		}
	}

	tag, err := tx.Exec(ctx, "DELETE FROM repair_solutions WHERE id = $1", solutionID)
	if err != nil {
		return fmt.Errorf("failed to delete solution %d: %w", solutionID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repair solution %d: %w", solutionID, ErrNotFound)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit solution deletion: %w", err)
	}
	return nil
}

// ── Single line-item operations ───────────────────────────────────────────────

func (s *solutionService) AddLineItem(ctx context.Context, solutionID int, input LineItemInput) (*RepairSolution, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.requireSolutionTx(ctx, tx, solutionID); err != nil {
		return nil, err
	}
	if err := s.insertLineItemTx(ctx, tx, solutionID, input); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit line-item addition: %w", err)
	}
	return s.GetSolution(ctx, solutionID)
}

func (s *solutionService) UpdateLineItem(ctx context.Context, solutionID, lineItemID, newQuantity int) (*RepairSolution, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var itemID, previous int
	err = tx.QueryRow(ctx,
		"SELECT item_id, quantity_used FROM solution_line_items WHERE id = $1 AND solution_id = $2",
		lineItemID, solutionID,
	).Scan(&itemID, &previous)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("line item %d of solution %d: %w", lineItemID, solutionID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch line item %d: %w", lineItemID, err)
	}

	if err := s.inventory.AdjustTx(ctx, tx, itemID, previous, newQuantity); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx,
		"UPDATE solution_line_items SET quantity_used = $1 WHERE id = $2",
		newQuantity, lineItemID); err != nil {
		return nil, fmt.Errorf("failed to update line item %d: %w", lineItemID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit line-item update: %w", err)
	}
	return s.GetSolution(ctx, solutionID)
}

func (s *solutionService) RemoveLineItem(ctx context.Context, solutionID, lineItemID int) (*RepairSolution, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var itemID, quantity int
	err = tx.QueryRow(ctx,
		"SELECT item_id, quantity_used FROM solution_line_items WHERE id = $1 AND solution_id = $2",
		lineItemID, solutionID,
	).Scan(&itemID, &quantity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("line item %d of solution %d: %w", lineItemID, solutionID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch line item %d: %w", lineItemID, err)
	}

	if err := s.inventory.ReleaseTx(ctx, tx, itemID, quantity); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, "DELETE FROM solution_line_items WHERE id = $1", lineItemID); err != nil {
		return nil, fmt.Errorf("failed to delete line item %d: %w", lineItemID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit line-item removal: %w", err)
	}
	return s.GetSolution(ctx, solutionID)
}

// ── Mechanic assignments ──────────────────────────────────────────────────────

func (s *solutionService) AssignMechanic(ctx context.Context, solutionID, mechanicID int) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.requireSolutionTx(ctx, tx, solutionID); err != nil {
		return err
	}
	if err := s.assignMechanicTx(ctx, tx, solutionID, mechanicID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit mechanic assignment: %w", err)
	}
	return nil
}

func (s *solutionService) UnassignMechanic(ctx context.Context, solutionID, mechanicID int) error {
	tag, err := s.pool.Exec(ctx,
		"DELETE FROM mechanic_assignments WHERE solution_id = $1 AND mechanic_id = $2",
		solutionID, mechanicID)
	if err != nil {
		return fmt.Errorf("failed to unassign mechanic %d: %w", mechanicID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("mechanic %d on solution %d: %w", mechanicID, solutionID, ErrNotFound)
	}
	return nil
}

func (s *solutionService) requireSolutionTx(ctx context.Context, tx pgx.Tx, solutionID int) error {
	var exists bool
	if err := tx.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM repair_solutions WHERE id = $1)", solutionID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check solution %d: %w", solutionID, err)
	}
	if !exists {
		return fmt.Errorf("repair solution %d: %w", solutionID, ErrNotFound)
	}
	return nil
}

// ── Queries ───────────────────────────────────────────────────────────────────

func (s *solutionService) GetSolution(ctx context.Context, solutionID int) (*RepairSolution, error) {
	return s.fetchSolution(ctx, "id", solutionID)
}

func (s *solutionService) GetSolutionByIssue(ctx context.Context, issueID int) (*RepairSolution, error) {
	sol, err := s.fetchSolution(ctx, "issue_id", issueID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("issue %d: %w", issueID, ErrNoSolution)
		}
		return nil, err
	}
	return sol, nil
}

func (s *solutionService) fetchSolution(ctx context.Context, column string, id int) (*RepairSolution, error) {
	sol := &RepairSolution{}
	err := s.pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT id, issue_id, description, solution_date, total_cost, created_at, updated_at
		FROM repair_solutions
		WHERE %s = $1
	`, column), id).Scan(&sol.ID, &sol.IssueID, &sol.Description, &sol.SolutionDate,
		&sol.TotalCost, &sol.CreatedAt, &sol.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("repair solution (%s=%d): %w", column, id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch repair solution: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT li.id, li.solution_id, li.item_id, ii.item_name, li.quantity_used, li.item_cost
		FROM solution_line_items li
		JOIN inventory_items ii ON ii.id = li.item_id
		WHERE li.solution_id = $1
		ORDER BY li.id
	`, sol.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to query line items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var li SolutionLineItem
		if err := rows.Scan(&li.ID, &li.SolutionID, &li.ItemID, &li.ItemName, &li.QuantityUsed, &li.ItemCost); err != nil {
			return nil, fmt.Errorf("failed to scan line item: %w", err)
		}
		sol.Items = append(sol.Items, li)
	}

	mrows, err := s.pool.Query(ctx, `
		SELECT ma.id, ma.solution_id, ma.mechanic_id, u.name
		FROM mechanic_assignments ma
		JOIN users u ON u.id = ma.mechanic_id
		WHERE ma.solution_id = $1
		ORDER BY ma.id
	`, sol.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to query mechanic assignments: %w", err)
	}
	defer mrows.Close()
	for mrows.Next() {
		var ma MechanicAssignment
		if err := mrows.Scan(&ma.ID, &ma.SolutionID, &ma.MechanicID, &ma.MechanicName); err != nil {
			return nil, fmt.Errorf("failed to scan mechanic assignment: %w", err)
		}
		sol.Mechanics = append(sol.Mechanics, ma)
	}

	return sol, nil
}
