package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// InventoryService owns item stock levels. All quantity mutations go through
// the ledger operations (Reserve/Adjust/Release), which serialize concurrent
// read-modify-write cycles on a single item with a row-level lock.
type InventoryService interface {
	// Item CRUD. UpdateItem never touches quantity; that column belongs to
	// the ledger.
	CreateItem(ctx context.Context, name string, itemType ItemCategory, quantity int, unitPrice decimal.Decimal, createdBy int) (*InventoryItem, error)
	GetItems(ctx context.Context) ([]InventoryItem, error)
	GetItem(ctx context.Context, itemID int) (*InventoryItem, error)
	UpdateItem(ctx context.Context, itemID int, name string, itemType ItemCategory, unitPrice decimal.Decimal) (*InventoryItem, error)
	DeleteItem(ctx context.Context, itemID int) error

	// Standalone ledger operations (manage their own transactions).
	Reserve(ctx context.Context, itemID, quantityUsed int) error
	Adjust(ctx context.Context, itemID, previousUsed, newUsed int) error
	Release(ctx context.Context, itemID, quantityUsed int) error

	// TX-scoped ledger operations: work within a caller-provided transaction.
	// Used by SolutionService to keep stock changes atomic with line-item writes.
	ReserveTx(ctx context.Context, tx pgx.Tx, itemID, quantityUsed int) error
	AdjustTx(ctx context.Context, tx pgx.Tx, itemID, previousUsed, newUsed int) error
	ReleaseTx(ctx context.Context, tx pgx.Tx, itemID, quantityUsed int) error
}

type inventoryService struct {
	pool *pgxpool.Pool
}

func NewInventoryService(pool *pgxpool.Pool) InventoryService {
	return &inventoryService{pool: pool}
}

// ── Item CRUD ─────────────────────────────────────────────────────────────────

func (s *inventoryService) CreateItem(ctx context.Context, name string, itemType ItemCategory, quantity int, unitPrice decimal.Decimal, createdBy int) (*InventoryItem, error) {
	if name == "" {
		return nil, &ValidationError{Field: "item_name", Message: "must not be empty"}
	}
	if quantity < 0 {
		return nil, &ValidationError{Field: "quantity", Message: "must not be negative"}
	}
	if unitPrice.IsNegative() {
		return nil, &ValidationError{Field: "unit_price", Message: "must not be negative"}
	}

	var item InventoryItem
	err := s.pool.QueryRow(ctx, `
		INSERT INTO inventory_items (item_name, item_type, quantity, unit_price, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, item_name, item_type, quantity, unit_price, created_by, created_at
	`, name, itemType, quantity, unitPrice, createdBy).Scan(
		&item.ID, &item.ItemName, &item.ItemType, &item.Quantity, &item.UnitPrice, &item.CreatedBy, &item.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create inventory item: %w", err)
	}
	return &item, nil
}

func (s *inventoryService) GetItems(ctx context.Context) ([]InventoryItem, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, item_name, item_type, quantity, unit_price, created_by, created_at
		FROM inventory_items
		ORDER BY id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query inventory items: %w", err)
	}
	defer rows.Close()

	var items []InventoryItem
	for rows.Next() {
		var item InventoryItem
		if err := rows.Scan(&item.ID, &item.ItemName, &item.ItemType, &item.Quantity,
			&item.UnitPrice, &item.CreatedBy, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan inventory item: %w", err)
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *inventoryService) GetItem(ctx context.Context, itemID int) (*InventoryItem, error) {
	var item InventoryItem
	err := s.pool.QueryRow(ctx, `
		SELECT id, item_name, item_type, quantity, unit_price, created_by, created_at
		FROM inventory_items
		WHERE id = $1
	`, itemID).Scan(&item.ID, &item.ItemName, &item.ItemType, &item.Quantity,
		&item.UnitPrice, &item.CreatedBy, &item.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("inventory item %d: %w", itemID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch inventory item %d: %w", itemID, err)
	}
	return &item, nil
}

func (s *inventoryService) UpdateItem(ctx context.Context, itemID int, name string, itemType ItemCategory, unitPrice decimal.Decimal) (*InventoryItem, error) {
	if unitPrice.IsNegative() {
		return nil, &ValidationError{Field: "unit_price", Message: "must not be negative"}
	}

	var item InventoryItem
	err := s.pool.QueryRow(ctx, `
		UPDATE inventory_items
		SET item_name = $1, item_type = $2, unit_price = $3
		WHERE id = $4
		RETURNING id, item_name, item_type, quantity, unit_price, created_by, created_at
	`, name, itemType, unitPrice, itemID).Scan(
		&item.ID, &item.ItemName, &item.ItemType, &item.Quantity, &item.UnitPrice, &item.CreatedBy, &item.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("inventory item %d: %w", itemID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update inventory item %d: %w", itemID, err)
	}
	return &item, nil
}

func (s *inventoryService) DeleteItem(ctx context.Context, itemID int) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM inventory_items WHERE id = $1", itemID)
	if err != nil {
		return fmt.Errorf("failed to delete inventory item %d: %w", itemID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("inventory item %d: %w", itemID, ErrNotFound)
	}
	return nil
}

// ── Ledger operations ─────────────────────────────────────────────────────────

// lockItem reads the item's name and quantity under FOR UPDATE so the whole
// read-modify-write runs serialized against other ledger calls on the same row.
func lockItem(ctx context.Context, tx pgx.Tx, itemID int) (name string, quantity int, err error) {
	err = tx.QueryRow(ctx,
		"SELECT item_name, quantity FROM inventory_items WHERE id = $1 FOR UPDATE",
		itemID,
	).Scan(&name, &quantity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", 0, fmt.Errorf("inventory item %d: %w", itemID, ErrNotFound)
		}
		return "", 0, fmt.Errorf("failed to lock inventory item %d: %w", itemID, err)
	}
	return name, quantity, nil
}

// ReserveTx deducts quantityUsed from the item's stock, failing if the
// deduction would drive the quantity negative.
func (s *inventoryService) ReserveTx(ctx context.Context, tx pgx.Tx, itemID, quantityUsed int) error {
	if quantityUsed <= 0 {
		return &InvalidQuantityError{ItemID: itemID, Quantity: quantityUsed}
	}

	name, quantity, err := lockItem(ctx, tx, itemID)
	if err != nil {
		return err
	}
	if quantityUsed > quantity {
		return &InsufficientStockError{ItemID: itemID, ItemName: name, Requested: quantityUsed, Available: quantity}
	}

	if _, err := tx.Exec(ctx,
		"UPDATE inventory_items SET quantity = quantity - $1 WHERE id = $2",
		quantityUsed, itemID,
	); err != nil {
		return fmt.Errorf("failed to reserve %d of item %d: %w", quantityUsed, itemID, err)
	}
	return nil
}

// AdjustTx moves an existing reservation from previousUsed to newUsed as one
// atomic step. The previous reservation is notionally restored before the new
// one is checked, so shrinking always succeeds and growing is only limited by
// the net availability — never by the transient intermediate state.
func (s *inventoryService) AdjustTx(ctx context.Context, tx pgx.Tx, itemID, previousUsed, newUsed int) error {
	if newUsed <= 0 {
		return &InvalidQuantityError{ItemID: itemID, Quantity: newUsed}
	}
	if previousUsed < 0 {
		return &InvalidQuantityError{ItemID: itemID, Quantity: previousUsed}
	}

	name, quantity, err := lockItem(ctx, tx, itemID)
	if err != nil {
		return err
	}

	restored := quantity + previousUsed
	if newUsed > restored {
		return &InsufficientStockError{ItemID: itemID, ItemName: name, Requested: newUsed, Available: restored}
	}

	if _, err := tx.Exec(ctx,
		"UPDATE inventory_items SET quantity = quantity + $1 - $2 WHERE id = $3",
		previousUsed, newUsed, itemID,
	); err != nil {
		return fmt.Errorf("failed to adjust item %d from %d to %d: %w", itemID, previousUsed, newUsed, err)
	}
	return nil
}

// ReleaseTx restores quantityUsed to the item's stock. Used on line-item
// deletion and whole-solution deletion; succeeds unconditionally.
func (s *inventoryService) ReleaseTx(ctx context.Context, tx pgx.Tx, itemID, quantityUsed int) error {
	if quantityUsed <= 0 {
		return &InvalidQuantityError{ItemID: itemID, Quantity: quantityUsed}
	}

	if _, _, err := lockItem(ctx, tx, itemID); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx,
		"UPDATE inventory_items SET quantity = quantity + $1 WHERE id = $2",
		quantityUsed, itemID,
	); err != nil {
		return fmt.Errorf("failed to release %d of item %d: %w", quantityUsed, itemID, err)
	}
	return nil
}

// ── Standalone wrappers ───────────────────────────────────────────────────────

func (s *inventoryService) Reserve(ctx context.Context, itemID, quantityUsed int) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		return s.ReserveTx(ctx, tx, itemID, quantityUsed)
	})
}

func (s *inventoryService) Adjust(ctx context.Context, itemID, previousUsed, newUsed int) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		return s.AdjustTx(ctx, tx, itemID, previousUsed, newUsed)
	})
}

func (s *inventoryService) Release(ctx context.Context, itemID, quantityUsed int) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		return s.ReleaseTx(ctx, tx, itemID, quantityUsed)
	})
}

func (s *inventoryService) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit ledger operation: %w", err)
	}
	return nil
}
