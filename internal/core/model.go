package core

import (
	"time"

	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleAdmin       Role = "Admin"
	RoleMechanic    Role = "Mechanic"
	RoleStorekeeper Role = "Storekeeper"
	RoleCashier     Role = "Cashier"
	RoleCustomer    Role = "Customer"
)

type User struct {
	ID           int        `json:"id"`
	Name         string     `json:"name"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PhoneNumber  string     `json:"phone_number"`
	PasswordHash string     `json:"-"`
	Role         Role       `json:"role"`
	Address      string     `json:"address,omitempty"`
	IsActive     bool       `json:"is_active"`
	ResetOTP     *string    `json:"-"`
	OTPCreatedAt *time.Time `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type Vehicle struct {
	ID           int       `json:"id"`
	CustomerID   int       `json:"customer_id"`
	Make         string    `json:"make,omitempty"`
	Model        string    `json:"model,omitempty"`
	Year         *int      `json:"year,omitempty"`
	Color        string    `json:"color,omitempty"`
	LicensePlate string    `json:"license_plate,omitempty"`
	VIN          string    `json:"vin,omitempty"`
	Mileage      *int      `json:"mileage,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type IssueStatus string

const (
	IssueOpen       IssueStatus = "Open"
	IssueInProgress IssueStatus = "InProgress"
	IssueResolved   IssueStatus = "Resolved"
)

type VehicleIssue struct {
	ID          int         `json:"id"`
	VehicleID   int         `json:"vehicle_id"`
	Description string      `json:"description"`
	Status      IssueStatus `json:"status"`
	ReportedAt  time.Time   `json:"reported_at"`
}

type ItemCategory string

const (
	CategorySparePart ItemCategory = "Spare Part"
	CategoryTools     ItemCategory = "Tools"
	CategoryMaterials ItemCategory = "Materials"
)

// InventoryItem quantity is only ever mutated through the ledger operations
// on InventoryService; everything else treats it as read-only.
type InventoryItem struct {
	ID        int             `json:"id"`
	ItemName  string          `json:"item_name"`
	ItemType  ItemCategory    `json:"item_type"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	CreatedBy int             `json:"created_by"`
	CreatedAt time.Time       `json:"created_at"`
}

// RepairSolution belongs to exactly one VehicleIssue. TotalCost is the
// declared labor cost; it may be nil before the solution is finalized.
type RepairSolution struct {
	ID           int                  `json:"id"`
	IssueID      int                  `json:"issue_id"`
	Description  string               `json:"description"`
	SolutionDate time.Time            `json:"solution_date"`
	TotalCost    *decimal.Decimal     `json:"total_cost,omitempty"`
	Items        []SolutionLineItem   `json:"items"`
	Mechanics    []MechanicAssignment `json:"mechanics"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

// SolutionLineItem records a part consumed by a repair. ItemCost is the unit
// price snapshot taken when the part was reserved; quotation math ignores it
// and always uses the item's current price.
type SolutionLineItem struct {
	ID           int              `json:"id"`
	SolutionID   int              `json:"solution_id"`
	ItemID       int              `json:"item_id"`
	ItemName     string           `json:"item_name,omitempty"`
	QuantityUsed int              `json:"quantity_used"`
	ItemCost     *decimal.Decimal `json:"item_cost,omitempty"`
}

type MechanicAssignment struct {
	ID           int    `json:"id"`
	SolutionID   int    `json:"solution_id"`
	MechanicID   int    `json:"mechanic_id"`
	MechanicName string `json:"mechanic_name,omitempty"`
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "Pending"
	PaymentPaid    PaymentStatus = "Paid"
)

// Quotation is immutable once created, except for PaymentStatus.
type Quotation struct {
	ID            int              `json:"id"`
	SolutionID    int              `json:"solution_id"`
	GrandTotal    decimal.Decimal  `json:"grand_total"`
	PaymentStatus PaymentStatus    `json:"payment_status"`
	Items         []QuotedItem     `json:"quoted_items"`
	Mechanics     []QuotedMechanic `json:"quoted_mechanics"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// QuotedItem freezes the inventory price and line total at compile time,
// insulated from later InventoryItem changes.
type QuotedItem struct {
	ID           int             `json:"id"`
	QuotationID  int             `json:"quotation_id"`
	ItemID       int             `json:"item_id"`
	ItemName     string          `json:"inventory_item_label"`
	QuantityUsed int             `json:"quantity_used"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	ItemTotal    decimal.Decimal `json:"item_total"`
}

type QuotedMechanic struct {
	ID           int             `json:"id"`
	QuotationID  int             `json:"quotation_id"`
	MechanicID   int             `json:"mechanic_id"`
	MechanicName string          `json:"mechanic,omitempty"`
	LaborShare   decimal.Decimal `json:"labor_share"`
}

// LaborShare is one mechanic's declared portion of a solution's labor cost,
// supplied by the caller at quotation time.
type LaborShare struct {
	MechanicID int             `json:"mechanic_id"`
	Share      decimal.Decimal `json:"labor_share"`
}
