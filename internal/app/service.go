package app

import (
	"context"
	"time"

	"garage-backend/internal/core"
)

// Session is what the web adapter needs to mint a token after login.
type Session struct {
	UserID int       `json:"user_id"`
	Name   string    `json:"name"`
	Role   core.Role `json:"role"`
}

// ApplicationService is the facade the web adapter talks to. It owns input
// normalization (date parsing, defaults) and delegates to the core services.
type ApplicationService interface {
	// Auth & users
	Login(ctx context.Context, req LoginRequest) (*Session, *core.User, error)
	GetUser(ctx context.Context, userID int) (*core.User, error)
	CreateUser(ctx context.Context, input core.CreateUserInput) (*core.User, error)
	ListUsers(ctx context.Context) ([]core.User, error)
	ListMechanics(ctx context.Context) ([]core.User, error)
	UpdateProfile(ctx context.Context, userID int, req UpdateProfileRequest) (*core.User, error)
	DeactivateUser(ctx context.Context, userID int) error
	UpdatePassword(ctx context.Context, userID int, req UpdatePasswordRequest) error
	RequestPasswordReset(ctx context.Context, req PasswordResetRequest) error
	ConfirmPasswordReset(ctx context.Context, req PasswordResetConfirmRequest) error

	// Vehicles & issues
	CreateVehicle(ctx context.Context, input core.VehicleInput) (*core.Vehicle, error)
	GetVehicle(ctx context.Context, vehicleID int) (*core.Vehicle, error)
	ListVehicles(ctx context.Context) ([]core.Vehicle, error)
	ListVehiclesByCustomer(ctx context.Context, customerID int) ([]core.Vehicle, error)
	UpdateVehicle(ctx context.Context, vehicleID int, input core.VehicleInput) (*core.Vehicle, error)
	DeleteVehicle(ctx context.Context, vehicleID int) error
	ReportIssue(ctx context.Context, req ReportIssueRequest) (*core.VehicleIssue, error)
	GetIssue(ctx context.Context, issueID int) (*core.VehicleIssue, error)
	ListIssues(ctx context.Context) ([]core.VehicleIssue, error)
	UpdateIssueStatus(ctx context.Context, issueID int, status core.IssueStatus) (*core.VehicleIssue, error)
	DeleteIssue(ctx context.Context, issueID int) error

	// Inventory
	CreateItem(ctx context.Context, createdBy int, req CreateItemRequest) (*core.InventoryItem, error)
	GetItem(ctx context.Context, itemID int) (*core.InventoryItem, error)
	ListItems(ctx context.Context) ([]core.InventoryItem, error)
	UpdateItem(ctx context.Context, itemID int, req UpdateItemRequest) (*core.InventoryItem, error)
	DeleteItem(ctx context.Context, itemID int) error

	// Solutions
	CreateSolution(ctx context.Context, issueID int, req CreateSolutionRequest) (*core.RepairSolution, error)
	GetSolutionByIssue(ctx context.Context, issueID int) (*core.RepairSolution, error)
	UpdateSolution(ctx context.Context, solutionID int, req UpdateSolutionRequest) (*core.RepairSolution, error)
	DeleteSolution(ctx context.Context, solutionID int) error
	AddLineItem(ctx context.Context, solutionID int, input core.LineItemInput) (*core.RepairSolution, error)
	UpdateLineItem(ctx context.Context, solutionID, lineItemID, quantity int) (*core.RepairSolution, error)
	RemoveLineItem(ctx context.Context, solutionID, lineItemID int) (*core.RepairSolution, error)
	AssignMechanic(ctx context.Context, solutionID, mechanicID int) error
	UnassignMechanic(ctx context.Context, solutionID, mechanicID int) error

	// Quotations
	CompileQuotation(ctx context.Context, issueID int, req CompileQuotationRequest) (*core.Quotation, error)
	GetQuotationByIssue(ctx context.Context, issueID int) (*core.Quotation, error)
	ListQuotations(ctx context.Context) ([]core.Quotation, error)
	MarkQuotationPaid(ctx context.Context, quotationID int) (*core.Quotation, error)
}

// parseDate accepts YYYY-MM-DD, defaulting to today for an empty string.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Now().Truncate(24 * time.Hour), nil
	}
	return time.Parse("2006-01-02", s)
}
