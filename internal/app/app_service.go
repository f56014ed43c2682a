package app

import (
	"context"

	"garage-backend/internal/core"
)

type appService struct {
	users      core.UserService
	vehicles   core.VehicleService
	inventory  core.InventoryService
	solutions  core.SolutionService
	quotations core.QuotationService
}

// NewAppService constructs the facade over the core services.
func NewAppService(
	users core.UserService,
	vehicles core.VehicleService,
	inventory core.InventoryService,
	solutions core.SolutionService,
	quotations core.QuotationService,
) ApplicationService {
	return &appService{
		users:      users,
		vehicles:   vehicles,
		inventory:  inventory,
		solutions:  solutions,
		quotations: quotations,
	}
}

// ── Auth & users ──────────────────────────────────────────────────────────────

func (s *appService) Login(ctx context.Context, req LoginRequest) (*Session, *core.User, error) {
	user, err := s.users.Authenticate(ctx, req.Identifier, req.Password)
	if err != nil {
		return nil, nil, err
	}
	return &Session{UserID: user.ID, Name: user.Name, Role: user.Role}, user, nil
}

func (s *appService) GetUser(ctx context.Context, userID int) (*core.User, error) {
	return s.users.GetByID(ctx, userID)
}

func (s *appService) CreateUser(ctx context.Context, input core.CreateUserInput) (*core.User, error) {
	return s.users.CreateUser(ctx, input)
}

func (s *appService) ListUsers(ctx context.Context) ([]core.User, error) {
	return s.users.GetUsers(ctx)
}

func (s *appService) ListMechanics(ctx context.Context) ([]core.User, error) {
	return s.users.GetMechanics(ctx)
}

func (s *appService) UpdateProfile(ctx context.Context, userID int, req UpdateProfileRequest) (*core.User, error) {
	return s.users.UpdateProfile(ctx, userID, req.Name, req.Email, req.PhoneNumber, req.Address)
}

func (s *appService) DeactivateUser(ctx context.Context, userID int) error {
	return s.users.DeleteUser(ctx, userID)
}

func (s *appService) UpdatePassword(ctx context.Context, userID int, req UpdatePasswordRequest) error {
	return s.users.UpdatePassword(ctx, userID, req.OldPassword, req.NewPassword, req.ConfirmNewPassword)
}

func (s *appService) RequestPasswordReset(ctx context.Context, req PasswordResetRequest) error {
	return s.users.RequestPasswordReset(ctx, req.Email)
}

func (s *appService) ConfirmPasswordReset(ctx context.Context, req PasswordResetConfirmRequest) error {
	return s.users.ConfirmPasswordReset(ctx, req.Email, req.OTP, req.NewPassword, req.ConfirmNewPassword)
}

// ── Vehicles & issues ─────────────────────────────────────────────────────────

func (s *appService) CreateVehicle(ctx context.Context, input core.VehicleInput) (*core.Vehicle, error) {
	return s.vehicles.CreateVehicle(ctx, input)
}

func (s *appService) GetVehicle(ctx context.Context, vehicleID int) (*core.Vehicle, error) {
	return s.vehicles.GetVehicle(ctx, vehicleID)
}

func (s *appService) ListVehicles(ctx context.Context) ([]core.Vehicle, error) {
	return s.vehicles.GetVehicles(ctx)
}

func (s *appService) ListVehiclesByCustomer(ctx context.Context, customerID int) ([]core.Vehicle, error) {
	return s.vehicles.GetVehiclesByCustomer(ctx, customerID)
}

func (s *appService) UpdateVehicle(ctx context.Context, vehicleID int, input core.VehicleInput) (*core.Vehicle, error) {
	return s.vehicles.UpdateVehicle(ctx, vehicleID, input)
}

func (s *appService) DeleteVehicle(ctx context.Context, vehicleID int) error {
	return s.vehicles.DeleteVehicle(ctx, vehicleID)
}

func (s *appService) ReportIssue(ctx context.Context, req ReportIssueRequest) (*core.VehicleIssue, error) {
	return s.vehicles.ReportIssue(ctx, req.VehicleID, req.Description)
}

func (s *appService) GetIssue(ctx context.Context, issueID int) (*core.VehicleIssue, error) {
	return s.vehicles.GetIssue(ctx, issueID)
}

func (s *appService) ListIssues(ctx context.Context) ([]core.VehicleIssue, error) {
	return s.vehicles.GetIssues(ctx)
}

func (s *appService) UpdateIssueStatus(ctx context.Context, issueID int, status core.IssueStatus) (*core.VehicleIssue, error) {
	return s.vehicles.UpdateIssueStatus(ctx, issueID, status)
}

func (s *appService) DeleteIssue(ctx context.Context, issueID int) error {
	return s.vehicles.DeleteIssue(ctx, issueID)
}

// ── Inventory ─────────────────────────────────────────────────────────────────

func (s *appService) CreateItem(ctx context.Context, createdBy int, req CreateItemRequest) (*core.InventoryItem, error) {
	return s.inventory.CreateItem(ctx, req.ItemName, req.ItemType, req.Quantity, req.UnitPrice, createdBy)
}

func (s *appService) GetItem(ctx context.Context, itemID int) (*core.InventoryItem, error) {
	return s.inventory.GetItem(ctx, itemID)
}

func (s *appService) ListItems(ctx context.Context) ([]core.InventoryItem, error) {
	return s.inventory.GetItems(ctx)
}

func (s *appService) UpdateItem(ctx context.Context, itemID int, req UpdateItemRequest) (*core.InventoryItem, error) {
	return s.inventory.UpdateItem(ctx, itemID, req.ItemName, req.ItemType, req.UnitPrice)
}

func (s *appService) DeleteItem(ctx context.Context, itemID int) error {
	return s.inventory.DeleteItem(ctx, itemID)
}

// ── Solutions ─────────────────────────────────────────────────────────────────

func (s *appService) CreateSolution(ctx context.Context, issueID int, req CreateSolutionRequest) (*core.RepairSolution, error) {
	date, err := parseDate(req.SolutionDate)
	if err != nil {
		return nil, &core.ValidationError{Field: "solution_date", Message: "must be YYYY-MM-DD"}
	}
	return s.solutions.CreateSolution(ctx, issueID, req.Description, date, req.TotalCost, req.Items, req.MechanicIDs)
}

func (s *appService) GetSolutionByIssue(ctx context.Context, issueID int) (*core.RepairSolution, error) {
	return s.solutions.GetSolutionByIssue(ctx, issueID)
}

func (s *appService) UpdateSolution(ctx context.Context, solutionID int, req UpdateSolutionRequest) (*core.RepairSolution, error) {
	date, err := parseDate(req.SolutionDate)
	if err != nil {
		return nil, &core.ValidationError{Field: "solution_date", Message: "must be YYYY-MM-DD"}
	}
	return s.solutions.UpdateSolution(ctx, solutionID, req.Description, date, req.TotalCost, req.Items)
}

func (s *appService) DeleteSolution(ctx context.Context, solutionID int) error {
	return s.solutions.DeleteSolution(ctx, solutionID)
}

func (s *appService) AddLineItem(ctx context.Context, solutionID int, input core.LineItemInput) (*core.RepairSolution, error) {
	return s.solutions.AddLineItem(ctx, solutionID, input)
}

func (s *appService) UpdateLineItem(ctx context.Context, solutionID, lineItemID, quantity int) (*core.RepairSolution, error) {
	return s.solutions.UpdateLineItem(ctx, solutionID, lineItemID, quantity)
}

func (s *appService) RemoveLineItem(ctx context.Context, solutionID, lineItemID int) (*core.RepairSolution, error) {
	return s.solutions.RemoveLineItem(ctx, solutionID, lineItemID)
}

func (s *appService) AssignMechanic(ctx context.Context, solutionID, mechanicID int) error {
	return s.solutions.AssignMechanic(ctx, solutionID, mechanicID)
}

func (s *appService) UnassignMechanic(ctx context.Context, solutionID, mechanicID int) error {
	return s.solutions.UnassignMechanic(ctx, solutionID, mechanicID)
}

// ── Quotations ────────────────────────────────────────────────────────────────

func (s *appService) CompileQuotation(ctx context.Context, issueID int, req CompileQuotationRequest) (*core.Quotation, error) {
	return s.quotations.Compile(ctx, issueID, req.MechanicShares)
}

func (s *appService) GetQuotationByIssue(ctx context.Context, issueID int) (*core.Quotation, error) {
	return s.quotations.GetQuotationByIssue(ctx, issueID)
}

func (s *appService) ListQuotations(ctx context.Context) ([]core.Quotation, error) {
	return s.quotations.GetQuotations(ctx)
}

func (s *appService) MarkQuotationPaid(ctx context.Context, quotationID int) (*core.Quotation, error) {
	return s.quotations.MarkPaid(ctx, quotationID)
}
