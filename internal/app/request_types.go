package app

import (
	"garage-backend/internal/core"

	"github.com/shopspring/decimal"
)

type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type UpdateProfileRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	Address     string `json:"address"`
}

type UpdatePasswordRequest struct {
	OldPassword        string `json:"old_password"`
	NewPassword        string `json:"new_password"`
	ConfirmNewPassword string `json:"confirm_new_password"`
}

type PasswordResetRequest struct {
	Email string `json:"email"`
}

type PasswordResetConfirmRequest struct {
	Email              string `json:"email"`
	OTP                string `json:"otp"`
	NewPassword        string `json:"new_password"`
	ConfirmNewPassword string `json:"confirm_new_password"`
}

type CreateItemRequest struct {
	ItemName  string            `json:"item_name"`
	ItemType  core.ItemCategory `json:"item_type"`
	Quantity  int               `json:"quantity"`
	UnitPrice decimal.Decimal   `json:"unit_price"`
}

type UpdateItemRequest struct {
	ItemName  string            `json:"item_name"`
	ItemType  core.ItemCategory `json:"item_type"`
	UnitPrice decimal.Decimal   `json:"unit_price"`
}

type CreateSolutionRequest struct {
	Description string `json:"description"`
	// SolutionDate is YYYY-MM-DD; defaults to today when empty.
	SolutionDate string               `json:"solution_date"`
	TotalCost    *decimal.Decimal     `json:"total_cost"`
	Items        []core.LineItemInput `json:"items"`
	MechanicIDs  []int                `json:"mechanic_ids"`
}

type UpdateSolutionRequest struct {
	Description  string               `json:"description"`
	SolutionDate string               `json:"solution_date"`
	TotalCost    *decimal.Decimal     `json:"total_cost"`
	Items        []core.LineItemInput `json:"items"`
}

type CompileQuotationRequest struct {
	MechanicShares []core.LaborShare `json:"mechanic_shares"`
}

type ReportIssueRequest struct {
	VehicleID   int    `json:"vehicle_id"`
	Description string `json:"description"`
}
