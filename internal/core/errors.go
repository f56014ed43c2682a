package core

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Error taxonomy for the repair workflow. Callers match with errors.Is / errors.As;
// the web adapter maps these onto HTTP statuses.
var (
	ErrNotFound           = errors.New("record not found")
	ErrNoSolution         = errors.New("issue has no repair solution")
	ErrSolutionExists     = errors.New("issue already has a repair solution")
	ErrAlreadyQuoted      = errors.New("a quotation already exists for this solution")
	ErrMissingLaborShares = errors.New("at least one mechanic labor share is required")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrRoleNotAllowed     = errors.New("users with the role 'Customer' are not allowed to login")
	ErrInvalidOTP         = errors.New("invalid OTP provided")
	ErrExpiredOTP         = errors.New("OTP has expired, request a new one")
)

// InsufficientStockError reports the quantity still available so the caller
// can adjust the request.
type InsufficientStockError struct {
	ItemID    int
	ItemName  string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for item %q (id=%d): available %d, requested %d",
		e.ItemName, e.ItemID, e.Available, e.Requested)
}

// InvalidQuantityError rejects non-positive reservation quantities.
type InvalidQuantityError struct {
	ItemID   int
	Quantity int
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity for item id=%d must be positive, got %d", e.ItemID, e.Quantity)
}

// LaborMismatchError reports both sides of the failed comparison between the
// declared labor shares and the solution's recorded labor cost.
type LaborMismatchError struct {
	Declared decimal.Decimal
	Recorded decimal.Decimal
}

func (e *LaborMismatchError) Error() string {
	return fmt.Sprintf("labor shares sum to %s but solution labor cost is %s",
		e.Declared.StringFixed(2), e.Recorded.StringFixed(2))
}

// InvalidMechanicError names the offending labor-share entry.
type InvalidMechanicError struct {
	MechanicID int
	Reason     string
}

func (e *InvalidMechanicError) Error() string {
	return fmt.Sprintf("invalid mechanic id=%d: %s", e.MechanicID, e.Reason)
}

// ValidationError covers bad input shape on the plumbing surfaces
// (passwords, profile fields, vehicle fields).
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
