package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type VehicleInput struct {
	CustomerID   int    `json:"customer_id"`
	Make         string `json:"make"`
	Model        string `json:"model"`
	Year         *int   `json:"year"`
	Color        string `json:"color"`
	LicensePlate string `json:"license_plate"`
	VIN          string `json:"vin"`
	Mileage      *int   `json:"mileage"`
}

// VehicleService manages customer vehicles and their reported issues.
type VehicleService interface {
	CreateVehicle(ctx context.Context, input VehicleInput) (*Vehicle, error)
	GetVehicle(ctx context.Context, vehicleID int) (*Vehicle, error)
	GetVehicles(ctx context.Context) ([]Vehicle, error)
	GetVehiclesByCustomer(ctx context.Context, customerID int) ([]Vehicle, error)
	UpdateVehicle(ctx context.Context, vehicleID int, input VehicleInput) (*Vehicle, error)
	DeleteVehicle(ctx context.Context, vehicleID int) error

	ReportIssue(ctx context.Context, vehicleID int, description string) (*VehicleIssue, error)
	GetIssue(ctx context.Context, issueID int) (*VehicleIssue, error)
	GetIssues(ctx context.Context) ([]VehicleIssue, error)
	UpdateIssueStatus(ctx context.Context, issueID int, status IssueStatus) (*VehicleIssue, error)
	DeleteIssue(ctx context.Context, issueID int) error
}

type vehicleService struct {
	pool *pgxpool.Pool
}

func NewVehicleService(pool *pgxpool.Pool) VehicleService {
	return &vehicleService{pool: pool}
}

const vehicleColumns = `id, customer_id, COALESCE(make, ''), COALESCE(model, ''), year,
	COALESCE(color, ''), COALESCE(license_plate, ''), COALESCE(vin, ''), mileage, created_at, updated_at`

func scanVehicle(row pgx.Row) (*Vehicle, error) {
	v := &Vehicle{}
	err := row.Scan(&v.ID, &v.CustomerID, &v.Make, &v.Model, &v.Year,
		&v.Color, &v.LicensePlate, &v.VIN, &v.Mileage, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// ── Vehicles ──────────────────────────────────────────────────────────────────

func (s *vehicleService) CreateVehicle(ctx context.Context, input VehicleInput) (*Vehicle, error) {
	if input.CustomerID == 0 {
		return nil, &ValidationError{Field: "customer_id", Message: "must reference a customer"}
	}

	vehicle, err := scanVehicle(s.pool.QueryRow(ctx, `
		INSERT INTO vehicles (customer_id, make, model, year, color, license_plate, vin, mileage)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), $4, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), $8)
		RETURNING `+vehicleColumns,
		input.CustomerID, input.Make, input.Model, input.Year,
		input.Color, input.LicensePlate, input.VIN, input.Mileage,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, &ValidationError{Message: "a vehicle with this license plate or VIN already exists"}
		}
		return nil, fmt.Errorf("failed to create vehicle: %w", err)
	}
	return vehicle, nil
}

func (s *vehicleService) GetVehicle(ctx context.Context, vehicleID int) (*Vehicle, error) {
	vehicle, err := scanVehicle(s.pool.QueryRow(ctx,
		"SELECT "+vehicleColumns+" FROM vehicles WHERE id = $1", vehicleID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("vehicle %d: %w", vehicleID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch vehicle %d: %w", vehicleID, err)
	}
	return vehicle, nil
}

func (s *vehicleService) GetVehicles(ctx context.Context) ([]Vehicle, error) {
	return s.queryVehicles(ctx, "SELECT "+vehicleColumns+" FROM vehicles ORDER BY created_at DESC")
}

func (s *vehicleService) GetVehiclesByCustomer(ctx context.Context, customerID int) ([]Vehicle, error) {
	return s.queryVehicles(ctx,
		"SELECT "+vehicleColumns+" FROM vehicles WHERE customer_id = $1 ORDER BY created_at DESC", customerID)
}

func (s *vehicleService) queryVehicles(ctx context.Context, query string, args ...any) ([]Vehicle, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query vehicles: %w", err)
	}
	defer rows.Close()

	var vehicles []Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vehicle: %w", err)
		}
		vehicles = append(vehicles, *v)
	}
	return vehicles, nil
}

func (s *vehicleService) UpdateVehicle(ctx context.Context, vehicleID int, input VehicleInput) (*Vehicle, error) {
	vehicle, err := scanVehicle(s.pool.QueryRow(ctx, `
		UPDATE vehicles
		SET make = NULLIF($1, ''), model = NULLIF($2, ''), year = $3, color = NULLIF($4, ''),
		    license_plate = NULLIF($5, ''), vin = NULLIF($6, ''), mileage = $7, updated_at = NOW()
		WHERE id = $8
		RETURNING `+vehicleColumns,
		input.Make, input.Model, input.Year, input.Color,
		input.LicensePlate, input.VIN, input.Mileage, vehicleID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("vehicle %d: %w", vehicleID, ErrNotFound)
		}
		if isUniqueViolation(err) {
			return nil, &ValidationError{Message: "a vehicle with this license plate or VIN already exists"}
		}
		return nil, fmt.Errorf("failed to update vehicle %d: %w", vehicleID, err)
	}
	return vehicle, nil
}

func (s *vehicleService) DeleteVehicle(ctx context.Context, vehicleID int) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM vehicles WHERE id = $1", vehicleID)
	if err != nil {
		return fmt.Errorf("failed to delete vehicle %d: %w", vehicleID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("vehicle %d: %w", vehicleID, ErrNotFound)
	}
	return nil
}

// ── Issues ────────────────────────────────────────────────────────────────────

func (s *vehicleService) ReportIssue(ctx context.Context, vehicleID int, description string) (*VehicleIssue, error) {
	if description == "" {
		return nil, &ValidationError{Field: "description", Message: "must not be empty"}
	}

	issue := &VehicleIssue{}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO vehicle_issues (vehicle_id, description)
		VALUES ($1, $2)
		RETURNING id, vehicle_id, description, status, reported_at
	`, vehicleID, description).Scan(&issue.ID, &issue.VehicleID, &issue.Description, &issue.Status, &issue.ReportedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to report issue for vehicle %d: %w", vehicleID, err)
	}
	return issue, nil
}

func (s *vehicleService) GetIssue(ctx context.Context, issueID int) (*VehicleIssue, error) {
	issue := &VehicleIssue{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, vehicle_id, description, status, reported_at
		FROM vehicle_issues
		WHERE id = $1
	`, issueID).Scan(&issue.ID, &issue.VehicleID, &issue.Description, &issue.Status, &issue.ReportedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("vehicle issue %d: %w", issueID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch issue %d: %w", issueID, err)
	}
	return issue, nil
}

func (s *vehicleService) GetIssues(ctx context.Context) ([]VehicleIssue, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, vehicle_id, description, status, reported_at
		FROM vehicle_issues
		ORDER BY reported_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query issues: %w", err)
	}
	defer rows.Close()

	var issues []VehicleIssue
	for rows.Next() {
		var issue VehicleIssue
		if err := rows.Scan(&issue.ID, &issue.VehicleID, &issue.Description, &issue.Status, &issue.ReportedAt); err != nil {
			return nil, fmt.Errorf("failed to scan issue: %w", err)
		}
		issues = append(issues, issue)
	}
	return issues, nil
}

func (s *vehicleService) UpdateIssueStatus(ctx context.Context, issueID int, status IssueStatus) (*VehicleIssue, error) {
	switch status {
	case IssueOpen, IssueInProgress, IssueResolved:
	default:
		return nil, &ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", status)}
	}

	issue := &VehicleIssue{}
	err := s.pool.QueryRow(ctx, `
		UPDATE vehicle_issues SET status = $1 WHERE id = $2
		RETURNING id, vehicle_id, description, status, reported_at
	`, status, issueID).Scan(&issue.ID, &issue.VehicleID, &issue.Description, &issue.Status, &issue.ReportedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("vehicle issue %d: %w", issueID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update issue %d: %w", issueID, err)
	}
	return issue, nil
}

func (s *vehicleService) DeleteIssue(ctx context.Context, issueID int) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM vehicle_issues WHERE id = $1", issueID)
	if err != nil {
		return fmt.Errorf("failed to delete issue %d: %w", issueID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("vehicle issue %d: %w", issueID, ErrNotFound)
	}
	return nil
}
