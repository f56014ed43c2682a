package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"garage-backend/internal/mail"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// otpTTL is how long a password-reset OTP stays valid.
const otpTTL = 10 * time.Minute

type CreateUserInput struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	Password    string `json:"password"`
	Role        Role   `json:"role"`
	Address     string `json:"address"`
}

// UserService is the identity collaborator: user CRUD, credential checks, and
// the OTP password-reset flow. All emails it sends are fire-and-forget.
type UserService interface {
	CreateUser(ctx context.Context, input CreateUserInput) (*User, error)
	GetByID(ctx context.Context, userID int) (*User, error)
	GetByIdentifier(ctx context.Context, identifier string) (*User, error)
	GetUsers(ctx context.Context) ([]User, error)
	GetMechanics(ctx context.Context) ([]User, error)
	UpdateProfile(ctx context.Context, userID int, name, email, phone, address string) (*User, error)
	DeleteUser(ctx context.Context, userID int) error

	// Authenticate resolves the identifier (email, phone, or username) and
	// verifies the password. Customer-role users are refused.
	Authenticate(ctx context.Context, identifier, password string) (*User, error)
	UpdatePassword(ctx context.Context, userID int, oldPassword, newPassword, confirm string) error
	RequestPasswordReset(ctx context.Context, email string) error
	ConfirmPasswordReset(ctx context.Context, email, otp, newPassword, confirm string) error
}

type userService struct {
	pool   *pgxpool.Pool
	mailer mail.Sender
	log    *logrus.Logger
}

func NewUserService(pool *pgxpool.Pool, mailer mail.Sender, log *logrus.Logger) UserService {
	return &userService{pool: pool, mailer: mailer, log: log}
}

const userColumns = `id, name, COALESCE(username, ''), email, phone_number, password_hash,
	COALESCE(role, ''), COALESCE(address, ''), is_active, reset_otp, otp_created_at, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	u := &User{}
	err := row.Scan(&u.ID, &u.Name, &u.Username, &u.Email, &u.PhoneNumber, &u.PasswordHash,
		&u.Role, &u.Address, &u.IsActive, &u.ResetOTP, &u.OTPCreatedAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// sendMail delivers a message as a fire-and-forget side effect. The triggering
// write has already committed; a failed send is logged and swallowed.
func (s *userService) sendMail(to, subject, body string) {
	if err := s.mailer.Send(to, subject, body); err != nil {
		s.log.WithError(err).WithField("to", to).Error("mail send failed")
	}
}

// ── CRUD ──────────────────────────────────────────────────────────────────────

func (s *userService) CreateUser(ctx context.Context, input CreateUserInput) (*User, error) {
	if input.Name == "" {
		return nil, &ValidationError{Field: "name", Message: "must not be empty"}
	}
	if input.Email == "" || !strings.Contains(input.Email, "@") {
		return nil, &ValidationError{Field: "email", Message: "must be a valid email address"}
	}
	if input.PhoneNumber == "" {
		return nil, &ValidationError{Field: "phone_number", Message: "must not be empty"}
	}
	if err := ValidatePasswordComplexity(input.Password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := scanUser(s.pool.QueryRow(ctx, `
		INSERT INTO users (name, username, email, phone_number, password_hash, role, address)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+userColumns,
		input.Name, usernameFromName(input.Name), input.Email, input.PhoneNumber,
		string(hash), input.Role, input.Address,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, &ValidationError{Message: "a user with this email, phone number, or username already exists"}
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.sendMail(user.Email, "Welcome to the garage",
		fmt.Sprintf("Hi %s, your account has been created. You can now log in with your email, phone number, or username.", user.Name))
	return user, nil
}

func (s *userService) GetByID(ctx context.Context, userID int) (*User, error) {
	user, err := scanUser(s.pool.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = $1", userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %d: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch user %d: %w", userID, err)
	}
	return user, nil
}

func (s *userService) GetByIdentifier(ctx context.Context, identifier string) (*User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, &ValidationError{Field: "identifier", Message: "email, phone number, or username is required"}
	}

	user, err := scanUser(s.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE LOWER(email) = LOWER($1) OR phone_number = $1 OR LOWER(username) = LOWER($1)
		LIMIT 1
	`, identifier))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %q: %w", identifier, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch user %q: %w", identifier, err)
	}
	return user, nil
}

func (s *userService) GetUsers(ctx context.Context) ([]User, error) {
	return s.queryUsers(ctx, "SELECT "+userColumns+" FROM users ORDER BY id DESC")
}

func (s *userService) GetMechanics(ctx context.Context) ([]User, error) {
	return s.queryUsers(ctx,
		"SELECT "+userColumns+" FROM users WHERE role = 'Mechanic' AND is_active = true ORDER BY name")
}

func (s *userService) queryUsers(ctx context.Context, query string) ([]User, error) {
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID int, name, email, phone, address string) (*User, error) {
	user, err := scanUser(s.pool.QueryRow(ctx, `
		UPDATE users
		SET name = COALESCE(NULLIF($1, ''), name),
		    email = COALESCE(NULLIF($2, ''), email),
		    phone_number = COALESCE(NULLIF($3, ''), phone_number),
		    address = COALESCE(NULLIF($4, ''), address),
		    updated_at = NOW()
		WHERE id = $5
		RETURNING `+userColumns,
		name, email, phone, address, userID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %d: %w", userID, ErrNotFound)
		}
		if isUniqueViolation(err) {
			return nil, &ValidationError{Message: "a user with this email or phone number already exists"}
		}
		return nil, fmt.Errorf("failed to update user %d: %w", userID, err)
	}
	return user, nil
}

func (s *userService) DeleteUser(ctx context.Context, userID int) error {
	tag, err := s.pool.Exec(ctx, "UPDATE users SET is_active = false, updated_at = NOW() WHERE id = $1", userID)
	if err != nil {
		return fmt.Errorf("failed to deactivate user %d: %w", userID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	return nil
}

// ── Authentication & password management ──────────────────────────────────────

func (s *userService) Authenticate(ctx context.Context, identifier, password string) (*User, error) {
	user, err := s.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	if user.Role == RoleCustomer {
		return nil, ErrRoleNotAllowed
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *userService) UpdatePassword(ctx context.Context, userID int, oldPassword, newPassword, confirm string) error {
	if newPassword != confirm {
		return &ValidationError{Field: "confirm_new_password", Message: "new password and confirmation do not match"}
	}
	if err := ValidatePasswordComplexity(newPassword); err != nil {
		return err
	}

	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)) != nil {
		return &ValidationError{Field: "old_password", Message: "old password is incorrect"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if _, err := s.pool.Exec(ctx,
		"UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2",
		string(hash), userID); err != nil {
		return fmt.Errorf("failed to update password for user %d: %w", userID, err)
	}
	return nil
}

func (s *userService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.GetByIdentifier(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("no user found with this email address: %w", ErrNotFound)
		}
		return err
	}

	otp, err := generateOTP()
	if err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx,
		"UPDATE users SET reset_otp = $1, otp_created_at = NOW(), updated_at = NOW() WHERE id = $2",
		otp, user.ID); err != nil {
		return fmt.Errorf("failed to store reset OTP for user %d: %w", user.ID, err)
	}

	s.sendMail(user.Email, "Password Reset OTP",
		fmt.Sprintf("Your OTP for password reset is: %s", otp))
	return nil
}

func (s *userService) ConfirmPasswordReset(ctx context.Context, email, otp, newPassword, confirm string) error {
	if newPassword != confirm {
		return &ValidationError{Field: "confirm_new_password", Message: "new password and confirmation do not match"}
	}
	if err := ValidatePasswordComplexity(newPassword); err != nil {
		return err
	}

	user, err := s.GetByIdentifier(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("no user found with this email address: %w", ErrNotFound)
		}
		return err
	}

	if user.ResetOTP == nil || *user.ResetOTP == "" || *user.ResetOTP != otp {
		return ErrInvalidOTP
	}
	if user.OTPCreatedAt == nil || time.Since(*user.OTPCreatedAt) > otpTTL {
		return ErrExpiredOTP
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if _, err := s.pool.Exec(ctx, `
		UPDATE users
		SET password_hash = $1, reset_otp = NULL, otp_created_at = NULL, updated_at = NOW()
		WHERE id = $2
	`, string(hash), user.ID); err != nil {
		return fmt.Errorf("failed to reset password for user %d: %w", user.ID, err)
	}

	s.sendMail(user.Email, "Password Changed Successfully",
		fmt.Sprintf("Hi %s, your password has been changed successfully. If you did not perform this action, please contact support immediately.", user.Name))
	return nil
}
