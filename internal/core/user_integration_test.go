package core_test

import (
	"context"
	"errors"
	"testing"

	"garage-backend/internal/core"
	"garage-backend/internal/mail"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

func setupUserService(t *testing.T) (*pgxpool.Pool, core.UserService, context.Context) {
	t.Helper()
	pool := setupTestDB(t)
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	return pool, core.NewUserService(pool, &mail.LogSender{Log: log}, log), context.Background()
}

func createTestUser(t *testing.T, svc core.UserService, ctx context.Context, role core.Role) *core.User {
	t.Helper()
	user, err := svc.CreateUser(ctx, core.CreateUserInput{
		Name:        "Alemu Kassa",
		Email:       "alemu@test.local",
		PhoneNumber: "+15550000100",
		Password:    "Str0ng#pass",
		Role:        role,
	})
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	return user
}

func TestUser_CreateDerivesUsername(t *testing.T) {
	pool, svc, ctx := setupUserService(t)
	defer pool.Close()

	user := createTestUser(t, svc, ctx, core.RoleMechanic)
	if user.Username != "alemu-kassa" {
		t.Errorf("username = %q, want %q", user.Username, "alemu-kassa")
	}
	if user.PasswordHash == "Str0ng#pass" {
		t.Error("password stored in plain text")
	}
}

func TestUser_CreateRejectsWeakPassword(t *testing.T) {
	pool, svc, ctx := setupUserService(t)
	defer pool.Close()

	_, err := svc.CreateUser(ctx, core.CreateUserInput{
		Name: "Weak", Email: "weak@test.local", PhoneNumber: "+15550000101",
		Password: "alllowercase1", Role: core.RoleMechanic,
	})
	var validErr *core.ValidationError
	if !errors.As(err, &validErr) {
		t.Errorf("expected ValidationError, got %v", err)
	}
}

func TestUser_AuthenticateByAnyIdentifier(t *testing.T) {
	pool, svc, ctx := setupUserService(t)
	defer pool.Close()
	createTestUser(t, svc, ctx, core.RoleMechanic)

	for _, identifier := range []string{"alemu@test.local", "+15550000100", "alemu-kassa", "ALEMU@test.local"} {
		if _, err := svc.Authenticate(ctx, identifier, "Str0ng#pass"); err != nil {
			t.Errorf("Authenticate(%q) failed: %v", identifier, err)
		}
	}

	if _, err := svc.Authenticate(ctx, "alemu@test.local", "wrong"); !errors.Is(err, core.ErrInvalidCredentials) {
		t.Errorf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "nobody@test.local", "Str0ng#pass"); !errors.Is(err, core.ErrInvalidCredentials) {
		t.Errorf("unknown user: expected ErrInvalidCredentials, got %v", err)
	}
}

func TestUser_AuthenticateRefusesCustomersAndInactive(t *testing.T) {
	pool, svc, ctx := setupUserService(t)
	defer pool.Close()
	user := createTestUser(t, svc, ctx, core.RoleCustomer)

	if _, err := svc.Authenticate(ctx, user.Email, "Str0ng#pass"); !errors.Is(err, core.ErrRoleNotAllowed) {
		t.Errorf("customer login: expected ErrRoleNotAllowed, got %v", err)
	}

	// Deactivated staff can't log in either.
	if _, err := pool.Exec(ctx, "UPDATE users SET role = 'Mechanic', is_active = false WHERE id = $1", user.ID); err != nil {
		t.Fatalf("failed to flip user state: %v", err)
	}
	if _, err := svc.Authenticate(ctx, user.Email, "Str0ng#pass"); !errors.Is(err, core.ErrInvalidCredentials) {
		t.Errorf("inactive login: expected ErrInvalidCredentials, got %v", err)
	}
}

func TestUser_PasswordResetOTPFlow(t *testing.T) {
	pool, svc, ctx := setupUserService(t)
	defer pool.Close()
	user := createTestUser(t, svc, ctx, core.RoleMechanic)

	if err := svc.RequestPasswordReset(ctx, user.Email); err != nil {
		t.Fatalf("RequestPasswordReset failed: %v", err)
	}

	var otp string
	if err := pool.QueryRow(ctx, "SELECT reset_otp FROM users WHERE id = $1", user.ID).Scan(&otp); err != nil {
		t.Fatalf("failed to read stored OTP: %v", err)
	}
	if len(otp) != 5 {
		t.Errorf("OTP = %q, want a 5-digit code", otp)
	}

	// Wrong code is rejected before anything else.
	wrong := "00000"
	if otp == wrong {
		wrong = "11111"
	}
	if err := svc.ConfirmPasswordReset(ctx, user.Email, wrong, "N3w#secret", "N3w#secret"); !errors.Is(err, core.ErrInvalidOTP) {
		t.Errorf("expected ErrInvalidOTP, got %v", err)
	}

	if err := svc.ConfirmPasswordReset(ctx, user.Email, otp, "N3w#secret", "N3w#secret"); err != nil {
		t.Fatalf("ConfirmPasswordReset failed: %v", err)
	}

	// OTP is single-use.
	if err := svc.ConfirmPasswordReset(ctx, user.Email, otp, "An0ther#one", "An0ther#one"); !errors.Is(err, core.ErrInvalidOTP) {
		t.Errorf("reused OTP: expected ErrInvalidOTP, got %v", err)
	}

	if _, err := svc.Authenticate(ctx, user.Email, "N3w#secret"); err != nil {
		t.Errorf("login with new password failed: %v", err)
	}
	if _, err := svc.Authenticate(ctx, user.Email, "Str0ng#pass"); !errors.Is(err, core.ErrInvalidCredentials) {
		t.Errorf("old password still works after reset")
	}
}

func TestUser_PasswordResetOTPExpires(t *testing.T) {
	pool, svc, ctx := setupUserService(t)
	defer pool.Close()
	user := createTestUser(t, svc, ctx, core.RoleMechanic)

	if err := svc.RequestPasswordReset(ctx, user.Email); err != nil {
		t.Fatalf("RequestPasswordReset failed: %v", err)
	}

	var otp string
	if err := pool.QueryRow(ctx, "SELECT reset_otp FROM users WHERE id = $1", user.ID).Scan(&otp); err != nil {
		t.Fatalf("failed to read stored OTP: %v", err)
	}

	// Age the OTP past its 10-minute TTL.
	if _, err := pool.Exec(ctx,
		"UPDATE users SET otp_created_at = NOW() - INTERVAL '11 minutes' WHERE id = $1", user.ID); err != nil {
		t.Fatalf("failed to age OTP: %v", err)
	}

	err := svc.ConfirmPasswordReset(ctx, user.Email, otp, "N3w#secret", "N3w#secret")
	if !errors.Is(err, core.ErrExpiredOTP) {
		t.Errorf("expected ErrExpiredOTP, got %v", err)
	}
}

func TestUser_UpdatePassword(t *testing.T) {
	pool, svc, ctx := setupUserService(t)
	defer pool.Close()
	user := createTestUser(t, svc, ctx, core.RoleMechanic)

	if err := svc.UpdatePassword(ctx, user.ID, "wrong-old", "N3w#secret", "N3w#secret"); err == nil {
		t.Error("expected error for wrong old password")
	}
	if err := svc.UpdatePassword(ctx, user.ID, "Str0ng#pass", "N3w#secret", "different"); err == nil {
		t.Error("expected error for mismatched confirmation")
	}
	if err := svc.UpdatePassword(ctx, user.ID, "Str0ng#pass", "N3w#secret", "N3w#secret"); err != nil {
		t.Fatalf("UpdatePassword failed: %v", err)
	}
	if _, err := svc.Authenticate(ctx, user.Email, "N3w#secret"); err != nil {
		t.Errorf("login with updated password failed: %v", err)
	}
}
