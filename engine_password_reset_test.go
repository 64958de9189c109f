package aurauth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPasswordResetFlow(t *testing.T) {
	env := newTestEngine(t, nil)
	registerUser(t, env, "alice@example.com")

	if err := env.engine.SendResetCode(context.Background(), "alice@example.com"); err != nil {
		t.Fatalf("SendResetCode failed: %v", err)
	}
	code := env.mailer.lastOTP(t)

	if err := env.engine.ResetPassword(context.Background(), "alice@example.com", code, "brand-new-pass"); err != nil {
		t.Fatalf("ResetPassword failed: %v", err)
	}

	if _, err := env.engine.Login(context.Background(), "alice@example.com", "password123"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("old password should be dead, got %v", err)
	}
	if _, err := env.engine.Login(context.Background(), "alice@example.com", "brand-new-pass"); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}
}

func TestPasswordResetShortPassword(t *testing.T) {
	env := newTestEngine(t, nil)
	registerUser(t, env, "alice@example.com")

	if err := env.engine.SendResetCode(context.Background(), "alice@example.com"); err != nil {
		t.Fatalf("SendResetCode failed: %v", err)
	}
	code := env.mailer.lastOTP(t)

	if err := env.engine.ResetPassword(context.Background(), "alice@example.com", code, "secret1"); err != nil {
		t.Fatalf("ResetPassword rejected a short-but-real password: %v", err)
	}
	if _, err := env.engine.Login(context.Background(), "alice@example.com", "secret1"); err != nil {
		t.Fatalf("Login with new password failed: %v", err)
	}
}

func TestPasswordResetCodeSingleUse(t *testing.T) {
	env := newTestEngine(t, nil)
	registerUser(t, env, "alice@example.com")

	if err := env.engine.SendResetCode(context.Background(), "alice@example.com"); err != nil {
		t.Fatalf("SendResetCode failed: %v", err)
	}
	code := env.mailer.lastOTP(t)

	if err := env.engine.ResetPassword(context.Background(), "alice@example.com", code, "brand-new-pass"); err != nil {
		t.Fatalf("first reset failed: %v", err)
	}
	err := env.engine.ResetPassword(context.Background(), "alice@example.com", code, "another-pass")
	if !errors.Is(err, ErrCodeInvalid) {
		t.Fatalf("replayed code: expected ErrCodeInvalid, got %v", err)
	}

	// The replay must not have touched the password either.
	if _, err := env.engine.Login(context.Background(), "alice@example.com", "brand-new-pass"); err != nil {
		t.Fatalf("password changed by rejected reset: %v", err)
	}
}

func TestPasswordResetExpiredCode(t *testing.T) {
	env := newTestEngine(t, nil)
	res := registerUser(t, env, "alice@example.com")

	if err := env.engine.SendResetCode(context.Background(), "alice@example.com"); err != nil {
		t.Fatalf("SendResetCode failed: %v", err)
	}
	code := env.mailer.lastOTP(t)

	env.store.setSlotExpiry(t, res.UserID, PurposeReset, time.Now().Add(-time.Minute))

	err := env.engine.ResetPassword(context.Background(), "alice@example.com", code, "brand-new-pass")
	if !errors.Is(err, ErrCodeInvalid) {
		t.Fatalf("expected ErrCodeInvalid, got %v", err)
	}
}

func TestPasswordResetUnknownEmail(t *testing.T) {
	env := newTestEngine(t, nil)

	if err := env.engine.SendResetCode(context.Background(), "nobody@example.com"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestPasswordResetIndependentOfVerification(t *testing.T) {
	env := newTestEngine(t, nil)
	res := registerUser(t, env, "alice@example.com")

	if err := env.engine.SendVerifyCode(context.Background(), res.UserID); err != nil {
		t.Fatalf("SendVerifyCode failed: %v", err)
	}
	verifyCode := env.mailer.lastOTP(t)

	if err := env.engine.SendResetCode(context.Background(), "alice@example.com"); err != nil {
		t.Fatalf("SendResetCode failed: %v", err)
	}

	// Issuing a reset code must not clobber the verification code.
	if err := env.engine.ConfirmVerifyCode(context.Background(), res.UserID, verifyCode); err != nil {
		t.Fatalf("verification code invalidated by reset issue: %v", err)
	}
}

func TestPasswordResetMailFailureSurfaces(t *testing.T) {
	env := newTestEngine(t, nil)
	seedUser(t, env, "alice@example.com")

	env.mailer.mu.Lock()
	env.mailer.failN = 2
	env.mailer.mu.Unlock()

	err := env.engine.SendResetCode(context.Background(), "alice@example.com")
	if !errors.Is(err, ErrMailUnavailable) {
		t.Fatalf("expected ErrMailUnavailable, got %v", err)
	}
}
