package aurauth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRegisterSuccess(t *testing.T) {
	env := newTestEngine(t, nil)

	res, err := env.engine.Register(context.Background(), "Alice", "alice@example.com", "password123")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if res.UserID == "" {
		t.Fatal("expected user id")
	}
	if res.Token == "" {
		t.Fatal("expected session token")
	}

	id, err := env.engine.VerifySession(context.Background(), res.Token)
	if err != nil {
		t.Fatalf("VerifySession failed: %v", err)
	}
	if id.ID != res.UserID {
		t.Fatalf("token resolves to %s, want %s", id.ID, res.UserID)
	}
	if id.Verified {
		t.Fatal("new account must start unverified")
	}

	acc, err := env.store.FindByID(context.Background(), res.UserID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if acc.PasswordHash == "" || acc.PasswordHash == "password123" {
		t.Fatal("expected stored password to be hashed")
	}
}

// Register imposes no password length policy of its own beyond the
// hasher's floor; a short-but-real password like "secret1" must work end
// to end.
func TestRegisterShortPassword(t *testing.T) {
	env := newTestEngine(t, nil)

	res, err := env.engine.Register(context.Background(), "Alice", "alice@example.com", "secret1")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if res.Token == "" {
		t.Fatal("expected session token")
	}

	if _, err := env.engine.Login(context.Background(), "alice@example.com", "secret1"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
}

func TestRegisterTrimsEmail(t *testing.T) {
	env := newTestEngine(t, nil)

	registerUser(t, env, "  Alice@Example.COM ")

	// Whitespace is trimmed; the case is kept exactly as submitted.
	if _, err := env.store.FindByEmail(context.Background(), "Alice@Example.COM"); err != nil {
		t.Fatalf("exact-case lookup failed: %v", err)
	}
	if _, err := env.store.FindByEmail(context.Background(), "alice@example.com"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("lowercased variant should not resolve, got %v", err)
	}
}

// The email is the login key, matched byte for byte: case variants are
// independent accounts.
func TestRegisterEmailCaseSensitive(t *testing.T) {
	env := newTestEngine(t, nil)

	upper := registerUser(t, env, "Alice@example.com")
	lower := registerUser(t, env, "alice@example.com")
	if upper.UserID == lower.UserID {
		t.Fatal("case variants collapsed into one account")
	}

	res, err := env.engine.Login(context.Background(), "Alice@example.com", "password123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if res.UserID != upper.UserID {
		t.Fatalf("login resolved %s, want %s", res.UserID, upper.UserID)
	}
}

func TestRegisterDuplicateRejected(t *testing.T) {
	env := newTestEngine(t, nil)
	registerUser(t, env, "alice@example.com")

	_, err := env.engine.Register(context.Background(), "Alice Again", "alice@example.com", "password123")
	if !errors.Is(err, ErrAccountExists) {
		t.Fatalf("expected ErrAccountExists, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEngine(t, nil)

	cases := []struct {
		name, userName, email, pass string
	}{
		{"empty name", "", "a@example.com", "password123"},
		{"empty email", "Alice", "", "password123"},
		{"empty password", "Alice", "a@example.com", ""},
		{"malformed email", "Alice", "not-an-email", "password123"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.engine.Register(context.Background(), tc.userName, tc.email, tc.pass)
			if !errors.Is(err, ErrMissingDetails) {
				t.Fatalf("expected ErrMissingDetails, got %v", err)
			}
		})
	}
}

func TestLoginSuccess(t *testing.T) {
	env := newTestEngine(t, nil)
	reg := registerUser(t, env, "alice@example.com")

	res, err := env.engine.Login(context.Background(), "alice@example.com", "password123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if res.UserID != reg.UserID {
		t.Fatalf("login resolves to %s, want %s", res.UserID, reg.UserID)
	}

	if _, err := env.engine.VerifySession(context.Background(), res.Token); err != nil {
		t.Fatalf("fresh login token rejected: %v", err)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	env := newTestEngine(t, nil)

	_, err := env.engine.Login(context.Background(), "nobody@example.com", "password123")
	if !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEngine(t, nil)
	registerUser(t, env, "alice@example.com")

	_, err := env.engine.Login(context.Background(), "alice@example.com", "wrong-password")
	if !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword, got %v", err)
	}
}

func TestVerifySessionExpiredToken(t *testing.T) {
	env := newTestEngine(t, func(cfg *Config) {
		cfg.JWT.SessionTTL = time.Millisecond
		cfg.JWT.Leeway = 0
	})
	res := registerUser(t, env, "alice@example.com")

	time.Sleep(10 * time.Millisecond)

	_, err := env.engine.VerifySession(context.Background(), res.Token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestVerifySessionVanishedAccount(t *testing.T) {
	env := newTestEngine(t, nil)
	res := registerUser(t, env, "alice@example.com")

	env.store.mu.Lock()
	delete(env.store.accounts, res.UserID)
	env.store.mu.Unlock()

	_, err := env.engine.VerifySession(context.Background(), res.Token)
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestVerifySessionGarbage(t *testing.T) {
	env := newTestEngine(t, nil)

	for _, token := range []string{"", "garbage", "a.b.c"} {
		if _, err := env.engine.VerifySession(context.Background(), token); !errors.Is(err, ErrTokenInvalid) {
			t.Fatalf("token %q: expected ErrTokenInvalid, got %v", token, err)
		}
	}
}

func TestUserData(t *testing.T) {
	env := newTestEngine(t, nil)
	res := registerUser(t, env, "alice@example.com")

	id, err := env.engine.UserData(context.Background(), res.UserID)
	if err != nil {
		t.Fatalf("UserData failed: %v", err)
	}
	if id.Email != "alice@example.com" || id.Name != "Test User" {
		t.Fatalf("unexpected identity: %+v", id)
	}
}

func TestIsAuthenticated(t *testing.T) {
	env := newTestEngine(t, nil)
	res := registerUser(t, env, "alice@example.com")

	if !env.engine.IsAuthenticated(context.Background(), res.Token) {
		t.Fatal("fresh token should authenticate")
	}
	if env.engine.IsAuthenticated(context.Background(), "garbage") {
		t.Fatal("garbage token should not authenticate")
	}
}
