package aurauth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/aura-labs/aurauth/internal"
)

// Register creates an account, issues its first session token, and
// fires a best-effort welcome mail. Duplicate emails fail with
// ErrAccountExists.
func (e *Engine) Register(ctx context.Context, name, email, pass string) (RegisterResult, error) {
	if e.store == nil {
		return RegisterResult{}, ErrEngineNotReady
	}

	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || email == "" || pass == "" {
		return RegisterResult{}, ErrMissingDetails
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return RegisterResult{}, fmt.Errorf("%w: malformed email", ErrMissingDetails)
	}

	hash, err := e.passwordHash.Hash(pass)
	if err != nil {
		return RegisterResult{}, err
	}

	acc := &Account{
		ID:           internal.NewAccountID(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().Unix(),
	}

	if err := e.store.Create(ctx, acc); err != nil {
		if errors.Is(err, ErrAccountExists) {
			e.emitAudit(ctx, auditEventRegisterDuplicate, false, "", email, err, nil)
		} else {
			e.emitAudit(ctx, auditEventRegisterFailure, false, "", email, err, nil)
		}
		return RegisterResult{}, err
	}

	token, err := e.issueSessionToken(acc.ID)
	if err != nil {
		e.emitAudit(ctx, auditEventRegisterFailure, false, acc.ID, email, err, nil)
		return RegisterResult{}, err
	}

	e.emitAudit(ctx, auditEventRegisterSuccess, true, acc.ID, email, nil, nil)
	_ = e.send(ctx, e.welcomeMessage(email), false)

	return RegisterResult{UserID: acc.ID, Token: token}, nil
}

// Login authenticates a credential pair and issues a fresh session
// token. An unknown email fails with ErrInvalidEmail and a password
// mismatch with ErrInvalidPassword; callers deciding to collapse the two
// for their clients do so at the transport layer.
func (e *Engine) Login(ctx context.Context, email, pass string) (LoginResult, error) {
	if e.store == nil {
		return LoginResult{}, ErrEngineNotReady
	}

	email = normalizeEmail(email)
	if email == "" || pass == "" {
		return LoginResult{}, ErrMissingDetails
	}

	acc, err := e.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			e.emitAudit(ctx, auditEventLoginFailure, false, "", email, ErrInvalidEmail, nil)
			return LoginResult{}, ErrInvalidEmail
		}
		return LoginResult{}, err
	}

	ok, err := e.passwordHash.Verify(pass, acc.PasswordHash)
	if err != nil {
		return LoginResult{}, err
	}
	if !ok {
		e.emitAudit(ctx, auditEventLoginFailure, false, acc.ID, email, ErrInvalidPassword, nil)
		return LoginResult{}, ErrInvalidPassword
	}

	token, err := e.issueSessionToken(acc.ID)
	if err != nil {
		return LoginResult{}, err
	}

	e.emitAudit(ctx, auditEventLoginSuccess, true, acc.ID, email, nil, nil)
	_ = e.send(ctx, e.loginMessage(email), false)

	return LoginResult{UserID: acc.ID, Token: token}, nil
}

// Logout records the logout and fires a best-effort notice. The session
// token itself is stateless; invalidation is the transport clearing its
// cookie. Logout therefore never fails: an unresolvable user id only
// means no mail goes out.
func (e *Engine) Logout(ctx context.Context, userID string) {
	if e.store == nil || userID == "" {
		return
	}

	acc, err := e.store.FindByID(ctx, userID)
	if err != nil {
		e.emitAudit(ctx, auditEventLogout, false, userID, "", err, nil)
		return
	}

	e.emitAudit(ctx, auditEventLogout, true, acc.ID, acc.Email, nil, nil)
	_ = e.send(ctx, e.logoutMessage(acc.Email), false)
}

// UserData returns the hash-free identity for an account id.
func (e *Engine) UserData(ctx context.Context, userID string) (Identity, error) {
	if e.store == nil {
		return Identity{}, ErrEngineNotReady
	}
	if userID == "" {
		return Identity{}, ErrMissingDetails
	}

	acc, err := e.store.FindByID(ctx, userID)
	if err != nil {
		return Identity{}, err
	}
	return acc.Identity(), nil
}

// IsAuthenticated reports whether the token resolves to a live account.
// It is VerifySession with the identity discarded.
func (e *Engine) IsAuthenticated(ctx context.Context, tokenStr string) bool {
	_, err := e.VerifySession(ctx, tokenStr)
	return err == nil
}

// normalizeEmail trims surrounding whitespace only. The address is
// otherwise stored and matched exactly as submitted: it is the login
// key, and case variants are distinct accounts.
func normalizeEmail(email string) string {
	return strings.TrimSpace(email)
}
