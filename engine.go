package aurauth

import (
	"context"
	"errors"
	"fmt"

	"github.com/aura-labs/aurauth/jwt"
	"github.com/aura-labs/aurauth/password"
	"go.uber.org/zap"
)

// Engine coordinates the account lifecycle: it composes the credential
// store, the one-time-code issuer, the session token service, the mailer,
// and (optionally) the order store and payment gateway. Engine instances
// are configured through [Builder] and treated as immutable afterwards.
type Engine struct {
	config       Config
	store        CredentialStore
	orders       OrderStore
	gateway      PaymentGateway
	mailer       Mailer
	passwordHash *password.Bcrypt
	jwtManager   *jwt.Manager
	audit        *auditDispatcher
	logger       *zap.Logger
}

// Close flushes the audit dispatcher. The engine is unusable afterwards.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports how many audit events were discarded because the
// dispatcher queue was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

// VerifySession resolves a session token to its account identity. It
// checks signature and expiry locally, then requires the account to still
// exist: a cryptographically valid token for a vanished account fails
// with ErrUserNotFound.
func (e *Engine) VerifySession(ctx context.Context, tokenStr string) (Identity, error) {
	if e.jwtManager == nil || e.store == nil {
		return Identity{}, ErrEngineNotReady
	}

	userID, err := e.jwtManager.ParseSession(tokenStr)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, fmt.Errorf("%w: %w", ErrTokenExpired, err)
		}
		return Identity{}, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	acc, err := e.store.FindByID(ctx, userID)
	if err != nil {
		return Identity{}, err
	}
	return acc.Identity(), nil
}

// VerifyAdmin checks a privileged token against the configured admin
// credential pair. Session tokens never pass.
func (e *Engine) VerifyAdmin(tokenStr string) error {
	if e.jwtManager == nil {
		return ErrEngineNotReady
	}
	if !e.config.Admin.Enabled() {
		return ErrUnauthorized
	}
	if err := e.jwtManager.ParseAdmin(tokenStr, e.config.Admin.Email, e.config.Admin.Password); err != nil {
		return fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	return nil
}

func (e *Engine) issueSessionToken(accountID string) (string, error) {
	return e.jwtManager.CreateSession(accountID)
}

func (e *Engine) log() *zap.Logger {
	if e == nil || e.logger == nil {
		return zap.NewNop()
	}
	return e.logger
}
