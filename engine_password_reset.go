package aurauth

import (
	"context"
	"errors"

	"github.com/aura-labs/aurauth/internal"
)

// SendResetCode issues a fresh password-reset code for the account
// holding the email and delivers it by mail. The send is awaited, same
// contract as SendVerifyCode.
func (e *Engine) SendResetCode(ctx context.Context, email string) error {
	if e.store == nil {
		return ErrEngineNotReady
	}

	email = normalizeEmail(email)
	if email == "" {
		return ErrMissingDetails
	}

	acc, err := e.store.FindByEmail(ctx, email)
	if err != nil {
		return err
	}

	code, err := e.issueCode(ctx, acc, PurposeReset)
	if err != nil {
		e.emitAudit(ctx, auditEventResetFailure, false, acc.ID, email, err, nil)
		return err
	}

	if err := e.send(ctx, e.resetCodeMessage(email, code), true); err != nil {
		e.emitAudit(ctx, auditEventResetFailure, false, acc.ID, email, err, nil)
		return err
	}

	e.emitAudit(ctx, auditEventResetCodeSent, true, acc.ID, email, nil, nil)
	return nil
}

// ResetPassword consumes the outstanding reset code and installs the new
// password hash in the same store transaction, so a consumed code can
// never leave the old password in place.
func (e *Engine) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if e.store == nil {
		return ErrEngineNotReady
	}

	email = normalizeEmail(email)
	if email == "" || code == "" || newPassword == "" {
		return ErrMissingDetails
	}

	acc, err := e.store.FindByEmail(ctx, email)
	if err != nil {
		return err
	}

	hash, err := e.passwordHash.Hash(newPassword)
	if err != nil {
		return err
	}

	if err := e.store.ConsumeResetCode(ctx, acc.ID, internal.HashCode(code), hash); err != nil {
		if errors.Is(err, ErrCodeInvalid) {
			e.emitAudit(ctx, auditEventResetFailure, false, acc.ID, email, err, nil)
		}
		return err
	}

	e.emitAudit(ctx, auditEventPasswordReset, true, acc.ID, email, nil, nil)
	return nil
}
