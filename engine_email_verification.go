package aurauth

import (
	"context"
	"errors"

	"github.com/aura-labs/aurauth/internal"
)

// SendVerifyCode issues a fresh verification code for the account and
// delivers it by mail. The send is awaited: a code the user can never
// see is a failure, so delivery trouble surfaces as ErrMailUnavailable
// even though the code stays bound to the account.
func (e *Engine) SendVerifyCode(ctx context.Context, userID string) error {
	if e.store == nil {
		return ErrEngineNotReady
	}
	if userID == "" {
		return ErrMissingDetails
	}

	acc, err := e.store.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	code, err := e.issueCode(ctx, acc, PurposeVerification)
	if err != nil {
		e.emitAudit(ctx, auditEventVerifyFailure, false, acc.ID, acc.Email, err, nil)
		return err
	}

	if err := e.send(ctx, e.verifyCodeMessage(acc.Email, code), true); err != nil {
		e.emitAudit(ctx, auditEventVerifyFailure, false, acc.ID, acc.Email, err, nil)
		return err
	}

	e.emitAudit(ctx, auditEventVerifyCodeSent, true, acc.ID, acc.Email, nil, nil)
	return nil
}

// ConfirmVerifyCode consumes the outstanding verification code and marks
// the account verified in the same store transaction. Wrong, expired,
// and absent codes all fail with ErrCodeInvalid.
func (e *Engine) ConfirmVerifyCode(ctx context.Context, userID, code string) error {
	if e.store == nil {
		return ErrEngineNotReady
	}
	if userID == "" || code == "" {
		return ErrMissingDetails
	}

	if err := e.store.ConsumeVerifyCode(ctx, userID, internal.HashCode(code)); err != nil {
		if errors.Is(err, ErrCodeInvalid) {
			e.emitAudit(ctx, auditEventVerifyFailure, false, userID, "", err, nil)
		}
		return err
	}

	e.emitAudit(ctx, auditEventVerifyConfirmed, true, userID, "", nil, nil)

	if acc, err := e.store.FindByID(ctx, userID); err == nil {
		_ = e.send(ctx, e.verifiedMessage(acc.Email), false)
	}
	return nil
}
