package aurauth

import (
	"context"
	"time"

	"github.com/aura-labs/aurauth/internal"
)

// issueCode generates a fresh numeric code for the purpose, binds its
// hash and absolute expiry to the account (overwriting any prior code of
// that purpose), and returns the plaintext for delivery. The plaintext is
// never persisted.
func (e *Engine) issueCode(ctx context.Context, acc *Account, purpose Purpose) (string, error) {
	if purpose == PurposeVerification && acc.Verified {
		return "", ErrAlreadyVerified
	}

	code, err := internal.NewOTP(e.config.OTP.Digits)
	if err != nil {
		return "", err
	}

	expiresAt := time.Now().Add(e.config.OTP.TTL(purpose))
	if err := e.store.SetCode(ctx, acc.ID, purpose, internal.HashCode(code), expiresAt); err != nil {
		return "", err
	}
	return code, nil
}
