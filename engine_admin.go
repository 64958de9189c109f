package aurauth

import (
	"context"
	"crypto/subtle"
)

// AdminLogin checks the submitted pair against the configured admin
// credentials and mints a privileged token. The comparison is
// constant-time over both fields; a half-match costs the same as a full
// mismatch.
func (e *Engine) AdminLogin(ctx context.Context, email, pass string) (string, error) {
	if e.jwtManager == nil {
		return "", ErrEngineNotReady
	}
	if !e.config.Admin.Enabled() {
		return "", ErrAdminCredentials
	}
	if email == "" || pass == "" {
		return "", ErrMissingDetails
	}

	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(e.config.Admin.Email))
	passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(e.config.Admin.Password))
	if emailOK&passOK != 1 {
		e.emitAudit(ctx, auditEventAdminLogin, false, "", email, ErrAdminCredentials, nil)
		return "", ErrAdminCredentials
	}

	token, err := e.jwtManager.CreateAdmin(e.config.Admin.Email, e.config.Admin.Password)
	if err != nil {
		return "", err
	}

	e.emitAudit(ctx, auditEventAdminLogin, true, "", email, nil, nil)
	return token, nil
}
