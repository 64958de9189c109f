package aurauth

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// send delivers one notification. The await flag is the single switch
// between the two delivery classes:
//
//   - await=true: the send is part of the flow's contract (OTP delivery).
//     It runs under the configured timeout with one retry, and its failure
//     is the caller's failure.
//   - await=false: best-effort. The send happens on its own goroutine,
//     detached from request cancellation, and any error is logged and
//     swallowed.
func (e *Engine) send(ctx context.Context, msg Message, await bool) error {
	if e.mailer == nil {
		if await {
			return ErrMailUnavailable
		}
		return nil
	}

	if !await {
		go func() {
			sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.config.Mail.SendTimeout)
			defer cancel()
			if err := e.mailer.Send(sendCtx, msg); err != nil {
				e.log().Warn("best-effort mail send failed",
					zap.String("to", msg.To),
					zap.String("subject", msg.Subject),
					zap.Error(err))
				e.emitAudit(ctx, auditEventMailFailure, false, "", msg.To, err, nil)
			}
		}()
		return nil
	}

	sendCtx, cancel := context.WithTimeout(ctx, e.config.Mail.SendTimeout)
	defer cancel()

	err := e.mailer.Send(sendCtx, msg)
	if err == nil {
		return nil
	}

	// One bounded retry, then surface the failure: an issued but
	// undeliverable code is a reportable error.
	select {
	case <-time.After(e.config.Mail.RetryBackoff):
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrMailUnavailable, ctx.Err())
	}

	retryCtx, cancelRetry := context.WithTimeout(ctx, e.config.Mail.SendTimeout)
	defer cancelRetry()

	if retryErr := e.mailer.Send(retryCtx, msg); retryErr != nil {
		e.log().Warn("awaited mail send failed after retry",
			zap.String("to", msg.To),
			zap.String("subject", msg.Subject),
			zap.Error(retryErr))
		e.emitAudit(ctx, auditEventMailFailure, false, "", msg.To, retryErr, nil)
		return fmt.Errorf("%w: %w", ErrMailUnavailable, retryErr)
	}
	return nil
}

// localClock renders the current instant in the configured display
// timezone for login/logout notices. Falls back to UTC when the zone is
// unknown.
func (e *Engine) localClock() (clock, date string) {
	loc, err := time.LoadLocation(e.config.Mail.TimeZone)
	if err != nil {
		loc = time.UTC
	}
	now := time.Now().In(loc)
	return now.Format("3:04 PM"), now.Format("2 January 2006")
}

func (e *Engine) welcomeMessage(email string) Message {
	return Message{
		To:      email,
		Subject: "Welcome to AURA E-commerce Platform",
		Text:    fmt.Sprintf("Welcome to AURA E-commerce website, Your current account has been created with email id: %s", email),
	}
}

func (e *Engine) loginMessage(email string) Message {
	clock, date := e.localClock()
	return Message{
		To:      email,
		Subject: "Login Notification - AURA E-commerce",
		Text:    fmt.Sprintf("A login to your AURA E-commerce account was recorded at %s on %s. If this was not you, reset your password immediately.", clock, date),
	}
}

func (e *Engine) logoutMessage(email string) Message {
	clock, date := e.localClock()
	return Message{
		To:      email,
		Subject: "Logout Notification - AURA E-commerce",
		Text:    fmt.Sprintf("Your AURA E-commerce account was logged out at %s on %s.", clock, date),
	}
}

func (e *Engine) verifyCodeMessage(email, code string) Message {
	return Message{
		To:      email,
		Subject: "Account Verification OTP",
		Text:    fmt.Sprintf("Your verification code is %s. It expires in %s.", code, e.config.OTP.VerifyTTL),
	}
}

func (e *Engine) verifiedMessage(email string) Message {
	return Message{
		To:      email,
		Subject: "Email Verified Successfully - AURA E-commerce",
		Text:    fmt.Sprintf("The email address %s has been verified. Welcome aboard.", email),
	}
}

func (e *Engine) resetCodeMessage(email, code string) Message {
	return Message{
		To:      email,
		Subject: "Password Reset OTP",
		Text:    fmt.Sprintf("Your password reset code is %s. It expires in %s.", code, e.config.OTP.ResetTTL),
	}
}
