package aurauth

import (
	"errors"
	"time"
)

// Config is the engine's full configuration tree. It is constructed once
// at startup and injected through [Builder.WithConfig]; no engine code
// reads process environment or other ambient state.
type Config struct {
	JWT    JWTConfig
	OTP    OTPConfig
	Admin  AdminConfig
	Mail   MailConfig
	Order  OrderConfig
	Audit  AuditConfig
	Cookie CookieConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig controls session token signing.
type JWTConfig struct {
	Secret     []byte
	SessionTTL time.Duration
	Issuer     string
	Leeway     time.Duration
}

/*
====================================
OTP CONFIG
====================================
*/

// OTPConfig controls one-time-code issuance. VerifyTTL and ResetTTL are
// the absolute-expiry windows for the two purposes.
type OTPConfig struct {
	Digits    int
	VerifyTTL time.Duration
	ResetTTL  time.Duration
}

// TTL returns the code lifetime for a purpose.
func (c OTPConfig) TTL(p Purpose) time.Duration {
	if p == PurposeReset {
		return c.ResetTTL
	}
	return c.VerifyTTL
}

/*
====================================
ADMIN CONFIG
====================================
*/

// AdminConfig holds the single privileged credential pair. This is a
// separate trust domain from account sessions; see jwt.Manager.
type AdminConfig struct {
	Email    string
	Password string
}

// Enabled reports whether the privileged domain is configured at all.
func (c AdminConfig) Enabled() bool {
	return c.Email != "" && c.Password != ""
}

/*
====================================
MAIL CONFIG
====================================
*/

// MailConfig controls notification sending. TimeZone fixes the
// human-readable timestamp in login/logout notices; it is a presentation
// detail, not a correctness contract.
type MailConfig struct {
	Sender     string
	SenderName string
	TimeZone   string

	// SendTimeout bounds every awaited delivery attempt; RetryBackoff is
	// the pause before the single retry of an awaited send.
	SendTimeout  time.Duration
	RetryBackoff time.Duration
}

/*
====================================
ORDER CONFIG
====================================
*/

// OrderConfig controls order placement.
type OrderConfig struct {
	Currency       string
	DeliveryCharge int64
	InitialStatus  string
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

/*
====================================
COOKIE CONFIG
====================================
*/

// CookieConfig describes the session cookie the transport layer sets. The
// engine never touches cookies itself; this lives here so the whole
// process shares one configuration struct.
type CookieConfig struct {
	Name   string
	MaxAge time.Duration
	// Production switches Secure on and SameSite to None (cross-site
	// frontend); otherwise Lax.
	Production bool
}

// DefaultConfig returns the reference configuration: 7-day sessions,
// 6-digit codes with 24h verification and 15m reset windows.
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			SessionTTL: 7 * 24 * time.Hour,
			Issuer:     "aurauth",
			Leeway:     30 * time.Second,
		},
		OTP: OTPConfig{
			Digits:    6,
			VerifyTTL: 24 * time.Hour,
			ResetTTL:  15 * time.Minute,
		},
		Mail: MailConfig{
			SenderName:   "AURA E-Commerce",
			TimeZone:     "Asia/Kolkata",
			SendTimeout:  10 * time.Second,
			RetryBackoff: 500 * time.Millisecond,
		},
		Order: OrderConfig{
			Currency:       "INR",
			DeliveryCharge: 50,
			InitialStatus:  "Order Placed",
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Cookie: CookieConfig{
			Name:   "token",
			MaxAge: 7 * 24 * time.Hour,
		},
	}
}

// Validate rejects configurations the engine cannot operate under.
func (c Config) Validate() error {
	if len(c.JWT.Secret) == 0 {
		return errors.New("jwt secret required")
	}
	if c.JWT.SessionTTL <= 0 {
		return errors.New("session ttl must be positive")
	}
	if c.OTP.Digits < 4 || c.OTP.Digits > 10 {
		return errors.New("otp digits must be between 4 and 10")
	}
	if c.OTP.VerifyTTL <= 0 || c.OTP.ResetTTL <= 0 {
		return errors.New("otp ttls must be positive")
	}
	if c.Mail.SendTimeout <= 0 {
		return errors.New("mail send timeout must be positive")
	}
	if c.Cookie.Name == "" {
		return errors.New("cookie name required")
	}
	return nil
}

func cloneConfig(c Config) Config {
	out := c
	out.JWT.Secret = cloneBytes(c.JWT.Secret)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
