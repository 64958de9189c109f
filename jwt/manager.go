package jwt

import (
	"crypto/subtle"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenInvalid covers malformed tokens, bad signatures, and tokens
	// from the wrong trust domain.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenExpired is returned when a structurally valid token is past
	// its expiry.
	ErrTokenExpired = errors.New("token expired")
)

// Config holds the signing parameters shared by both trust domains.
type Config struct {
	Secret     []byte
	SessionTTL time.Duration
	Issuer     string
	Leeway     time.Duration
}

// Manager signs and verifies tokens with a single server-held HS256
// secret. A Manager is immutable after construction.
type Manager struct {
	config Config
}

// SessionClaims is the account session payload: the account id plus the
// registered time claims. The claim key matches the original wire format.
type SessionClaims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// adminClaims carries the concatenated credential pair as the subject
// plus the email's byte length, so the split point is unambiguous: a
// pair like ("ab","cd") can never pass for ("abc","d") even though both
// concatenate to "abcd". UserID is decoded only to reject tokens from
// the session domain.
type adminClaims struct {
	UserID   string `json:"userId,omitempty"`
	EmailLen int    `json:"emailLen"`
	jwt.RegisteredClaims
}

// NewManager validates the config and returns a Manager.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("hs256 requires a secret")
	}
	if cfg.SessionTTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	return &Manager{config: cfg}, nil
}

// CreateSession issues a session token asserting accountID, valid for the
// configured TTL from now.
func (m *Manager) CreateSession(accountID string) (string, error) {
	if accountID == "" {
		return "", errors.New("empty account id")
	}

	now := time.Now()
	claims := SessionClaims{
		UserID: accountID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.SessionTTL)),
			Issuer:    m.config.Issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.config.Secret)
}

// ParseSession verifies signature then expiry and returns the asserted
// account id. Admin-domain tokens (no userId claim) are rejected with
// ErrTokenInvalid.
func (m *Manager) ParseSession(tokenStr string) (string, error) {
	claims := &SessionClaims{}
	if err := m.parse(tokenStr, claims); err != nil {
		return "", err
	}
	if claims.UserID == "" {
		return "", ErrTokenInvalid
	}
	return claims.UserID, nil
}

// CreateAdmin issues the privileged token. The payload is the raw
// concatenation of the credential pair carried as the subject claim —
// compatibility with the observed admin token shape, kept deliberately
// isolated from the session domain — plus the email length pinning the
// split (see adminClaims).
func (m *Manager) CreateAdmin(email, password string) (string, error) {
	if email == "" || password == "" {
		return "", errors.New("empty admin credentials")
	}

	now := time.Now()
	claims := adminClaims{
		EmailLen: len(email),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email + password,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.SessionTTL)),
			Issuer:    m.config.Issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.config.Secret)
}

// ParseAdmin verifies the privileged token. The subject must exactly
// equal the expected credential concatenation and the recorded email
// length must match the expected email (both constant-time);
// session-domain tokens and any other payload are rejected.
func (m *Manager) ParseAdmin(tokenStr, wantEmail, wantPassword string) error {
	if wantEmail == "" || wantPassword == "" {
		return ErrTokenInvalid
	}

	claims := &adminClaims{}
	if err := m.parse(tokenStr, claims); err != nil {
		return err
	}
	// A session token must never pass the admin gate.
	if claims.UserID != "" {
		return ErrTokenInvalid
	}

	want := wantEmail + wantPassword
	subOK := subtle.ConstantTimeCompare([]byte(claims.Subject), []byte(want))
	lenOK := subtle.ConstantTimeEq(int32(claims.EmailLen), int32(len(wantEmail)))
	if subOK&lenOK != 1 {
		return ErrTokenInvalid
	}
	return nil
}

func (m *Manager) parse(tokenStr string, claims jwt.Claims) error {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return m.config.Secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return ErrTokenInvalid
	}
	if !token.Valid {
		return ErrTokenInvalid
	}
	return nil
}
