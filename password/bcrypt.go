package password

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

const minPassBytes = 6

// Config holds bcrypt parameters.
type Config struct {
	Cost int
}

// Bcrypt hashes and verifies passwords. Instances are immutable and safe
// for concurrent use.
type Bcrypt struct {
	config Config
}

// NewBcrypt validates the config and returns a hasher. A zero cost
// selects bcrypt.DefaultCost.
func NewBcrypt(cfg Config) (*Bcrypt, error) {
	if cfg.Cost == 0 {
		cfg.Cost = bcrypt.DefaultCost
	}
	if cfg.Cost < bcrypt.MinCost || cfg.Cost > bcrypt.MaxCost {
		return nil, errors.New("invalid bcrypt cost")
	}
	return &Bcrypt{config: cfg}, nil
}

// Hash computes the bcrypt hash of password.
func (b *Bcrypt) Hash(password string) (string, error) {
	// Raw string bytes exactly as provided, no normalization.
	if len(password) < minPassBytes {
		return "", errors.New("password too short")
	}

	out, err := bcrypt.GenerateFromPassword([]byte(password), b.config.Cost)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Verify reports whether password matches hash. A mismatch is (false,
// nil); errors are reserved for malformed hashes.
func (b *Bcrypt) Verify(password, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, err
}
