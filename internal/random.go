package internal

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"math/big"
	"strconv"

	"github.com/google/uuid"
)

// NewOTP returns a numeric code with exactly the given digit count,
// uniformly sampled with a non-zero leading digit (6 digits spans
// 100000–999999).
func NewOTP(digits int) (string, error) {
	if digits < 4 || digits > 10 {
		return "", errors.New("invalid otp digits")
	}

	low := int64(1)
	for i := 1; i < digits; i++ {
		low *= 10
	}
	span := big.NewInt(9 * low)

	n, err := rand.Int(rand.Reader, span)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(low+n.Int64(), 10), nil
}

// HashCode returns the SHA-256 digest of a one-time code. Codes are
// persisted only in hashed form; comparison stays exact-equality.
func HashCode(code string) []byte {
	sum := sha256.Sum256([]byte(code))
	return sum[:]
}

// NewAccountID returns a fresh opaque account identifier.
func NewAccountID() string {
	return uuid.NewString()
}

// NewOrderID returns a fresh opaque order identifier.
func NewOrderID() string {
	return uuid.NewString()
}
