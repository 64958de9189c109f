// Package jwt wraps github.com/golang-jwt/jwt/v5 behind the two token
// shapes aurauth issues: account session tokens and the privileged admin
// token. The shapes are disjoint trust domains — each parse method rejects
// the other domain's tokens — and verification is self-contained: a parse
// needs no store or network access.
package jwt
