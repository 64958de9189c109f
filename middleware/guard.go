package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	aurauth "github.com/aura-labs/aurauth"
)

// Guard enforces session authentication. On success the resolved
// identity is attached to the request context; handlers read it back
// with aurauth.IdentityFromContext.
//
// A token that verifies but belongs to no stored account answers 404,
// not 401: the credential was honest, the subject is gone.
func Guard(engine *aurauth.Engine, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				reject(w, http.StatusUnauthorized, "Not Authorized Login Again")
				return
			}

			token, ok := ResolveToken(r, cookieName)
			if !ok {
				reject(w, http.StatusUnauthorized, "Not Authorized Login Again")
				return
			}

			identity, err := engine.VerifySession(r.Context(), token)
			if err != nil {
				if errors.Is(err, aurauth.ErrUserNotFound) {
					reject(w, http.StatusNotFound, "User not found")
					return
				}
				if errors.Is(err, aurauth.ErrStoreUnavailable) {
					reject(w, http.StatusInternalServerError, "Something went wrong")
					return
				}
				reject(w, http.StatusUnauthorized, "Not Authorized Login Again")
				return
			}

			ctx := aurauth.WithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminGuard enforces the privileged trust domain. Admin tokens travel
// in the same carriers as session tokens.
func AdminGuard(engine *aurauth.Engine, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				reject(w, http.StatusUnauthorized, "Not Authorized Login Again")
				return
			}

			token, ok := ResolveToken(r, cookieName)
			if !ok {
				reject(w, http.StatusUnauthorized, "Not Authorized Login Again")
				return
			}

			if err := engine.VerifyAdmin(token); err != nil {
				reject(w, http.StatusUnauthorized, "Not Authorized Login Again")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// tokenResolver extracts a candidate token from one carrier. The second
// return is false when the carrier is absent from the request entirely,
// in which case the next resolver is tried.
type tokenResolver func(*http.Request) (string, bool)

func resolvers(cookieName string) []tokenResolver {
	return []tokenResolver{
		func(r *http.Request) (string, bool) {
			if cookieName == "" {
				return "", false
			}
			c, err := r.Cookie(cookieName)
			if err != nil {
				return "", false
			}
			return c.Value, true
		},
		func(r *http.Request) (string, bool) {
			auth := r.Header.Get("Authorization")
			if auth == "" {
				return "", false
			}
			return strings.TrimPrefix(auth, "Bearer "), true
		},
		func(r *http.Request) (string, bool) {
			raw := r.Header.Get("token")
			return raw, raw != ""
		},
	}
}

// ResolveToken walks the carriers in precedence order and sanitizes the
// first one present. A present-but-unusable carrier does not fall
// through to later ones. Placeholder values that JS clients serialize
// into real requests ("null", "undefined", "") count as unusable.
// Exported for handlers that read the token best-effort outside a guard
// (logout must work with no or a stale token).
func ResolveToken(r *http.Request, cookieName string) (string, bool) {
	for _, resolve := range resolvers(cookieName) {
		if token, ok := resolve(r); ok {
			return sanitizeToken(token)
		}
	}
	return "", false
}

func sanitizeToken(token string) (string, bool) {
	token = strings.TrimSpace(token)
	switch token {
	case "", "null", "undefined":
		return "", false
	}
	return token, true
}

func reject(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"message": message,
	})
}
