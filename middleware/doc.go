// Package middleware exposes HTTP middleware adapters enforcing session
// and admin authentication on top of aurauth.Engine verification.
//
// # Guards
//
//   - [Guard] — resolves a session token from the request, verifies it
//     through Engine.VerifySession, and injects the identity into the
//     request context.
//   - [AdminGuard] — same shape for the privileged trust domain via
//     Engine.VerifyAdmin.
//
// # Token resolution
//
// Guard accepts tokens from three carriers, in fixed precedence order:
// the session cookie, the Authorization header (with or without the
// Bearer prefix), and a bare "token" header. The first carrier that is
// present wins; later carriers are not consulted as fallbacks.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT
// implement authentication logic itself — all decisions are delegated to
// the Engine.
package middleware
