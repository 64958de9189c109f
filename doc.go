// Package aurauth implements the account, session, and one-time-code engine
// behind the AURA storefront API: registration, login, JWT session tokens,
// email-verification and password-reset OTP flows, per-account shopping
// carts, and order placement against an external payment gateway.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// aurauth is the public surface. It exposes [Engine], [Builder], [Config],
// and the capability interfaces the caller must supply: [CredentialStore]
// and [OrderStore] (see the store sub-package for the Redis implementation),
// [Mailer] (see the mail sub-package), and [PaymentGateway]. Token signing
// lives in the jwt sub-package, password hashing in the password
// sub-package, and the HTTP request gate in the middleware sub-package.
//
// Two trust domains exist and never share a verification path: normal
// account sessions (claims-based, store-backed identity) and the single
// privileged admin credential pair (fixed-payload token). The middleware
// package exposes a separate guard for each.
//
// # Failure contract
//
// Engine methods return the sentinel errors declared in this package;
// callers match them with errors.Is. Best-effort notifications (welcome,
// login, logout, post-verification) swallow their own failures. OTP
// delivery is awaited: if the verification or reset email cannot be sent,
// the flow fails even though the code was stored.
package aurauth
