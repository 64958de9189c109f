// Package store provides the Redis-backed implementation of the
// aurauth credential and order stores.
//
// # Layout
//
// Accounts are JSON records under <prefix>:acct:<id>, with a
// <prefix>:email:<email> index mapping the email, exactly as stored, to
// the account id. Orders live under <prefix>:order:<id>, with a per-user id
// list at <prefix>:orders:<userID> and a global list at
// <prefix>:orders:all.
//
// # Concurrency
//
// Every read-modify-write on a single account record runs as an
// optimistic WATCH transaction with bounded retries, so concurrent code
// consumes and cart mutations against the same account serialize on the
// record version rather than on a process-wide lock. Code consumption
// clears the slot and applies the flow's effect in one MULTI/EXEC.
//
// # Error contract
//
// The package returns the aurauth sentinels (ErrUserNotFound,
// ErrAccountExists, ErrCodeInvalid, ErrOrderNotFound) for the documented
// conditions and wraps every Redis transport failure in
// aurauth.ErrStoreUnavailable.
package store
