// Package password provides the one-way credential hasher used by the
// engine. Hashes are bcrypt; the plaintext is never stored and the hash
// is computed exactly once, at registration or reset.
package password
