// Package hashing provides one-way password hashing for credential storage.
package hashing

// Hasher hashes plaintext passwords into opaque encoded strings and verifies
// candidates against them. Implementations must be slow, salted, one-way
// functions; the stored form is never reversible.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) (bool, error)
}
