package crypto

import "errors"

var (
	// ErrAuthentication indicates an authentication tag failed to verify:
	// wrong key, wrong password, or tampered ciphertext. It is never
	// collapsed into an empty result so callers can tell "wrong password"
	// apart from "no data".
	ErrAuthentication = errors.New("authentication failed")

	// ErrMalformed indicates input that cannot possibly be valid, such as a
	// blob too short to contain a nonce and tag, or a recovery key with
	// characters outside the base32 alphabet.
	ErrMalformed = errors.New("malformed input")
)
