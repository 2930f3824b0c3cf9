// Package crypto provides the key-derivation and authenticated-encryption
// primitives for the mediasafe key hierarchy: password-based KEK derivation,
// random key and salt generation, key wrapping, and bulk encryption of
// object payloads. All functions are stateless and safe for concurrent use.
package crypto

import (
	"fmt"

	"github.com/jmcleod/mediasafe/internal/util"
)

const (
	// KeySize is the size in bytes of master keys, content keys, and KEKs.
	KeySize = util.AESKeySize

	// SaltSize is the size in bytes of per-user KDF salts.
	SaltSize = 32

	// Overhead is the fixed per-message expansion of EncryptBytes and
	// WrapKey: a 12-byte nonce plus a 16-byte authentication tag.
	Overhead = util.GCMNonceSize + util.GCMTagSize
)

// DeriveKEK derives a 256-bit key-encryption key from a password and a
// per-user salt using PBKDF2-HMAC-SHA-256 with a fixed iteration count.
// The password is NFKD-normalized first so equivalent Unicode spellings
// derive the same key. The call is intentionally expensive; callers on a
// latency-sensitive path should consult the key cache instead.
func DeriveKEK(password string, salt []byte) ([]byte, error) {
	if len(salt) != SaltSize {
		return nil, fmt.Errorf("%w: salt must be %d bytes, got %d", ErrMalformed, SaltSize, len(salt))
	}
	return util.DerivePBKDF2Key(util.Normalize(password), salt), nil
}

// GenerateMasterKey generates a new random 256-bit master key.
func GenerateMasterKey() ([]byte, error) {
	return util.NewAESKey()
}

// GenerateSalt generates a new random 256-bit KDF salt.
func GenerateSalt() ([]byte, error) {
	return util.RandomBytes(SaltSize)
}

// WrapKey encrypts a key under a wrapping key using AES-256-GCM.
// The returned blob is nonce || ciphertext || tag.
func WrapKey(rawKey, wrappingKey []byte) ([]byte, error) {
	if len(rawKey) != KeySize {
		return nil, fmt.Errorf("%w: key must be %d bytes, got %d", ErrMalformed, KeySize, len(rawKey))
	}
	blob, err := util.EncryptAES(rawKey, wrappingKey)
	if err != nil {
		return nil, fmt.Errorf("wrapping key: %w", err)
	}
	return blob, nil
}

// UnwrapKey decrypts a blob produced by WrapKey. It returns
// ErrAuthentication if the tag does not verify (wrong wrapping key or
// corrupted blob); callers must not fall back to unauthenticated acceptance.
func UnwrapKey(blob, wrappingKey []byte) ([]byte, error) {
	if len(blob) < Overhead {
		return nil, fmt.Errorf("%w: wrapped key blob too short (%d bytes)", ErrMalformed, len(blob))
	}
	rawKey, err := util.DecryptAES(blob, wrappingKey)
	if err != nil {
		return nil, fmt.Errorf("%w: unwrapping key", ErrAuthentication)
	}
	return rawKey, nil
}

// RewrapKey re-encrypts a wrapped key under a new wrapping key without
// returning the inner key to the caller. Used on password change, where the
// master key is re-wrapped rather than regenerated.
func RewrapKey(blob, oldWrappingKey, newWrappingKey []byte) ([]byte, error) {
	rawKey, err := UnwrapKey(blob, oldWrappingKey)
	if err != nil {
		return nil, err
	}
	defer util.WipeBytes(rawKey)
	return WrapKey(rawKey, newWrappingKey)
}

// EncryptBytes encrypts an arbitrary-length payload, including the empty
// payload, under the given key. The returned blob is nonce || ciphertext || tag
// and is exactly Overhead bytes longer than the plaintext.
func EncryptBytes(plainText, rawKey []byte) ([]byte, error) {
	blob, err := util.EncryptAES(plainText, rawKey)
	if err != nil {
		return nil, fmt.Errorf("encrypting payload: %w", err)
	}
	return blob, nil
}

// DecryptBytes decrypts a blob produced by EncryptBytes. Tampered
// ciphertext fails deterministically with ErrAuthentication.
func DecryptBytes(blob, rawKey []byte) ([]byte, error) {
	if len(blob) < Overhead {
		return nil, fmt.Errorf("%w: encrypted blob too short (%d bytes)", ErrMalformed, len(blob))
	}
	plainText, err := util.DecryptAES(blob, rawKey)
	if err != nil {
		return nil, fmt.Errorf("%w: decrypting payload", ErrAuthentication)
	}
	return plainText, nil
}
