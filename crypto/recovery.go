package crypto

import (
	"encoding/base32"
	"fmt"
	"strings"

	"github.com/jmcleod/mediasafe/internal/util"
)

const (
	recoverySecretLen = 32
	recoveryGroupLen  = 4
)

var recoveryEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

var recoveryKEKInfo = []byte("mediasafe:recovery-kek:v1")

// RecoveryKey is an independent 256-bit secret used as an alternate KEK
// source for account recovery. Its display form is uppercase base32 grouped
// with separators for transcription. At most one recovery key is active per
// user; the wrapped master key it protects is replaced when a new one is
// generated.
type RecoveryKey interface {
	fmt.Stringer
	Bytes() []byte

	// Wipe zeroes the held secret. The key is unusable afterwards.
	Wipe()
}

type recoveryKey struct {
	secret []byte
}

func (r *recoveryKey) String() string {
	encoded := recoveryEncoding.EncodeToString(r.secret)
	var sb strings.Builder
	for i, c := range encoded {
		if i > 0 && i%recoveryGroupLen == 0 {
			sb.WriteByte('-')
		}
		sb.WriteRune(c)
	}
	return sb.String()
}

func (r *recoveryKey) Bytes() []byte {
	return util.CopyBytes(r.secret)
}

func (r *recoveryKey) Wipe() {
	util.WipeBytes(r.secret)
}

// NewRecoveryKey generates a new random recovery key.
func NewRecoveryKey() (RecoveryKey, error) {
	secret, err := util.RandomBytes(recoverySecretLen)
	if err != nil {
		return nil, fmt.Errorf("generating recovery secret: %w", err)
	}
	return &recoveryKey{secret: secret}, nil
}

// ParseRecoveryKey parses a recovery key from its display form. Parsing is
// case-insensitive and tolerates separators and whitespace inserted during
// transcription; any character outside the base32 alphabet is rejected.
func ParseRecoveryKey(display string) (RecoveryKey, error) {
	var sb strings.Builder
	for _, c := range display {
		switch {
		case c == '-' || c == ' ' || c == '\t' || c == '\n' || c == '\r':
			continue
		case c >= 'a' && c <= 'z':
			sb.WriteRune(c - ('a' - 'A'))
		case (c >= 'A' && c <= 'Z') || (c >= '2' && c <= '7'):
			sb.WriteRune(c)
		default:
			return nil, fmt.Errorf("%w: invalid recovery key character %q", ErrMalformed, c)
		}
	}

	secret, err := recoveryEncoding.DecodeString(sb.String())
	if err != nil {
		return nil, fmt.Errorf("%w: decoding recovery key: %v", ErrMalformed, err)
	}
	if len(secret) != recoverySecretLen {
		return nil, fmt.Errorf("%w: recovery key must decode to %d bytes, got %d", ErrMalformed, recoverySecretLen, len(secret))
	}
	return &recoveryKey{secret: secret}, nil
}

// DeriveRecoveryKEK expands a recovery key into a key-encryption key via
// HKDF-SHA-256, so the transcribable secret is never used directly as an
// AES key. The master key wrapped under this KEK is what gets persisted as
// the recovery copy.
func DeriveRecoveryKEK(rk RecoveryKey) ([]byte, error) {
	secret := rk.Bytes()
	defer util.WipeBytes(secret)
	kek, err := util.HKDF(secret, nil, recoveryKEKInfo)
	if err != nil {
		return nil, fmt.Errorf("deriving recovery KEK: %w", err)
	}
	return kek, nil
}
