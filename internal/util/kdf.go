package util

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/pbkdf2"
)

// PBKDF2Iterations is chosen so a single derivation costs on the order of
// 100ms on commodity hardware. Changing it invalidates every key derived
// with the old count, so it is fixed for the lifetime of stored key material.
const PBKDF2Iterations = 600_000

const KDFKeyLength = 32

func DerivePBKDF2Key(passphrase string, salt []byte) []byte {
	return pbkdf2.Key([]byte(passphrase), salt, PBKDF2Iterations, KDFKeyLength, sha256.New)
}

func HKDF(seed []byte, salt []byte, info []byte) ([]byte, error) {
	h := hkdf.New(sha256.New, seed, salt, info)
	k := make([]byte, KDFKeyLength)
	if _, err := io.ReadFull(h, k); err != nil {
		return nil, fmt.Errorf("reading from HKDF: %w", err)
	}
	return k, nil
}
