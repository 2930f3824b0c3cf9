package crypto

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestDeriveKEK(t *testing.T) {
	salt, err := GenerateSalt()
	if err != nil {
		t.Fatalf("GenerateSalt failed: %v", err)
	}

	key1, err := DeriveKEK("my-secure-passphrase", salt)
	if err != nil {
		t.Fatalf("DeriveKEK failed: %v", err)
	}
	if len(key1) != KeySize {
		t.Errorf("expected key length %d, got %d", KeySize, len(key1))
	}

	key2, err := DeriveKEK("my-secure-passphrase", salt)
	if err != nil {
		t.Fatalf("DeriveKEK failed: %v", err)
	}
	if !bytes.Equal(key1, key2) {
		t.Error("expected identical inputs to derive byte-equal keys")
	}

	key3, err := DeriveKEK("other-passphrase", salt)
	if err != nil {
		t.Fatalf("DeriveKEK failed: %v", err)
	}
	if bytes.Equal(key1, key3) {
		t.Error("expected different passphrase to derive a different key")
	}

	otherSalt, err := GenerateSalt()
	if err != nil {
		t.Fatalf("GenerateSalt failed: %v", err)
	}
	key4, err := DeriveKEK("my-secure-passphrase", otherSalt)
	if err != nil {
		t.Fatalf("DeriveKEK failed: %v", err)
	}
	if bytes.Equal(key1, key4) {
		t.Error("expected different salt to derive a different key")
	}
}

func TestDeriveKEK_RejectsBadSalt(t *testing.T) {
	_, err := DeriveKEK("passphrase", []byte("short"))
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("expected ErrMalformed for short salt, got %v", err)
	}
}

func TestGenerateMasterKey_Unique(t *testing.T) {
	k1, err := GenerateMasterKey()
	if err != nil {
		t.Fatalf("GenerateMasterKey failed: %v", err)
	}
	k2, err := GenerateMasterKey()
	if err != nil {
		t.Fatalf("GenerateMasterKey failed: %v", err)
	}
	if bytes.Equal(k1, k2) {
		t.Error("two generated master keys must not collide")
	}
}

func TestWrapUnwrapKey(t *testing.T) {
	inner, _ := GenerateMasterKey()
	wrapping, _ := GenerateMasterKey()

	blob, err := WrapKey(inner, wrapping)
	if err != nil {
		t.Fatalf("WrapKey failed: %v", err)
	}
	if len(blob) != KeySize+Overhead {
		t.Errorf("expected blob length %d, got %d", KeySize+Overhead, len(blob))
	}

	unwrapped, err := UnwrapKey(blob, wrapping)
	if err != nil {
		t.Fatalf("UnwrapKey failed: %v", err)
	}
	if !bytes.Equal(inner, unwrapped) {
		t.Error("unwrapped key does not match original")
	}

	t.Run("WrongKey", func(t *testing.T) {
		otherKey, _ := GenerateMasterKey()
		_, err := UnwrapKey(blob, otherKey)
		if !errors.Is(err, ErrAuthentication) {
			t.Errorf("expected ErrAuthentication, got %v", err)
		}
	})

	t.Run("TamperEveryByte", func(t *testing.T) {
		for i := range blob {
			tampered := append([]byte(nil), blob...)
			tampered[i] ^= 0x01
			if _, err := UnwrapKey(tampered, wrapping); err == nil {
				t.Fatalf("expected error after flipping byte %d, got nil", i)
			}
		}
	})

	t.Run("TooShort", func(t *testing.T) {
		_, err := UnwrapKey(blob[:Overhead-1], wrapping)
		if !errors.Is(err, ErrMalformed) {
			t.Errorf("expected ErrMalformed, got %v", err)
		}
	})
}

func TestRewrapKey(t *testing.T) {
	inner, _ := GenerateMasterKey()
	oldWrap, _ := GenerateMasterKey()
	newWrap, _ := GenerateMasterKey()

	blob, err := WrapKey(inner, oldWrap)
	if err != nil {
		t.Fatalf("WrapKey failed: %v", err)
	}

	rewrapped, err := RewrapKey(blob, oldWrap, newWrap)
	if err != nil {
		t.Fatalf("RewrapKey failed: %v", err)
	}

	unwrapped, err := UnwrapKey(rewrapped, newWrap)
	if err != nil {
		t.Fatalf("UnwrapKey after rewrap failed: %v", err)
	}
	if !bytes.Equal(inner, unwrapped) {
		t.Error("rewrapped key does not match original")
	}

	if _, err := UnwrapKey(rewrapped, oldWrap); !errors.Is(err, ErrAuthentication) {
		t.Errorf("expected old wrapping key to be rejected, got %v", err)
	}

	if _, err := RewrapKey(blob, newWrap, oldWrap); !errors.Is(err, ErrAuthentication) {
		t.Errorf("expected rewrap with wrong old key to fail, got %v", err)
	}
}

func TestEncryptDecryptBytes(t *testing.T) {
	rawKey, _ := GenerateMasterKey()

	payloads := map[string][]byte{
		"Empty": {},
		"Small": []byte("hello world"),
		"1MiB":  bytes.Repeat([]byte{0xA5}, 1<<20),
	}

	for name, plainText := range payloads {
		t.Run(name, func(t *testing.T) {
			blob, err := EncryptBytes(plainText, rawKey)
			if err != nil {
				t.Fatalf("EncryptBytes failed: %v", err)
			}
			if len(blob) != len(plainText)+Overhead {
				t.Errorf("expected blob length %d, got %d", len(plainText)+Overhead, len(blob))
			}

			decrypted, err := DecryptBytes(blob, rawKey)
			if err != nil {
				t.Fatalf("DecryptBytes failed: %v", err)
			}
			if !bytes.Equal(plainText, decrypted) {
				t.Error("decrypted payload does not match original")
			}
		})
	}

	t.Run("Tamper", func(t *testing.T) {
		blob, _ := EncryptBytes([]byte("payload"), rawKey)
		blob[len(blob)/2] ^= 0xFF
		_, err := DecryptBytes(blob, rawKey)
		if !errors.Is(err, ErrAuthentication) {
			t.Errorf("expected ErrAuthentication, got %v", err)
		}
	})
}

func TestRecoveryKey_RoundTrip(t *testing.T) {
	for i := 0; i < 100; i++ {
		rk, err := NewRecoveryKey()
		if err != nil {
			t.Fatalf("NewRecoveryKey failed: %v", err)
		}
		parsed, err := ParseRecoveryKey(rk.String())
		if err != nil {
			t.Fatalf("ParseRecoveryKey failed on %q: %v", rk.String(), err)
		}
		if !bytes.Equal(rk.Bytes(), parsed.Bytes()) {
			t.Fatalf("round trip mismatch for %q", rk.String())
		}
	}
}

func TestRecoveryKey_Wipe(t *testing.T) {
	rk, err := NewRecoveryKey()
	if err != nil {
		t.Fatalf("NewRecoveryKey failed: %v", err)
	}

	rk.Wipe()
	if !bytes.Equal(rk.Bytes(), make([]byte, len(rk.Bytes()))) {
		t.Error("expected secret to be zeroed after Wipe")
	}
}

func TestParseRecoveryKey_Tolerant(t *testing.T) {
	rk, err := NewRecoveryKey()
	if err != nil {
		t.Fatalf("NewRecoveryKey failed: %v", err)
	}
	display := rk.String()

	variants := map[string]string{
		"Lowercase":    strings.ToLower(display),
		"NoSeparators": strings.ReplaceAll(display, "-", ""),
		"Spaces":       strings.ReplaceAll(display, "-", " "),
		"Padded":       "  " + display + "\n",
	}

	for name, v := range variants {
		t.Run(name, func(t *testing.T) {
			parsed, err := ParseRecoveryKey(v)
			if err != nil {
				t.Fatalf("ParseRecoveryKey(%q) failed: %v", v, err)
			}
			if !bytes.Equal(rk.Bytes(), parsed.Bytes()) {
				t.Error("tolerant parse returned a different secret")
			}
		})
	}
}

func TestParseRecoveryKey_Invalid(t *testing.T) {
	tests := []struct {
		name string
		str  string
	}{
		{"Empty", ""},
		{"Digit0", "0AAA-BBBB"},
		{"Digit1", "1AAA-BBBB"},
		{"Punctuation", "AB!D-EFGH"},
		{"TooShort", "ABCD-EFGH"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRecoveryKey(tt.str)
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("ParseRecoveryKey(%q) expected ErrMalformed, got %v", tt.str, err)
			}
		})
	}
}

func TestDeriveRecoveryKEK(t *testing.T) {
	rk, err := NewRecoveryKey()
	if err != nil {
		t.Fatalf("NewRecoveryKey failed: %v", err)
	}

	kek1, err := DeriveRecoveryKEK(rk)
	if err != nil {
		t.Fatalf("DeriveRecoveryKEK failed: %v", err)
	}
	if len(kek1) != KeySize {
		t.Errorf("expected KEK length %d, got %d", KeySize, len(kek1))
	}

	parsed, err := ParseRecoveryKey(rk.String())
	if err != nil {
		t.Fatalf("ParseRecoveryKey failed: %v", err)
	}
	kek2, err := DeriveRecoveryKEK(parsed)
	if err != nil {
		t.Fatalf("DeriveRecoveryKEK failed: %v", err)
	}
	if !bytes.Equal(kek1, kek2) {
		t.Error("expected recovery KEK derivation to be deterministic")
	}

	// The KEK must not equal the raw secret.
	if bytes.Equal(kek1, rk.Bytes()) {
		t.Error("recovery KEK must differ from the raw secret")
	}

	// A wrapped master key survives the transcription round trip.
	master, _ := GenerateMasterKey()
	blob, err := WrapKey(master, kek1)
	if err != nil {
		t.Fatalf("WrapKey failed: %v", err)
	}
	unwrapped, err := UnwrapKey(blob, kek2)
	if err != nil {
		t.Fatalf("UnwrapKey failed: %v", err)
	}
	if !bytes.Equal(master, unwrapped) {
		t.Error("master key recovered via recovery KEK does not match")
	}
}
