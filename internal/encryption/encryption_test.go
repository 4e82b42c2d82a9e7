package encryption

import (
	"encoding/base64"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	enc, key, err := NewEncryptor("")
	if err != nil {
		t.Fatalf("NewEncryptor: %v", err)
	}
	if key == "" {
		t.Fatal("expected generated key to be returned")
	}

	ciphertext, err := enc.Encrypt("lastfm-api-key-value")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if ciphertext == "lastfm-api-key-value" {
		t.Fatal("ciphertext equals plaintext")
	}

	plaintext, err := enc.Decrypt(ciphertext)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if plaintext != "lastfm-api-key-value" {
		t.Errorf("round trip mismatch: %q", plaintext)
	}
}

func TestReusableKey(t *testing.T) {
	_, key, err := NewEncryptor("")
	if err != nil {
		t.Fatalf("NewEncryptor: %v", err)
	}

	enc1, _, err := NewEncryptor(key)
	if err != nil {
		t.Fatalf("NewEncryptor with key: %v", err)
	}
	enc2, _, err := NewEncryptor(key)
	if err != nil {
		t.Fatalf("NewEncryptor with key: %v", err)
	}

	ct, err := enc1.Encrypt("secret")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	pt, err := enc2.Decrypt(ct)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if pt != "secret" {
		t.Errorf("expected %q, got %q", "secret", pt)
	}
}

func TestWrongKeyFails(t *testing.T) {
	enc1, _, err := NewEncryptor("")
	if err != nil {
		t.Fatalf("NewEncryptor: %v", err)
	}
	enc2, _, err := NewEncryptor("")
	if err != nil {
		t.Fatalf("NewEncryptor: %v", err)
	}

	ct, err := enc1.Encrypt("secret")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if _, err := enc2.Decrypt(ct); err == nil {
		t.Error("expected decryption with wrong key to fail")
	}
}

func TestInvalidKeyLength(t *testing.T) {
	short := base64.StdEncoding.EncodeToString([]byte("too-short"))
	if _, _, err := NewEncryptor(short); err == nil {
		t.Error("expected error for short key")
	}
}
