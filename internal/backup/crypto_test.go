package backup

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestDeriveKeyDeterminism(t *testing.T) {
	salt := []byte("1234567890abcdef")

	key1 := deriveKey("mypassphrase", salt)
	key2 := deriveKey("mypassphrase", salt)

	if !bytes.Equal(key1, key2) {
		t.Error("same passphrase+salt should produce same key")
	}
	if len(key1) != keySize {
		t.Errorf("key length = %d, want %d", len(key1), keySize)
	}
}

func TestDeriveKeyDifferentPassphrases(t *testing.T) {
	salt := []byte("1234567890abcdef")

	if bytes.Equal(deriveKey("password1", salt), deriveKey("password2", salt)) {
		t.Error("different passphrases should produce different keys")
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "source.db")
	encPath := filepath.Join(dir, "encrypted.db.enc")
	decPath := filepath.Join(dir, "decrypted.db")

	original := []byte("this stands in for a sqlite database file")
	if err := os.WriteFile(srcPath, original, 0600); err != nil {
		t.Fatalf("write source: %v", err)
	}

	if err := EncryptFile(srcPath, encPath, "correct horse"); err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	encrypted, _ := os.ReadFile(encPath)
	if bytes.Contains(encrypted, original) {
		t.Error("ciphertext should not contain the plaintext")
	}
	if len(encrypted) < saltSize+nonceSize+len(original) {
		t.Errorf("encrypted size = %d, too small", len(encrypted))
	}

	if err := DecryptFile(encPath, decPath, "correct horse"); err != nil {
		t.Fatalf("decrypt: %v", err)
	}

	decrypted, _ := os.ReadFile(decPath)
	if !bytes.Equal(decrypted, original) {
		t.Error("round trip should restore the original bytes")
	}
}

func TestEncryptFreshSaltPerFile(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "source.db")
	os.WriteFile(srcPath, []byte("same input"), 0600)

	enc1 := filepath.Join(dir, "one.enc")
	enc2 := filepath.Join(dir, "two.enc")
	if err := EncryptFile(srcPath, enc1, "pass"); err != nil {
		t.Fatalf("encrypt 1: %v", err)
	}
	if err := EncryptFile(srcPath, enc2, "pass"); err != nil {
		t.Fatalf("encrypt 2: %v", err)
	}

	data1, _ := os.ReadFile(enc1)
	data2, _ := os.ReadFile(enc2)
	if bytes.Equal(data1[:saltSize], data2[:saltSize]) {
		t.Error("each encryption should use a fresh salt")
	}
}

func TestDecryptWrongPassphrase(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "source.db")
	encPath := filepath.Join(dir, "encrypted.db.enc")
	os.WriteFile(srcPath, []byte("secret data"), 0600)

	if err := EncryptFile(srcPath, encPath, "right"); err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if err := DecryptFile(encPath, filepath.Join(dir, "out.db"), "wrong"); err == nil {
		t.Fatal("expected decryption failure with wrong passphrase")
	}
}

func TestDecryptTruncatedFile(t *testing.T) {
	dir := t.TempDir()
	encPath := filepath.Join(dir, "tiny.enc")
	os.WriteFile(encPath, []byte("short"), 0600)

	if err := DecryptFile(encPath, filepath.Join(dir, "out.db"), "pass"); err == nil {
		t.Fatal("expected error for truncated file")
	}
}
