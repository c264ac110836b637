package encryption

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"feedgrid/internal/config"
)

func newTestAgeEncryptor(t *testing.T) *AgeEncryptor {
	t.Helper()
	dir := t.TempDir()
	return NewAgeEncryptor(config.EncryptionConfig{
		Type:           "age",
		PublicKeyPath:  filepath.Join(dir, "keys", "feedgrid.pub"),
		PrivateKeyPath: filepath.Join(dir, "keys", "feedgrid.key"),
	})
}

func TestAgeEncryptor_SealAndOpen(t *testing.T) {
	enc := newTestAgeEncryptor(t)
	if err := enc.Setup("correct horse"); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if !enc.IsConfigured() {
		t.Fatal("IsConfigured() = false after Setup")
	}

	tests := []struct {
		name  string
		input []byte
	}{
		{"png header", []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")},
		{"empty", nil},
		{"large", bytes.Repeat([]byte{0xff, 0xd8, 0xff}, 100_000)},
	}

	dc, err := enc.Unlock("correct horse")
	if err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sealed bytes.Buffer
			if err := enc.Encrypt(bytes.NewReader(tt.input), &sealed); err != nil {
				t.Fatalf("Encrypt() error = %v", err)
			}
			if len(tt.input) > 0 && bytes.Contains(sealed.Bytes(), tt.input) {
				t.Error("ciphertext contains plaintext")
			}

			var opened bytes.Buffer
			if err := dc.Decrypt(&sealed, &opened); err != nil {
				t.Fatalf("Decrypt() error = %v", err)
			}
			if !bytes.Equal(opened.Bytes(), tt.input) {
				t.Errorf("Decrypt() returned %d bytes, want %d", opened.Len(), len(tt.input))
			}
		})
	}
}

func TestAgeEncryptor_WrongPassphrase(t *testing.T) {
	enc := newTestAgeEncryptor(t)
	if err := enc.Setup("right"); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if _, err := enc.Unlock("wrong"); err == nil {
		t.Fatal("Unlock() expected error for wrong passphrase")
	}
}

func TestAgeEncryptor_BeforeSetup(t *testing.T) {
	enc := newTestAgeEncryptor(t)

	if enc.IsConfigured() {
		t.Error("IsConfigured() = true before Setup")
	}
	if err := enc.Encrypt(strings.NewReader("x"), &bytes.Buffer{}); err == nil {
		t.Error("Encrypt() expected error before Setup")
	}
	if _, err := enc.Unlock("any"); err == nil {
		t.Error("Unlock() expected error before Setup")
	}
}

func TestAgeEncryptor_KeyFilePermissions(t *testing.T) {
	enc := newTestAgeEncryptor(t)
	if err := enc.Setup("pw"); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	info, err := os.Stat(enc.privateKeyPath)
	if err != nil {
		t.Fatalf("stat private key: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("private key mode = %o, want 600", perm)
	}

	pub, err := os.ReadFile(enc.publicKeyPath)
	if err != nil {
		t.Fatalf("read public key: %v", err)
	}
	if !strings.HasPrefix(string(pub), "age1") {
		t.Errorf("public key = %q, want age1 prefix", pub)
	}
}
