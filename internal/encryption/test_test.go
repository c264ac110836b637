package encryption

import (
	"bytes"
	"strings"
	"testing"
)

func TestTestEncryptor_SealAndOpen(t *testing.T) {
	enc := NewTestEncryptor()
	if err := enc.Setup(""); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if !enc.setupCalled {
		t.Error("setupCalled = false after Setup")
	}

	input := []byte("GIF89a pixels")
	var sealed bytes.Buffer
	if err := enc.Encrypt(bytes.NewReader(input), &sealed); err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	if !bytes.HasPrefix(sealed.Bytes(), testHeader) {
		t.Errorf("sealed = %q, want %q prefix", sealed.Bytes(), testHeader)
	}

	dc, err := enc.Unlock("")
	if err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}
	var opened bytes.Buffer
	if err := dc.Decrypt(&sealed, &opened); err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if !bytes.Equal(opened.Bytes(), input) {
		t.Errorf("Decrypt() = %q, want %q", opened.Bytes(), input)
	}
}

func TestTestEncryptor_Deterministic(t *testing.T) {
	enc := NewTestEncryptor()
	var a, b bytes.Buffer
	if err := enc.Encrypt(strings.NewReader("same"), &a); err != nil {
		t.Fatal(err)
	}
	if err := enc.Encrypt(strings.NewReader("same"), &b); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Error("Encrypt() not deterministic")
	}
}

func TestTestDecryptionContext_BadHeader(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"truncated", "FG"},
		{"wrong header", "PLAINTEXT-not-sealed"},
	}

	dc := &TestDecryptionContext{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := dc.Decrypt(strings.NewReader(tt.input), &bytes.Buffer{}); err == nil {
				t.Error("Decrypt() expected error")
			}
		})
	}
}
