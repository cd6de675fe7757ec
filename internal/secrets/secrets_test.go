package secrets

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestKeeperRoundTrip(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "secret.key")
	keeper, err := LoadKeeper(keyPath)
	if err != nil {
		t.Fatalf("LoadKeeper() error: %v", err)
	}

	sealed, err := keeper.Encrypt("hunter2")
	if err != nil {
		t.Fatalf("Encrypt() error: %v", err)
	}
	if sealed == "hunter2" {
		t.Fatal("ciphertext equals plaintext")
	}

	plain, err := keeper.Decrypt(sealed)
	if err != nil {
		t.Fatalf("Decrypt() error: %v", err)
	}
	if plain != "hunter2" {
		t.Errorf("Decrypt() = %q, want %q", plain, "hunter2")
	}
}

func TestKeeperPersistsKey(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "secret.key")

	first, err := LoadKeeper(keyPath)
	if err != nil {
		t.Fatalf("LoadKeeper() error: %v", err)
	}
	sealed, err := first.Encrypt("value")
	if err != nil {
		t.Fatalf("Encrypt() error: %v", err)
	}

	// A second keeper from the same file must open the same ciphertexts.
	second, err := LoadKeeper(keyPath)
	if err != nil {
		t.Fatalf("reloading keeper: %v", err)
	}
	plain, err := second.Decrypt(sealed)
	if err != nil {
		t.Fatalf("Decrypt() with reloaded key: %v", err)
	}
	if plain != "value" {
		t.Errorf("Decrypt() = %q, want %q", plain, "value")
	}
}

func TestDecryptFailsLoudly(t *testing.T) {
	keeper, err := LoadKeeper(filepath.Join(t.TempDir(), "secret.key"))
	if err != nil {
		t.Fatalf("LoadKeeper() error: %v", err)
	}

	for _, tt := range []struct {
		name       string
		ciphertext string
	}{
		{"not base64", "%%%"},
		{"too short", "YWJj"},
		{"tampered", func() string {
			sealed, _ := keeper.Encrypt("secret")
			return sealed[:len(sealed)-4] + "AAAA"
		}()},
	} {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := keeper.Decrypt(tt.ciphertext); !errors.Is(err, ErrDecryptFailed) {
				t.Errorf("Decrypt(%s) error = %v, want ErrDecryptFailed", tt.name, err)
			}
		})
	}
}

func TestLoadKeeperBadFile(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "secret.key")
	if err := os.WriteFile(keyPath, []byte("not a key"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadKeeper(keyPath); !errors.Is(err, ErrBadKeyFile) {
		t.Errorf("LoadKeeper(bad file) error = %v, want ErrBadKeyFile", err)
	}
}
