// Package secrets handles encrypted venue credentials. Values in .env are
// secretbox ciphertexts, base64-encoded, sealed with a locally generated
// key file. A decryption failure is fatal at startup: the bot must never
// begin trading with partially initialized credentials.
package secrets

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"os"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	keySize   = 32
	nonceSize = 24
)

// Package errors
var (
	ErrBadKeyFile    = errors.New("key file is malformed")
	ErrDecryptFailed = errors.New("decryption failed")
)

// Keeper seals and opens credential values with a symmetric key.
type Keeper struct {
	key [keySize]byte
}

// LoadKeeper reads the key file, creating a fresh key when the file does
// not exist yet.
func LoadKeeper(path string) (*Keeper, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return createKeyFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading key file: %w", err)
	}

	raw, err := base64.StdEncoding.DecodeString(string(data))
	if err != nil || len(raw) != keySize {
		return nil, fmt.Errorf("%s: %w", path, ErrBadKeyFile)
	}

	k := &Keeper{}
	copy(k.key[:], raw)
	return k, nil
}

func createKeyFile(path string) (*Keeper, error) {
	k := &Keeper{}
	if _, err := rand.Read(k.key[:]); err != nil {
		return nil, fmt.Errorf("generating key: %w", err)
	}

	encoded := base64.StdEncoding.EncodeToString(k.key[:])
	if err := os.WriteFile(path, []byte(encoded), 0o600); err != nil {
		return nil, fmt.Errorf("writing key file: %w", err)
	}
	return k, nil
}

// Encrypt seals a plaintext value for storage in .env.
func (k *Keeper) Encrypt(plaintext string) (string, error) {
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}

	sealed := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &k.key)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a sealed value. Unlike a best-effort secret loader this
// returns an error on any failure so the caller can abort startup.
func (k *Keeper) Decrypt(ciphertext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: bad base64", ErrDecryptFailed)
	}
	if len(raw) < nonceSize {
		return "", fmt.Errorf("%w: ciphertext too short", ErrDecryptFailed)
	}

	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])

	plaintext, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &k.key)
	if !ok {
		return "", ErrDecryptFailed
	}
	return string(plaintext), nil
}
