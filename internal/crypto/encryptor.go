// Package crypto provides AES-256-GCM encryption and decryption functionality
// for securing OAuth credentials at rest, such as access tokens and refresh
// tokens stored in Redis.
//
// The package uses AES-256-GCM (Galois/Counter Mode) which provides both
// confidentiality and authenticity. Each encryption operation uses a unique
// random nonce to ensure that encrypting the same plaintext multiple times
// produces different ciphertexts.
//
// Example usage:
//
//	encryptor, err := crypto.NewCredentialEncryptor(os.Getenv("CREDENTIALS_ENCRYPTION_KEY"))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Encrypt a credential payload before storage
//	encrypted, err := encryptor.EncryptJSON(credentials)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Decrypt when reading back
//	err = encryptor.DecryptJSON(encrypted, &credentials)
//	if err != nil {
//		log.Fatal(err)
//	}
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"

	"golang.org/x/crypto/pbkdf2"

	"hubspot-connector/internal/common/errors"
)

// CredentialEncryptor handles encryption and decryption of stored OAuth
// credentials using AES-256-GCM. It provides authenticated encryption, which
// means both confidentiality and integrity protection for the encrypted data.
//
// The encryptor is safe for concurrent use by multiple goroutines.
type CredentialEncryptor struct {
	key []byte // 32-byte AES-256 encryption key
}

// NewCredentialEncryptor creates a new CredentialEncryptor with the provided
// encryption key.
//
// The key parameter is processed using PBKDF2 key derivation to ensure it's
// exactly 32 bytes for AES-256 and cryptographically strong regardless of
// input length.
//
// For security, use a strong passphrase or random key. The key should be
// stored securely (e.g., in environment variables) and never hardcoded in
// source code.
//
// Parameters:
//   - key: The encryption key as a string. Must not be empty.
//
// Returns:
//   - *CredentialEncryptor: A new encryptor instance
//   - error: An error if the key is empty
func NewCredentialEncryptor(key string) (*CredentialEncryptor, error) {
	if key == "" {
		return nil, errors.ValidationError("encryption key cannot be empty")
	}

	// Use PBKDF2 to derive a proper 32-byte key from the input
	salt := []byte("hubspot-connector-salt") // Static salt for deterministic key derivation
	derivedKey := pbkdf2.Key([]byte(key), salt, 10000, 32, sha256.New)

	return &CredentialEncryptor{key: derivedKey}, nil
}

// Encrypt encrypts a plaintext string using AES-256-GCM and returns the result
// as a base64-encoded string suitable for storage.
//
// The encryption process:
// 1. Generates a cryptographically random nonce for each encryption
// 2. Encrypts the plaintext using AES-256-GCM with the nonce
// 3. Prepends the nonce to the ciphertext
// 4. Encodes the entire result (nonce + ciphertext) as base64
//
// Empty strings are returned as empty strings without encryption.
// Each call to Encrypt with the same plaintext will produce different
// ciphertexts due to the random nonce.
func (e *CredentialEncryptor) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	block, err := aes.NewCipher(e.key)
	if err != nil {
		return "", errors.InternalError("failed to create cipher", err)
	}

	// Create GCM mode
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", errors.InternalError("failed to create GCM", err)
	}

	// Create nonce
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", errors.InternalError("failed to create nonce", err)
	}

	// Encrypt data
	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)

	// Encode to base64 for storage
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decrypt decrypts a base64-encoded ciphertext that was produced by the
// Encrypt method and returns the original plaintext string.
//
// The function performs integrity verification as part of the GCM decryption,
// so tampered or corrupted ciphertexts will result in an error.
//
// Empty strings are returned as empty strings without decryption.
func (e *CredentialEncryptor) Decrypt(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}

	// Decode from base64
	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", errors.InternalError("failed to decode ciphertext", err)
	}

	block, err := aes.NewCipher(e.key)
	if err != nil {
		return "", errors.InternalError("failed to create cipher", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", errors.InternalError("failed to create GCM", err)
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", errors.ValidationError("ciphertext too short")
	}

	nonce, ciphertextBytes := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertextBytes, nil)
	if err != nil {
		return "", errors.InternalError("failed to decrypt", err)
	}

	return string(plaintext), nil
}

// EncryptJSON encrypts a JSON-serializable object by marshaling it to JSON
// and then encrypting the resulting string.
func (e *CredentialEncryptor) EncryptJSON(v interface{}) (string, error) {
	// Marshal to JSON first
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return "", errors.InternalError("failed to marshal JSON", err)
	}

	// Encrypt the JSON string
	return e.Encrypt(string(jsonBytes))
}

// DecryptJSON decrypts a ciphertext produced by EncryptJSON and unmarshals
// the resulting JSON into dest.
func (e *CredentialEncryptor) DecryptJSON(ciphertext string, dest interface{}) error {
	plaintext, err := e.Decrypt(ciphertext)
	if err != nil {
		return err
	}

	if err := json.Unmarshal([]byte(plaintext), dest); err != nil {
		return errors.InternalError("failed to unmarshal JSON", err)
	}

	return nil
}
