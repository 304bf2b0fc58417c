package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"
)

// New records store bcrypt hashes. Records migrated from the old system
// carry a tagged salted PBKDF2 hash instead; the tag lets CheckPassword
// verify both without ever decrypting anything.
const legacyPrefix = "pbkdf2$"

const (
	legacyIterations = 100000
	legacyKeyLen     = 32
	legacySaltLen    = 16
)

// HashPassword hashes a password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword verifies a password against a stored hash, dispatching on
// the per-record scheme tag.
func CheckPassword(password, hash string) bool {
	if strings.HasPrefix(hash, legacyPrefix) {
		return checkLegacy(password, hash)
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// LegacyHashPassword produces a hash in the migrated-record format:
// pbkdf2$<iterations>$<salt>$<key>, PBKDF2-HMAC-SHA256.
func LegacyHashPassword(password string) (string, error) {
	salt := make([]byte, legacySaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	key := pbkdf2.Key([]byte(password), salt, legacyIterations, legacyKeyLen, sha256.New)
	return fmt.Sprintf("%s%d$%s$%s",
		legacyPrefix,
		legacyIterations,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func checkLegacy(password, hash string) bool {
	parts := strings.Split(strings.TrimPrefix(hash, legacyPrefix), "$")
	if len(parts) != 3 {
		return false
	}

	var iterations int
	if _, err := fmt.Sscanf(parts[0], "%d", &iterations); err != nil || iterations <= 0 {
		return false
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[1])
	if err != nil {
		return false
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[2])
	if err != nil {
		return false
	}

	got := pbkdf2.Key([]byte(password), salt, iterations, len(want), sha256.New)
	return subtle.ConstantTimeCompare(got, want) == 1
}
