package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// unusablePrefix marks a stored password that can never match.
const unusablePrefix = "!"

// dummyHash is compared against when no user matched, so a failed login
// costs the same whether or not the email exists.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy-password"), bcrypt.DefaultCost)

var hashCost = bcrypt.DefaultCost

// HashPassword returns a bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// UnusablePassword returns a stored value that CheckPassword never accepts.
func UnusablePassword() string {
	b := make([]byte, 20)
	_, _ = rand.Read(b)
	return unusablePrefix + hex.EncodeToString(b)
}

// IsUsable reports whether the stored value is a real password hash.
func IsUsable(stored string) bool {
	return stored != "" && !strings.HasPrefix(stored, unusablePrefix)
}

// CheckPassword reports whether password matches the stored hash.
func CheckPassword(stored, password string) bool {
	if !IsUsable(stored) {
		// keep the cost uniform for unusable passwords too
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return false
	}
	err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(password))
	return err == nil
}

// BurnPasswordCheck spends one bcrypt comparison without a stored hash.
func BurnPasswordCheck(password string) {
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}
