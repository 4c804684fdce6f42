package utils

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var hashPrefixes = []string{"$2a$", "$2b$", "$2y$"}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPassword(hashedPassword, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	return err == nil
}

// LooksHashed reports whether the value already carries a recognized bcrypt
// prefix. Persistence paths hash anything that does not, so a plaintext
// password can never reach the database.
func LooksHashed(password string) bool {
	for _, prefix := range hashPrefixes {
		if strings.HasPrefix(password, prefix) {
			return true
		}
	}
	return false
}

// EnsureHashed returns the value unchanged when it already looks like a hash,
// otherwise hashes it.
func EnsureHashed(password string) (string, error) {
	if password == "" || LooksHashed(password) {
		return password, nil
	}
	return HashPassword(password)
}
