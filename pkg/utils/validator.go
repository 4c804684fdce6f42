package utils

import (
	"errors"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

var (
	nonDigitRe = regexp.MustCompile(`\D`)
	emailRe    = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`)
)

// ErrInvalidRF is returned when a login does not reduce to a valid functional
// registration number.
var ErrInvalidRF = errors.New("Login inválido. Informe RF (7 ou 8 dígitos).")

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// NormalizeRF strips every non-digit from the login and requires the result to
// be exactly 7 or 8 digits, the shape of an RF (registro funcional).
func NormalizeRF(login string) (string, error) {
	digits := nonDigitRe.ReplaceAllString(login, "")
	if len(digits) != 7 && len(digits) != 8 {
		return "", ErrInvalidRF
	}
	return digits, nil
}

func IsValidEmail(email string) bool {
	email = strings.TrimSpace(strings.ToLower(email))
	return emailRe.MatchString(email)
}
