package utils

import (
	"net/mail"
	"strings"
)

// IsValidEmail reports whether email is a single bare address.
func IsValidEmail(email string) bool {
	if !strings.Contains(email, "@") || !strings.Contains(email, ".") {
		return false
	}
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
