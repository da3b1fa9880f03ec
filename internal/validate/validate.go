// Package validate holds the pure field validators used by the ordering dialog.
package validate

import (
	"strings"
	"unicode"

	validator "github.com/go-playground/validator/v10"
)

var emailValidator = validator.New(validator.WithRequiredStructEnabled())

// IsValidName reports whether text is a usable customer name: non-empty after
// trimming and free of digit characters.
func IsValidName(text string) bool {
	name := strings.TrimSpace(text)
	if name == "" {
		return false
	}

	for _, r := range name {
		if unicode.IsDigit(r) {
			return false
		}
	}

	return true
}

// IsValidAddress reports whether text parses as a postal address carrying a
// street number, a street name and a zip code.
func IsValidAddress(text string) bool {
	return ParseAddress(text) != nil
}

// IsValidEmail reports whether text is a syntactically plausible email address.
func IsValidEmail(text string) bool {
	email := strings.TrimSpace(text)
	if email == "" {
		return false
	}

	return emailValidator.Var(email, "email") == nil
}
