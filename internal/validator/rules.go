package validator

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

const (
	MaxTitleLen       = 200
	MaxDescriptionLen = 10000
	MaxCommentLen     = 4000
	MinPasswordLen    = 8
	MaxPasswordLen    = 128
)

// notblank rejects strings that are empty after trimming whitespace
func notBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// printable rejects control characters other than newlines and tabs
func printable(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if !utf8.ValidString(s) {
		return false
	}
	for _, r := range s {
		if r == '\n' || r == '\r' || r == '\t' {
			continue
		}
		if unicode.IsControl(r) {
			return false
		}
	}
	return true
}

// contest_password accepts an empty string (no password) or one of sane length
func contestPassword(fl validator.FieldLevel) bool {
	n := utf8.RuneCountInString(fl.Field().String())
	return n == 0 || (n >= MinPasswordLen && n <= MaxPasswordLen)
}
