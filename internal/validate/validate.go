// Package validate holds the field rules shared by the user and enquiry
// workflows.
package validate

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	phonePattern    = regexp.MustCompile(`^\+?[0-9]{8,15}$`)
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	phoneNoise      = strings.NewReplacer(" ", "", "\t", "", "\n", "", "\r", "", "(", "", ")", "", "-", "")

	v = newValidator()
)

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())
	_ = val.RegisterValidation("mobile", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	_ = val.RegisterValidation("username_chars", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	return val
}

// Email reports whether s is a syntactically valid address.
func Email(s string) bool {
	return v.Var(s, "required,email") == nil
}

// CleanPhone strips whitespace, parentheses and hyphens.
func CleanPhone(s string) string {
	return phoneNoise.Replace(s)
}

// Phone reports whether an already cleaned number looks like a mobile
// number: optional leading +, 8 to 15 digits.
func Phone(cleaned string) bool {
	return v.Var(cleaned, "required,mobile") == nil
}

// MaxLen reports whether s is at most n characters long.
func MaxLen(s string, n int) bool {
	return v.Var(s, "max="+strconv.Itoa(n)) == nil
}

// UsernameLength reports whether s is 3 to 20 characters long.
func UsernameLength(s string) bool {
	return v.Var(s, "min=3,max=20") == nil
}

// UsernameChars reports whether s only contains letters, digits and
// underscores.
func UsernameChars(s string) bool {
	return v.Var(s, "required,username_chars") == nil
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
}

// ParseDate accepts the calendar date forms clients send and returns the
// value in UTC. Impossible dates such as 2024-02-30 are rejected.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
