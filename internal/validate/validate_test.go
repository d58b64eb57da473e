package validate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEmail(t *testing.T) {
	assert.True(t, Email("guest@goaresort.com"))
	assert.True(t, Email("A.B+tag@Example.co.in"))
	assert.False(t, Email(""))
	assert.False(t, Email("guest@"))
	assert.False(t, Email("not an email"))
}

func TestPhone(t *testing.T) {
	cases := map[string]bool{
		"1234567890":        true,
		"+91 98765-43210":   true,
		"(555) 555-5555":    true,
		"91234567":          true,
		"+65 9123 4567":     true,
		"1234567":           false,
		"12345":             false,
		"98765abcde":        false,
		"+1234567890123456": false,
	}
	for raw, want := range cases {
		assert.Equal(t, want, Phone(CleanPhone(raw)), raw)
	}
	assert.Equal(t, "+919876543210", CleanPhone("+91 (98765) 43-210"))
}

func TestMaxLen(t *testing.T) {
	assert.True(t, MaxLen("", 3))
	assert.True(t, MaxLen("ñññ", 3))
	assert.False(t, MaxLen("abcd", 3))
}

func TestUsername(t *testing.T) {
	assert.True(t, UsernameLength("abc"))
	assert.True(t, UsernameLength("abcdefghijklmnopqrst"))
	assert.False(t, UsernameLength("ab"))
	assert.False(t, UsernameLength("abcdefghijklmnopqrstu"))

	assert.True(t, UsernameChars("test_user_01"))
	assert.False(t, UsernameChars("test-user"))
	assert.False(t, UsernameChars("test user"))
}

func TestParseDate(t *testing.T) {
	got, ok := ParseDate("2024-12-25")
	assert.True(t, ok)
	assert.Equal(t, time.Date(2024, 12, 25, 0, 0, 0, 0, time.UTC), got)

	got, ok = ParseDate("2024-12-25T10:30:00+05:30")
	assert.True(t, ok)
	assert.Equal(t, time.Date(2024, 12, 25, 5, 0, 0, 0, time.UTC), got)

	for _, bad := range []string{"", "not-a-date", "2024-02-30", "25-12-2024x"} {
		_, ok := ParseDate(bad)
		assert.False(t, ok, bad)
	}
}
