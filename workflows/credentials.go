package workflows

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"
	"time"
)

const passwordAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789!@#$%^&*"

const tempPasswordLength = 12

// GenerateTempPassword returns a one-time password that satisfies the
// provider's strength requirements.
func GenerateTempPassword() string {
	var sb strings.Builder
	max := big.NewInt(int64(len(passwordAlphabet)))
	for i := 0; i < tempPasswordLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the OS entropy source is broken
			panic("crypto/rand failed: " + err.Error())
		}
		sb.WriteByte(passwordAlphabet[n.Int64()])
	}
	return sb.String()
}

// MakeUniqueSlug lowercases the organisation name, collapses non-alphanumeric
// runs to single dashes and appends a nanosecond timestamp, which guarantees
// uniqueness without a lookup against existing slugs.
func MakeUniqueSlug(name string) string {
	var sb strings.Builder
	lastDash := true // suppress a leading dash
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
			lastDash = false
		} else if !lastDash {
			sb.WriteByte('-')
			lastDash = true
		}
	}
	base := strings.TrimSuffix(sb.String(), "-")
	return base + "-" + strconv.FormatInt(time.Now().UnixNano(), 10)
}

// makeUsername derives a unique username from the email's local part plus a
// base36 timestamp suffix.
func makeUsername(email string) string {
	local := email
	if at := strings.IndexByte(email, '@'); at > 0 {
		local = email[:at]
	}
	var sb strings.Builder
	for _, r := range local {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		}
	}
	base := sb.String()
	if base == "" {
		base = "user"
	}
	return base + "-" + strconv.FormatInt(time.Now().UnixNano(), 36)
}

// splitName splits a free-text contact name into first/last for the provider,
// falling back to a generic pair when empty.
func splitName(raw, fallbackFirst, fallbackLast string) (string, string) {
	fields := strings.Fields(strings.TrimSpace(raw))
	if len(fields) == 0 {
		return fallbackFirst, fallbackLast
	}
	if len(fields) == 1 {
		return fields[0], fallbackLast
	}
	return fields[0], strings.Join(fields[1:], " ")
}
