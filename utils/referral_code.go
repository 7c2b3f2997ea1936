package utils

import (
	"crypto/rand"
	"encoding/base32"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateReferralCode builds a referral code from a referrer-derived prefix,
// a base36 timestamp and a short random suffix.
// Format: {PREFIX}-{TS36}{RANDOM}, e.g. 4F2A-LQ3K9XB7CD.
func GenerateReferralCode(referrerID string) (string, error) {
	prefix := referrerPrefix(referrerID)
	ts := strings.ToUpper(strconv.FormatInt(time.Now().UnixMilli(), 36))

	random, err := randomCode(4)
	if err != nil {
		return "", err
	}

	return prefix + "-" + ts + random, nil
}

// GenerateFallbackCode returns a pure-random code for when prefix+timestamp
// generation keeps colliding.
func GenerateFallbackCode() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "REF-" + raw[:12]
}

// referrerPrefix derives a short uppercase slug from the referrer id. The
// tail of an ObjectID hex string carries its counter bytes, so it is the most
// distinctive part.
func referrerPrefix(referrerID string) string {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, referrerID)
	cleaned = strings.ToUpper(cleaned)

	if len(cleaned) > 4 {
		cleaned = cleaned[len(cleaned)-4:]
	}
	if cleaned == "" {
		cleaned = "REF"
	}
	return cleaned
}

// randomCode returns n uppercase base32 characters from crypto/rand.
func randomCode(n int) (string, error) {
	randomBytes := make([]byte, n)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", err
	}

	s := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(randomBytes)
	if len(s) > n {
		s = s[:n]
	}
	return strings.ToUpper(s), nil
}
