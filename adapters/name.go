package adapters

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashFunc returns a hex digest of s.
type HashFunc func(s string) string

func SHA256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

var sanitizer = strings.NewReplacer(
	"/", "__",
	"?", "_q_",
	"&", "_and_",
	"=", "-",
	"{", "-",
	"}", "-",
)

// Sanitize turns an endpoint into a readable file name prefix.
func Sanitize(endpoint string) string {
	return sanitizer.Replace(strings.TrimPrefix(endpoint, "/"))
}

// Stem returns "<sanitized>__<hash8>". The hash is taken over the raw endpoint,
// so endpoints that sanitize to the same prefix still get distinct stems.
func Stem(endpoint string, hash HashFunc) string {
	if hash == nil {
		hash = SHA256Hex
	}
	digest := hash(endpoint)
	if len(digest) > 8 {
		digest = digest[:8]
	}
	return Sanitize(endpoint) + "__" + digest
}
