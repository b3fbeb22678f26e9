// Package security provides one-way hashing for passwords and security
// answers using argon2id.
package security

import (
	"strings"

	"github.com/matthewhartstonge/argon2"
)

// HashPassword hashes a plaintext credential with argon2id and returns the
// encoded digest.
func HashPassword(password string) (string, error) {
	cfg := argon2.DefaultConfig()

	encoded, err := cfg.HashEncoded([]byte(password))
	if err != nil {
		return "", err
	}

	return string(encoded), nil
}

// VerifyPassword reports whether the plaintext credential matches the encoded
// digest.
func VerifyPassword(password, encoded string) (bool, error) {
	return argon2.VerifyEncoded([]byte(password), []byte(encoded))
}

// HashAnswer hashes a security answer. Answers are normalized to lower case
// with surrounding whitespace removed so that "  Rex " and "rex" compare
// equal.
func HashAnswer(answer string) (string, error) {
	return HashPassword(normalizeAnswer(answer))
}

// VerifyAnswer reports whether the security answer matches the encoded digest.
func VerifyAnswer(answer, encoded string) (bool, error) {
	return VerifyPassword(normalizeAnswer(answer), encoded)
}

func normalizeAnswer(answer string) string {
	return strings.ToLower(strings.TrimSpace(answer))
}
