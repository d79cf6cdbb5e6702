package contest

import (
	"fmt"

	"github.com/alexedwards/argon2id"
)

func HashPassword(password string) (string, error) {
	hash, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		return "", fmt.Errorf("failed to hash contest password: %w", err)
	}

	return hash, nil
}

// CheckPassword reports whether password matches hash. An empty password or a
// malformed hash never matches.
func CheckPassword(password, hash string) bool {
	if password == "" || hash == "" {
		return false
	}

	match, err := argon2id.ComparePasswordAndHash(password, hash)
	if err != nil {
		return false
	}

	return match
}
