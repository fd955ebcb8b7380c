package hash

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MinCost keeps the fake API fast in tests; real hashes use bcrypt.DefaultCost.
const MinCost = bcrypt.MinCost

func HashPassword(password string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
