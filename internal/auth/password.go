package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is the longest password bcrypt reads in full. Longer
// input would be truncated, so it is refused instead.
const MaxPasswordBytes = 72

// HashPassword hashes plaintext password using bcrypt at the default cost.
func HashPassword(password string) (string, error) {
	return HashPasswordCost(password, bcrypt.DefaultCost)
}

// HashPasswordCost hashes plaintext password using bcrypt at the given cost.
func HashPasswordCost(password string, cost int) (string, error) {
	if len(password) == 0 {
		return "", errors.New("password is empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword compares plaintext password with stored hash.
func VerifyPassword(hash, password string) error {
	if hash == "" {
		return errors.New("password hash is empty")
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// PasswordCoster is implemented by lookups that know the bcrypt cost of the
// hashes they store.
type PasswordCoster interface {
	PasswordCost() int
}

// newDummyHash hashes a throwaway password at cost. Comparing against it
// takes as long as comparing against a real hash of the same cost.
func newDummyHash(cost int) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte("not-a-real-password"), cost)
}
