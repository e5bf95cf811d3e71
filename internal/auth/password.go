package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrEmptyPassword indicates a hash or comparison was attempted with no password.
var ErrEmptyPassword = errors.New("auth: password must not be empty")

// PasswordHasher wraps bcrypt hashing with a configured cost.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher constructs a hasher, falling back to the bcrypt default cost
// when the supplied cost is out of range.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash derives a bcrypt hash from the plain password.
func (h *PasswordHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Compare reports whether the plain password matches the stored hash.
// A mismatch is not an error; only unexpected bcrypt failures are.
func (h *PasswordHasher) Compare(hash, password string) (bool, error) {
	if password == "" || hash == "" {
		return false, ErrEmptyPassword
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
