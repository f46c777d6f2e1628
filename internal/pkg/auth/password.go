package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the work factor for stored password hashes
const BcryptCost = 12

// PasswordHasher hashes and verifies passwords
type PasswordHasher interface {
	Hash(password string) (string, error)
	Check(hashedPassword, password string) bool
}

// BcryptHasher implements PasswordHasher with bcrypt
type BcryptHasher struct {
	Cost int
}

// NewBcryptHasher returns a hasher using BcryptCost
func NewBcryptHasher() *BcryptHasher {
	return &BcryptHasher{Cost: BcryptCost}
}

// Hash hashes password
func (h *BcryptHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = BcryptCost
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// Check reports whether password matches hashedPassword
func (h *BcryptHasher) Check(hashedPassword, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}

// HashPassword hashes password with the default cost
func HashPassword(password string) (string, error) {
	return NewBcryptHasher().Hash(password)
}

// CheckPassword verifies password against hashedPassword
func CheckPassword(hashedPassword, password string) bool {
	return NewBcryptHasher().Check(hashedPassword, password)
}
