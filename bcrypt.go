package portal

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is a deliberately slow work factor; login and
// reset flows hash at most once per request.
const DefaultBcryptCost = 14

// BcryptHasher is the default PasswordAuthenticator
type BcryptHasher struct {
	cost int
}

var _ PasswordAuthenticator = (*BcryptHasher)(nil)

// NewBcryptHasher creates a hasher with the given cost, falling back
// to DefaultBcryptCost for out-of-range values
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &BcryptHasher{cost: cost}
}

// HashPassword will generate a password digest
func (b *BcryptHasher) HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), b.cost)
	return string(h), err
}

// ComparePasswordAndHash will validate the given cleartext password
// matches the stored digest
func (b *BcryptHasher) ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatchedHashAndPassword
		}
		return err
	}
	return nil
}

// HashPassword hashes with the default cost
func HashPassword(password string) (string, error) {
	return NewBcryptHasher(DefaultBcryptCost).HashPassword(password)
}

// ComparePasswordAndHash validates against the default hasher
func ComparePasswordAndHash(password, hash string) error {
	return NewBcryptHasher(DefaultBcryptCost).ComparePasswordAndHash(password, hash)
}
