package hasher

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hasher produces salted one-way hashes of short secrets such as room codes
type Hasher interface {
	Hash(secret string) (string, error)

	// Matches reports whether secret produced hash
	Matches(hash, secret string) bool
}

// Bcrypt implements Hasher with golang.org/x/crypto/bcrypt
type Bcrypt struct {
	cost int
}

// NewBcrypt creates a bcrypt hasher. A cost of 0 selects bcrypt.DefaultCost.
func NewBcrypt(cost int) *Bcrypt {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Bcrypt{cost: cost}
}

// Hash returns the bcrypt hash of secret
func (b *Bcrypt) Hash(secret string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(secret), b.cost)
	if err != nil {
		return "", fmt.Errorf("hashing secret: %w", err)
	}
	return string(h), nil
}

// Matches compares secret against a bcrypt hash
func (b *Bcrypt) Matches(hash, secret string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}
