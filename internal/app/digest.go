package app

import (
	"golang.org/x/crypto/bcrypt"
)

// BcryptDigest implements domain.Digest with bcrypt.
type BcryptDigest struct {
	Cost int
}

// NewBcryptDigest returns a digest using cost, or bcrypt.DefaultCost when
// cost is out of range.
func NewBcryptDigest(cost int) BcryptDigest {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return BcryptDigest{Cost: cost}
}

// Sum hashes secret.
func (d BcryptDigest) Sum(secret string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(secret), d.Cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Matches reports whether secret hashes to digest.
func (d BcryptDigest) Matches(digest, secret string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(secret)) == nil
}
