//go:build race

package auth

import "golang.org/x/crypto/bcrypt"

func passwordHashCost() int {
	// race builds are slow, keep bcrypt at its default cost
	return bcrypt.DefaultCost
}
