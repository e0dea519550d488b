package util

import (
	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes an operator password with bcrypt. billingctl uses it
// to produce ADMIN_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedPassword), nil
}

func CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
