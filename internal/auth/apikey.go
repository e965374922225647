package auth

import "golang.org/x/crypto/bcrypt"

// Operator keys for the reconciliation console are configured as bcrypt
// hashes; the raw key never touches disk or env on the server side.

func HashOperatorKey(key string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	return string(b), err
}

func CheckOperatorKey(key string, hashes []string) bool {
	for _, h := range hashes {
		if bcrypt.CompareHashAndPassword([]byte(h), []byte(key)) == nil {
			return true
		}
	}
	return false
}
