package principal

import "golang.org/x/crypto/bcrypt"

// HashSecret hashes a plaintext credential for storage.
func HashSecret(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifySecret reports whether plain matches the stored hash. The error
// detail is deliberately discarded; a mismatch and a malformed hash look
// identical to callers.
func VerifySecret(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
