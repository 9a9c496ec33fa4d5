package security

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const verifyCodeAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ1234567890"

// NewVerificationCode returns a uniformly random code over a 62-symbol
// alphabet. At the default length of 15 the keyspace is ~2^89, far
// beyond online guessing against any realistic token volume.
func NewVerificationCode(length int) (string, error) {
	if length < 15 {
		return "", fmt.Errorf("verification code length %d below minimum 15", length)
	}
	max := big.NewInt(int64(len(verifyCodeAlphabet)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = verifyCodeAlphabet[n.Int64()]
	}
	return string(out), nil
}
