package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	transferCodeLength = 8
	pinLength          = 4
)

// randomDigits returns n decimal digits from crypto/rand. Leading zeros are
// kept so the code space stays uniform.
func randomDigits(n int) (string, error) {
	digits := make([]byte, n)
	for i := range digits {
		v, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("generating digit: %w", err)
		}
		digits[i] = '0' + byte(v.Int64())
	}
	return string(digits), nil
}

// NewTransferCode returns a candidate transfer code. Uniqueness is the
// caller's concern; collisions are re-rolled against storage.
func NewTransferCode() (string, error) {
	return randomDigits(transferCodeLength)
}

// NewPin returns a one-time numeric PIN. It is shown to the sender exactly
// once and persisted only as a hash.
func NewPin() (string, error) {
	return randomDigits(pinLength)
}
