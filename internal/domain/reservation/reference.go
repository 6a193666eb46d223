package reservation

import (
	"crypto/rand"
	"math/big"
	"strings"
)

const (
	referencePrefix   = "MM-"
	referenceLength   = 8
	referenceAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789" // no 0/O or 1/I
)

// NewReference returns a customer-facing code such as MM-7KQ2XW4D.
func NewReference() (string, error) {
	buf := make([]byte, referenceLength)
	max := big.NewInt(int64(len(referenceAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = referenceAlphabet[n.Int64()]
	}
	return referencePrefix + string(buf), nil
}

func IsReference(value string) bool {
	code, ok := strings.CutPrefix(value, referencePrefix)
	if !ok || len(code) != referenceLength {
		return false
	}
	for _, r := range code {
		if !strings.ContainsRune(referenceAlphabet, r) {
			return false
		}
	}
	return true
}
