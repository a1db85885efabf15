package internal

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strconv"
)

const (
	pinMin = 100000
	pinMax = 999999
)

// NewPIN returns a six digit PIN drawn uniformly from [100000, 999999].
func NewPIN() (string, error) {
	span := big.NewInt(pinMax - pinMin + 1)
	n, err := rand.Int(rand.Reader, span)
	if err != nil {
		return "", err
	}

	pin := strconv.FormatInt(n.Int64()+pinMin, 10)
	if len(pin) != 6 {
		return "", errors.New("invalid pin generation length")
	}
	return pin, nil
}

// IsPIN reports whether value has the shape of an issued PIN.
func IsPIN(value string) bool {
	if len(value) != 6 || value[0] == '0' {
		return false
	}
	for i := 0; i < len(value); i++ {
		if value[i] < '0' || value[i] > '9' {
			return false
		}
	}
	return true
}
