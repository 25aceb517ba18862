package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// OTPTTL is how long a one-time code stays valid after issuance.
const OTPTTL = 10 * time.Minute

var otpMax = big.NewInt(1000000)

// GenerateOTP returns a uniformly random six-digit decimal code, zero-padded
// so "000042" stays six characters on the wire.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, otpMax)
	if err != nil {
		return "", fmt.Errorf("error generating OTP: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
