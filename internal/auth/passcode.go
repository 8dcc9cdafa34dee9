package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"
)

// PasscodeDigits is the length of generated passcodes.
const PasscodeDigits = 6

var passcodeSpace = big.NewInt(1_000_000)

// GeneratePasscode returns a uniformly random 6-digit numeric code such as "483920".
func GeneratePasscode() (string, error) {
	n, err := rand.Int(rand.Reader, passcodeSpace)
	if err != nil {
		return "", fmt.Errorf("failed to generate passcode: %w", err)
	}
	return fmt.Sprintf("%0*d", PasscodeDigits, n.Int64()), nil
}

// HashPasscode returns the hex SHA-256 digest stored in place of the code.
func HashPasscode(code string) string {
	h := sha256.Sum256([]byte(code))
	return hex.EncodeToString(h[:])
}

// PasscodeMatches compares the digest of code with storedHash in constant time.
func PasscodeMatches(code, storedHash string) bool {
	if code == "" || storedHash == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(HashPasscode(code)), []byte(storedHash)) == 1
}
