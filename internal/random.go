package internal

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"math/big"
	"strconv"
)

const tempTokenRawSize = 32

// NewTempToken returns a cryptographically random opaque token value,
// base64url encoded without padding.
func NewTempToken() (string, error) {
	var raw [tempTokenRawSize]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw[:]), nil
}

// HashToken derives the at-rest representation of a single-use token:
// hex-encoded sha-256 of the plaintext value.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// NewOTP returns a uniformly random numeric code in [100000, 999999].
// The range excludes leading zeros so the code survives numeric transport.
func NewOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}

	code := n.Int64() + 100000
	if code < 100000 || code > 999999 {
		return "", errors.New("invalid otp generation range")
	}
	return strconv.FormatInt(code, 10), nil
}
