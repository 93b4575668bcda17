package clanker

import (
	"crypto/rand"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// GenerateSalt returns 32 bytes from the OS CSPRNG as 0x-prefixed hex.
func GenerateSalt() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hexutil.Encode(b), nil
}
