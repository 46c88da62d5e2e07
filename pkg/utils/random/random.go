package random

import (
	"crypto/rand"
	"math/big"
)

// Ambiguous glyphs (0/O, 1/I) are left out so codes can be read aloud.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const JoinCodeLength = 6

func JoinCode() string {
	return Code(JoinCodeLength)
}

func Code(length int) string {
	if length <= 0 {
		return ""
	}
	max := big.NewInt(int64(len(codeAlphabet)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			out[i] = codeAlphabet[0]
			continue
		}
		out[i] = codeAlphabet[n.Int64()]
	}
	return string(out)
}
