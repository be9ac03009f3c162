package ice

import (
	"fmt"
	"io"

	"github.com/pion/stun"
)

// ice-char = ALPHA / DIGIT / "+" / "/", exactly 64 runes so every byte
// maps to a rune without bias once masked to six bits.
const runesAlpha = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789+/"

const (
	lenUFrag = 16
	lenPwd   = 32
)

func randSeq(r io.Reader, n int) (string, error) {
	raw := make([]byte, n)
	if _, err := io.ReadFull(r, raw); err != nil {
		return "", fmt.Errorf("%w: %v", errRand, err)
	}
	b := make([]byte, n)
	for i := range raw {
		b[i] = runesAlpha[raw[i]&0x3f]
	}
	return string(b), nil
}

func randUint64(r io.Reader) (uint64, error) {
	raw := make([]byte, 8)
	if _, err := io.ReadFull(r, raw); err != nil {
		return 0, fmt.Errorf("%w: %v", errRand, err)
	}
	return bin.Uint64(raw), nil
}

func randTransactionID(r io.Reader) (id [stun.TransactionIDSize]byte, err error) {
	if _, err = io.ReadFull(r, id[:]); err != nil {
		err = fmt.Errorf("%w: %v", errRand, err)
	}
	return id, err
}
