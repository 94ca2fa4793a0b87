package services

import "crypto/rand"

// storeCodeAlphabet deliberately excludes 0, 1, I and O so codes survive
// being read out loud over a counter.
const storeCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
const storeCodeLength = 4

// GenerateStoreCode draws 4 characters uniformly from the 32-symbol
// alphabet. Uniqueness is not checked against existing merchants.
func GenerateStoreCode() (string, error) {
	buf := make([]byte, storeCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	// 256 is a multiple of 32, the modulo introduces no bias
	for i := range buf {
		buf[i] = storeCodeAlphabet[int(buf[i])%len(storeCodeAlphabet)]
	}
	return string(buf), nil
}
