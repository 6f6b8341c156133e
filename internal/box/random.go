package box

import (
	"crypto/rand"
	"math/big"
)

const alnum = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// randomToken produces n alphanumeric characters for the auto-generated
// alias. This one call site is the single deliberate
// exception to build-determinism.
func randomToken(n int) string {
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(alnum))))
		if err != nil {
			// crypto/rand.Reader failing is a fatal environment
			// problem, not something a build should silently paper
			// over with a weaker source.
			panic(err)
		}
		b[i] = alnum[idx.Int64()]
	}
	return string(b)
}
