package loadengine

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/FairForge/loadforge/internal/clock"
)

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// newID builds a test id of the form test_<decimal ms>_<7 base36
// chars> (spec §4.7/§6). The random suffix disambiguates ids started
// within the same millisecond.
func newID(clk clock.Clock) string {
	ms := clk.Now().UnixMilli()
	suffix := make([]byte, 7)
	for i := range suffix {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(idAlphabet))))
		if err != nil {
			// crypto/rand failure is not recoverable in-process; fall
			// back to a fixed char rather than panic the scheduler.
			suffix[i] = idAlphabet[0]
			continue
		}
		suffix[i] = idAlphabet[n.Int64()]
	}
	return fmt.Sprintf("test_%d_%s", ms, suffix)
}
