package ids

import (
	"crypto/rand"
	"fmt"
	mathrand "math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0)
)

// New returns a lexicographically sortable identifier suitable for storage keys.
func New() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

const displayAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Display returns a short human-readable id such as "TL-7K2MQX4R".
// The alphabet omits easily confused characters.
func Display(prefix string) string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand is documented to never fail on supported platforms
		panic(fmt.Sprintf("ids: read entropy: %v", err))
	}
	out := make([]byte, 8)
	for i, b := range buf {
		out[i] = displayAlphabet[int(b)%len(displayAlphabet)]
	}
	return prefix + "-" + string(out)
}
