package store

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// Reference ids look like INC-251120-4821: a prefix, the YYMMDD date and a
// four digit suffix. The suffix starts random but is collision-checked
// against the owning store, walking forward until a free slot is found, so
// ids stay unique within a session without a global counter.
func newRefID(prefix string, now time.Time, taken func(string) bool) string {
	date := now.UTC().Format("060102")
	suffix := 1000 + rand.IntN(9000)
	for i := 0; i < 9000; i++ {
		id := fmt.Sprintf("%s-%s-%04d", prefix, date, suffix)
		if taken == nil || !taken(id) {
			return id
		}
		suffix++
		if suffix > 9999 {
			suffix = 1000
		}
	}
	// 9000 same-day ids exhausted; not reachable at this scale.
	return fmt.Sprintf("%s-%s-%04d", prefix, date, suffix)
}
