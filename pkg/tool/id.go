package tool

import (
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
)

func GenerateUUIDV7() string {
	return uuid.Must(uuid.NewV7()).String()
}

// NumericOrderID returns a positive int64 for banks that only accept numeric
// order ids. Millisecond time keeps ids increasing; the random suffix keeps
// ids issued in the same millisecond apart.
func NumericOrderID(now time.Time) int64 {
	return now.UnixMilli()*1000 + rand.Int64N(1000)
}

// ShortReference returns an uppercase reference code like "PG-0192F3A4B7C1"
// that users can type into a bank transfer description.
func ShortReference(prefix string) string {
	id := strings.ReplaceAll(GenerateUUIDV7(), "-", "")
	// the tail of a v7 uuid is random; the head is the timestamp
	return prefix + "-" + strings.ToUpper(id[len(id)-12:])
}
