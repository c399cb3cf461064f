package msgid

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
)

func init() {
	source := rand.NewSource(time.Now().UnixNano())
	entropy = ulid.Monotonic(rand.New(source), 0)
}

// New returns a msg_* ULID string. Successive calls return lexicographically
// increasing ids, which is what makes log ids sort in append order.
func New() string {
	mu.Lock()
	id := ulid.MustNew(ulid.Timestamp(time.Now()), entropy)
	mu.Unlock()
	return "msg_" + strings.ToLower(id.String())
}

// IsValid reports whether the string is a msg_* ULID.
func IsValid(value string) bool {
	if !strings.HasPrefix(value, "msg_") {
		return false
	}
	_, err := Parse(value)
	return err == nil
}

// Parse strips the msg_ prefix and returns the ULID.
func Parse(value string) (ulid.ULID, error) {
	value = strings.TrimSpace(value)
	value = strings.TrimPrefix(value, "msg_")
	return ulid.Parse(strings.ToUpper(value))
}
