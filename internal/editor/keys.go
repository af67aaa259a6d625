package editor

import (
	"fmt"
	"sync"
	"time"
)

const keyTimeLayout = "20060102150405"

// KeyGenerator synthesises record keys as prefix + timestamp. Keys repeating within
// one process get a per-prefix sequence suffix so they never collide.
type KeyGenerator struct {
	mu   sync.Mutex
	now  func() time.Time
	last map[string]string
	seq  map[string]int
}

// NewKeyGenerator returns a generator reading the wall clock when now is nil.
func NewKeyGenerator(now func() time.Time) *KeyGenerator {
	if now == nil {
		now = time.Now
	}
	return &KeyGenerator{
		now:  now,
		last: make(map[string]string),
		seq:  make(map[string]int),
	}
}

// Next returns a fresh key for the prefix.
func (g *KeyGenerator) Next(prefix string) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	base := prefix + g.now().Format(keyTimeLayout)
	if g.last[prefix] != base {
		g.last[prefix] = base
		g.seq[prefix] = 1
		return base
	}
	g.seq[prefix]++
	return fmt.Sprintf("%s-%d", base, g.seq[prefix])
}
