package editor

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeyGeneratorDistinctTimestamps(t *testing.T) {
	base := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	gen := NewKeyGenerator(fixedClock(base, base.Add(time.Second)))

	first := gen.Next("STU")
	second := gen.Next("STU")

	assert.Equal(t, "STU20240102030405", first)
	assert.Equal(t, "STU20240102030406", second)
}

func TestKeyGeneratorSameTimestampGetsSuffix(t *testing.T) {
	base := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	gen := NewKeyGenerator(fixedClock(base))

	assert.Equal(t, "STU20240102030405", gen.Next("STU"))
	assert.Equal(t, "STU20240102030405-2", gen.Next("STU"))
	assert.Equal(t, "STU20240102030405-3", gen.Next("STU"))
	assert.Equal(t, "FAC20240102030405", gen.Next("FAC"))
}

func TestKeyGeneratorConcurrentCallersNeverCollide(t *testing.T) {
	base := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	gen := NewKeyGenerator(func() time.Time { return base })

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[string]struct{})
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := gen.Next("FCL")
			mu.Lock()
			seen[key] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 50)
}
