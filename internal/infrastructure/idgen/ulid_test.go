package idgen

import (
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestULIDGenerator_SortsWithinMillisecond(t *testing.T) {
	g := NewULIDGenerator()
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return fixed }

	ids := make([]string, 100)
	for i := range ids {
		ids[i] = g.Generate()
	}

	assert.True(t, sort.StringsAreSorted(ids))
	parsed, err := ulid.Parse(ids[0])
	require.NoError(t, err)
	assert.Equal(t, ulid.Timestamp(fixed), parsed.Time())
}

func TestULIDGenerator_ConcurrentUnique(t *testing.T) {
	g := NewULIDGenerator()

	var (
		mu   sync.Mutex
		seen = make(map[string]bool)
		wg   sync.WaitGroup
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				id := g.Generate()
				mu.Lock()
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 1600)
}
