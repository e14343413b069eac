package idgen

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextOrderNoIsUnique(t *testing.T) {
	g, err := New(1)
	require.NoError(t, err)

	const workers, perWorker = 8, 500
	var mu sync.Mutex
	seen := make(map[string]struct{}, workers*perWorker)

	wg := new(sync.WaitGroup)
	wg.Add(workers)
	for range workers {
		go func() {
			defer wg.Done()
			for range perWorker {
				no := g.NextOrderNo()
				mu.Lock()
				seen[no] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*perWorker)
	for no := range seen {
		assert.True(t, strings.HasPrefix(no, orderNoPrefix))
		break
	}
}

func TestNewRejectsInvalidNode(t *testing.T) {
	_, err := New(-1)
	assert.Error(t, err)
}
