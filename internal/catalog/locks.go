package catalog

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// lockStripes is the number of mutexes game ids are spread over.
const lockStripes = 64

// keyedMutex serializes work per key using a fixed set of striped mutexes.
// Two keys may share a stripe; that only costs concurrency.
type keyedMutex struct {
	stripes [lockStripes]sync.Mutex
}

// lock acquires the stripe for key and returns it for unlocking.
func (k *keyedMutex) lock(key string) *sync.Mutex {
	m := &k.stripes[xxhash.Sum64String(key)%lockStripes]
	m.Lock()
	return m
}
