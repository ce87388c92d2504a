// Package cache provides the bounded LRU result cache injected into the
// orchestration layer. Entries are keyed by a content hash of the input
// waveform, so repeated analyses of identical signals are served without
// recomputation.
package cache

import (
	"container/list"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
	"sync"

	"ayursense/domain/dosha"
	"ayursense/domain/pulse"
)

// DefaultCapacity bounds the cache when no explicit capacity is configured.
const DefaultCapacity = 256

// WaveformKey returns the content hash of a waveform: SHA-256 over the
// sampling rate and the raw bit patterns of every sample.
func WaveformKey(w pulse.RawWaveform) string {
	h := sha256.New()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(w.SamplingRate))
	h.Write(buf[:])
	for _, s := range w.Samples {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(s))
		h.Write(buf[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}

type entry struct {
	key    string
	result dosha.ModalityResult
}

// LRU is a fixed-capacity least-recently-used cache of modality results.
// Safe for concurrent use.
type LRU struct {
	mu       sync.Mutex
	capacity int
	order    *list.List
	items    map[string]*list.Element
}

// NewLRU creates an LRU cache with the given capacity. Non-positive
// capacities fall back to DefaultCapacity.
func NewLRU(capacity int) *LRU {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &LRU{
		capacity: capacity,
		order:    list.New(),
		items:    make(map[string]*list.Element),
	}
}

// Get returns the cached result for key, marking it recently used.
func (c *LRU) Get(key string) (dosha.ModalityResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return dosha.ModalityResult{}, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*entry).result, true
}

// Put stores a result, evicting the least recently used entry when full.
func (c *LRU) Put(key string, result dosha.ModalityResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		el.Value.(*entry).result = result
		c.order.MoveToFront(el)
		return
	}

	c.items[key] = c.order.PushFront(&entry{key: key, result: result})
	if c.order.Len() > c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.items, oldest.Value.(*entry).key)
		}
	}
}

// Len returns the current number of cached entries.
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
