package scan

import (
	"sync"
	"time"

	"go-qr-webapp/internal/clock"
)

// DedupeCache suppresses a payload seen again within the cooldown
type DedupeCache struct {
	mu       sync.Mutex
	seen     map[string]time.Time
	cooldown time.Duration
	clock    clock.Clock
}

// NewDedupeCache creates a cache with the given cooldown, 2s if not positive
func NewDedupeCache(cooldown time.Duration, clk clock.Clock) *DedupeCache {
	if cooldown <= 0 {
		cooldown = 2 * time.Second
	}
	return &DedupeCache{
		seen:     make(map[string]time.Time),
		cooldown: cooldown,
		clock:    clock.OrReal(clk),
	}
}

// Check records payload and reports whether it was already seen within
// the cooldown. Expired entries are dropped on the way.
func (dc *DedupeCache) Check(payload string) bool {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	now := dc.clock.Now()
	for key, at := range dc.seen {
		if now.Sub(at) >= dc.cooldown {
			delete(dc.seen, key)
		}
	}

	if _, ok := dc.seen[payload]; ok {
		return true
	}
	dc.seen[payload] = now
	return false
}

// Len returns the number of payloads inside their cooldown
func (dc *DedupeCache) Len() int {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	return len(dc.seen)
}

func (dc *DedupeCache) Cooldown() time.Duration {
	return dc.cooldown
}

// Clear forgets every payload
func (dc *DedupeCache) Clear() {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	dc.seen = make(map[string]time.Time)
}
