package application

import (
	"strings"
	"sync"
	"time"
)

// agendaCache stores recently materialized agenda ranges to avoid repeated
// materialization for identical queries while the schedule is unchanged. The
// TTL bounds staleness after writes that bypass Invalidate.
type agendaCache struct {
	mu         sync.RWMutex
	now        func() time.Time
	ttl        time.Duration
	maxEntries int
	entries    map[string]agendaCacheEntry
}

type agendaCacheEntry struct {
	days      []AgendaDay
	expiresAt time.Time
}

func newAgendaCache(ttl time.Duration, maxEntries int, now func() time.Time) *agendaCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if maxEntries <= 0 {
		maxEntries = 128
	}
	if now == nil {
		now = time.Now
	}
	return &agendaCache{
		now:        now,
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]agendaCacheEntry),
	}
}

func (c *agendaCache) Get(key string) ([]AgendaDay, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}
	return cloneAgendaDays(entry.days), true
}

func (c *agendaCache) Store(key string, days []AgendaDay) {
	if c == nil {
		return
	}
	cloned := cloneAgendaDays(days)
	expiry := c.now().Add(c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cleanupLocked()
	if len(c.entries) >= c.maxEntries {
		c.evictOneLocked()
	}
	c.entries[key] = agendaCacheEntry{days: cloned, expiresAt: expiry}
}

// InvalidateSchedule drops every cached range of one schedule.
func (c *agendaCache) InvalidateSchedule(scheduleID string) {
	if c == nil {
		return
	}
	prefix := scheduleID + "|"
	c.mu.Lock()
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
	c.mu.Unlock()
}

func (c *agendaCache) cleanupLocked() {
	now := c.now()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}

func (c *agendaCache) evictOneLocked() {
	for key := range c.entries {
		delete(c.entries, key)
		return
	}
}

func cloneAgendaDays(days []AgendaDay) []AgendaDay {
	if len(days) == 0 {
		return nil
	}
	out := make([]AgendaDay, len(days))
	copy(out, days)
	return out
}

func buildAgendaCacheKey(scheduleID, startDate, endDate string) string {
	builder := strings.Builder{}
	builder.WriteString(scheduleID)
	builder.WriteString("|")
	builder.WriteString(startDate)
	builder.WriteString("|")
	builder.WriteString(endDate)
	return builder.String()
}
