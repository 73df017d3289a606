// Package dedup rejects webhook deliveries that were already seen within a short window.
//
// Delivery is best-effort: entries live for a fixed TTL and the set is bounded, so a
// replay after expiry or eviction is processed again.
package dedup

import (
	"container/list"
	"context"
	"sync"
	"time"
)

const (
	DefaultTTL      = 5 * time.Minute
	DefaultCapacity = 1000
)

// Deduper is implemented by every processed-message store.
type Deduper interface {
	// SeenAndMark reports whether id was seen within the TTL and records it as seen now.
	// With bypass set the check is skipped and the id is still recorded.
	SeenAndMark(ctx context.Context, id string, bypass bool) bool
}

type entry struct {
	id     string
	seenAt time.Time
}

// Gate is the in-process processed set. Entries are kept in insertion order so that
// expiry and capacity eviction both pop from the front.
type Gate struct {
	mu       sync.Mutex
	ttl      time.Duration
	capacity int
	order    *list.List
	index    map[string]*list.Element
	now      func() time.Time
}

func NewGate(ttl time.Duration, capacity int) *Gate {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Gate{
		ttl:      ttl,
		capacity: capacity,
		order:    list.New(),
		index:    make(map[string]*list.Element),
		now:      time.Now,
	}
}

func (g *Gate) SeenAndMark(_ context.Context, id string, bypass bool) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	g.expire(now)

	_, present := g.index[id]
	duplicate := present && !bypass

	g.mark(id, now)
	return duplicate
}

// Len returns the number of unexpired entries.
func (g *Gate) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.expire(g.now())
	return len(g.index)
}

func (g *Gate) mark(id string, now time.Time) {
	if el, ok := g.index[id]; ok {
		el.Value.(*entry).seenAt = now
		g.order.MoveToBack(el)
		return
	}
	for len(g.index) >= g.capacity {
		g.evictOldest()
	}
	g.index[id] = g.order.PushBack(&entry{id: id, seenAt: now})
}

// expire drops entries older than the TTL. Marking always moves an entry to the back,
// so the list is ordered by seenAt.
func (g *Gate) expire(now time.Time) {
	for el := g.order.Front(); el != nil; el = g.order.Front() {
		if now.Sub(el.Value.(*entry).seenAt) <= g.ttl {
			return
		}
		g.evictOldest()
	}
}

func (g *Gate) evictOldest() {
	el := g.order.Front()
	if el == nil {
		return
	}
	g.order.Remove(el)
	delete(g.index, el.Value.(*entry).id)
}
