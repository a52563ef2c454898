package logstream

import (
	"sync"
	"sync/atomic"
)

// Subscription identifies a registered subscriber for later removal.
type Subscription uint64

// Channel is a multi-producer broadcast point for Lines.
//
// Publish fans out synchronously on the caller's goroutine, so lines from
// a single source arrive at each subscriber in emission order. No ordering
// is defined between lines published from different goroutines.
//
// Unsubscribe may race with an in-flight Publish; the late delivery is
// allowed and a panicking callback (e.g. an observer torn down mid-call)
// is swallowed rather than propagated to the reader.
type Channel struct {
	name string

	mu     sync.RWMutex
	nextID uint64
	subs   map[Subscription]func(Line)

	published atomic.Int64
	recovered atomic.Int64
}

// NewChannel creates a named broadcast channel.
func NewChannel(name string) *Channel {
	return &Channel{
		name: name,
		subs: make(map[Subscription]func(Line)),
	}
}

// Name returns the channel name (used for logging and metrics labels).
func (c *Channel) Name() string {
	return c.name
}

// Subscribe registers fn to be invoked once per published Line.
func (c *Channel) Subscribe(fn func(Line)) Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	id := Subscription(c.nextID)
	c.subs[id] = fn
	return id
}

// Unsubscribe removes a subscriber. Unknown ids are ignored.
func (c *Channel) Unsubscribe(id Subscription) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subs, id)
}

// Publish delivers line to every currently-registered subscriber.
// Safe for concurrent use.
func (c *Channel) Publish(line Line) {
	c.mu.RLock()
	fns := make([]func(Line), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.mu.RUnlock()

	c.published.Add(1)
	for _, fn := range fns {
		c.deliver(fn, line)
	}
}

// deliver invokes one subscriber, absorbing panics from observers that
// were destroyed while a publish was in flight.
func (c *Channel) deliver(fn func(Line), line Line) {
	defer func() {
		if r := recover(); r != nil {
			c.recovered.Add(1)
		}
	}()
	fn(line)
}

// Stats returns (linesPublished, panicsRecovered).
func (c *Channel) Stats() (published, recovered int64) {
	return c.published.Load(), c.recovered.Load()
}

// Subscribers returns the current subscriber count.
func (c *Channel) Subscribers() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.subs)
}
