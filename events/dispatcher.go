package events

import "sync"

const subscriberBuffer = 100

// Dispatcher is an in-process [Publisher] that fans events out to
// subscriber channels.
//
// Sends are non-blocking: if a subscriber's buffer is full, the event is
// dropped for that subscriber rather than stalling the polling loops.
type Dispatcher struct {
	mu          sync.RWMutex
	subscribers map[chan Event]struct{}
	closed      bool
}

// NewDispatcher creates an empty [Dispatcher].
func NewDispatcher() *Dispatcher {
	return &Dispatcher{subscribers: make(map[chan Event]struct{})}
}

// Publish implements [Publisher]. Events published after [Dispatcher.Close]
// are discarded.
func (d *Dispatcher) Publish(e Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return
	}
	for ch := range d.subscribers {
		select {
		case ch <- e:
		default:
			// subscriber is slow, drop the event
		}
	}
}

// Subscribe returns a channel receiving published events.
//
// The channel is buffered; a subscriber that falls more than the buffer
// size behind misses events. Call [Dispatcher.Unsubscribe] when done.
func (d *Dispatcher) Subscribe() <-chan Event {
	ch := make(chan Event, subscriberBuffer)

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		close(ch)
		return ch
	}
	d.subscribers[ch] = struct{}{}
	return ch
}

// Unsubscribe removes a subscription and closes its channel.
// Safe to call with an unknown or already removed channel.
func (d *Dispatcher) Unsubscribe(ch <-chan Event) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for sub := range d.subscribers {
		if sub == ch {
			delete(d.subscribers, sub)
			close(sub)
			return
		}
	}
}

// Close closes all subscriber channels and discards future publishes.
// Safe to call multiple times.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}
	d.closed = true
	for sub := range d.subscribers {
		close(sub)
	}
	d.subscribers = make(map[chan Event]struct{})
}
