// Package events fans out notifications to registered subscribers, such as
// the websocket connections of open dashboards.
package events

import (
	"fmt"
	"sync"
)

// messageBuffer is how many messages a subscriber can fall behind before
// further messages to it are dropped.
const messageBuffer = 16

// Events maintains a mapping of unique id and channels so goroutines
// can register and receive notifications.
type Events struct {
	mu   sync.RWMutex
	subs map[string]chan string
}

// New constructs an events value for registering and receiving notifications.
func New() *Events {
	return &Events{
		subs: make(map[string]chan string),
	}
}

// Acquire takes a unique id and returns a channel that receives every
// notification sent after the call.
func (evt *Events) Acquire(id string) <-chan string {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	if ch, exists := evt.subs[id]; exists {
		return ch
	}

	ch := make(chan string, messageBuffer)
	evt.subs[id] = ch

	return ch
}

// Release closes and removes the channel that was provided by
// the call to Acquire.
func (evt *Events) Release(id string) error {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	ch, exists := evt.subs[id]
	if !exists {
		return fmt.Errorf("id %q does not exist", id)
	}

	delete(evt.subs, id)
	close(ch)

	return nil
}

// Send delivers the message to every subscriber without blocking and
// returns how many received it.
func (evt *Events) Send(msg string) int {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	var sent int
	for _, ch := range evt.subs {
		select {
		case ch <- msg:
			sent++
		default:
		}
	}

	return sent
}

// Len returns the number of subscribers.
func (evt *Events) Len() int {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	return len(evt.subs)
}

// Shutdown closes and removes all channels that were provided by
// the call to Acquire.
func (evt *Events) Shutdown() {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	for id, ch := range evt.subs {
		delete(evt.subs, id)
		close(ch)
	}
}
