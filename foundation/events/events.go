// Package events allows goroutines to subscribe to a topic and receive the
// messages sent to it. The explainer uses one topic per session so every
// websocket watching a session gets its snapshots.
package events

import (
	"fmt"
	"sync"
)

// messageBuffer is the number of messages a slow receiver can fall behind
// before messages to it are dropped.
const messageBuffer = 100

// Events maintains a mapping of topic and subscriber id to channels.
type Events struct {
	m  map[string]map[string]chan string
	mu sync.RWMutex
}

// New constructs an events for registering and receiving events.
func New() *Events {
	return &Events{
		m: make(map[string]map[string]chan string),
	}
}

// Shutdown closes and removes all channels for every topic.
func (evt *Events) Shutdown() {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	for topic, subs := range evt.m {
		for _, ch := range subs {
			close(ch)
		}
		delete(evt.m, topic)
	}
}

// Acquire takes a topic and a unique subscriber id and returns a channel
// that can be used to receive the messages sent to that topic.
func (evt *Events) Acquire(topic string, id string) chan string {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	subs, exists := evt.m[topic]
	if !exists {
		subs = make(map[string]chan string)
		evt.m[topic] = subs
	}

	if ch, exists := subs[id]; exists {
		return ch
	}

	ch := make(chan string, messageBuffer)
	subs[id] = ch
	return ch
}

// Release closes and removes the channel that was provided by
// the call to Acquire.
func (evt *Events) Release(topic string, id string) error {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	subs, exists := evt.m[topic]
	if !exists {
		return fmt.Errorf("topic %q does not exist", topic)
	}

	ch, exists := subs[id]
	if !exists {
		return fmt.Errorf("id %q does not exist", id)
	}

	delete(subs, id)
	close(ch)

	if len(subs) == 0 {
		delete(evt.m, topic)
	}

	return nil
}

// Close closes and removes every channel subscribed to the topic.
func (evt *Events) Close(topic string) {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	for _, ch := range evt.m[topic] {
		close(ch)
	}
	delete(evt.m, topic)
}

// Send signals a message to every channel subscribed to the topic. Send
// will not block waiting for a receiver on any given channel.
func (evt *Events) Send(topic string, s string) {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	for _, ch := range evt.m[topic] {
		select {
		case ch <- s:
		default:
		}
	}
}

// Count returns the number of subscribers for a topic.
func (evt *Events) Count(topic string) int {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	return len(evt.m[topic])
}
