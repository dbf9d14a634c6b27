// Package broadcaster manages subscribers and distributes path events.
package broadcaster

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// EventType represents the type of path event.
type EventType int

const (
	EventCreated EventType = iota
	EventModified
	EventDeleted
	EventRenamed
)

// String returns the wire name of the event type.
func (t EventType) String() string {
	switch t {
	case EventCreated:
		return "created"
	case EventModified:
		return "modified"
	case EventDeleted:
		return "deleted"
	case EventRenamed:
		return "renamed"
	default:
		return "unknown"
	}
}

// PathEvent represents a filesystem event under an indexed root.
type PathEvent struct {
	Type  EventType
	Path  string
	IsDir bool
}

// Subscriber represents a client subscribed to path events.
type Subscriber struct {
	ID      string
	Root    string
	Exclude []string
	Events  chan *PathEvent
}

// Broadcaster manages subscribers and distributes path events.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[string]*Subscriber
	closed      bool
}

// New creates a new Broadcaster.
func New() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[string]*Subscriber),
	}
}

// Subscribe creates a new subscription for path events under a root.
func (b *Broadcaster) Subscribe(root string, exclude []string) *Subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}

	sub := &Subscriber{
		ID:      uuid.New().String(),
		Root:    root,
		Exclude: exclude,
		Events:  make(chan *PathEvent, 100),
	}

	b.subscribers[sub.ID] = sub
	return sub
}

// Unsubscribe removes a subscription.
func (b *Broadcaster) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if sub, ok := b.subscribers[id]; ok {
		close(sub.Events)
		delete(b.subscribers, id)
	}
}

// Notify sends an event to all matching subscribers.
func (b *Broadcaster) Notify(path string, eventType EventType, isDir bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	for _, sub := range b.subscribers {
		if b.matches(sub, path) {
			event := &PathEvent{
				Type:  eventType,
				Path:  path,
				IsDir: isDir,
			}
			select {
			case sub.Events <- event:
			default:
				// Channel full, event dropped
			}
		}
	}
}

// matches checks if an event matches a subscriber's filters.
func (b *Broadcaster) matches(sub *Subscriber, path string) bool {
	// Check path is under root
	if !strings.HasPrefix(path, sub.Root) {
		return false
	}
	// Ensure it's actually under the root (not just a prefix match)
	if len(path) > len(sub.Root) && path[len(sub.Root)] != filepath.Separator {
		return false
	}

	// Check exclusions
	for _, pattern := range sub.Exclude {
		if matched, _ := filepath.Match(pattern, filepath.Base(path)); matched {
			return false
		}
	}

	return true
}

// Close closes the broadcaster and all subscriptions.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	b.closed = true
	for _, sub := range b.subscribers {
		close(sub.Events)
	}
	b.subscribers = make(map[string]*Subscriber)
}

// SubscriberCount returns the number of active subscribers.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
