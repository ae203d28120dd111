package event

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	defaultHistorySize = 50
	streamBufferSize   = 64
)

// Bus is an in-process Sink that keeps a bounded history and fans events out to subscribers.
// Slow subscribers miss events instead of blocking the publisher.
type Bus struct {
	mu      sync.Mutex
	streams map[string]chan *Event
	queue   *Queue
	now     func() time.Time
}

// NewBus returns a Bus keeping the last historySize events
func NewBus(historySize int) *Bus {
	if historySize <= 0 {
		historySize = defaultHistorySize
	}
	return &Bus{
		streams: make(map[string]chan *Event),
		queue:   NewQueue(historySize),
		now:     time.Now,
	}
}

// Emit adds an event to the history and distributes it to all subscribers
func (b *Bus) Emit(name Name, payload any) {
	event := &Event{
		ID:        uuid.New().String(),
		Name:      name,
		Payload:   payload,
		Timestamp: b.now().UTC(),
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.queue.Add(event)

	for _, stream := range b.streams {
		select {
		case stream <- event:
		default:
			log.Debugf("event stream buffer full, skipping event: %s", event)
		}
	}

	if name != DownloadProgress {
		log.Debugf("event published: %s", event)
	}
}

// Subscribe returns a new event subscription
func (b *Bus) Subscribe() *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := uuid.New().String()
	stream := make(chan *Event, streamBufferSize)
	b.streams[id] = stream

	return &Subscription{
		id:     id,
		events: stream,
	}
}

// Unsubscribe removes an event subscription and closes its channel
func (b *Bus) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if stream, exists := b.streams[sub.id]; exists {
		close(stream)
		delete(b.streams, sub.id)
	}
}

// History returns the retained events, oldest first
func (b *Bus) History() []*Event {
	return b.queue.GetAll()
}

type Subscription struct {
	id     string
	events chan *Event
}

// Events returns the channel of the subscription. It is closed on Unsubscribe.
func (s *Subscription) Events() <-chan *Event {
	return s.events
}

type Queue struct {
	maxSize int
	events  []*Event
	mutex   sync.RWMutex
}

func NewQueue(size int) *Queue {
	return &Queue{
		maxSize: size,
		events:  make([]*Event, 0, size),
	}
}

func (q *Queue) Add(event *Event) {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	q.events = append(q.events, event)

	if len(q.events) > q.maxSize {
		q.events = q.events[len(q.events)-q.maxSize:]
	}
}

func (q *Queue) GetAll() []*Event {
	q.mutex.RLock()
	defer q.mutex.RUnlock()

	return slices.Clone(q.events)
}

// Recorder is a Sink that records every event, for tests and diagnostics
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Emit(name Name, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{Name: name, Payload: payload, Timestamp: time.Now()})
}

// Events returns a copy of the recorded events
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.events)
}

// Names returns the recorded event names, optionally skipping the given ones
func (r *Recorder) Names(skip ...Name) []Name {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]Name, 0, len(r.events))
	for _, e := range r.events {
		if slices.Contains(skip, e.Name) {
			continue
		}
		names = append(names, e.Name)
	}
	return names
}

// Filter returns the recorded events with the given name
func (r *Recorder) Filter(name Name) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Event
	for _, e := range r.events {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

// Reset drops all recorded events
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
