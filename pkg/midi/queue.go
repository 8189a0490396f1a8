package midi

import (
	"sort"
	"sync"
)

// EventQueue collects events from a producer goroutine (a MIDI driver or
// the control thread) for the audio thread to drain once per block.
type EventQueue struct {
	events []Event
	mu     sync.Mutex
	sorted bool
}

func NewEventQueue() *EventQueue {
	return &EventQueue{
		events: make([]Event, 0, 128),
		sorted: true,
	}
}

func (q *EventQueue) Add(event Event) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if n := len(q.events); n > 0 && q.events[n-1].SampleOffset() > event.SampleOffset() {
		q.sorted = false
	}
	q.events = append(q.events, event)
}

// Drain appends every queued event to dst in offset order and empties the
// queue. Passing a reused dst keeps the audio thread allocation free.
func (q *EventQueue) Drain(dst []Event) []Event {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.sortEvents()
	dst = append(dst, q.events...)
	clear(q.events)
	q.events = q.events[:0]
	return dst
}

func (q *EventQueue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

func (q *EventQueue) sortEvents() {
	if q.sorted {
		return
	}
	sort.SliceStable(q.events, func(i, j int) bool {
		return q.events[i].SampleOffset() < q.events[j].SampleOffset()
	})
	q.sorted = true
}
