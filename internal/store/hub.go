package store

import (
	"sync"
)

const defaultSubscriberCapacity = 16

// Topic names the collection a change touched.
type Topic string

const (
	TopicCheques       Topic = "cheques"
	TopicVerifications Topic = "verifications"
)

// Change is published after every committed write.
type Change struct {
	Topic Topic
	Op    string
	ID    string
}

// Logger records diagnostic messages. It matches logbook.Logbook.Printf.
type Logger interface {
	Printf(format string, args ...any)
}

// Subscription represents an active change feed.
type Subscription struct {
	Changes <-chan Change
	cancel  func()
}

// Close terminates the subscription and closes the channel.
func (s Subscription) Close() {
	if s.cancel != nil {
		s.cancel()
	}
}

// hub fans committed changes out to subscribers over bounded channels. A slow
// subscriber loses its oldest pending change rather than blocking writers.
type hub struct {
	mu          sync.RWMutex
	subscribers map[*subscriber]struct{}
	capacity    int
	logger      Logger
}

func newHub(capacity int, logger Logger) *hub {
	if capacity <= 0 {
		capacity = defaultSubscriberCapacity
	}
	return &hub{
		subscribers: map[*subscriber]struct{}{},
		capacity:    capacity,
		logger:      logger,
	}
}

func (h *hub) subscribe() Subscription {
	sub := newSubscriber(h.capacity, h.logger)
	h.mu.Lock()
	h.subscribers[sub] = struct{}{}
	h.mu.Unlock()
	return Subscription{
		Changes: sub.channel(),
		cancel: func() {
			h.remove(sub)
		},
	}
}

func (h *hub) publish(change Change) {
	h.mu.RLock()
	subs := make([]*subscriber, 0, len(h.subscribers))
	for sub := range h.subscribers {
		subs = append(subs, sub)
	}
	h.mu.RUnlock()
	for _, sub := range subs {
		sub.deliver(change)
	}
}

func (h *hub) remove(sub *subscriber) {
	h.mu.Lock()
	delete(h.subscribers, sub)
	h.mu.Unlock()
	sub.close()
}

func (h *hub) closeAll() {
	h.mu.Lock()
	subs := h.subscribers
	h.subscribers = map[*subscriber]struct{}{}
	h.mu.Unlock()
	for sub := range subs {
		sub.close()
	}
}

type subscriber struct {
	mu     sync.Mutex
	ch     chan Change
	logger Logger
	closed bool
}

func newSubscriber(capacity int, logger Logger) *subscriber {
	return &subscriber{ch: make(chan Change, capacity), logger: logger}
}

func (s *subscriber) channel() <-chan Change {
	return s.ch
}

func (s *subscriber) deliver(change Change) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- change:
		return
	default:
	}
	select {
	case dropped := <-s.ch:
		if s.logger != nil {
			s.logger.Printf("store: subscriber overflow, dropped %s %s", dropped.Topic, dropped.Op)
		}
	default:
	}
	select {
	case s.ch <- change:
	default:
	}
}

func (s *subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}
