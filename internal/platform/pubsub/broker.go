// Package pubsub fans values out to in-process subscribers, keyed by topic.
// Each subscriber holds at most one pending value: publishing replaces an
// undelivered value instead of blocking the publisher.
package pubsub

import (
	"context"
	"sync"
)

type Broker[T any] struct {
	mu     sync.Mutex
	subs   map[string]map[*subscriber[T]]struct{}
	copyFn func(T) T
	closed bool
}

type subscriber[T any] struct {
	ch   chan T
	done chan struct{}
	once sync.Once
}

// NewBroker returns a broker. copyFn, if non-nil, is applied to a value once per
// subscriber so receivers never share mutable state.
func NewBroker[T any](copyFn func(T) T) *Broker[T] {
	if copyFn == nil {
		copyFn = func(v T) T { return v }
	}
	return &Broker[T]{
		subs:   make(map[string]map[*subscriber[T]]struct{}),
		copyFn: copyFn,
	}
}

// Subscribe registers a subscriber on topic with initial as its first value.
// The returned channel is closed when ctx is done or the broker is closed.
func (b *Broker[T]) Subscribe(ctx context.Context, topic string, initial T) <-chan T {
	s := &subscriber[T]{
		ch:   make(chan T, 1),
		done: make(chan struct{}),
	}
	s.ch <- b.copyFn(initial)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		s.close()
		return s.ch
	}
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[*subscriber[T]]struct{})
	}
	b.subs[topic][s] = struct{}{}
	b.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
		case <-s.done:
			return
		}
		b.mu.Lock()
		if set := b.subs[topic]; set != nil {
			delete(set, s)
			if len(set) == 0 {
				delete(b.subs, topic)
			}
		}
		b.mu.Unlock()
		s.close()
	}()
	return s.ch
}

// Publish delivers v to every subscriber of topic without blocking.
func (b *Broker[T]) Publish(topic string, v T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for s := range b.subs[topic] {
		val := b.copyFn(v)
		select {
		case s.ch <- val:
			continue
		default:
		}
		// Drop the stale pending value. Publishers are serialized by b.mu, so
		// the send below cannot block.
		select {
		case <-s.ch:
		default:
		}
		s.ch <- val
	}
}

// Subscribers reports how many subscribers topic has.
func (b *Broker[T]) Subscribers(topic string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[topic])
}

// Topics lists the topics that currently have subscribers.
func (b *Broker[T]) Topics() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.subs))
	for topic := range b.subs {
		out = append(out, topic)
	}
	return out
}

// Close closes every subscriber channel. Later subscriptions are closed
// immediately after their initial value.
func (b *Broker[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for topic, set := range b.subs {
		for s := range set {
			s.close()
		}
		delete(b.subs, topic)
	}
}

func (s *subscriber[T]) close() {
	s.once.Do(func() {
		close(s.done)
		close(s.ch)
	})
}
