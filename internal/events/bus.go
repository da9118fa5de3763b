// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package events

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// ErrBusClosed is returned when operating on a closed bus.
var ErrBusClosed = errors.New("event bus is closed")

// ErrSubscriptionNotFound is returned when unsubscribing with an invalid ID.
var ErrSubscriptionNotFound = errors.New("subscription not found")

// MemoryBusConfig configures the memory event bus.
type MemoryBusConfig struct {
	HistoryMaxEvents int
	HistoryMaxAge    time.Duration
}

// MemoryBus is the in-memory Bus implementation.
type MemoryBus struct {
	mu            sync.RWMutex
	subscriptions map[SubscriptionID]*subscription
	history       []Event
	maxEvents     int
	maxAge        time.Duration
	closed        atomic.Bool
	nextID        uint64
}

type subscription struct {
	id      SubscriptionID
	pattern string
	handler Handler
}

// NewMemoryBus creates a new in-memory event bus.
func NewMemoryBus(cfg MemoryBusConfig) *MemoryBus {
	if cfg.HistoryMaxEvents <= 0 {
		cfg.HistoryMaxEvents = 1000
	}
	if cfg.HistoryMaxAge <= 0 {
		cfg.HistoryMaxAge = time.Hour
	}
	return &MemoryBus{
		subscriptions: make(map[SubscriptionID]*subscription),
		maxEvents:     cfg.HistoryMaxEvents,
		maxAge:        cfg.HistoryMaxAge,
	}
}

// Publish emits an event to all matching subscribers.
func (bus *MemoryBus) Publish(ctx context.Context, event Event) error {
	if bus.closed.Load() {
		return ErrBusClosed
	}

	if event.ID == "" {
		event.ID = bus.generateID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	bus.mu.Lock()
	bus.history = append(bus.history, event)
	bus.pruneLocked()
	subs := make([]*subscription, 0, len(bus.subscriptions))
	for _, sub := range bus.subscriptions {
		subs = append(subs, sub)
	}
	bus.mu.Unlock()

	for _, sub := range subs {
		if !matchPattern(event.Type, sub.pattern) {
			continue
		}
		// Panic in one handler must not take down the publisher.
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("Event handler panic for %s: %v", event.Type, r)
				}
			}()
			sub.handler(ctx, event)
		}()
	}

	return nil
}

// Subscribe registers a synchronous handler for events matching pattern.
func (bus *MemoryBus) Subscribe(pattern string, handler Handler) (SubscriptionID, error) {
	if bus.closed.Load() {
		return "", ErrBusClosed
	}
	if pattern == "" {
		return "", errors.New("empty pattern")
	}

	id := SubscriptionID(bus.generateID())
	bus.mu.Lock()
	bus.subscriptions[id] = &subscription{id: id, pattern: pattern, handler: handler}
	bus.mu.Unlock()

	return id, nil
}

// Unsubscribe removes a subscription.
func (bus *MemoryBus) Unsubscribe(id SubscriptionID) error {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	if _, ok := bus.subscriptions[id]; !ok {
		return ErrSubscriptionNotFound
	}
	delete(bus.subscriptions, id)
	return nil
}

// History retrieves past events matching filter, oldest first.
func (bus *MemoryBus) History(filter Filter) ([]Event, error) {
	bus.mu.RLock()
	defer bus.mu.RUnlock()

	result := make([]Event, 0)
	for _, event := range bus.history {
		if bus.matchesFilter(event, filter) {
			result = append(result, event)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp.Before(result[j].Timestamp)
	})

	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[len(result)-filter.Limit:]
	}

	return result, nil
}

// Close shuts down the bus.
func (bus *MemoryBus) Close() error {
	if bus.closed.Swap(true) {
		return nil
	}
	bus.mu.Lock()
	bus.subscriptions = make(map[SubscriptionID]*subscription)
	bus.history = nil
	bus.mu.Unlock()
	return nil
}

func (bus *MemoryBus) matchesFilter(event Event, filter Filter) bool {
	if len(filter.Types) > 0 {
		matched := false
		for _, pattern := range filter.Types {
			if matchPattern(event.Type, pattern) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	if !filter.Since.IsZero() && event.Timestamp.Before(filter.Since) {
		return false
	}
	return true
}

// pruneLocked enforces the history bounds. Caller holds bus.mu.
func (bus *MemoryBus) pruneLocked() {
	cutoff := time.Now().Add(-bus.maxAge)
	for len(bus.history) > 0 && bus.history[0].Timestamp.Before(cutoff) {
		bus.history = bus.history[1:]
	}
	if len(bus.history) > bus.maxEvents {
		bus.history = bus.history[len(bus.history)-bus.maxEvents:]
	}
}

func (bus *MemoryBus) generateID() string {
	n := atomic.AddUint64(&bus.nextID, 1)
	b := make([]byte, 8)
	rand.Read(b)
	return hex.EncodeToString(b) + "-" + strconv.FormatUint(n, 10)
}

// matchPattern checks if an event type matches a pattern.
// Patterns support wildcards:
// - "capture.*" matches "capture.started", "capture.failed", etc.
// - "*.failed" matches "capture.failed", etc.
// - "*" matches everything
func matchPattern(eventType, pattern string) bool {
	if pattern == "" || eventType == "" {
		return false
	}
	if pattern == "*" || pattern == eventType {
		return true
	}
	if strings.HasSuffix(pattern, ".*") {
		prefix := strings.TrimSuffix(pattern, ".*")
		return strings.HasPrefix(eventType, prefix+".")
	}
	if strings.HasPrefix(pattern, "*.") {
		suffix := strings.TrimPrefix(pattern, "*.")
		return strings.HasSuffix(eventType, "."+suffix)
	}
	return false
}
