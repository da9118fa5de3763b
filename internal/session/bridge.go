// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/wingedpig/kaleido/internal/channel"
)

// Bridge persists session state through the channel: saves are
// fire-and-forget save-storage messages, loads are a load-storage request
// paired with the storage-loaded reply. The studio receive loop feeds
// replies in through HandleReply.
type Bridge struct {
	sender channel.Sender

	mu     sync.Mutex
	waiter chan channel.Envelope
}

// NewBridge creates a bridge over the studio-to-host sender.
func NewBridge(sender channel.Sender) *Bridge {
	return &Bridge{sender: sender}
}

// Save persists the state. The send is fire-and-forget; a nil return means
// the message was handed to the transport.
func (b *Bridge) Save(state State) error {
	value, err := state.Encode()
	if err != nil {
		return err
	}
	return b.sender.Send(channel.Envelope{
		Type:  channel.TypeSaveStorage,
		Key:   StorageKey,
		Value: value,
	})
}

// Load requests the persisted settings and blocks until the reply arrives or
// ctx expires. A record that needed duration migration is written back so
// the migration happens once.
func (b *Bridge) Load(ctx context.Context) (State, error) {
	waiter := make(chan channel.Envelope, 1)
	b.mu.Lock()
	if b.waiter != nil {
		b.mu.Unlock()
		return State{}, fmt.Errorf("settings load already in flight")
	}
	b.waiter = waiter
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		b.waiter = nil
		b.mu.Unlock()
	}()

	if err := b.sender.Send(channel.Envelope{
		Type: channel.TypeLoadStorage,
		Key:  StorageKey,
	}); err != nil {
		return State{}, fmt.Errorf("request settings: %w", err)
	}

	select {
	case <-ctx.Done():
		return State{}, ctx.Err()
	case env := <-waiter:
		state, migrated, err := Decode(env.Value)
		if err != nil {
			return State{}, err
		}
		if migrated {
			if err := b.Save(state); err != nil {
				return State{}, fmt.Errorf("persist migrated settings: %w", err)
			}
		}
		return state, nil
	}
}

// HandleReply offers a host-to-studio envelope to the bridge. It consumes
// storage-loaded replies for the settings key and reports whether the
// envelope was taken.
func (b *Bridge) HandleReply(env channel.Envelope) bool {
	if env.Type != channel.TypeStorageLoaded || env.Key != StorageKey {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.waiter == nil {
		return false
	}
	select {
	case b.waiter <- env:
	default:
	}
	return true
}
