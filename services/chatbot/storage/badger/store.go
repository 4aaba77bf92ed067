// Copyright (C) 2026 FintechIQ (opensource@fintechiq.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package badger persists per-session chat history. Entries are TTL'd so
// the store is a rolling window, not an archive; session state beyond the
// message log (e.g. "last mentioned stock") is the caller's concern.
package badger

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"log/slog"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// keyPrefix namespaces chat entries inside the shared value log.
const keyPrefix = "chat/"

// Message is one stored chat turn.
type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"` // "user" or "bot"
	Text      string    `json:"text"`
	Intent    string    `json:"intent,omitempty"`
	Language  string    `json:"language,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Store is the badger-backed history log.
//
// Thread Safety: Safe for concurrent use; badger serializes transactions.
type Store struct {
	db     *badger.DB
	ttl    time.Duration
	logger *slog.Logger
}

// Options configures the store.
type Options struct {
	// Dir is the on-disk location. Empty means a purely in-memory store
	// (used by tests and ephemeral deployments).
	Dir string

	// TTL bounds how long a message is retained. Zero disables expiry.
	TTL time.Duration

	Logger *slog.Logger
}

// Open opens (or creates) the history store.
func Open(opts Options) (*Store, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var badgerOpts badger.Options
	if opts.Dir == "" {
		badgerOpts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		badgerOpts = badger.DefaultOptions(opts.Dir)
	}
	badgerOpts = badgerOpts.WithLogger(nil)

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("badger: open history store: %w", err)
	}
	return &Store{db: db, ttl: opts.TTL, logger: logger}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Append stores one message. The message ID is assigned here.
func (s *Store) Append(msg Message) (string, error) {
	if msg.SessionID == "" {
		return "", fmt.Errorf("badger: append: empty session id")
	}
	msg.ID = uuid.NewString()
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(msg); err != nil {
		return "", fmt.Errorf("badger: encode message: %w", err)
	}

	// Nanosecond timestamp in the key keeps iteration order chronological;
	// the uuid suffix breaks same-nanosecond collisions.
	key := fmt.Sprintf("%s%s/%020d-%s", keyPrefix, msg.SessionID, msg.Timestamp.UnixNano(), msg.ID)

	err := s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), buf.Bytes())
		if s.ttl > 0 {
			entry = entry.WithTTL(s.ttl)
		}
		return txn.SetEntry(entry)
	})
	if err != nil {
		return "", fmt.Errorf("badger: store message: %w", err)
	}
	return msg.ID, nil
}

// List returns up to limit messages for the session, oldest first. A
// missing session yields an empty slice, not an error.
func (s *Store) List(sessionID string, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 50
	}
	prefix := []byte(keyPrefix + sessionID + "/")

	var out []Message
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix) && len(out) < limit; it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var msg Message
				if err := gob.NewDecoder(bytes.NewReader(val)).Decode(&msg); err != nil {
					return err
				}
				out = append(out, msg)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("badger: list session %q: %w", sessionID, err)
	}
	if out == nil {
		out = []Message{}
	}
	return out, nil
}

// Purge removes every message for the session.
func (s *Store) Purge(sessionID string) (int, error) {
	prefix := []byte(keyPrefix + sessionID + "/")

	var keys [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("badger: scan session %q: %w", sessionID, err)
	}

	for _, key := range keys {
		err := s.db.Update(func(txn *badger.Txn) error {
			return txn.Delete(key)
		})
		if err != nil {
			return 0, fmt.Errorf("badger: purge session %q: %w", sessionID, err)
		}
	}
	if len(keys) > 0 {
		s.logger.Debug("purged chat history",
			slog.String("session_id", sessionID),
			slog.Int("messages", len(keys)),
		)
	}
	return len(keys), nil
}
