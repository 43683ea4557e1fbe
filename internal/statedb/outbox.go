package statedb

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"reelfeed/internal/api"
)

// AppendEvent writes one telemetry event to the outbox.
func (s *Store) AppendEvent(ctx context.Context, event api.Event) error {
	attrs := "{}"
	if len(event.Attrs) > 0 {
		encoded, err := json.Marshal(event.Attrs)
		if err != nil {
			return fmt.Errorf("encode event attrs: %w", err)
		}
		attrs = string(encoded)
	}
	return s.execWithRetry(ctx,
		`INSERT OR REPLACE INTO telemetry_outbox (id, event_type, occurred_at, attrs, enqueued_at)
		 VALUES (?, ?, ?, ?, ?)`,
		event.ID, event.Type, event.Timestamp.UTC().Format(time.RFC3339Nano),
		attrs, time.Now().UTC().Format(time.RFC3339Nano))
}

// TrimOutbox drops the oldest rows so at most max remain. A non-positive max
// leaves the outbox untouched.
func (s *Store) TrimOutbox(ctx context.Context, max int) error {
	if max <= 0 {
		return nil
	}
	return s.execWithRetry(ctx,
		`DELETE FROM telemetry_outbox WHERE id NOT IN (
		   SELECT id FROM telemetry_outbox ORDER BY enqueued_at DESC, id DESC LIMIT ?)`,
		max)
}

// NextBatch returns up to limit queued events, oldest first.
func (s *Store) NextBatch(ctx context.Context, limit int) ([]api.Event, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, event_type, occurred_at, attrs FROM telemetry_outbox
		 ORDER BY enqueued_at ASC, id ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()

	var events []api.Event
	for rows.Next() {
		var (
			event      api.Event
			occurredAt string
			attrs      string
		)
		if err := rows.Scan(&event.ID, &event.Type, &occurredAt, &attrs); err != nil {
			return nil, fmt.Errorf("scan outbox row: %w", err)
		}
		if ts, err := time.Parse(time.RFC3339Nano, occurredAt); err == nil {
			event.Timestamp = ts
		}
		if attrs != "" && attrs != "{}" {
			if err := json.Unmarshal([]byte(attrs), &event.Attrs); err != nil {
				return nil, fmt.Errorf("decode event attrs: %w", err)
			}
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// DeleteEvents removes delivered events from the outbox.
func (s *Store) DeleteEvents(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return s.execWithRetry(ctx,
		"DELETE FROM telemetry_outbox WHERE id IN ("+placeholders+")", args...)
}

// OutboxSize returns the number of queued events.
func (s *Store) OutboxSize(ctx context.Context) (int, error) {
	ctx = ensureContext(ctx)
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM telemetry_outbox").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count outbox: %w", err)
	}
	return count, nil
}
