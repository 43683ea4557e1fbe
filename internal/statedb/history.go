package statedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// WatchEntry is one row of the local watch history.
type WatchEntry struct {
	StoryID         string
	EpisodeID       string
	PositionSeconds float64
	UpdatedAt       time.Time
}

// RecordWatch upserts the playback position for a story/episode pair.
func (s *Store) RecordWatch(ctx context.Context, storyID, episodeID string, positionSeconds float64, at time.Time) error {
	if storyID == "" || episodeID == "" {
		return errors.New("story and episode ids must not be empty")
	}
	return s.execWithRetry(ctx,
		`INSERT INTO watch_history (story_id, episode_id, position_seconds, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(story_id, episode_id) DO UPDATE SET
		   position_seconds = excluded.position_seconds,
		   updated_at = excluded.updated_at`,
		storyID, episodeID, positionSeconds, at.UTC().Format(time.RFC3339Nano))
}

// History returns the most recently watched entries, newest first.
func (s *Store) History(ctx context.Context, limit int) ([]WatchEntry, error) {
	ctx = ensureContext(ctx)
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT story_id, episode_id, position_seconds, updated_at FROM watch_history
		 ORDER BY updated_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []WatchEntry
	for rows.Next() {
		var (
			entry     WatchEntry
			updatedAt string
		)
		if err := rows.Scan(&entry.StoryID, &entry.EpisodeID, &entry.PositionSeconds, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		if ts, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
			entry.UpdatedAt = ts
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// LastWatched returns the most recent entry for one story; ok is false when
// the story has never been watched.
func (s *Store) LastWatched(ctx context.Context, storyID string) (WatchEntry, bool, error) {
	ctx = ensureContext(ctx)
	var (
		entry     WatchEntry
		updatedAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT story_id, episode_id, position_seconds, updated_at FROM watch_history
		 WHERE story_id = ? ORDER BY updated_at DESC LIMIT 1`, storyID).
		Scan(&entry.StoryID, &entry.EpisodeID, &entry.PositionSeconds, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return WatchEntry{}, false, nil
	}
	if err != nil {
		return WatchEntry{}, false, fmt.Errorf("query last watched: %w", err)
	}
	if ts, parseErr := time.Parse(time.RFC3339Nano, updatedAt); parseErr == nil {
		entry.UpdatedAt = ts
	}
	return entry, true, nil
}
