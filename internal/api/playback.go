package api

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// Playback carries a time-limited signed video link issued per viewing request.
type Playback struct {
	VideoURL        string         `json:"videoUrl"`
	ThumbnailURL    string         `json:"thumbnailUrl"`
	DurationSeconds int            `json:"duration"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

// PlaybackURL requests a signed playback link for an episode.
func (c *Client) PlaybackURL(ctx context.Context, userID, episodeID string) (Playback, error) {
	if episodeID == "" {
		return Playback{}, errors.New("episode id must not be empty")
	}
	body := map[string]string{"userId": userID, "episodeId": episodeID}
	var playback Playback
	if err := c.do(ctx, http.MethodPost, "/playback", nil, body, &playback); err != nil {
		return Playback{}, err
	}
	return playback, nil
}

// BalanceInfo reports the viewer's coin balance.
type BalanceInfo struct {
	Balance     int       `json:"balance"`
	LastUpdated time.Time `json:"lastUpdated"`
	DailyEarned int       `json:"dailyEarned"`
	DailySpent  int       `json:"dailySpent"`
}

// Balance fetches the current coin balance for the authenticated viewer.
func (c *Client) Balance(ctx context.Context) (BalanceInfo, error) {
	var info BalanceInfo
	if err := c.do(ctx, http.MethodGet, "/balance", nil, nil, &info); err != nil {
		return BalanceInfo{}, err
	}
	return info, nil
}

// UnlockResult is the backend's record of a spend-to-unlock action.
type UnlockResult struct {
	Success         bool   `json:"success"`
	EpisodeID       string `json:"episodeId"`
	VideoURL        string `json:"videoUrl,omitempty"`
	RemainingTokens int    `json:"remainingTokens"`
	NextEpisodeID   string `json:"nextEpisodeId,omitempty"`
}

// Unlock spends coins to make an episode playable.
func (c *Client) Unlock(ctx context.Context, episodeID, storyID string) (UnlockResult, error) {
	if episodeID == "" {
		return UnlockResult{}, errors.New("episode id must not be empty")
	}
	body := map[string]string{"episodeId": episodeID, "storyId": storyID}
	var result UnlockResult
	if err := c.do(ctx, http.MethodPost, "/unlock", nil, body, &result); err != nil {
		return UnlockResult{}, err
	}
	// A rejected transaction is returned as data; the unlock orchestrator
	// decides how to roll it back.
	return result, nil
}
