package catalog

import (
	"fmt"
	"strings"
)

// DefaultEpisodeCost is charged when an episode carries no explicit token cost.
const DefaultEpisodeCost = 10

// Story is a read-only projection of a serialized drama as reported by the
// backend. It is immutable within a session and refetched on navigation.
type Story struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	ThumbnailURL  string   `json:"thumbnailUrl"`
	Genres        []string `json:"genres"`
	FreeEpisodes  int      `json:"freeEpisodes"`
	TotalEpisodes int      `json:"totalEpisodes"`
}

// Episode is one playable video unit belonging to a story. Sequence numbers
// are 1-based and dense; the backend returns episodes sorted by sequence.
type Episode struct {
	ID              string `json:"id"`
	StoryID         string `json:"storyId"`
	Sequence        int    `json:"sequenceNumber"`
	Title           string `json:"title"`
	DurationSeconds int    `json:"duration"`
	ThumbnailURL    string `json:"thumbnailUrl"`
	TokenCost       int    `json:"tokenCost"`
	Preview         string `json:"preview,omitempty"`
}

// UnlockCost returns the coin price for this episode, falling back to the
// fixed default when the backend omitted a cost.
func (e Episode) UnlockCost() int {
	if e.TokenCost > 0 {
		return e.TokenCost
	}
	return DefaultEpisodeCost
}

// DisplayTitle returns the episode title, synthesizing one from the sequence
// number when the backend left it blank.
func (e Episode) DisplayTitle() string {
	if strings.TrimSpace(e.Title) != "" {
		return e.Title
	}
	return fmt.Sprintf("Episode %d", e.Sequence)
}

// Narrative is the server-held per-user record of progress within a story.
type Narrative struct {
	UnlockedEpisodes []string          `json:"unlockedEpisodes"`
	CharacterStates  map[string]string `json:"characterStates,omitempty"`
	CurrentEpisode   string            `json:"currentEpisode,omitempty"`
}
