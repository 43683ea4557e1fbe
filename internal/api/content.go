package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"reelfeed/internal/catalog"
)

// ContentQuery filters the story listing.
type ContentQuery struct {
	Type   string
	Limit  int
	Offset int
}

// ContentPage is one page of the story listing.
type ContentPage struct {
	Stories []catalog.Story `json:"stories"`
	Total   int             `json:"total"`
	HasMore bool            `json:"hasMore"`
}

// ListContent fetches a page of stories.
func (c *Client) ListContent(ctx context.Context, q ContentQuery) (ContentPage, error) {
	params := url.Values{}
	if q.Type != "" {
		params.Set("type", q.Type)
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		params.Set("offset", strconv.Itoa(q.Offset))
	}
	var page ContentPage
	if err := c.do(ctx, http.MethodGet, "/content", params, nil, &page); err != nil {
		return ContentPage{}, err
	}
	return page, nil
}

// GetStory fetches a single story by id.
func (c *Client) GetStory(ctx context.Context, storyID string) (catalog.Story, error) {
	if storyID == "" {
		return catalog.Story{}, errors.New("story id must not be empty")
	}
	var story catalog.Story
	if err := c.do(ctx, http.MethodGet, "/stories/"+url.PathEscape(storyID), nil, nil, &story); err != nil {
		return catalog.Story{}, err
	}
	return story, nil
}

// ListEpisodes fetches the ordered episode list for a story. The backend
// returns episodes sorted by sequence number with no gaps.
func (c *Client) ListEpisodes(ctx context.Context, storyID string) ([]catalog.Episode, error) {
	if storyID == "" {
		return nil, errors.New("story id must not be empty")
	}
	var episodes []catalog.Episode
	if err := c.do(ctx, http.MethodGet, "/stories/"+url.PathEscape(storyID)+"/episodes", nil, nil, &episodes); err != nil {
		return nil, err
	}
	return episodes, nil
}

// Narrative fetches the per-user unlock and progress state for a story.
func (c *Client) Narrative(ctx context.Context, storyID string) (catalog.Narrative, error) {
	if storyID == "" {
		return catalog.Narrative{}, errors.New("story id must not be empty")
	}
	params := url.Values{}
	params.Set("storyId", storyID)
	var narrative catalog.Narrative
	if err := c.do(ctx, http.MethodGet, "/narrative", params, nil, &narrative); err != nil {
		return catalog.Narrative{}, err
	}
	return narrative, nil
}
