// Package tastedive implements a read-only TasteDive client for
// "movies like X" recommendations.
package tastedive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const tasteDiveBaseURL = "https://tastedive.com/api"

// Client handles TasteDive API interactions.
type Client struct {
	httpClient *http.Client
	apiKey     string
}

// Item is a single TasteDive recommendation or query echo.
type Item struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	Description  string `json:"description,omitempty"`
	WikipediaURL string `json:"wikipediaUrl,omitempty"`
	YoutubeURL   string `json:"youtubeUrl,omitempty"`
	YoutubeID    string `json:"youtubeId,omitempty"`
}

// SimilarResult holds the recognized query items and the recommendations
// TasteDive produced for them.
type SimilarResult struct {
	QueryItems      []Item `json:"queryItems"`
	Recommendations []Item `json:"recommendations"`
}

// NewClient creates a new TasteDive API client.
func NewClient(apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		apiKey:     apiKey,
	}
}

// HasCredentials checks if the client has an API key configured.
func (c *Client) HasCredentials() bool {
	return c != nil && c.apiKey != ""
}

type rawItem struct {
	Name    string `json:"Name"`
	Type    string `json:"Type"`
	WTeaser string `json:"wTeaser"`
	WURL    string `json:"wUrl"`
	YURL    string `json:"yUrl"`
	YID     string `json:"yID"`
}

func parseItem(raw rawItem) Item {
	return Item{
		Name:         raw.Name,
		Type:         raw.Type,
		Description:  raw.WTeaser,
		WikipediaURL: raw.WURL,
		YoutubeURL:   raw.YURL,
		YoutubeID:    raw.YID,
	}
}

// GetSimilar returns items similar to the given titles. mediaType defaults
// to "movie"; includeInfo requests teaser text and links per item.
func (c *Client) GetSimilar(ctx context.Context, titles []string, mediaType string, limit int, includeInfo bool) (*SimilarResult, error) {
	if mediaType == "" {
		mediaType = "movie"
	}

	query := url.Values{}
	query.Set("q", strings.Join(titles, ","))
	query.Set("type", mediaType)
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if includeInfo {
		query.Set("info", "1")
	} else {
		query.Set("info", "0")
	}
	query.Set("k", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tasteDiveBaseURL+"/similar?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tastedive api request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("tastedive request failed: %s - %s", resp.Status, string(respBody))
	}

	var data struct {
		Similar struct {
			Info    []rawItem `json:"Info"`
			Results []rawItem `json:"Results"`
		} `json:"Similar"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	result := &SimilarResult{
		QueryItems:      make([]Item, 0, len(data.Similar.Info)),
		Recommendations: make([]Item, 0, len(data.Similar.Results)),
	}
	for _, raw := range data.Similar.Info {
		result.QueryItems = append(result.QueryItems, parseItem(raw))
	}
	for _, raw := range data.Similar.Results {
		result.Recommendations = append(result.Recommendations, parseItem(raw))
	}
	return result, nil
}
