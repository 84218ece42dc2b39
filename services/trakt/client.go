// Package trakt implements a read-only Trakt.tv client for trending/popular
// charts, public list lookup, and related-movie recommendations.
package trakt

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	traktAPIBaseURL = "https://api.trakt.tv"
	traktAPIVersion = "2"
)

// Client handles Trakt API interactions.
type Client struct {
	httpClient   *http.Client
	clientID     string
	clientSecret string
}

// IDs holds external identifiers for a media item.
type IDs struct {
	Trakt int    `json:"trakt,omitempty"`
	Slug  string `json:"slug,omitempty"`
	IMDB  string `json:"imdb,omitempty"`
	TMDB  int    `json:"tmdb,omitempty"`
}

// Movie represents a Trakt movie.
type Movie struct {
	Title string `json:"title"`
	Year  int    `json:"year"`
	IDs   IDs    `json:"ids"`
}

// TrendingMovie is a movie with its current watcher count.
type TrendingMovie struct {
	Watchers int   `json:"watchers"`
	Movie    Movie `json:"movie"`
}

// List represents a public Trakt list.
type List struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ItemCount   int    `json:"itemCount"`
	Likes       int    `json:"likes"`
	User        string `json:"user"`
	ListID      string `json:"listId"`
	Slug        string `json:"slug"`
}

// ListItem represents one movie entry of a public list.
type ListItem struct {
	Rank     int    `json:"rank"`
	ListedAt string `json:"listedAt,omitempty"`
	Movie    Movie  `json:"movie"`
}

// NewClient creates a new Trakt API client.
func NewClient(clientID, clientSecret string) *Client {
	return &Client{
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		clientID:     clientID,
		clientSecret: clientSecret,
	}
}

// HasCredentials checks if the client has credentials configured.
func (c *Client) HasCredentials() bool {
	return c != nil && c.clientID != ""
}

// setTraktHeaders adds required Trakt API headers to a request.
func (c *Client) setTraktHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("trakt-api-version", traktAPIVersion)
	req.Header.Set("trakt-api-key", c.clientID)
}

// doGET performs a GET and decodes the body. When total is non-nil it is
// filled from the X-Pagination-Item-Count header.
func (c *Client) doGET(ctx context.Context, endpoint string, query url.Values, v any, total *int) error {
	u := traktAPIBaseURL + endpoint
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.setTraktHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("trakt api request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("trakt request failed: %s - %s", resp.Status, string(respBody))
	}

	if total != nil {
		if totalHeader := resp.Header.Get("X-Pagination-Item-Count"); totalHeader != "" {
			*total, _ = strconv.Atoi(totalHeader)
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func limitQuery(limit int) url.Values {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	return query
}

// movieEntry is the wrapper shape Trakt uses for chart rows.
type movieEntry struct {
	Watchers int   `json:"watchers"`
	Movie    Movie `json:"movie"`
}

func entryMovies(entries []movieEntry) []Movie {
	movies := make([]Movie, 0, len(entries))
	for _, e := range entries {
		movies = append(movies, e.Movie)
	}
	return movies
}

// GetTrendingMovies returns currently trending movies with watcher counts.
func (c *Client) GetTrendingMovies(ctx context.Context, limit int) ([]TrendingMovie, error) {
	var entries []movieEntry
	if err := c.doGET(ctx, "/movies/trending", limitQuery(limit), &entries, nil); err != nil {
		return nil, err
	}
	trending := make([]TrendingMovie, 0, len(entries))
	for _, e := range entries {
		trending = append(trending, TrendingMovie{Watchers: e.Watchers, Movie: e.Movie})
	}
	return trending, nil
}

// GetPopularMovies returns popular movies. Unlike the chart endpoints the
// popular endpoint returns bare movie objects.
func (c *Client) GetPopularMovies(ctx context.Context, limit int) ([]Movie, error) {
	var movies []Movie
	if err := c.doGET(ctx, "/movies/popular", limitQuery(limit), &movies, nil); err != nil {
		return nil, err
	}
	return movies, nil
}

// GetMostWatchedMovies returns the most watched movies for a period
// (weekly, monthly, yearly, all).
func (c *Client) GetMostWatchedMovies(ctx context.Context, period string, limit int) ([]Movie, error) {
	if period == "" {
		period = "weekly"
	}
	var entries []movieEntry
	if err := c.doGET(ctx, "/movies/watched/"+url.PathEscape(period), limitQuery(limit), &entries, nil); err != nil {
		return nil, err
	}
	return entryMovies(entries), nil
}

// GetMostCollectedMovies returns the most collected movies for a period.
func (c *Client) GetMostCollectedMovies(ctx context.Context, period string, limit int) ([]Movie, error) {
	if period == "" {
		period = "weekly"
	}
	var entries []movieEntry
	if err := c.doGET(ctx, "/movies/collected/"+url.PathEscape(period), limitQuery(limit), &entries, nil); err != nil {
		return nil, err
	}
	return entryMovies(entries), nil
}

// GetAnticipatedMovies returns the most anticipated upcoming movies.
func (c *Client) GetAnticipatedMovies(ctx context.Context, limit int) ([]Movie, error) {
	var entries []movieEntry
	if err := c.doGET(ctx, "/movies/anticipated", limitQuery(limit), &entries, nil); err != nil {
		return nil, err
	}
	return entryMovies(entries), nil
}

// GetBoxOfficeMovies returns the current box office top movies.
func (c *Client) GetBoxOfficeMovies(ctx context.Context) ([]Movie, error) {
	var entries []movieEntry
	if err := c.doGET(ctx, "/movies/boxoffice", nil, &entries, nil); err != nil {
		return nil, err
	}
	return entryMovies(entries), nil
}

// GetRelatedMovies returns movies related to the given Trakt movie ID.
func (c *Client) GetRelatedMovies(ctx context.Context, traktID, limit int) ([]Movie, error) {
	var movies []Movie
	endpoint := "/movies/" + strconv.Itoa(traktID) + "/related"
	if err := c.doGET(ctx, endpoint, limitQuery(limit), &movies, nil); err != nil {
		return nil, err
	}
	return movies, nil
}

// SearchMovie searches for a movie by title and returns the first result,
// or nil when nothing matches.
func (c *Client) SearchMovie(ctx context.Context, queryText string) (*Movie, error) {
	query := url.Values{}
	query.Set("query", queryText)
	query.Set("limit", "1")

	var results []struct {
		Movie Movie `json:"movie"`
	}
	if err := c.doGET(ctx, "/search/movie", query, &results, nil); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	movie := results[0].Movie
	return &movie, nil
}

// SearchLists searches public lists by name.
func (c *Client) SearchLists(ctx context.Context, queryText string, limit int) ([]List, error) {
	query := limitQuery(limit)
	query.Set("query", queryText)

	var results []struct {
		List struct {
			Name        string `json:"name"`
			Description string `json:"description"`
			ItemCount   int    `json:"item_count"`
			Likes       int    `json:"likes"`
			User        struct {
				Username string `json:"username"`
			} `json:"user"`
			IDs struct {
				Trakt int    `json:"trakt"`
				Slug  string `json:"slug"`
			} `json:"ids"`
		} `json:"list"`
	}
	if err := c.doGET(ctx, "/search/list", query, &results, nil); err != nil {
		return nil, err
	}

	lists := make([]List, 0, len(results))
	for _, r := range results {
		lists = append(lists, List{
			Name:        r.List.Name,
			Description: r.List.Description,
			ItemCount:   r.List.ItemCount,
			Likes:       r.List.Likes,
			User:        r.List.User.Username,
			ListID:      strconv.Itoa(r.List.IDs.Trakt),
			Slug:        r.List.IDs.Slug,
		})
	}
	return lists, nil
}

// GetListItems retrieves the movies of a public list with pagination.
// Trakt paginates by page number, so the page is derived from offset/limit.
// Returns the page of items and the total from X-Pagination-Item-Count.
func (c *Client) GetListItems(ctx context.Context, username, listSlug string, offset, limit int) ([]ListItem, int, error) {
	if limit <= 0 {
		limit = 100
	}
	page := offset/limit + 1

	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("page", strconv.Itoa(page))

	var rows []struct {
		Rank     int    `json:"rank"`
		ListedAt string `json:"listed_at"`
		Movie    *Movie `json:"movie"`
	}
	endpoint := "/users/" + url.PathEscape(username) + "/lists/" + url.PathEscape(listSlug) + "/items/movies"
	totalCount := 0
	if err := c.doGET(ctx, endpoint, query, &rows, &totalCount); err != nil {
		return nil, 0, err
	}
	if totalCount == 0 {
		totalCount = len(rows)
	}

	items := make([]ListItem, 0, len(rows))
	for i, row := range rows {
		if row.Movie == nil {
			continue
		}
		rank := row.Rank
		if rank == 0 {
			rank = offset + i + 1
		}
		items = append(items, ListItem{Rank: rank, ListedAt: row.ListedAt, Movie: *row.Movie})
	}
	return items, totalCount, nil
}
