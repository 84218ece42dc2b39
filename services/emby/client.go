// Package emby implements the REST client for the Emby media server: library
// scans, collection (BoxSet) management, overview updates, and image uploads.
package emby

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"boxsetter/models"
)

const (
	// Minimal fields for list views - excludes heavy data like Overview, MediaSources
	minimalFields = "Genres,Tags,ProviderIds,CommunityRating,ProductionYear"

	// Full fields for detailed views
	fullFields = "Genres,Tags,Overview,ProviderIds,Studios,CommunityRating,CriticRating,ProductionYear,MediaSources"
)

// Client handles Emby REST API interactions. All item queries are scoped to a
// user; the first admin user is resolved lazily and cached for the lifetime
// of the client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client

	userMu sync.Mutex
	userID string
}

// NewClient creates a new Emby API client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-Emby-Token", c.apiKey)
	return req, nil
}

func (c *Client) doJSON(req *http.Request, v any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("emby api request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("emby request failed: %s - %s", resp.Status, string(respBody))
	}
	if v == nil {
		// Drain so keep-alive connections can be reused.
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// GetUserID resolves the first administrator user ID (falling back to the
// first user) and caches it.
func (c *Client) GetUserID(ctx context.Context) (string, error) {
	c.userMu.Lock()
	defer c.userMu.Unlock()
	if c.userID != "" {
		return c.userID, nil
	}

	req, err := c.newRequest(ctx, http.MethodGet, "/Users", nil, nil)
	if err != nil {
		return "", err
	}

	var users []struct {
		ID     string `json:"Id"`
		Policy struct {
			IsAdministrator bool `json:"IsAdministrator"`
		} `json:"Policy"`
	}
	if err := c.doJSON(req, &users); err != nil {
		return "", err
	}
	if len(users) == 0 {
		return "", fmt.Errorf("emby reported no users")
	}

	c.userID = users[0].ID
	for _, u := range users {
		if u.Policy.IsAdministrator {
			c.userID = u.ID
			break
		}
	}
	return c.userID, nil
}

func (c *Client) userItems(ctx context.Context, query url.Values) (*itemsResponse, error) {
	userID, err := c.GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	req, err := c.newRequest(ctx, http.MethodGet, "/Users/"+userID+"/Items", query, nil)
	if err != nil {
		return nil, err
	}
	var data itemsResponse
	if err := c.doJSON(req, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

func movieQuery(fields string, offset, limit int) url.Values {
	query := url.Values{}
	query.Set("IncludeItemTypes", "Movie")
	query.Set("Recursive", "true")
	query.Set("Fields", fields)
	if offset > 0 {
		query.Set("StartIndex", strconv.Itoa(offset))
	}
	if limit > 0 {
		query.Set("Limit", strconv.Itoa(limit))
	}
	return query
}

// GetMoviesMinimal fetches a page of movies with the minimal field
// projection. Returns the page and the library total.
func (c *Client) GetMoviesMinimal(ctx context.Context, offset, limit int) ([]models.MovieSummary, int, error) {
	data, err := c.userItems(ctx, movieQuery(minimalFields, offset, limit))
	if err != nil {
		return nil, 0, err
	}
	movies := make([]models.MovieSummary, 0, len(data.Items))
	for _, item := range data.Items {
		movies = append(movies, parseMovieSummary(item))
	}
	return movies, data.TotalRecordCount, nil
}

// GetMovies fetches a page of movies with the full field projection,
// including all media sources. Returns the page and the library total.
func (c *Client) GetMovies(ctx context.Context, offset, limit int) ([]models.Movie, int, error) {
	data, err := c.userItems(ctx, movieQuery(fullFields, offset, limit))
	if err != nil {
		return nil, 0, err
	}
	movies := make([]models.Movie, 0, len(data.Items))
	for _, item := range data.Items {
		movies = append(movies, parseMovie(item))
	}
	return movies, data.TotalRecordCount, nil
}

// GetMovieByID fetches a single movie with full metadata. Returns nil when
// the item does not exist or is not a movie.
func (c *Client) GetMovieByID(ctx context.Context, movieID string) (*models.Movie, error) {
	userID, err := c.GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("Fields", fullFields)
	req, err := c.newRequest(ctx, http.MethodGet, "/Users/"+userID+"/Items/"+movieID, query, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("emby api request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("emby request failed: %s - %s", resp.Status, string(respBody))
	}

	var item embyItem
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if item.Type != "Movie" {
		return nil, nil
	}
	movie := parseMovie(item)
	return &movie, nil
}

// GetMoviesByIDs fetches specific movies by ID with full metadata.
func (c *Client) GetMoviesByIDs(ctx context.Context, movieIDs []string) ([]models.Movie, error) {
	if len(movieIDs) == 0 {
		return nil, nil
	}

	query := url.Values{}
	query.Set("Ids", strings.Join(movieIDs, ","))
	query.Set("Fields", fullFields)
	data, err := c.userItems(ctx, query)
	if err != nil {
		return nil, err
	}

	movies := make([]models.Movie, 0, len(data.Items))
	for _, item := range data.Items {
		if item.Type != "Movie" {
			continue
		}
		movies = append(movies, parseMovie(item))
	}
	return movies, nil
}

// SearchOptions narrows a movie search. Zero values leave a filter unset.
type SearchOptions struct {
	Genres     []string
	MinYear    int
	MaxYear    int
	SearchTerm string
	Offset     int
	Limit      int
}

// SearchMovies queries the library with server-side filters.
// Returns the matching page and the total match count.
func (c *Client) SearchMovies(ctx context.Context, opts SearchOptions) ([]models.Movie, int, error) {
	query := movieQuery(fullFields, opts.Offset, opts.Limit)
	if len(opts.Genres) > 0 {
		query.Set("Genres", strings.Join(opts.Genres, "|"))
	}
	if opts.MinYear > 0 {
		query.Set("MinYear", strconv.Itoa(opts.MinYear))
	}
	if opts.MaxYear > 0 {
		query.Set("MaxYear", strconv.Itoa(opts.MaxYear))
	}
	if opts.SearchTerm != "" {
		query.Set("SearchTerm", opts.SearchTerm)
	}

	data, err := c.userItems(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	movies := make([]models.Movie, 0, len(data.Items))
	for _, item := range data.Items {
		movies = append(movies, parseMovie(item))
	}
	return movies, data.TotalRecordCount, nil
}

// GetCollections fetches all collections (BoxSets) with their overviews.
func (c *Client) GetCollections(ctx context.Context) ([]models.Collection, error) {
	query := url.Values{}
	query.Set("IncludeItemTypes", "BoxSet")
	query.Set("Recursive", "true")
	query.Set("Fields", "Overview")

	data, err := c.userItems(ctx, query)
	if err != nil {
		return nil, err
	}
	collections := make([]models.Collection, 0, len(data.Items))
	for _, item := range data.Items {
		collections = append(collections, models.Collection{
			ID:       item.ID,
			Name:     item.Name,
			Overview: item.Overview,
		})
	}
	return collections, nil
}

// GetCollection fetches the raw item payload for a collection. The full
// payload is needed to round-trip an overview update without dropping fields.
func (c *Client) GetCollection(ctx context.Context, collectionID string) (map[string]any, error) {
	userID, err := c.GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("Fields", "Overview")
	req, err := c.newRequest(ctx, http.MethodGet, "/Users/"+userID+"/Items/"+collectionID, query, nil)
	if err != nil {
		return nil, err
	}

	var item map[string]any
	if err := c.doJSON(req, &item); err != nil {
		return nil, err
	}
	return item, nil
}

// UpdateCollectionOverview replaces the overview text of a collection.
// Emby updates item metadata with a full-item POST, so the current item is
// fetched, mutated, and written back.
func (c *Client) UpdateCollectionOverview(ctx context.Context, collectionID, overview string) error {
	item, err := c.GetCollection(ctx, collectionID)
	if err != nil {
		return err
	}
	item["Overview"] = overview

	body, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("marshal item: %w", err)
	}

	query := url.Values{}
	query.Set("reqformat", "json")
	req, err := c.newRequest(ctx, http.MethodPost, "/Items/"+collectionID, query, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.doJSON(req, nil)
}

// GetCollectionItems returns the item IDs currently in a collection.
func (c *Client) GetCollectionItems(ctx context.Context, collectionID string) ([]string, error) {
	query := url.Values{}
	query.Set("ParentId", collectionID)

	data, err := c.userItems(ctx, query)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(data.Items))
	for _, item := range data.Items {
		ids = append(ids, item.ID)
	}
	return ids, nil
}

// CreateCollection creates a new collection, optionally seeded with items.
func (c *Client) CreateCollection(ctx context.Context, name string, itemIDs []string) (*models.Collection, error) {
	query := url.Values{}
	query.Set("Name", name)
	if len(itemIDs) > 0 {
		query.Set("Ids", strings.Join(itemIDs, ","))
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/Collections", query, nil)
	if err != nil {
		return nil, err
	}

	var created struct {
		ID string `json:"Id"`
	}
	if err := c.doJSON(req, &created); err != nil {
		return nil, err
	}
	return &models.Collection{ID: created.ID, Name: name, ItemIDs: itemIDs}, nil
}

// AddToCollection adds items to an existing collection.
func (c *Client) AddToCollection(ctx context.Context, collectionID string, itemIDs []string) error {
	query := url.Values{}
	query.Set("Ids", strings.Join(itemIDs, ","))

	req, err := c.newRequest(ctx, http.MethodPost, "/Collections/"+collectionID+"/Items", query, nil)
	if err != nil {
		return err
	}
	return c.doJSON(req, nil)
}

// RemoveFromCollection removes items from a collection.
func (c *Client) RemoveFromCollection(ctx context.Context, collectionID string, itemIDs []string) error {
	query := url.Values{}
	query.Set("Ids", strings.Join(itemIDs, ","))

	req, err := c.newRequest(ctx, http.MethodDelete, "/Collections/"+collectionID+"/Items", query, nil)
	if err != nil {
		return err
	}
	return c.doJSON(req, nil)
}

// DeleteCollection deletes a collection. Member movies are untouched.
func (c *Client) DeleteCollection(ctx context.Context, collectionID string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, "/Items/"+collectionID, nil, nil)
	if err != nil {
		return err
	}
	return c.doJSON(req, nil)
}

// SetItemImage uploads an image for an item (collection, movie, etc).
func (c *Client) SetItemImage(ctx context.Context, itemID string, imageData []byte, imageType, contentType string) error {
	if imageType == "" {
		imageType = "Primary"
	}
	if contentType == "" {
		contentType = "image/png"
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/Items/"+itemID+"/Images/"+imageType, nil, bytes.NewReader(imageData))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	return c.doJSON(req, nil)
}
