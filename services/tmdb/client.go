// Package tmdb implements the TMDb metadata-enrichment client and the
// b-movie scoring heuristic built on top of it.
package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"golang.org/x/time/rate"
)

const tmdbBaseURL = "https://api.themoviedb.org/3"

// Keyword is a TMDb keyword attached to a movie.
type Keyword struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// EnrichedMovie is the TMDb record used for enrichment filtering and the
// b-movie score.
type EnrichedMovie struct {
	ID                  int       `json:"id"`
	Title               string    `json:"title"`
	Budget              int64     `json:"budget"`
	Revenue             int64     `json:"revenue"`
	Keywords            []Keyword `json:"keywords"`
	VoteAverage         *float64  `json:"vote_average"`
	VoteCount           int       `json:"vote_count"`
	ProductionCompanies []string  `json:"production_companies"`
	ReleaseDate         string    `json:"release_date"`
	Tagline             string    `json:"tagline"`
}

type cacheEntry struct {
	movie     *EnrichedMovie
	fetchedAt time.Time
}

// Client handles TMDb API interactions. Lookups are rate limited, retried on
// transient failures, and cached so repeated syncs don't hammer the API.
type Client struct {
	readAccessToken string
	httpClient      *http.Client
	limiter         *rate.Limiter

	cacheMu  sync.RWMutex
	cache    map[string]*cacheEntry
	cacheTTL time.Duration
}

// NewClient creates a new TMDb API client authenticated with a v4 read
// access token.
func NewClient(readAccessToken string) *Client {
	return &Client{
		readAccessToken: strings.TrimSpace(readAccessToken),
		httpClient:      &http.Client{Timeout: 30 * time.Second},
		// TMDB has generous rate limits; 50/s with small bursts is safe.
		limiter:  rate.NewLimiter(rate.Limit(50), 10),
		cache:    make(map[string]*cacheEntry),
		cacheTTL: 24 * time.Hour,
	}
}

// IsConfigured reports whether the client has credentials.
func (c *Client) IsConfigured() bool {
	return c != nil && c.readAccessToken != ""
}

type statusError struct {
	code   int
	status string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("tmdb request failed: %s", e.status)
}

// doGET performs a GET with rate limiting and retry on transient failures
// (network errors, 429, 5xx). Client errors (4xx) are returned immediately.
func (c *Client) doGET(ctx context.Context, endpoint string, query url.Values, v any) error {
	u := tmdbBaseURL + endpoint
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	return retry.Do(
		func() error {
			if err := c.limiter.Wait(ctx); err != nil {
				return retry.Unrecoverable(err)
			}

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			req.Header.Set("Authorization", "Bearer "+c.readAccessToken)
			req.Header.Set("Accept", "application/json")

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return fmt.Errorf("tmdb api request: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				io.Copy(io.Discard, resp.Body)
				return &statusError{code: resp.StatusCode, status: resp.Status}
			}
			if resp.StatusCode >= 400 {
				io.Copy(io.Discard, resp.Body)
				return retry.Unrecoverable(&statusError{code: resp.StatusCode, status: resp.Status})
			}

			if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
				return retry.Unrecoverable(fmt.Errorf("decode response: %w", err))
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(300*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Printf("[tmdb] request error (attempt %d/3): %v", n+1, err)
		}),
	)
}

type movieResponse struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Budget      int64    `json:"budget"`
	Revenue     int64    `json:"revenue"`
	VoteAverage *float64 `json:"vote_average"`
	VoteCount   int      `json:"vote_count"`
	ReleaseDate string   `json:"release_date"`
	Tagline     string   `json:"tagline"`
	Keywords    struct {
		Keywords []Keyword `json:"keywords"`
	} `json:"keywords"`
	ProductionCompanies []struct {
		Name string `json:"name"`
	} `json:"production_companies"`
}

// GetMovie fetches movie details including keywords and budget. Returns nil
// (without error) when TMDb cannot resolve the ID.
func (c *Client) GetMovie(ctx context.Context, tmdbID string) (*EnrichedMovie, error) {
	c.cacheMu.RLock()
	if entry, ok := c.cache[tmdbID]; ok && time.Since(entry.fetchedAt) < c.cacheTTL {
		c.cacheMu.RUnlock()
		return entry.movie, nil
	}
	c.cacheMu.RUnlock()

	query := url.Values{}
	query.Set("append_to_response", "keywords")

	var data movieResponse
	err := c.doGET(ctx, "/movie/"+url.PathEscape(tmdbID), query, &data)
	if err != nil {
		var se *statusError
		if errors.As(err, &se) && se.code >= 400 && se.code < 500 {
			// Unresolvable ID: cache the miss and report absent, not an error.
			c.storeCache(tmdbID, nil)
			return nil, nil
		}
		return nil, err
	}

	companies := make([]string, 0, len(data.ProductionCompanies))
	for _, pc := range data.ProductionCompanies {
		companies = append(companies, pc.Name)
	}
	movie := &EnrichedMovie{
		ID:                  data.ID,
		Title:               data.Title,
		Budget:              data.Budget,
		Revenue:             data.Revenue,
		Keywords:            data.Keywords.Keywords,
		VoteAverage:         data.VoteAverage,
		VoteCount:           data.VoteCount,
		ProductionCompanies: companies,
		ReleaseDate:         data.ReleaseDate,
		Tagline:             data.Tagline,
	}
	c.storeCache(tmdbID, movie)
	return movie, nil
}

func (c *Client) storeCache(tmdbID string, movie *EnrichedMovie) {
	c.cacheMu.Lock()
	c.cache[tmdbID] = &cacheEntry{movie: movie, fetchedAt: time.Now()}
	c.cacheMu.Unlock()
}

// SearchMovie searches for a movie by title and returns the first result's
// TMDb ID, or 0 when nothing matches.
func (c *Client) SearchMovie(ctx context.Context, title string, year int) (int, error) {
	query := url.Values{}
	query.Set("query", title)
	if year > 0 {
		query.Set("year", strconv.Itoa(year))
	}

	var data struct {
		Results []struct {
			ID int `json:"id"`
		} `json:"results"`
	}
	if err := c.doGET(ctx, "/search/movie", query, &data); err != nil {
		return 0, err
	}
	if len(data.Results) == 0 {
		return 0, nil
	}
	return data.Results[0].ID, nil
}

// DiscoverOptions narrows a TMDb discover query. Zero values leave a filter unset.
type DiscoverOptions struct {
	Genres         []int
	Keywords       []int
	MinVoteAverage float64
	MaxVoteAverage float64
	YearGTE        int
	YearLTE        int
}

// DiscoverMovies returns TMDb IDs of movies matching the discover filters.
func (c *Client) DiscoverMovies(ctx context.Context, opts DiscoverOptions) ([]int, error) {
	query := url.Values{}
	if len(opts.Genres) > 0 {
		query.Set("with_genres", joinInts(opts.Genres, ","))
	}
	if len(opts.Keywords) > 0 {
		query.Set("with_keywords", joinInts(opts.Keywords, "|"))
	}
	if opts.MinVoteAverage > 0 {
		query.Set("vote_average.gte", strconv.FormatFloat(opts.MinVoteAverage, 'f', -1, 64))
	}
	if opts.MaxVoteAverage > 0 {
		query.Set("vote_average.lte", strconv.FormatFloat(opts.MaxVoteAverage, 'f', -1, 64))
	}
	if opts.YearGTE > 0 {
		query.Set("primary_release_date.gte", fmt.Sprintf("%d-01-01", opts.YearGTE))
	}
	if opts.YearLTE > 0 {
		query.Set("primary_release_date.lte", fmt.Sprintf("%d-12-31", opts.YearLTE))
	}

	var data struct {
		Results []struct {
			ID int `json:"id"`
		} `json:"results"`
	}
	if err := c.doGET(ctx, "/discover/movie", query, &data); err != nil {
		return nil, err
	}
	ids := make([]int, 0, len(data.Results))
	for _, r := range data.Results {
		ids = append(ids, r.ID)
	}
	return ids, nil
}

func joinInts(values []int, sep string) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, strconv.Itoa(v))
	}
	return strings.Join(parts, sep)
}
