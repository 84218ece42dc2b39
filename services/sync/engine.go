package sync

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	gosync "sync"

	"github.com/sourcegraph/conc/pool"

	"boxsetter/models"
	"boxsetter/services/tmdb"
	"boxsetter/services/trakt"
)

const (
	// Library scans page in batches of this size.
	defaultBatchSize = 200

	// Cap on concurrent per-item detail fetches during the quality stage.
	defaultQualityFetchWorkers = 20

	// Trakt list pages are fetched at the API maximum.
	traktListPageSize = 100
)

// LibraryClient is the remote media-library surface the engine needs.
type LibraryClient interface {
	GetMovies(ctx context.Context, offset, limit int) ([]models.Movie, int, error)
	GetMoviesMinimal(ctx context.Context, offset, limit int) ([]models.MovieSummary, int, error)
	GetMovieByID(ctx context.Context, movieID string) (*models.Movie, error)
	GetCollections(ctx context.Context) ([]models.Collection, error)
	GetCollectionItems(ctx context.Context, collectionID string) ([]string, error)
	AddToCollection(ctx context.Context, collectionID string, itemIDs []string) error
	RemoveFromCollection(ctx context.Context, collectionID string, itemIDs []string) error
}

// EnrichmentClient resolves a movie's external metadata record.
type EnrichmentClient interface {
	GetMovie(ctx context.Context, tmdbID string) (*tmdb.EnrichedMovie, error)
}

// ListClient pages through an external Trakt list.
type ListClient interface {
	GetListItems(ctx context.Context, username, listSlug string, offset, limit int) ([]trakt.ListItem, int, error)
}

// Options tune the engine. Zero values use package defaults.
type Options struct {
	BatchSize           int
	QualityFetchWorkers int
}

// Engine converges collection membership to match stored criteria. It holds
// no state of its own between syncs; everything lives in the remote library.
type Engine struct {
	library        LibraryClient
	enrichment     EnrichmentClient
	lists          ListClient
	batchSize      int
	qualityWorkers int
}

// NewEngine creates a sync engine over the given collaborators.
func NewEngine(library LibraryClient, enrichment EnrichmentClient, lists ListClient, opts Options) *Engine {
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.QualityFetchWorkers <= 0 {
		opts.QualityFetchWorkers = defaultQualityFetchWorkers
	}
	return &Engine{
		library:        library,
		enrichment:     enrichment,
		lists:          lists,
		batchSize:      opts.BatchSize,
		qualityWorkers: opts.QualityFetchWorkers,
	}
}

// SyncCollection syncs one collection against criteria decoded from its
// overview. Returns a human-readable summary; collections without criteria
// report that nothing was done.
func (e *Engine) SyncCollection(ctx context.Context, collection models.Collection) (string, error) {
	criteria := DecodeCriteria(collection.Overview)
	if criteria == nil {
		return fmt.Sprintf("No sync criteria set for '%s'", collection.Name), nil
	}
	return e.SyncWithCriteria(ctx, collection, criteria)
}

// SyncWithCriteria syncs one collection against explicit criteria.
func (e *Engine) SyncWithCriteria(ctx context.Context, collection models.Collection, criteria *Criteria) (string, error) {
	if criteria.UsesTraktList() {
		return e.syncFromTraktList(ctx, collection, criteria)
	}
	return e.syncFromFilters(ctx, collection, criteria)
}

// SyncAll syncs every collection that has criteria, concatenating the
// per-collection reports. Collections without criteria are skipped.
func (e *Engine) SyncAll(ctx context.Context) (string, error) {
	collections, err := e.library.GetCollections(ctx)
	if err != nil {
		return "", err
	}

	var reports []string
	for _, collection := range collections {
		criteria := DecodeCriteria(collection.Overview)
		if criteria == nil {
			continue
		}
		report, err := e.SyncWithCriteria(ctx, collection, criteria)
		if err != nil {
			return "", fmt.Errorf("sync '%s': %w", collection.Name, err)
		}
		reports = append(reports, report)
	}

	if len(reports) == 0 {
		return "No collections have sync criteria set", nil
	}
	return strings.Join(reports, "\n\n"), nil
}

// syncFromTraktList replaces all filtering with membership in an external
// Trakt list, cross-referenced by TMDb ID. This mode is additive-only: it
// never removes existing members, so manual additions survive.
func (e *Engine) syncFromTraktList(ctx context.Context, collection models.Collection, criteria *Criteria) (string, error) {
	listIDs, err := e.fetchTraktListTMDBIDs(ctx, criteria.TraktListUser, criteria.TraktListSlug)
	if err != nil {
		return "", err
	}

	currentIDs, err := e.collectionMemberSet(ctx, collection.ID)
	if err != nil {
		return "", err
	}

	matched := make(map[string]bool)
	offset := 0
	total := -1
	for {
		movies, totalCount, err := e.library.GetMoviesMinimal(ctx, offset, e.batchSize)
		if err != nil {
			return "", err
		}
		if total < 0 {
			total = totalCount
		}
		if len(movies) == 0 {
			break
		}
		for _, movie := range movies {
			if movie.TMDBID != "" && listIDs[movie.TMDBID] {
				matched[movie.ID] = true
			}
		}
		offset += e.batchSize
		if offset >= total {
			break
		}
	}

	toAdd := subtract(matched, currentIDs)
	if len(toAdd) > 0 {
		if err := e.library.AddToCollection(ctx, collection.ID, toAdd); err != nil {
			return "", err
		}
	}

	log.Printf("[sync] '%s' trakt list %s/%s: %d match, %d added",
		collection.Name, criteria.TraktListUser, criteria.TraktListSlug, len(matched), len(toAdd))
	return fmt.Sprintf("Synced '%s' from Trakt list: %d movies match, +%d added",
		collection.Name, len(matched), len(toAdd)), nil
}

// fetchTraktListTMDBIDs pages through a Trakt list and collects the TMDb IDs
// of its movies.
func (e *Engine) fetchTraktListTMDBIDs(ctx context.Context, username, listSlug string) (map[string]bool, error) {
	ids := make(map[string]bool)
	offset := 0
	for {
		items, total, err := e.lists.GetListItems(ctx, username, listSlug, offset, traktListPageSize)
		if err != nil {
			return nil, err
		}
		if len(items) == 0 {
			break
		}
		for _, item := range items {
			if item.Movie.IDs.TMDB != 0 {
				ids[strconv.Itoa(item.Movie.IDs.TMDB)] = true
			}
		}
		offset += len(items)
		if offset >= total {
			break
		}
	}
	return ids, nil
}

// syncFromFilters scans the whole library in batches, applying filters in
// cost order: cheap attribute filters, then per-item quality detail lookups
// (bounded concurrency), then external enrichment lookups (sequential).
// Membership is mutated once, after matching completes.
func (e *Engine) syncFromFilters(ctx context.Context, collection models.Collection, criteria *Criteria) (string, error) {
	currentIDs, err := e.collectionMemberSet(ctx, collection.ID)
	if err != nil {
		return "", err
	}

	matched := make(map[string]bool)
	offset := 0
	total := -1
	for {
		movies, totalCount, err := e.library.GetMovies(ctx, offset, e.batchSize)
		if err != nil {
			return "", err
		}
		if total < 0 {
			total = totalCount
		}
		if len(movies) == 0 {
			break
		}

		candidates := make([]models.Movie, 0, len(movies))
		for _, movie := range movies {
			if matchesAttributes(&movie, criteria) {
				candidates = append(candidates, movie)
			}
		}

		if criteria.HasQualityConstraints() {
			candidates, err = e.filterByQuality(ctx, candidates, criteria)
			if err != nil {
				return "", err
			}
		}

		if criteria.HasEnrichmentConstraints() {
			candidates, err = e.filterByEnrichment(ctx, candidates, criteria)
			if err != nil {
				return "", err
			}
		}

		for _, movie := range candidates {
			matched[movie.ID] = true
		}

		offset += e.batchSize
		if offset >= total {
			break
		}
	}

	toAdd := subtract(matched, currentIDs)
	toRemove := subtract(currentIDs, matched)

	if len(toAdd) > 0 {
		if err := e.library.AddToCollection(ctx, collection.ID, toAdd); err != nil {
			return "", err
		}
	}
	if len(toRemove) > 0 {
		if err := e.library.RemoveFromCollection(ctx, collection.ID, toRemove); err != nil {
			return "", err
		}
	}

	log.Printf("[sync] '%s': %d match, %d added, %d removed",
		collection.Name, len(matched), len(toAdd), len(toRemove))
	return fmt.Sprintf("Synced '%s': %d movies match, +%d added, -%d removed",
		collection.Name, len(matched), len(toAdd), len(toRemove)), nil
}

// matchesAttributes applies the cheap in-memory filters: genre OR-membership,
// inclusive year and rating bounds, and the case-insensitive tag subset test.
func matchesAttributes(movie *models.Movie, c *Criteria) bool {
	if len(c.Genres) > 0 {
		found := false
		for _, want := range c.Genres {
			for _, genre := range movie.Genres {
				if genre == want {
					found = true
					break
				}
			}
			if found {
				break
			}
		}
		if !found {
			return false
		}
	}

	if c.MinYear > 0 && (movie.Year == 0 || movie.Year < c.MinYear) {
		return false
	}
	if c.MaxYear > 0 && (movie.Year == 0 || movie.Year > c.MaxYear) {
		return false
	}

	if c.MinRating > 0 && (movie.CommunityRating == 0 || movie.CommunityRating < c.MinRating) {
		return false
	}
	if c.MaxRating > 0 && (movie.CommunityRating == 0 || movie.CommunityRating > c.MaxRating) {
		return false
	}

	if len(c.Tags) > 0 {
		movieTags := make(map[string]bool, len(movie.Tags))
		for _, tag := range movie.Tags {
			movieTags[strings.ToLower(tag)] = true
		}
		for _, want := range c.Tags {
			if !movieTags[strings.ToLower(want)] {
				return false
			}
		}
	}

	return true
}

// filterByQuality re-fetches each candidate with the full projection (the
// batch fetch carries only one media source per item) and applies the
// quality predicate. Detail fetches run concurrently under the worker cap;
// items whose detail fetch returns nothing are excluded, not errors.
func (e *Engine) filterByQuality(ctx context.Context, candidates []models.Movie, criteria *Criteria) ([]models.Movie, error) {
	if len(candidates) == 0 {
		return candidates, nil
	}

	var mu gosync.Mutex
	survivors := make([]models.Movie, 0, len(candidates))

	p := pool.New().WithContext(ctx).WithMaxGoroutines(e.qualityWorkers)
	for _, candidate := range candidates {
		candidate := candidate
		p.Go(func(ctx context.Context) error {
			full, err := e.library.GetMovieByID(ctx, candidate.ID)
			if err != nil {
				return err
			}
			if full == nil {
				return nil
			}
			if MatchesQuality(full, criteria) {
				mu.Lock()
				survivors = append(survivors, *full)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}
	return survivors, nil
}

// filterByEnrichment applies the b-movie score and keyword filters. Lookups
// are sequential; items without an external ID, or that the enrichment
// service cannot resolve, are skipped.
func (e *Engine) filterByEnrichment(ctx context.Context, candidates []models.Movie, criteria *Criteria) ([]models.Movie, error) {
	survivors := make([]models.Movie, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate.TMDBID == "" {
			continue
		}
		enriched, err := e.enrichment.GetMovie(ctx, candidate.TMDBID)
		if err != nil {
			return nil, err
		}
		if enriched == nil {
			continue
		}

		if criteria.MinBMovieScore != nil && tmdb.BMovieScore(enriched) < *criteria.MinBMovieScore {
			continue
		}

		if len(criteria.Keywords) > 0 {
			movieKeywords := make(map[string]bool, len(enriched.Keywords))
			for _, k := range enriched.Keywords {
				movieKeywords[strings.ToLower(k.Name)] = true
			}
			found := false
			for _, want := range criteria.Keywords {
				if movieKeywords[strings.ToLower(want)] {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}

		survivors = append(survivors, candidate)
	}
	return survivors, nil
}

func (e *Engine) collectionMemberSet(ctx context.Context, collectionID string) (map[string]bool, error) {
	ids, err := e.library.GetCollectionItems(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

func subtract(a, b map[string]bool) []string {
	var diff []string
	for id := range a {
		if !b[id] {
			diff = append(diff, id)
		}
	}
	return diff
}
