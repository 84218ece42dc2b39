package sync

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boxsetter/models"
	"boxsetter/services/tmdb"
	"boxsetter/services/trakt"
)

type fakeLibrary struct {
	movies      []models.Movie
	details     map[string]*models.Movie
	collections []models.Collection
	members     map[string][]string

	added   map[string][]string
	removed map[string][]string
}

func newFakeLibrary(movies []models.Movie) *fakeLibrary {
	details := make(map[string]*models.Movie, len(movies))
	for i := range movies {
		details[movies[i].ID] = &movies[i]
	}
	return &fakeLibrary{
		movies:  movies,
		details: details,
		members: make(map[string][]string),
		added:   make(map[string][]string),
		removed: make(map[string][]string),
	}
}

func (f *fakeLibrary) page(offset, limit int) []models.Movie {
	if offset >= len(f.movies) {
		return nil
	}
	end := offset + limit
	if end > len(f.movies) {
		end = len(f.movies)
	}
	return f.movies[offset:end]
}

func (f *fakeLibrary) GetMovies(_ context.Context, offset, limit int) ([]models.Movie, int, error) {
	return f.page(offset, limit), len(f.movies), nil
}

func (f *fakeLibrary) GetMoviesMinimal(_ context.Context, offset, limit int) ([]models.MovieSummary, int, error) {
	page := f.page(offset, limit)
	summaries := make([]models.MovieSummary, 0, len(page))
	for _, m := range page {
		summaries = append(summaries, m.Summary())
	}
	return summaries, len(f.movies), nil
}

func (f *fakeLibrary) GetMovieByID(_ context.Context, movieID string) (*models.Movie, error) {
	return f.details[movieID], nil
}

func (f *fakeLibrary) GetCollections(_ context.Context) ([]models.Collection, error) {
	return f.collections, nil
}

func (f *fakeLibrary) GetCollectionItems(_ context.Context, collectionID string) ([]string, error) {
	return f.members[collectionID], nil
}

func (f *fakeLibrary) AddToCollection(_ context.Context, collectionID string, itemIDs []string) error {
	f.added[collectionID] = append(f.added[collectionID], itemIDs...)
	f.members[collectionID] = append(f.members[collectionID], itemIDs...)
	return nil
}

func (f *fakeLibrary) RemoveFromCollection(_ context.Context, collectionID string, itemIDs []string) error {
	f.removed[collectionID] = append(f.removed[collectionID], itemIDs...)
	return nil
}

type fakeEnrichment struct {
	movies map[string]*tmdb.EnrichedMovie
	calls  int
}

func (f *fakeEnrichment) GetMovie(_ context.Context, tmdbID string) (*tmdb.EnrichedMovie, error) {
	f.calls++
	return f.movies[tmdbID], nil
}

type fakeLists struct {
	items []trakt.ListItem
}

func (f *fakeLists) GetListItems(_ context.Context, _, _ string, offset, limit int) ([]trakt.ListItem, int, error) {
	if offset >= len(f.items) {
		return nil, len(f.items), nil
	}
	end := offset + limit
	if end > len(f.items) {
		end = len(f.items)
	}
	return f.items[offset:end], len(f.items), nil
}

func sorted(ids []string) []string {
	out := append([]string(nil), ids...)
	sort.Strings(out)
	return out
}

func TestSyncFiltersEndToEnd(t *testing.T) {
	library := newFakeLibrary([]models.Movie{
		{ID: "a", Name: "A", Genres: []string{"Horror"}, Year: 1987, CommunityRating: 6.2, Tags: []string{"campy"}},
		{ID: "b", Name: "B", Genres: []string{"Comedy"}, Year: 2015, CommunityRating: 8.0},
		{ID: "c", Name: "C", Genres: []string{"Horror"}, Year: 1991, CommunityRating: 5.5},
	})
	library.members["col1"] = []string{"c"}

	engine := NewEngine(library, &fakeEnrichment{}, &fakeLists{}, Options{})
	criteria := &Criteria{Genres: []string{"Horror"}, MinRating: 5.0, Tags: []string{"campy"}}

	report, err := engine.SyncWithCriteria(context.Background(),
		models.Collection{ID: "col1", Name: "Cult Horror"}, criteria)
	require.NoError(t, err)

	assert.Equal(t, "Synced 'Cult Horror': 1 movies match, +1 added, -1 removed", report)
	assert.Equal(t, []string{"a"}, library.added["col1"])
	assert.Equal(t, []string{"c"}, library.removed["col1"])
}

func TestSyncDeltaPartialOverlap(t *testing.T) {
	library := newFakeLibrary([]models.Movie{
		{ID: "m1", Genres: []string{"Horror"}},
		{ID: "m2", Genres: []string{"Horror"}},
		{ID: "m3", Genres: []string{"Horror"}},
		{ID: "m4", Genres: []string{"Drama"}},
	})
	// m3 already in, m4 wrongly in, m1/m2 missing.
	library.members["col"] = []string{"m3", "m4"}

	engine := NewEngine(library, &fakeEnrichment{}, &fakeLists{}, Options{})
	report, err := engine.SyncWithCriteria(context.Background(),
		models.Collection{ID: "col", Name: "Horror"}, &Criteria{Genres: []string{"Horror"}})
	require.NoError(t, err)

	assert.Equal(t, "Synced 'Horror': 3 movies match, +2 added, -1 removed", report)
	assert.Equal(t, []string{"m1", "m2"}, sorted(library.added["col"]))
	assert.Equal(t, []string{"m4"}, library.removed["col"])
}

func TestSyncPaginatesAcrossBatches(t *testing.T) {
	var movies []models.Movie
	for i := 0; i < 5; i++ {
		movies = append(movies, models.Movie{ID: fmt.Sprintf("m%d", i), Genres: []string{"Horror"}})
	}
	library := newFakeLibrary(movies)

	engine := NewEngine(library, &fakeEnrichment{}, &fakeLists{}, Options{BatchSize: 2})
	report, err := engine.SyncWithCriteria(context.Background(),
		models.Collection{ID: "col", Name: "All"}, &Criteria{Genres: []string{"Horror"}})
	require.NoError(t, err)

	assert.Equal(t, "Synced 'All': 5 movies match, +5 added, -0 removed", report)
}

func TestSyncYearAndRatingBounds(t *testing.T) {
	library := newFakeLibrary([]models.Movie{
		{ID: "in", Year: 1985, CommunityRating: 6.0},
		{ID: "early", Year: 1979, CommunityRating: 6.0},
		{ID: "late", Year: 1995, CommunityRating: 6.0},
		{ID: "lowrated", Year: 1985, CommunityRating: 3.0},
		{ID: "noyear", CommunityRating: 6.0}, // missing year fails year bounds
	})

	engine := NewEngine(library, &fakeEnrichment{}, &fakeLists{}, Options{})
	report, err := engine.SyncWithCriteria(context.Background(),
		models.Collection{ID: "col", Name: "80s"},
		&Criteria{MinYear: 1980, MaxYear: 1989, MinRating: 5.0})
	require.NoError(t, err)

	assert.Equal(t, "Synced '80s': 1 movies match, +1 added, -0 removed", report)
	assert.Equal(t, []string{"in"}, library.added["col"])
}

func TestSyncQualityStage(t *testing.T) {
	fourK := models.MediaSource{Video: &models.VideoStream{Width: 3840, HDRType: models.HDRTypeSDR}}
	hd := models.MediaSource{Video: &models.VideoStream{Width: 1920, HDRType: models.HDRTypeSDR}}

	library := newFakeLibrary([]models.Movie{
		{ID: "uhd", Genres: []string{"Horror"}, MediaSources: []models.MediaSource{hd, fourK}},
		{ID: "hd", Genres: []string{"Horror"}, MediaSources: []models.MediaSource{hd}},
	})
	// A candidate whose detail fetch returns nothing is excluded, not an error.
	library.movies = append(library.movies, models.Movie{ID: "ghost", Genres: []string{"Horror"}})
	delete(library.details, "ghost")

	engine := NewEngine(library, &fakeEnrichment{}, &fakeLists{}, Options{})
	report, err := engine.SyncWithCriteria(context.Background(),
		models.Collection{ID: "col", Name: "4K Horror"},
		&Criteria{Genres: []string{"Horror"}, Resolution: "4K"})
	require.NoError(t, err)

	assert.Equal(t, "Synced '4K Horror': 1 movies match, +1 added, -0 removed", report)
	assert.Equal(t, []string{"uhd"}, library.added["col"])
}

func TestSyncEnrichmentStage(t *testing.T) {
	library := newFakeLibrary([]models.Movie{
		{ID: "cult", TMDBID: "100"},
		{ID: "blockbuster", TMDBID: "200"},
		{ID: "unlinked"}, // no external ID: skipped by enrichment filters
	})
	cultVote, blockbusterVote := 5.5, 8.2
	enrichment := &fakeEnrichment{movies: map[string]*tmdb.EnrichedMovie{
		"100": {ID: 100, Budget: 500_000, VoteAverage: &cultVote,
			Keywords: []tmdb.Keyword{{Name: "monster"}}},
		"200": {ID: 200, Budget: 200_000_000, VoteAverage: &blockbusterVote},
	}}

	minScore := 0.5
	engine := NewEngine(library, enrichment, &fakeLists{}, Options{})
	report, err := engine.SyncWithCriteria(context.Background(),
		models.Collection{ID: "col", Name: "B Movies"},
		&Criteria{MinBMovieScore: &minScore, Keywords: []string{"Monster", "alien"}})
	require.NoError(t, err)

	assert.Equal(t, "Synced 'B Movies': 1 movies match, +1 added, -0 removed", report)
	assert.Equal(t, []string{"cult"}, library.added["col"])
	assert.Equal(t, 2, enrichment.calls, "unlinked movie must not trigger a lookup")
}

func TestSyncTraktListAdditiveOnly(t *testing.T) {
	library := newFakeLibrary([]models.Movie{
		{ID: "e1", TMDBID: "11"},
		{ID: "e2", TMDBID: "22"},
		{ID: "e3", TMDBID: "33"},
	})
	// e3 was added by hand and is not on the list; it must survive.
	library.members["col"] = []string{"e3"}

	lists := &fakeLists{items: []trakt.ListItem{
		{Movie: trakt.Movie{Title: "One", IDs: trakt.IDs{TMDB: 11}}},
		{Movie: trakt.Movie{Title: "Two", IDs: trakt.IDs{TMDB: 22}}},
		{Movie: trakt.Movie{Title: "Missing", IDs: trakt.IDs{TMDB: 99}}},
	}}

	engine := NewEngine(library, &fakeEnrichment{}, lists, Options{})
	report, err := engine.SyncWithCriteria(context.Background(),
		models.Collection{ID: "col", Name: "Curated"},
		&Criteria{TraktListUser: "someone", TraktListSlug: "best-of"})
	require.NoError(t, err)

	assert.Equal(t, "Synced 'Curated' from Trakt list: 2 movies match, +2 added", report)
	assert.Equal(t, []string{"e1", "e2"}, sorted(library.added["col"]))
	assert.Empty(t, library.removed["col"], "external-list mode never removes")
}

func TestSyncCollectionWithoutCriteria(t *testing.T) {
	library := newFakeLibrary(nil)
	engine := NewEngine(library, &fakeEnrichment{}, &fakeLists{}, Options{})

	report, err := engine.SyncCollection(context.Background(),
		models.Collection{ID: "col", Name: "Manual", Overview: "just prose"})
	require.NoError(t, err)
	assert.Equal(t, "No sync criteria set for 'Manual'", report)
}

func TestSyncAll(t *testing.T) {
	library := newFakeLibrary([]models.Movie{
		{ID: "h1", Genres: []string{"Horror"}},
		{ID: "c1", Genres: []string{"Comedy"}},
	})

	horror, err := EncodeCriteria(&Criteria{Genres: []string{"Horror"}}, "")
	require.NoError(t, err)
	comedy, err := EncodeCriteria(&Criteria{Genres: []string{"Comedy"}}, "")
	require.NoError(t, err)

	library.collections = []models.Collection{
		{ID: "col1", Name: "Horror", Overview: horror},
		{ID: "col2", Name: "Manual"},
		{ID: "col3", Name: "Comedy", Overview: comedy},
	}

	engine := NewEngine(library, &fakeEnrichment{}, &fakeLists{}, Options{})
	report, err := engine.SyncAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t,
		"Synced 'Horror': 1 movies match, +1 added, -0 removed\n\n"+
			"Synced 'Comedy': 1 movies match, +1 added, -0 removed",
		report)
}

func TestSyncAllNoCriteria(t *testing.T) {
	library := newFakeLibrary(nil)
	library.collections = []models.Collection{{ID: "col", Name: "Manual"}}

	engine := NewEngine(library, &fakeEnrichment{}, &fakeLists{}, Options{})
	report, err := engine.SyncAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "No collections have sync criteria set", report)
}
