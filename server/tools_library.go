package server

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"boxsetter/services/emby"
	"boxsetter/services/tmdb"
)

func (s *Server) registerLibraryTools() {
	s.mcp.AddTool(mcp.NewTool("get_library_movies",
		mcp.WithDescription("Get movies from the Emby library with metadata. Results are paginated; use offset to page through large libraries."),
		mcp.WithNumber("offset", mcp.Description("Result offset for pagination"), mcp.DefaultNumber(0)),
		mcp.WithNumber("limit", mcp.Description("Maximum results to return"), mcp.DefaultNumber(100)),
	), s.getLibraryMovies)

	s.mcp.AddTool(mcp.NewTool("search_movies",
		mcp.WithDescription("Search movies by genre, year range, or search term"),
		mcp.WithArray("genres", mcp.Description("Filter by genres (e.g., ['Horror', 'Comedy'])"), mcp.Items(map[string]any{"type": "string"})),
		mcp.WithNumber("min_year", mcp.Description("Minimum production year")),
		mcp.WithNumber("max_year", mcp.Description("Maximum production year")),
		mcp.WithString("search_term", mcp.Description("Search term for movie title")),
		mcp.WithNumber("offset", mcp.Description("Result offset for pagination"), mcp.DefaultNumber(0)),
		mcp.WithNumber("limit", mcp.Description("Maximum results to return"), mcp.DefaultNumber(100)),
	), s.searchMovies)

	s.mcp.AddTool(mcp.NewTool("get_movie_details",
		mcp.WithDescription("Get detailed metadata for a movie, including media sources and TMDb enrichment"),
		mcp.WithString("movie_id", mcp.Required(), mcp.Description("Emby movie ID")),
	), s.getMovieDetails)

	s.mcp.AddTool(mcp.NewTool("enrich_movie_metadata",
		mcp.WithDescription("Fetch TMDb metadata for a movie and calculate b-movie score"),
		mcp.WithString("tmdb_id", mcp.Required(), mcp.Description("TMDb ID of the movie")),
	), s.enrichMovieMetadata)
}

func (s *Server) getLibraryMovies(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	offset := req.GetInt("offset", 0)
	limit := req.GetInt("limit", 100)

	movies, total, err := s.emby.GetMoviesMinimal(ctx, offset, limit)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(map[string]any{
		"total":  total,
		"offset": offset,
		"movies": movies,
	}), nil
}

func (s *Server) searchMovies(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	opts := emby.SearchOptions{
		Genres:     req.GetStringSlice("genres", nil),
		MinYear:    req.GetInt("min_year", 0),
		MaxYear:    req.GetInt("max_year", 0),
		SearchTerm: req.GetString("search_term", ""),
		Offset:     req.GetInt("offset", 0),
		Limit:      req.GetInt("limit", 100),
	}

	movies, total, err := s.emby.SearchMovies(ctx, opts)
	if err != nil {
		return errorResult(err), nil
	}

	summaries := make([]any, 0, len(movies))
	for _, movie := range movies {
		summaries = append(summaries, movie.Summary())
	}
	return jsonResult(map[string]any{
		"total":  total,
		"movies": summaries,
	}), nil
}

func (s *Server) getMovieDetails(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	movieID, err := req.RequireString("movie_id")
	if err != nil {
		return errorResult(err), nil
	}

	movie, err := s.emby.GetMovieByID(ctx, movieID)
	if err != nil {
		return errorResult(err), nil
	}
	if movie == nil {
		return textResult("Movie not found"), nil
	}

	out := map[string]any{"movie": movie}
	if movie.TMDBID != "" && s.tmdb.IsConfigured() {
		enriched, err := s.tmdb.GetMovie(ctx, movie.TMDBID)
		if err != nil {
			return errorResult(err), nil
		}
		if enriched != nil {
			out["tmdb"] = enrichmentBlock(enriched)
		}
	}
	return jsonResult(out), nil
}

func (s *Server) enrichMovieMetadata(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tmdbID, err := req.RequireString("tmdb_id")
	if err != nil {
		return errorResult(err), nil
	}

	enriched, err := s.tmdb.GetMovie(ctx, tmdbID)
	if err != nil {
		return errorResult(err), nil
	}
	if enriched == nil {
		return textResult("Movie not found on TMDb"), nil
	}

	out := enrichmentBlock(enriched)
	out["id"] = enriched.ID
	out["title"] = enriched.Title
	out["vote_count"] = enriched.VoteCount
	out["is_b_movie_studio"] = tmdb.IsBMovieStudio(enriched.ProductionCompanies)
	out["has_campy_keywords"] = tmdb.HasCampyKeywords(enriched.Keywords)
	return jsonResult(out), nil
}

// enrichmentBlock is the shared TMDb summary attached to movie detail and
// enrichment results.
func enrichmentBlock(enriched *tmdb.EnrichedMovie) map[string]any {
	keywords := make([]string, 0, len(enriched.Keywords))
	for _, k := range enriched.Keywords {
		keywords = append(keywords, k.Name)
	}
	return map[string]any{
		"budget":               enriched.Budget,
		"revenue":              enriched.Revenue,
		"keywords":             keywords,
		"vote_average":         enriched.VoteAverage,
		"production_companies": enriched.ProductionCompanies,
		"b_movie_score":        tmdb.BMovieScore(enriched),
	}
}
