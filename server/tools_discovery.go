package server

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerDiscoveryTools() {
	s.mcp.AddTool(mcp.NewTool("get_trending_movies",
		mcp.WithDescription("Get movies currently trending on Trakt"),
		mcp.WithNumber("limit", mcp.Description("Maximum results to return"), mcp.DefaultNumber(10)),
	), s.getTrendingMovies)

	s.mcp.AddTool(mcp.NewTool("get_popular_movies",
		mcp.WithDescription("Get the most popular movies on Trakt"),
		mcp.WithNumber("limit", mcp.Description("Maximum results to return"), mcp.DefaultNumber(10)),
	), s.getPopularMovies)

	s.mcp.AddTool(mcp.NewTool("search_trakt_lists",
		mcp.WithDescription("Search public Trakt lists by name. Use a list's user and slug with get_trakt_list_items or as collection criteria."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query")),
		mcp.WithNumber("limit", mcp.Description("Maximum results to return"), mcp.DefaultNumber(10)),
	), s.searchTraktLists)

	s.mcp.AddTool(mcp.NewTool("get_trakt_list_items",
		mcp.WithDescription("Get the movies on a public Trakt list"),
		mcp.WithString("username", mcp.Required(), mcp.Description("List owner's username")),
		mcp.WithString("list_slug", mcp.Required(), mcp.Description("List slug")),
		mcp.WithNumber("offset", mcp.Description("Result offset for pagination"), mcp.DefaultNumber(0)),
		mcp.WithNumber("limit", mcp.Description("Maximum results to return"), mcp.DefaultNumber(100)),
	), s.getTraktListItems)

	s.mcp.AddTool(mcp.NewTool("get_related_movies",
		mcp.WithDescription("Get movies related to a given title, per Trakt"),
		mcp.WithString("title", mcp.Required(), mcp.Description("Movie title to find related movies for")),
		mcp.WithNumber("limit", mcp.Description("Maximum results to return"), mcp.DefaultNumber(10)),
	), s.getRelatedMovies)

	s.mcp.AddTool(mcp.NewTool("get_similar_movies",
		mcp.WithDescription("Get similar movies from TasteDive based on one or more seed titles"),
		mcp.WithArray("titles", mcp.Required(), mcp.Description("Seed movie titles"), mcp.Items(map[string]any{"type": "string"})),
		mcp.WithNumber("limit", mcp.Description("Maximum results to return"), mcp.DefaultNumber(10)),
		mcp.WithBoolean("include_info", mcp.Description("Include descriptions and links in results")),
	), s.getSimilarMovies)
}

func (s *Server) getTrendingMovies(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !s.trakt.HasCredentials() {
		return textResult("Trakt credentials are not configured"), nil
	}

	trending, err := s.trakt.GetTrendingMovies(ctx, req.GetInt("limit", 10))
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(trending), nil
}

func (s *Server) getPopularMovies(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !s.trakt.HasCredentials() {
		return textResult("Trakt credentials are not configured"), nil
	}

	popular, err := s.trakt.GetPopularMovies(ctx, req.GetInt("limit", 10))
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(popular), nil
}

func (s *Server) searchTraktLists(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !s.trakt.HasCredentials() {
		return textResult("Trakt credentials are not configured"), nil
	}
	query, err := req.RequireString("query")
	if err != nil {
		return errorResult(err), nil
	}

	lists, err := s.trakt.SearchLists(ctx, query, req.GetInt("limit", 10))
	if err != nil {
		return errorResult(err), nil
	}
	if len(lists) == 0 {
		return textResult(fmt.Sprintf("No Trakt lists found for '%s'", query)), nil
	}
	return jsonResult(lists), nil
}

func (s *Server) getTraktListItems(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !s.trakt.HasCredentials() {
		return textResult("Trakt credentials are not configured"), nil
	}
	username, err := req.RequireString("username")
	if err != nil {
		return errorResult(err), nil
	}
	listSlug, err := req.RequireString("list_slug")
	if err != nil {
		return errorResult(err), nil
	}

	items, total, err := s.trakt.GetListItems(ctx, username, listSlug,
		req.GetInt("offset", 0), req.GetInt("limit", 100))
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(map[string]any{
		"total": total,
		"items": items,
	}), nil
}

func (s *Server) getRelatedMovies(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !s.trakt.HasCredentials() {
		return textResult("Trakt credentials are not configured"), nil
	}
	title, err := req.RequireString("title")
	if err != nil {
		return errorResult(err), nil
	}

	movie, err := s.trakt.SearchMovie(ctx, title)
	if err != nil {
		return errorResult(err), nil
	}
	if movie == nil {
		return textResult("Movie not found on Trakt"), nil
	}

	related, err := s.trakt.GetRelatedMovies(ctx, movie.IDs.Trakt, req.GetInt("limit", 10))
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(map[string]any{
		"movie":   movie,
		"related": related,
	}), nil
}

func (s *Server) getSimilarMovies(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !s.tastedive.HasCredentials() {
		return textResult("TasteDive credentials are not configured"), nil
	}
	titles := req.GetStringSlice("titles", nil)
	if len(titles) == 0 {
		return textResult("At least one title is required"), nil
	}

	result, err := s.tastedive.GetSimilar(ctx, titles, "movie",
		req.GetInt("limit", 10), req.GetBool("include_info", false))
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(result), nil
}
