package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"boxsetter/models"
	syncsvc "boxsetter/services/sync"
)

func (s *Server) registerCollectionTools() {
	s.mcp.AddTool(mcp.NewTool("list_collections",
		mcp.WithDescription("List all collections in Emby"),
	), s.listCollections)

	s.mcp.AddTool(mcp.NewTool("get_collection_items",
		mcp.WithDescription("Get movies in a specific collection"),
		mcp.WithString("collection_id", mcp.Required(), mcp.Description("Collection ID")),
	), s.getCollectionItems)

	s.mcp.AddTool(mcp.NewTool("create_collection",
		mcp.WithDescription("Create a new collection with optional initial movies"),
		mcp.WithString("name", mcp.Required(), mcp.Description("Collection name")),
		mcp.WithArray("movie_ids", mcp.Description("Initial movie IDs to add"), mcp.Items(map[string]any{"type": "string"})),
	), s.createCollection)

	s.mcp.AddTool(mcp.NewTool("add_to_collection",
		mcp.WithDescription("Add movies to an existing collection"),
		mcp.WithString("collection_id", mcp.Required(), mcp.Description("Collection ID")),
		mcp.WithArray("movie_ids", mcp.Required(), mcp.Description("Movie IDs to add"), mcp.Items(map[string]any{"type": "string"})),
	), s.addToCollection)

	s.mcp.AddTool(mcp.NewTool("remove_from_collection",
		mcp.WithDescription("Remove movies from a collection"),
		mcp.WithString("collection_id", mcp.Required(), mcp.Description("Collection ID")),
		mcp.WithArray("movie_ids", mcp.Required(), mcp.Description("Movie IDs to remove"), mcp.Items(map[string]any{"type": "string"})),
	), s.removeFromCollection)

	s.mcp.AddTool(mcp.NewTool("delete_collection",
		mcp.WithDescription("Delete a collection (does not delete the movies)"),
		mcp.WithString("collection_id", mcp.Required(), mcp.Description("Collection ID to delete")),
	), s.deleteCollection)

	s.mcp.AddTool(mcp.NewTool("set_collection_criteria",
		mcp.WithDescription("Set sync criteria for a collection. Criteria are stored in the collection's metadata and used by sync_collection to automatically update membership. Replaces any existing criteria."),
		mcp.WithString("collection_id", mcp.Required(), mcp.Description("Collection ID")),
		mcp.WithArray("genres", mcp.Description("Required genres, any-of (e.g., ['Horror'])"), mcp.Items(map[string]any{"type": "string"})),
		mcp.WithNumber("min_year", mcp.Description("Minimum production year")),
		mcp.WithNumber("max_year", mcp.Description("Maximum production year")),
		mcp.WithNumber("min_rating", mcp.Description("Minimum community rating (0-10)")),
		mcp.WithNumber("max_rating", mcp.Description("Maximum community rating (0-10)")),
		mcp.WithNumber("min_b_movie_score", mcp.Description("Minimum b-movie score (0-1, requires TMDb lookup)")),
		mcp.WithArray("tags", mcp.Description("Required tags in Emby, all-of"), mcp.Items(map[string]any{"type": "string"})),
		mcp.WithArray("keywords", mcp.Description("Required TMDb keywords, any-of"), mcp.Items(map[string]any{"type": "string"})),
		mcp.WithString("resolution", mcp.Description("Required resolution bucket: 4K, 1080p, 720p, 480p, SD")),
		mcp.WithArray("hdr_types", mcp.Description("Accepted HDR types: DV, HDR10+, HDR10, HLG, SDR"), mcp.Items(map[string]any{"type": "string"})),
		mcp.WithArray("dv_profiles", mcp.Description("Accepted Dolby Vision profiles (e.g., [7, 8])"), mcp.Items(map[string]any{"type": "integer"})),
		mcp.WithString("dv_layer", mcp.Description("Required Dolby Vision enhancement layer: FEL or MEL")),
		mcp.WithArray("audio_formats", mcp.Description("Accepted audio formats (e.g., ['Atmos', 'DTS:X', 'lossless'])"), mcp.Items(map[string]any{"type": "string"})),
		mcp.WithBoolean("lossless_audio", mcp.Description("Require at least one lossless audio track")),
		mcp.WithString("trakt_list_user", mcp.Description("Trakt list owner; with trakt_list_slug, membership mirrors the list (additive only)")),
		mcp.WithString("trakt_list_slug", mcp.Description("Trakt list slug")),
		mcp.WithString("description", mcp.Description("Human-readable description of the collection criteria")),
	), s.setCollectionCriteria)

	s.mcp.AddTool(mcp.NewTool("get_collection_criteria",
		mcp.WithDescription("Get the sync criteria for a collection"),
		mcp.WithString("collection_id", mcp.Required(), mcp.Description("Collection ID")),
	), s.getCollectionCriteria)

	s.mcp.AddTool(mcp.NewTool("sync_collection",
		mcp.WithDescription("Sync a collection based on its stored criteria. Adds matching movies and removes non-matching ones."),
		mcp.WithString("collection_id", mcp.Required(), mcp.Description("Collection ID to sync")),
	), s.syncCollection)

	s.mcp.AddTool(mcp.NewTool("sync_all_collections",
		mcp.WithDescription("Sync all collections that have stored criteria"),
	), s.syncAllCollections)
}

// findCollection resolves a collection by ID. Returns nil when it does not
// exist; callers turn that into the "Collection not found" result.
func (s *Server) findCollection(ctx context.Context, collectionID string) (*models.Collection, error) {
	collections, err := s.emby.GetCollections(ctx)
	if err != nil {
		return nil, err
	}
	for i := range collections {
		if collections[i].ID == collectionID {
			return &collections[i], nil
		}
	}
	return nil, nil
}

func (s *Server) listCollections(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	collections, err := s.emby.GetCollections(ctx)
	if err != nil {
		return errorResult(err), nil
	}

	out := make([]map[string]any, 0, len(collections))
	for _, collection := range collections {
		out = append(out, map[string]any{
			"id":           collection.ID,
			"name":         collection.Name,
			"description":  syncsvc.StripCriteria(collection.Overview),
			"has_criteria": syncsvc.DecodeCriteria(collection.Overview) != nil,
		})
	}
	return jsonResult(out), nil
}

func (s *Server) getCollectionItems(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	collectionID, err := req.RequireString("collection_id")
	if err != nil {
		return errorResult(err), nil
	}

	itemIDs, err := s.emby.GetCollectionItems(ctx, collectionID)
	if err != nil {
		return errorResult(err), nil
	}

	movies, err := s.emby.GetMoviesByIDs(ctx, itemIDs)
	if err != nil {
		return errorResult(err), nil
	}

	out := make([]map[string]any, 0, len(movies))
	for _, movie := range movies {
		out = append(out, map[string]any{
			"id":   movie.ID,
			"name": movie.Name,
			"year": movie.Year,
		})
	}
	return jsonResult(out), nil
}

func (s *Server) createCollection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return errorResult(err), nil
	}
	movieIDs := req.GetStringSlice("movie_ids", nil)

	collection, err := s.emby.CreateCollection(ctx, name, movieIDs)
	if err != nil {
		return errorResult(err), nil
	}
	return textResult(fmt.Sprintf("Created collection '%s' with ID: %s", collection.Name, collection.ID)), nil
}

func (s *Server) addToCollection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	collectionID, err := req.RequireString("collection_id")
	if err != nil {
		return errorResult(err), nil
	}
	movieIDs := req.GetStringSlice("movie_ids", nil)

	if err := s.emby.AddToCollection(ctx, collectionID, movieIDs); err != nil {
		return errorResult(err), nil
	}
	return textResult(fmt.Sprintf("Added %d movies to collection", len(movieIDs))), nil
}

func (s *Server) removeFromCollection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	collectionID, err := req.RequireString("collection_id")
	if err != nil {
		return errorResult(err), nil
	}
	movieIDs := req.GetStringSlice("movie_ids", nil)

	if err := s.emby.RemoveFromCollection(ctx, collectionID, movieIDs); err != nil {
		return errorResult(err), nil
	}
	return textResult(fmt.Sprintf("Removed %d movies from collection", len(movieIDs))), nil
}

func (s *Server) deleteCollection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	collectionID, err := req.RequireString("collection_id")
	if err != nil {
		return errorResult(err), nil
	}

	if err := s.emby.DeleteCollection(ctx, collectionID); err != nil {
		return errorResult(err), nil
	}
	return textResult("Collection deleted"), nil
}

func (s *Server) setCollectionCriteria(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	collectionID, err := req.RequireString("collection_id")
	if err != nil {
		return errorResult(err), nil
	}

	collection, err := s.findCollection(ctx, collectionID)
	if err != nil {
		return errorResult(err), nil
	}
	if collection == nil {
		return textResult("Collection not found"), nil
	}

	criteria := criteriaFromArgs(req.GetArguments())
	description := req.GetString("description", "")

	overview, err := syncsvc.EncodeCriteria(criteria, description)
	if err != nil {
		return errorResult(err), nil
	}
	if err := s.emby.UpdateCollectionOverview(ctx, collectionID, overview); err != nil {
		return errorResult(err), nil
	}

	encoded, err := json.MarshalIndent(criteria, "", "  ")
	if err != nil {
		return errorResult(err), nil
	}
	return textResult(fmt.Sprintf("Set criteria for '%s': %s", collection.Name, encoded)), nil
}

func (s *Server) getCollectionCriteria(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	collectionID, err := req.RequireString("collection_id")
	if err != nil {
		return errorResult(err), nil
	}

	collection, err := s.findCollection(ctx, collectionID)
	if err != nil {
		return errorResult(err), nil
	}
	if collection == nil {
		return textResult("Collection not found"), nil
	}

	criteria := syncsvc.DecodeCriteria(collection.Overview)
	if criteria == nil {
		return textResult(fmt.Sprintf("No sync criteria set for '%s'", collection.Name)), nil
	}
	return jsonResult(map[string]any{
		"name":     collection.Name,
		"criteria": criteria,
	}), nil
}

func (s *Server) syncCollection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	collectionID, err := req.RequireString("collection_id")
	if err != nil {
		return errorResult(err), nil
	}

	collection, err := s.findCollection(ctx, collectionID)
	if err != nil {
		return errorResult(err), nil
	}
	if collection == nil {
		return textResult("Collection not found"), nil
	}

	report, err := s.engine.SyncCollection(ctx, *collection)
	if err != nil {
		return errorResult(err), nil
	}
	return textResult(report), nil
}

func (s *Server) syncAllCollections(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	report, err := s.engine.SyncAll(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	return textResult(report), nil
}
