package server

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"boxsetter/services/comfyui"
)

func (s *Server) registerArtworkTools() {
	s.mcp.AddTool(mcp.NewTool("generate_collection_artwork",
		mcp.WithDescription("Generate poster artwork for a collection using a local ComfyUI instance, optionally uploading it as the collection's primary image"),
		mcp.WithString("collection_id", mcp.Required(), mcp.Description("Collection ID")),
		mcp.WithString("prompt", mcp.Required(), mcp.Description("Image generation prompt describing the poster")),
		mcp.WithNumber("count", mcp.Description("Number of variations to generate"), mcp.DefaultNumber(1)),
		mcp.WithBoolean("upload", mcp.Description("Upload the generated image as the collection's primary image (single image only)")),
		mcp.WithNumber("width", mcp.Description("Image width in pixels"), mcp.DefaultNumber(768)),
		mcp.WithNumber("height", mcp.Description("Image height in pixels"), mcp.DefaultNumber(1152)),
	), s.generateCollectionArtwork)
}

func (s *Server) generateCollectionArtwork(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	collectionID, err := req.RequireString("collection_id")
	if err != nil {
		return errorResult(err), nil
	}
	prompt, err := req.RequireString("prompt")
	if err != nil {
		return errorResult(err), nil
	}

	if !s.comfyui.IsAvailable(ctx) {
		return textResult("ComfyUI is not reachable; check that it is running and COMFYUI_URL is correct"), nil
	}

	collection, err := s.findCollection(ctx, collectionID)
	if err != nil {
		return errorResult(err), nil
	}
	if collection == nil {
		return textResult("Collection not found"), nil
	}

	opts := comfyui.WorkflowOptions{
		Width:  req.GetInt("width", 0),
		Height: req.GetInt("height", 0),
	}

	count := req.GetInt("count", 1)
	if count > 1 {
		paths, err := s.comfyui.GenerateMultiple(ctx, prompt, collection.Name, count, opts)
		if err != nil {
			return errorResult(err), nil
		}
		return textResult(fmt.Sprintf("Generated %d artwork variations for '%s':\n%s",
			len(paths), collection.Name, strings.Join(paths, "\n"))), nil
	}

	path, imageData, err := s.comfyui.GeneratePoster(ctx, prompt, collection.Name, opts)
	if err != nil {
		return errorResult(err), nil
	}

	if req.GetBool("upload", false) {
		if err := s.emby.SetItemImage(ctx, collectionID, imageData, "Primary", "image/png"); err != nil {
			return errorResult(err), nil
		}
		return textResult(fmt.Sprintf("Generated artwork for '%s' at %s and set it as the primary image",
			collection.Name, path)), nil
	}
	return textResult(fmt.Sprintf("Generated artwork for '%s' at %s", collection.Name, path)), nil
}
