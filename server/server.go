// Package server exposes the collection tooling over MCP stdio. Every tool
// returns plain text; remote failures are rendered as an error message, not
// raised, so a conversational client always gets something to show.
package server

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"boxsetter/services/comfyui"
	"boxsetter/services/emby"
	syncsvc "boxsetter/services/sync"
	"boxsetter/services/tastedive"
	"boxsetter/services/tmdb"
	"boxsetter/services/trakt"
)

const serverName = "boxsetter"

// Deps carries the collaborators the tool handlers operate on. Trakt,
// TasteDive and ComfyUI are optional; their tools report missing
// configuration instead of failing at startup.
type Deps struct {
	Emby      *emby.Client
	TMDB      *tmdb.Client
	Trakt     *trakt.Client
	TasteDive *tastedive.Client
	ComfyUI   *comfyui.Client
	Engine    *syncsvc.Engine
}

// Server wires the MCP tool surface to the service clients.
type Server struct {
	emby      *emby.Client
	tmdb      *tmdb.Client
	trakt     *trakt.Client
	tastedive *tastedive.Client
	comfyui   *comfyui.Client
	engine    *syncsvc.Engine

	mcp *mcpserver.MCPServer
}

// New creates the MCP server and registers every tool.
func New(version string, deps Deps) *Server {
	s := &Server{
		emby:      deps.Emby,
		tmdb:      deps.TMDB,
		trakt:     deps.Trakt,
		tastedive: deps.TasteDive,
		comfyui:   deps.ComfyUI,
		engine:    deps.Engine,
		mcp:       mcpserver.NewMCPServer(serverName, version, nil),
	}
	s.registerLibraryTools()
	s.registerCollectionTools()
	s.registerDiscoveryTools()
	s.registerArtworkTools()
	return s
}

// Serve runs the stdio transport until the client disconnects.
func (s *Server) Serve() error {
	return mcpserver.ServeStdio(s.mcp)
}

func textResult(text string) *mcp.CallToolResult {
	return mcp.NewToolResultText(text)
}

func errorResult(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("Error: %v", err))
}

// jsonResult renders v as indented JSON text, matching how the rest of the
// tools talk to the model.
func jsonResult(v any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult(err)
	}
	return mcp.NewToolResultText(string(data))
}
