// Package mcpserver implements an MCP (Model Context Protocol) server
// that exposes the anyconvert catalog as MCP tools over stdio.
package mcpserver

import (
	"context"
	"regexp"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nicholasgasior/anyconvert"
)

const serverInstructions = `anyconvert MCP server: runs any of the built-in converters (encodings, hashes, data formats, colors, numbers, images, documents).

Call list_converters first to find a converter id, then convert with that id. Text converters read "text"; file converters read "files" (a local path or base64 content) plus the optional "aux" parameter.

Configuration via environment variables:
- ANYCONVERT_MCP_MAX_FILE_SIZE (default: 52428800): largest accepted input file in bytes
- ANYCONVERT_MCP_INLINE_LIMIT (default: 10485760): largest artifact returned inline as base64; bigger artifacts need "output"`

// Run starts the MCP server over stdio and blocks until the client disconnects
// or the context is cancelled.
func Run(ctx context.Context, tk *anyconvert.Toolkit, version string) error {
	server := mcp.NewServer(
		&mcp.Implementation{Name: "anyconvert", Version: version},
		&mcp.ServerOptions{
			Instructions: serverInstructions,
		},
	)
	registerAllTools(server, tk)
	return server.Run(ctx, &mcp.StdioTransport{})
}

func registerAllTools(server *mcp.Server, tk *anyconvert.Toolkit) {
	h := &handlers{toolkit: tk}

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_converters",
		Description: "List the available converters with their ids, categories and input kinds. Filter with category (encode, hash, data, web, number, color, text, utility, image, media, document). Converters with acceptsFile=true need files; multipleFiles=true converters take all files at once.",
	}, h.listConverters)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "convert",
		Description: "Run one converter by id. Supply text for text converters, or files (path or base64) for file converters; aux carries the extra parameter some file converters read (e.g. a width for image-resize). Failures come back as a diagnostic, not an error. Binary results are returned as base64 unless output names a file to write.",
	}, h.convert)
}

type handlers struct {
	toolkit *anyconvert.Toolkit
}

// pathPattern matches absolute filesystem paths so they are not leaked to MCP clients.
var pathPattern = regexp.MustCompile(`(?:/(?:home|tmp|var|Users|etc|opt|usr|private|root|mnt|srv|run|snap|nix)[a-zA-Z0-9._/-]*)`)

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return pathPattern.ReplaceAllString(err.Error(), "<path>")
}

// errResult creates an MCP error result from an error.
func errResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: sanitizeError(err)}},
	}
}
