// Package mcp adapts reviewbadged to the Model Context Protocol so agents
// can ask about pending reviews.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/reviewbadge/reviewbadge/pkg/client"
)

// Server adapts reviewbadged to MCP over stdio.
type Server struct {
	mcpServer *server.MCPServer
	apiClient *client.Client
}

// NewServer creates a new MCP server instance.
func NewServer(apiURL string) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer(
			"reviewbadge",
			"1.0.0",
		),
		apiClient: client.NewClient(apiURL),
	}
	s.registerResources()
	s.registerTools()
	return s
}

// Serve starts the MCP server on stdio.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(
		"reviewbadge://reviews",
		"Pending Reviews",
		mcp.WithResourceDescription("Per-provider pending review counts for the signed-in user"),
		mcp.WithMIMEType("application/json"),
	), s.handleReadReviews)
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool(
		"get_pending_reviews",
		mcp.WithDescription("Return the pending review counts per provider and the aggregate total."),
	), s.handleGetPendingReviews)

	s.mcpServer.AddTool(mcp.NewTool(
		"refresh_reviews",
		mcp.WithDescription("Trigger an immediate re-check of all review providers."),
	), s.handleRefreshReviews)
}

func (s *Server) handleReadReviews(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	counts, err := s.apiClient.GetReviews(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch reviews: %w", err)
	}

	data, err := json.MarshalIndent(counts, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal reviews: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handleGetPendingReviews(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	counts, err := s.apiClient.GetReviews(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("API error: %v", err)), nil
	}

	ids := make([]string, 0, len(counts))
	total := 0
	for id, count := range counts {
		ids = append(ids, id)
		total += count
	}
	sort.Strings(ids)

	var sb strings.Builder
	for _, id := range ids {
		fmt.Fprintf(&sb, "%s: %d\n", id, counts[id])
	}
	fmt.Fprintf(&sb, "total: %d", total)

	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) handleRefreshReviews(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.apiClient.Refresh(ctx); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("API error: %v", err)), nil
	}
	return mcp.NewToolResultText("refresh triggered"), nil
}
