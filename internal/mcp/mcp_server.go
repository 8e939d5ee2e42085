// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/ecgscope/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the ecgscope MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.StoreManager) *server.MCPServer {
	s := server.NewMCPServer(
		"ECG Pipeline Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	// --- 1. Tool: list_recordings ---
	s.AddTool(mcp.NewTool("list_recordings",
		mcp.WithDescription("List the ECG recordings available from the configured source, newest first."),
	), h.handleListRecordings)

	// --- 2. Tool: analyze_recording ---
	s.AddTool(mcp.NewTool("analyze_recording",
		mcp.WithDescription("Run the full-trace pipeline on one recording: smooth, detect R-peaks and compute RR intervals."),
		mcp.WithString("recording_id", mcp.Description("ID of the recording to analyze."), mcp.Required()),
		mcp.WithString("detector", mcp.Description("Peak detector (neurokit, threshold). Defaults to the configured detector."), mcp.Enum("neurokit", "threshold")),
		mcp.WithNumber("window", mcp.Description("Moving-average window size in samples.")),
		mcp.WithBoolean("include_series", mcp.Description("Include the conditioned series in the response. Defaults to false.")),
	), h.handleAnalyzeRecording)

	// --- 3. Tool: preview_recordings ---
	s.AddTool(mcp.NewTool("preview_recordings",
		mcp.WithDescription("Compute downsampled previews of the first seconds of several recordings concurrently."),
		mcp.WithString("recording_ids", mcp.Description("Comma-separated recording IDs. Defaults to every recording the source lists.")),
		mcp.WithNumber("preview_samples", mcp.Description("Number of leading samples to keep before downsampling.")),
		mcp.WithNumber("stride", mcp.Description("Keep every stride-th sample.")),
	), h.handlePreviewRecordings)

	return s
}

// StartMCPServer starts the ecgscope MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.StoreManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
