package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/huangsam/ecgscope/core"
	"github.com/huangsam/ecgscope/internal/contract"
	"github.com/huangsam/ecgscope/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.StoreManager
}

// previewSummary is the per-recording payload of preview_recordings.
type previewSummary struct {
	RecordingID string               `json:"recording_id"`
	Label       string               `json:"label"`
	RawSamples  int                  `json:"raw_samples"`
	Series      schema.VoltageSeries `json:"series,omitempty"`
	Warning     string               `json:"warning,omitempty"`
	Error       string               `json:"error,omitempty"`
}

func (h *toolHandler) handleListRecordings(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	recs, err := core.ListRecordings(ctx, h.baseCfg.Clone())
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing failed: %v", err)), nil
	}
	jsonData, _ := json.MarshalIndent(recs, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleAnalyzeRecording(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	id := strings.TrimSpace(request.GetString("recording_id", ""))
	if id == "" {
		return mcp.NewToolResultError("recording_id is required"), nil
	}
	cfg.RecordingIDs = []string{id}
	if d := request.GetString("detector", ""); d != "" {
		cfg.Detector = schema.DetectorAlgorithm(d)
		if _, ok := schema.ValidDetectorAlgorithms[cfg.Detector]; !ok {
			return mcp.NewToolResultError(fmt.Sprintf("invalid detector %q", d)), nil
		}
	}
	if w := request.GetInt("window", 0); w != 0 {
		if w < 1 || w > contract.MaxWindowSize {
			return mcp.NewToolResultError(fmt.Sprintf("window must be between 1 and %d", contract.MaxWindowSize)), nil
		}
		cfg.WindowSize = w
	}

	result, _, err := core.GetTraceResult(core.WithSuppressHeader(ctx), cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err)), nil
	}
	if !request.GetBool("include_series", false) {
		result.Series = nil
	}

	enriched := schema.EnrichResults([]schema.PipelineResult{result})[0]
	jsonData, _ := json.MarshalIndent(enriched, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handlePreviewRecordings(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	if ids := request.GetString("recording_ids", ""); ids != "" {
		cfg.RecordingIDs = nil
		for id := range strings.SplitSeq(ids, ",") {
			if id = strings.TrimSpace(id); id != "" {
				cfg.RecordingIDs = append(cfg.RecordingIDs, id)
			}
		}
	}
	if n := request.GetInt("preview_samples", 0); n != 0 {
		if n < 1 {
			return mcp.NewToolResultError("preview_samples must be greater than 0"), nil
		}
		cfg.PreviewSamples = n
	}
	if stride := request.GetInt("stride", 0); stride != 0 {
		if stride < 1 {
			return mcp.NewToolResultError("stride must be greater than 0"), nil
		}
		cfg.PreviewStride = stride
	}

	outcomes, _, err := core.GetPreviewResults(core.WithSuppressHeader(ctx), cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("previews failed: %v", err)), nil
	}

	summaries := make([]previewSummary, len(outcomes))
	for i, o := range outcomes {
		summaries[i] = previewSummary{
			RecordingID: o.Recording.ID,
			Label:       contract.GetOutcomeLabel(o, false),
			RawSamples:  o.Result.RawSamples,
			Series:      o.Result.Series,
			Warning:     o.Result.Warning,
		}
		if o.Failed() {
			summaries[i].Error = o.Err.Error()
		}
	}
	jsonData, _ := json.MarshalIndent(summaries, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}
