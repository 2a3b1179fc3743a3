package api

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"webhub/config"
	"webhub/crawler"
	"webhub/pipeline"
)

const (
	ToolSearchAndFetch = "search_and_fetch"
	ToolFetchURL       = "fetch_url"
)

// Hub adapts tool calls onto the retrieval pipeline.
type Hub struct {
	pipeline *pipeline.Pipeline
	logger   *zap.Logger
}

func NewHub(logger *zap.Logger, p *pipeline.Pipeline) *Hub {
	return &Hub{pipeline: p, logger: logger}
}

func (h *Hub) Register(s *server.MCPServer) {
	s.AddTool(searchAndFetchTool(), h.SearchAndFetch)
	s.AddTool(fetchURLTool(), h.FetchURL)
}

func searchAndFetchTool() mcp.Tool {
	return mcp.NewTool(ToolSearchAndFetch,
		mcp.WithDescription("Searches the web in a headless browser, opens each result and returns the visible text of every page."),
		mcp.WithString("query",
			mcp.Description("Search query"),
			mcp.Required(),
		),
		mcp.WithString("engine_template",
			mcp.Description("Search URL with a single {query} placeholder, e.g. https://html.duckduckgo.com/html/?q={query}"),
		),
		mcp.WithNumber("result_limit",
			mcp.Description("Maximum number of results to open"),
			mcp.Min(1),
			mcp.Max(config.MaxResultLimit),
		),
		mcp.WithNumber("byte_budget",
			mcp.Description("Maximum bytes of text kept per page"),
		),
		mcp.WithNumber("fetch_timeout_seconds",
			mcp.Description("Navigation timeout for each result page"),
			mcp.Max(config.MaxTimeout.Seconds()),
		),
		mcp.WithString("content_mode",
			mcp.Description("How page text is read"),
			mcp.Enum(string(crawler.ModeText), string(crawler.ModeReadability), string(crawler.ModeTrafilatura), string(crawler.ModeMarkdown)),
		),
	)
}

func fetchURLTool() mcp.Tool {
	return mcp.NewTool(ToolFetchURL,
		mcp.WithDescription("Opens one URL in a headless browser and returns its visible text."),
		mcp.WithString("url",
			mcp.Description("Absolute http/https URL"),
			mcp.Required(),
		),
	)
}

// SearchAndFetch never returns a transport error; pipeline failures become
// error results the agent can read.
func (h *Hub) SearchAndFetch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	sr := h.pipeline.NewRequest(query)
	sr.EngineTemplate = req.GetString("engine_template", sr.EngineTemplate)
	if _, ok := req.GetArguments()["result_limit"]; ok {
		n := req.GetFloat("result_limit", 0)
		if !(n >= 1 && n <= config.MaxResultLimit) {
			return invalidInput(fmt.Errorf("result_limit must be between 1 and %d", config.MaxResultLimit)), nil
		}
		sr.ResultLimit = int(n)
	}
	sr.PerPageByteBudget = req.GetInt("byte_budget", sr.PerPageByteBudget)
	sr.ContentMode = req.GetString("content_mode", sr.ContentMode)
	if _, ok := req.GetArguments()["fetch_timeout_seconds"]; ok {
		secs := req.GetFloat("fetch_timeout_seconds", 0)
		if !(secs > 0 && secs <= config.MaxTimeout.Seconds()) {
			return invalidInput(fmt.Errorf("fetch_timeout_seconds must be greater than 0 and at most %g", config.MaxTimeout.Seconds())), nil
		}
		sr.NavigationTimeout = time.Duration(secs * float64(time.Second))
	}

	report, err := h.pipeline.Run(ctx, sr)
	if err != nil {
		h.logger.Warn("search_and_fetch failed", zap.String("query", query), zap.Error(err))
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(report), nil
}

// invalidInput reports argument errors caught before the request is built,
// worded like the pipeline's own validation failures.
func invalidInput(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError((&pipeline.PipelineError{Kind: pipeline.KindInvalidInput, Err: err}).Error())
}

func (h *Hub) FetchURL(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	target, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text, err := h.pipeline.FetchURL(ctx, target)
	if err != nil {
		h.logger.Warn("fetch_url failed", zap.String("url", target), zap.Error(err))
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(text), nil
}
