package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/document-intake/internal/core/domain"
	"github.com/kirillkom/document-intake/internal/core/ports"
)

const previewDims = 10

// Tools exposes the text pipeline and the similarity index as MCP tools.
type Tools struct {
	processor  ports.DocumentProcessor
	similarity ports.SimilarityService
}

func NewTools(processor ports.DocumentProcessor, similarity ports.SimilarityService) *Tools {
	return &Tools{processor: processor, similarity: similarity}
}

func (t *Tools) Server(name, version string) *server.MCPServer {
	srv := server.NewMCPServer(name, version, server.WithToolCapabilities(false))

	srv.AddTool(mcp.NewTool("analyze_text",
		mcp.WithDescription("Run language detection, translation, classification, metadata extraction, embedding and summarization over raw text."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Document text")),
		mcp.WithString("filename", mcp.Description("Name reported in the record")),
	), t.analyzeText)

	srv.AddTool(mcp.NewTool("embed_query",
		mcp.WithDescription("Embed a query string with the document embedding model."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Query text")),
	), t.embedQuery)

	srv.AddTool(mcp.NewTool("search_similar",
		mcp.WithDescription("Return the indexed documents nearest to a query."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Query text")),
		mcp.WithNumber("limit", mcp.Description("Maximum hits, 1-50")),
	), t.searchSimilar)

	return srv
}

func (t *Tools) analyzeText(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	filename := req.GetString("filename", "text.txt")

	record, err := t.processor.ProcessText(ctx, filename, text)
	if err != nil {
		slog.Warn("mcp_tool_failed", "tool", "analyze_text", "error", err)
		return mcp.NewToolResultErrorFromErr("analyze text", err), nil
	}
	if record.NoText {
		return jsonResult(map[string]string{"file_name": record.FileName, "error": domain.NoTextMessage})
	}

	summary := *record
	if len(summary.Embedding) > previewDims {
		summary.Embedding = summary.Embedding[:previewDims]
	}
	return jsonResult(summary)
}

func (t *Tools) embedQuery(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	vector, err := t.similarity.EmbedQuery(ctx, query)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("embed query", err), nil
	}
	return jsonResult(map[string]any{"query": query, "embedding_vector": vector})
}

func (t *Tools) searchSimilar(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	hits, err := t.similarity.Search(ctx, query, req.GetInt("limit", 5))
	if err != nil {
		return mcp.NewToolResultErrorFromErr("search similar", err), nil
	}
	return jsonResult(map[string]any{"query": query, "hits": hits})
}

func jsonResult(payload any) (*mcp.CallToolResult, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal tool result: %w", err)
	}
	return mcp.NewToolResultText(string(raw)), nil
}
