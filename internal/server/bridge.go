package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"melechmcp/internal/agent"
	"melechmcp/internal/rag"
)

// DocSearcher is the /search client used by search_juce_docs.
type DocSearcher interface {
	Search(ctx context.Context, query string, k int) ([]rag.Result, error)
}

// NewBridge serves the documentation search tools.
func NewBridge(docs DocSearcher, ag *agent.Agent) *mcpserver.MCPServer {
	s := newServer(NameBridge)
	s.AddTool(searchJUCEDocsTool(), makeSearchJUCEDocsHandler(docs))
	s.AddTool(queryJUCERAGTool(), makeQueryJUCERAGHandler(ag))
	return s
}

func searchJUCEDocsTool() mcp.Tool {
	return mcp.NewTool("search_juce_docs",
		mcp.WithDescription("Semantic search over the JUCE documentation via the local RAG HTTP server."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Natural language or keyword query"),
		),
		mcp.WithNumber("k",
			mcp.Description("Maximum number of segments to return (default 5)"),
		),
	)
}

func queryJUCERAGTool() mcp.Tool {
	return mcp.NewTool("query_juce_rag",
		mcp.WithDescription("Answer a JUCE question with the top documentation segments and the sources they came from."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The JUCE question"),
		),
		mcp.WithNumber("top_k",
			mcp.Description("Number of segments in the answer (default 3)"),
		),
	)
}

func makeSearchJUCEDocsHandler(docs DocSearcher) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		q := req.GetString("query", "")
		k := req.GetInt("k", rag.DefaultK)

		results, err := docs.Search(ctx, q, k)
		if err != nil {
			return mcp.NewToolResultText(rag.BridgeError(err)), nil
		}
		return mcp.NewToolResultText(rag.FormatBridge(results)), nil
	}
}

func makeQueryJUCERAGHandler(ag *agent.Agent) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		q := req.GetString("query", "")
		topK := req.GetInt("top_k", 3)

		answer, sources := ag.QueryDocs(ctx, q, topK)
		src, err := json.Marshal(sources)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("encode sources: %v", err)), nil
		}
		return mcp.NewToolResultText(answer + "\n\nSOURCES: " + string(src)), nil
	}
}
