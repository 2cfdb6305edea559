package server

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"melechmcp/internal/index"
	"melechmcp/internal/query"
)

// NewDSP serves search_dsp_algorithms over the DSP index.
func NewDSP(snap *index.Snapshot[index.FileRecord]) *mcpserver.MCPServer {
	s := newServer(NameDSP)
	s.AddTool(searchAlgorithmsTool(), makeSearchAlgorithmsHandler(snap))
	s.AddTool(indexStatsTool(), makeStatsHandler(func() query.Summary { return query.SummarizeDSP(snap) }))
	return s
}

// NewJUCE serves juce_class over the JUCE class index.
func NewJUCE(snap *index.Snapshot[index.ClassRecord]) *mcpserver.MCPServer {
	s := newServer(NameJUCE)
	s.AddTool(juceClassTool(), makeJUCEClassHandler(snap))
	s.AddTool(indexStatsTool(), makeStatsHandler(func() query.Summary { return query.SummarizeJUCE(snap) }))
	return s
}

// NewMelech serves find_project_files over the project structure index.
func NewMelech(snap *index.Snapshot[index.ProjectFileRecord]) *mcpserver.MCPServer {
	s := newServer(NameMelech)
	s.AddTool(findProjectFilesTool(), makeFindProjectFilesHandler(snap))
	s.AddTool(indexStatsTool(), makeStatsHandler(func() query.Summary { return query.SummarizeProjects(snap) }))
	return s
}

// --- Tool schema builders ---

func searchAlgorithmsTool() mcp.Tool {
	return mcp.NewTool("search_dsp_algorithms",
		mcp.WithDescription("Find DSP algorithm source files by name. Returns the processing domain, SIMD usage and the start of the code for every match."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Case-insensitive fragment of the algorithm (file) name, e.g. 'gain' or 'fft'"),
		),
		mcp.WithString("domain",
			mcp.Description("Optional processing domain filter: FrequencyDomain, TimeDomain or ControlRate"),
		),
		mcp.WithBoolean("simd_only",
			mcp.Description("Only return SIMD-optimized files"),
		),
	)
}

func juceClassTool() mcp.Tool {
	return mcp.NewTool("juce_class",
		mcp.WithDescription("Look up a JUCE class by name. Returns up to two classes with module, base classes and the start of the declaration."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Case-insensitive fragment of the class name, e.g. 'AudioBuffer'"),
		),
	)
}

func findProjectFilesTool() mcp.Tool {
	return mcp.NewTool("find_project_files",
		mcp.WithDescription("List files of the scanned plugin projects by project name and file role (Processor, Editor, Config, Service). Both filters must match."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("project_name",
			mcp.Description("Case-insensitive fragment of the project name"),
		),
		mcp.WithString("role",
			mcp.Description("Case-insensitive fragment of the file role"),
		),
	)
}

func indexStatsTool() mcp.Tool {
	return mcp.NewTool("index_stats",
		mcp.WithDescription("Report whether the index is loaded, how many records it holds and how they are distributed."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
	)
}

// --- Handler factories ---

func makeSearchAlgorithmsHandler(snap *index.Snapshot[index.FileRecord]) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		q := req.GetString("query", "")
		domain := req.GetString("domain", "")
		simdOnly := req.GetBool("simd_only", false)
		return mcp.NewToolResultText(query.SearchAlgorithms(snap.Records(), q, domain, simdOnly)), nil
	}
}

func makeJUCEClassHandler(snap *index.Snapshot[index.ClassRecord]) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name := req.GetString("name", "")
		return mcp.NewToolResultText(query.ClassLookup(snap.Records(), name)), nil
	}
}

func makeFindProjectFilesHandler(snap *index.Snapshot[index.ProjectFileRecord]) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		project := req.GetString("project_name", "")
		role := req.GetString("role", "")
		return mcp.NewToolResultText(query.FindProjectFiles(snap.Records(), project, role)), nil
	}
}

func makeStatsHandler(summarize func() query.Summary) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText(summarize().String()), nil
	}
}
