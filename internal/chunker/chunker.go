package chunker

import (
	"context"
	"fmt"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

const (
	maxChunkBytes = 8192

	windowLines  = 40
	overlapLines = 10

	// TextKind marks chunks cut by line windows instead of a grammar.
	TextKind = "text"
)

// RawChunk is a chunk extracted from a source file before embedding.
type RawChunk struct {
	Name      string
	Kind      string
	StartLine int
	EndLine   int
	Content   string
}

// Chunker splits headers along declarations and everything else along
// overlapping line windows.
type Chunker struct {
	registry *Registry
}

// New creates a chunker backed by the given registry.
func New(r *Registry) *Chunker {
	return &Chunker{registry: r}
}

// Chunk returns the chunks of one file. Files without a registered grammar,
// and parsed files with no captured declaration, fall back to line windows.
func (c *Chunker) Chunk(ctx context.Context, path string, src []byte) ([]RawChunk, error) {
	if strings.TrimSpace(string(src)) == "" {
		return nil, nil
	}
	spec := c.registry.Lookup(path)
	if spec == nil {
		return LineWindows(string(src), "", TextKind, 1), nil
	}

	caps, err := c.captures(ctx, spec, src)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(caps) == 0 {
		return LineWindows(string(src), "", TextKind, 1), nil
	}

	lines := strings.Split(string(src), "\n")
	var chunks []RawChunk
	for _, cp := range caps {
		content := enrichContent(path, spec.Name, cp.kind, cp.name, lines, cp.startLine, cp.endLine)
		if len(content) > maxChunkBytes {
			chunks = append(chunks, LineWindows(content, cp.name, cp.kind, cp.startLine)...)
			continue
		}
		chunks = append(chunks, RawChunk{
			Name:      cp.name,
			Kind:      cp.kind,
			StartLine: cp.startLine,
			EndLine:   cp.endLine,
			Content:   content,
		})
	}
	return chunks, nil
}

func (c *Chunker) captures(ctx context.Context, spec *LanguageSpec, src []byte) ([]capture, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(spec.Language)
	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	q, err := sitter.NewQuery([]byte(spec.Query), spec.Language)
	if err != nil {
		return nil, fmt.Errorf("compile %s query: %w", spec.Name, err)
	}
	defer q.Close()

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(q, tree.RootNode())

	var caps []capture
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		var node *sitter.Node
		var name string
		for _, c := range m.Captures {
			switch q.CaptureNameForId(c.Index) {
			case "chunk":
				node = c.Node
			case "name":
				name = c.Node.Content(src)
			}
		}
		if node == nil {
			continue
		}
		caps = append(caps, capture{
			name:      name,
			kind:      node.Type(),
			startLine: int(node.StartPoint().Row) + 1,
			endLine:   int(node.EndPoint().Row) + 1,
			startByte: node.StartByte(),
			endByte:   node.EndByte(),
		})
	}
	return dedup(caps), nil
}

// dedup drops captures nested inside an earlier, larger one.
func dedup(caps []capture) []capture {
	if len(caps) <= 1 {
		return caps
	}
	sort.Slice(caps, func(i, j int) bool {
		if caps[i].startByte != caps[j].startByte {
			return caps[i].startByte < caps[j].startByte
		}
		return (caps[i].endByte - caps[i].startByte) > (caps[j].endByte - caps[j].startByte)
	})

	var result []capture
	var lastEnd uint32
	for i, c := range caps {
		if i == 0 || c.startByte >= lastEnd {
			result = append(result, c)
		}
		if c.endByte > lastEnd {
			lastEnd = c.endByte
		}
	}
	return result
}

func enrichContent(path, lang, kind, name string, lines []string, startLine, endLine int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "// File: %s\n", path)
	fmt.Fprintf(&b, "// Language: %s\n", lang)
	if name != "" {
		fmt.Fprintf(&b, "// %s: %s\n", kind, name)
	}
	start := max(startLine-1, 0)
	end := min(endLine, len(lines))
	b.WriteString(strings.Join(lines[start:end], "\n"))
	return b.String()
}

// LineWindows cuts content into windows of 40 lines that overlap by 10.
// baseLine is the line number of the first line of content.
func LineWindows(content, name, kind string, baseLine int) []RawChunk {
	lines := strings.Split(content, "\n")
	var chunks []RawChunk
	for i := 0; i < len(lines); {
		end := min(i+windowLines, len(lines))
		text := strings.Join(lines[i:end], "\n")
		if strings.TrimSpace(text) != "" {
			chunks = append(chunks, RawChunk{
				Name:      name,
				Kind:      kind,
				StartLine: baseLine + i,
				EndLine:   baseLine + end - 1,
				Content:   text,
			})
		}
		if end >= len(lines) {
			break
		}
		i += windowLines - overlapLines
	}
	return chunks
}

type capture struct {
	name      string
	kind      string
	startLine int
	endLine   int
	startByte uint32
	endByte   uint32
}
