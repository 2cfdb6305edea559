package index

import (
	"path/filepath"
	"strings"
)

// DetectDomain classifies DSP source text. Spectral markers win over
// processBlock.
func DetectDomain(content string) string {
	if strings.Contains(content, "FFT") || strings.Contains(content, "Spectral") {
		return FrequencyDomain
	}
	if strings.Contains(content, "processBlock") {
		return TimeDomain
	}
	return ControlRate
}

// IsSIMDOptimized reports whether the source uses SSE intrinsics or Accelerate.
func IsSIMDOptimized(content string) bool {
	return strings.Contains(content, "__m128") || strings.Contains(content, "vDSP")
}

// DetectRole classifies a project file by its name. The check is
// case-sensitive and the first match wins.
func DetectRole(filename string) string {
	switch {
	case strings.Contains(filename, "Processor"):
		return RoleProcessor
	case strings.Contains(filename, "Editor"):
		return RoleEditor
	case strings.Contains(filename, "CMake"):
		return RoleConfig
	default:
		return RoleService
	}
}

// AlgorithmName is the file name up to its first dot.
func AlgorithmName(filename string) string {
	name, _, _ := strings.Cut(filename, ".")
	return name
}

// ModuleName returns the first path segment starting with prefix, or
// UnknownModule.
func ModuleName(path, prefix string) string {
	if prefix == "" {
		prefix = DefaultModulePrefix
	}
	for _, part := range strings.Split(path, string(filepath.Separator)) {
		if strings.HasPrefix(part, prefix) {
			return part
		}
	}
	return UnknownModule
}

// Truncate returns at most n characters (code points) of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

var newlineReplacer = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// NormalizeNewlines turns CRLF and lone CR line endings into LF.
func NormalizeNewlines(s string) string {
	return newlineReplacer.Replace(s)
}
