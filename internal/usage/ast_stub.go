//go:build !cgo

package usage

import "context"

// Language identifies a tree-sitter grammar used by the scanner.
// This stub is used when CGO is not available: syntax-model extraction is
// disabled and only the config-file scan runs.
type Language string

func languageFromExtension(ext string) (Language, bool) {
	return "", false
}

// astAvailable reports whether tree-sitter extraction is compiled in.
func astAvailable() bool { return false }

type extractor struct{}

func newExtractor() *extractor { return &extractor{} }

func (e *extractor) extractSource(ctx context.Context, relPath string, source []byte, lang Language, pkg string) ([]Location, bool, error) {
	return nil, false, nil
}
