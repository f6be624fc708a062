//go:build cgo

package usage

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Language identifies a tree-sitter grammar used by the scanner.
type Language string

const (
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangTSX        Language = "tsx"
)

// languageFromExtension maps a lower-case file extension to its grammar.
func languageFromExtension(ext string) (Language, bool) {
	switch ext {
	case ".js", ".jsx", ".mjs", ".cjs":
		return LangJavaScript, true
	case ".ts", ".mts", ".cts":
		return LangTypeScript, true
	case ".tsx":
		return LangTSX, true
	default:
		return "", false
	}
}

func getLanguage(lang Language) *sitter.Language {
	switch lang {
	case LangTypeScript:
		return typescript.GetLanguage()
	case LangTSX:
		return tsx.GetLanguage()
	default:
		return javascript.GetLanguage()
	}
}

// astAvailable reports whether tree-sitter extraction is compiled in.
func astAvailable() bool { return true }

// byteRange is a half-open span of source bytes.
type byteRange struct {
	start, end uint32
}

func (r byteRange) contains(offset uint32) bool {
	return offset >= r.start && offset < r.end
}

// extractor builds the per-file syntax model. One extractor per scan worker;
// sitter.Parser is not safe for concurrent use.
type extractor struct {
	parser *sitter.Parser
}

func newExtractor() *extractor {
	return &extractor{parser: sitter.NewParser()}
}

// extractSource parses one file and returns every reference to pkg: the
// matching import statements plus each subsequent use of the bindings they
// introduce. The bool reports whether a dynamic import of pkg was seen.
func (e *extractor) extractSource(ctx context.Context, relPath string, source []byte, lang Language, pkg string) ([]Location, bool, error) {
	e.parser.SetLanguage(getLanguage(lang))
	tree, err := e.parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, false, err
	}
	root := tree.RootNode()

	lines := strings.Split(string(source), "\n")
	fileCtx := classifyContext(relPath)

	state := &fileState{
		pkg:      pkg,
		source:   source,
		lines:    lines,
		relPath:  relPath,
		context:  fileCtx,
		bindings: make(map[string]bool),
	}

	// Pass 1: imports and the bindings they introduce.
	walk(root, state.collectImports)

	// Pass 2: references to those bindings, outside the import statements.
	if len(state.bindings) > 0 {
		walk(root, state.collectReferences)
	}

	return state.locations, state.dynamicImport, nil
}

// fileState accumulates results for a single file.
type fileState struct {
	pkg           string
	source        []byte
	lines         []string
	relPath       string
	context       Context
	bindings      map[string]bool
	importRanges  []byteRange
	locations     []Location
	dynamicImport bool
}

func (s *fileState) collectImports(n *sitter.Node) {
	switch n.Type() {
	case "import_statement":
		src := n.ChildByFieldName("source")
		if src == nil || !matchesPackage(trimQuotes(src.Content(s.source)), s.pkg) {
			return
		}
		s.addLocation(n, KindImport)
		s.importRanges = append(s.importRanges, byteRange{n.StartByte(), n.EndByte()})
		s.collectImportBindings(n)

	case "call_expression":
		fn := n.ChildByFieldName("function")
		if fn == nil {
			return
		}
		switch {
		case fn.Type() == "import":
			// Dynamic import: import('pkg')
			if s.firstStringArgMatches(n) {
				s.dynamicImport = true
				s.addLocation(n, KindImport)
				s.importRanges = append(s.importRanges, byteRange{n.StartByte(), n.EndByte()})
			}
		case fn.Type() == "identifier" && fn.Content(s.source) == "require":
			if !s.firstStringArgMatches(n) {
				return
			}
			s.addLocation(n, KindImport)
			s.importRanges = append(s.importRanges, byteRange{n.StartByte(), n.EndByte()})
			s.collectRequireBindings(n)
		}
	}
}

// collectImportBindings records the names introduced by an ES import clause:
// default imports, namespace imports, and named imports (aliased or not).
func (s *fileState) collectImportBindings(importStmt *sitter.Node) {
	for i := 0; i < int(importStmt.NamedChildCount()); i++ {
		child := importStmt.NamedChild(i)
		if child.Type() != "import_clause" {
			continue
		}
		walk(child, func(n *sitter.Node) {
			switch n.Type() {
			case "identifier":
				// Identifiers inside an import_specifier are handled by the
				// specifier case so aliases don't bind their original name.
				if p := n.Parent(); p != nil && p.Type() == "import_specifier" {
					return
				}
				s.bindings[n.Content(s.source)] = true
			case "import_specifier":
				name := n.ChildByFieldName("alias")
				if name == nil {
					name = n.ChildByFieldName("name")
				}
				if name != nil {
					s.bindings[name.Content(s.source)] = true
				}
			}
		})
	}
}

// collectRequireBindings records names bound by `const x = require('pkg')`
// and `const {a, b: c} = require('pkg')`.
func (s *fileState) collectRequireBindings(callExpr *sitter.Node) {
	parent := callExpr.Parent()
	if parent == nil || parent.Type() != "variable_declarator" {
		return
	}
	name := parent.ChildByFieldName("name")
	if name == nil {
		return
	}
	switch name.Type() {
	case "identifier":
		s.bindings[name.Content(s.source)] = true
	case "object_pattern":
		walk(name, func(n *sitter.Node) {
			switch n.Type() {
			case "shorthand_property_identifier_pattern", "identifier":
				s.bindings[n.Content(s.source)] = true
			}
		})
	}
}

func (s *fileState) collectReferences(n *sitter.Node) {
	t := n.Type()
	if t != "identifier" && t != "type_identifier" {
		return
	}
	if !s.bindings[n.Content(s.source)] {
		return
	}
	for _, r := range s.importRanges {
		if r.contains(n.StartByte()) {
			return
		}
	}
	s.addLocation(n, s.classifyReference(n))
}

// classifyReference determines the syntactic role of a binding reference.
// This is best-effort binding tracking, not data-flow analysis: shadowed or
// re-exported names can misclassify, which is an accepted limitation.
func (s *fileState) classifyReference(id *sitter.Node) Kind {
	if id.Type() == "type_identifier" {
		return KindTypeReference
	}
	parent := id.Parent()
	if parent == nil {
		return KindOther
	}
	switch parent.Type() {
	case "call_expression":
		if fn := parent.ChildByFieldName("function"); fn != nil && fn.StartByte() == id.StartByte() {
			return KindFunctionCall
		}
	case "member_expression":
		if obj := parent.ChildByFieldName("object"); obj != nil && obj.StartByte() == id.StartByte() {
			return KindPropertyAccess
		}
	case "new_expression":
		if ctor := parent.ChildByFieldName("constructor"); ctor != nil && ctor.StartByte() == id.StartByte() {
			return KindConstructor
		}
	case "class_heritage", "extends_clause":
		return KindExtends
	}
	return KindOther
}

// firstStringArgMatches reports whether the call's first argument is a string
// literal naming the scanned package (or a subpath of it).
func (s *fileState) firstStringArgMatches(callExpr *sitter.Node) bool {
	args := callExpr.ChildByFieldName("arguments")
	if args == nil || args.NamedChildCount() == 0 {
		return false
	}
	arg := args.NamedChild(0)
	if arg.Type() != "string" {
		return false
	}
	return matchesPackage(trimQuotes(arg.Content(s.source)), s.pkg)
}

func (s *fileState) addLocation(n *sitter.Node, kind Kind) {
	point := n.StartPoint()
	line := int(point.Row) + 1
	snippet := ""
	if int(point.Row) < len(s.lines) {
		snippet = strings.TrimSpace(s.lines[point.Row])
	}
	s.locations = append(s.locations, Location{
		File:    s.relPath,
		Line:    line,
		Column:  int(point.Column) + 1,
		Kind:    kind,
		Snippet: snippet,
		Context: s.context,
	})
}

// matchesPackage reports whether a module specifier refers to pkg: an exact
// match or a subpath import like pkg/sub (scoped names included).
func matchesPackage(specifier, pkg string) bool {
	return specifier == pkg || strings.HasPrefix(specifier, pkg+"/")
}

func trimQuotes(s string) string {
	return strings.Trim(s, "'\"`")
}

// walk visits every named node in depth-first order.
func walk(n *sitter.Node, fn func(*sitter.Node)) {
	fn(n)
	for i := 0; i < int(n.NamedChildCount()); i++ {
		walk(n.NamedChild(i), fn)
	}
}
