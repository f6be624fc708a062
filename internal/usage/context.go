package usage

import (
	"path/filepath"
	"regexp"
	"strings"
)

// Path heuristics for reference contexts. Precedence: test beats config
// beats build beats the production default.

var testPathRe = regexp.MustCompile(`(?i)(^|/)(__tests__|__mocks__|tests?|spec)(/|$)|[._-](test|spec)\.[cm]?[jt]sx?$|_test\.`)

var buildPathRe = regexp.MustCompile(`(?i)(^|/)(dist|build|out|coverage|\.next|\.output)(/|$)|\.min\.js$`)

// configFileNames are exact basenames scanned for literal occurrences of the
// dependency name.
var configFileNames = map[string]bool{
	"package.json":        true,
	"package-lock.json":   true,
	"yarn.lock":           true,
	"pnpm-lock.yaml":      true,
	"npm-shrinkwrap.json": true,
	"tsconfig.json":       true,
	"jsconfig.json":       true,
	".babelrc":            true,
	".eslintrc":           true,
	".eslintrc.json":      true,
	".eslintrc.js":        true,
	".prettierrc":         true,
	"babel.config.js":     true,
	"jest.config.js":      true,
	"jest.config.ts":      true,
	"webpack.config.js":   true,
	"rollup.config.js":    true,
	"vite.config.js":      true,
	"vite.config.ts":      true,
}

// configPathRe catches the generic *.config.* and dotfile-rc shapes beyond
// the exact name table.
var configPathRe = regexp.MustCompile(`(?i)(^|/)[^/]+\.config\.[cm]?[jt]s$|(^|/)\.[^/]+rc(\.[a-z]+)?$|(^|/)config(/|$)`)

// classifyContext derives the context for a repo-relative path.
func classifyContext(relPath string) Context {
	p := filepath.ToSlash(relPath)
	switch {
	case testPathRe.MatchString(p):
		return ContextTest
	case isConfigPath(p):
		return ContextConfig
	case buildPathRe.MatchString(p):
		return ContextBuild
	default:
		return ContextProduction
	}
}

func isConfigPath(p string) bool {
	if configFileNames[filepath.Base(p)] {
		return true
	}
	return configPathRe.MatchString(p)
}

// isConfigFile reports whether the basename is one of the known
// configuration or lockfile patterns scanned for literal occurrences.
func isConfigFile(name string) bool {
	if configFileNames[name] {
		return true
	}
	return strings.Contains(name, ".config.") || strings.HasPrefix(name, ".") && strings.Contains(name, "rc")
}
