package usage

import (
	"bufio"
	"os"
	"strings"
)

// maxConfigLineLength guards against minified lockfile lines blowing up the
// line scanner.
const maxConfigLineLength = 1 << 20

// scanConfigFile records every literal textual occurrence of the dependency
// name in a configuration or lock file. No parsing: lockfile formats vary
// and a substring hit is exactly the signal wanted here.
func scanConfigFile(absPath, relPath, pkg string) ([]Location, error) {
	f, err := os.Open(absPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var locations []Location
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxConfigLineLength)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		col := strings.Index(line, pkg)
		if col < 0 {
			continue
		}
		locations = append(locations, Location{
			File:    relPath,
			Line:    lineNo,
			Column:  col + 1,
			Kind:    KindConfig,
			Snippet: strings.TrimSpace(line),
			Context: classifyContext(relPath),
		})
	}
	if err := scanner.Err(); err != nil {
		return locations, err
	}
	return locations, nil
}
