package upgrades

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Parse reads pipe-delimited upgrade records, one per line:
//
//	id|name|description|stat|value
//
// Blank lines and lines starting with # are skipped.
func Parse(r io.Reader) ([]Definition, error) {
	var defs []Definition
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "|")
		if len(fields) != 5 {
			return nil, fmt.Errorf("line %d: expected 5 fields, got %d", lineNo, len(fields))
		}

		id := strings.TrimSpace(fields[0])
		if id == "" {
			return nil, fmt.Errorf("line %d: empty id", lineNo)
		}
		if seen[id] {
			return nil, fmt.Errorf("line %d: duplicate id %q", lineNo, id)
		}
		seen[id] = true

		stat := Stat(strings.TrimSpace(fields[3]))
		if !stat.Valid() {
			return nil, fmt.Errorf("line %d: unknown stat %q", lineNo, fields[3])
		}

		value, err := strconv.ParseFloat(strings.TrimSpace(fields[4]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad value %q", lineNo, fields[4])
		}

		defs = append(defs, Definition{
			ID:          id,
			Name:        strings.TrimSpace(fields[1]),
			Description: strings.TrimSpace(fields[2]),
			Stat:        stat,
			Value:       value,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	if len(defs) == 0 {
		return nil, fmt.Errorf("catalog contains no definitions")
	}
	return defs, nil
}

// Load reads a catalog file from disk.
func Load(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()

	defs, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return NewCatalog(defs), nil
}
