package book

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// openingsFile is the on-disk format: a YAML document with a list of SAN
// line strings under the "lines" key.
type openingsFile struct {
	Lines []string `yaml:"lines"`
}

// LoadFile reads a YAML openings file and parses every line in it.
func LoadFile(path string) ([]Line, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f openingsFile
	if err = yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing openings file %s: %w", path, err)
	}
	lines := make([]Line, 0, len(f.Lines))
	for _, s := range f.Lines {
		line, err := ParseLine(s)
		if err != nil {
			return nil, fmt.Errorf("openings file %s: %w", path, err)
		}
		lines = append(lines, line)
	}
	return lines, nil
}
