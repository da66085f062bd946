package doccheck

import (
	"errors"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	errNoFrontMatter           = errors.New("missing YAML frontmatter")
	errUnterminatedFrontMatter = errors.New("incomplete YAML frontmatter")
)

// splitFrontMatter extracts the YAML block between the leading "---" fence
// and the next "---". The body after the closing fence is discarded.
func splitFrontMatter(content string) (string, error) {
	if !strings.HasPrefix(content, "---") {
		return "", errNoFrontMatter
	}
	rest := content[3:]
	end := strings.Index(rest, "---")
	if end == -1 {
		return "", errUnterminatedFrontMatter
	}
	return rest[:end], nil
}

// parseFrontMatter decodes the metadata block of a document.
func parseFrontMatter(content string) (map[string]any, error) {
	block, err := splitFrontMatter(content)
	if err != nil {
		return nil, err
	}
	var meta map[string]any
	if err := yaml.Unmarshal([]byte(block), &meta); err != nil {
		return nil, err
	}
	return meta, nil
}
