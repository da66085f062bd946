package compliance

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// hasRequiredMetadata accepts either complete YAML front matter or, for
// legacy documents, at least half the fields declared as **field** lines in
// the first ten lines.
func hasRequiredMetadata(content string) bool {
	if meta := frontMatter(content); meta != nil {
		for _, f := range metadataFields {
			if _, ok := meta[f]; !ok {
				return false
			}
		}
		return true
	}

	lines := strings.Split(content, "\n")
	if len(lines) > 10 {
		lines = lines[:10]
	}
	head := strings.ToLower(strings.Join(lines, "\n"))
	found := 0
	for _, f := range metadataFields {
		if strings.Contains(head, "**"+f) {
			found++
		}
	}
	return found*2 >= len(metadataFields)
}

// followsRequirementTemplate checks that a requirement document covers at
// least two of the mandated sections.
func followsRequirementTemplate(content string) bool {
	lower := strings.ToLower(content)
	found := 0
	for _, s := range requirementSections {
		if strings.Contains(lower, s) {
			found++
		}
	}
	return found >= 2
}

// frontMatter decodes a leading YAML block, or nil when the document has
// none or the YAML is malformed.
func frontMatter(content string) map[string]any {
	if !strings.HasPrefix(content, "---") {
		return nil
	}
	rest := content[3:]
	end := strings.Index(rest, "---")
	if end == -1 {
		return nil
	}
	var meta map[string]any
	if err := yaml.Unmarshal([]byte(rest[:end]), &meta); err != nil {
		return nil
	}
	return meta
}
