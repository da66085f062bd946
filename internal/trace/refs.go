package trace

import (
	"regexp"
	"sort"
	"strconv"
)

// Reference patterns. The bare "#N" alternative also matches inside
// "PR #N" and "closes #N", so a dedicated PR pattern adds nothing; the
// closes/fixes/resolves pattern exists for the "closes: 7" spelling
// without a leading '#'.
var (
	issueRefPattern = regexp.MustCompile(`(?i)#(\d+)|(?:issues?|requirements?|reqs?)[:\s]+#?(\d+)`)
	closesPattern   = regexp.MustCompile(`(?i)(?:closes?|fixes?|resolves?)[:\s]+#?(\d+)`)
)

// ExtractReferences scans free text for issue/PR references and returns the
// deduplicated reference IDs in "#N" form, sorted numerically. It is a pure
// function of its input: same text, same result, in the same order.
func ExtractReferences(text string) []string {
	if text == "" {
		return nil
	}

	seen := make(map[string]struct{})
	for _, m := range issueRefPattern.FindAllStringSubmatch(text, -1) {
		num := m[1]
		if num == "" {
			num = m[2]
		}
		if num != "" {
			seen["#"+num] = struct{}{}
		}
	}
	for _, m := range closesPattern.FindAllStringSubmatch(text, -1) {
		if m[1] != "" {
			seen["#"+m[1]] = struct{}{}
		}
	}

	if len(seen) == 0 {
		return nil
	}
	refs := make([]string, 0, len(seen))
	for r := range seen {
		refs = append(refs, r)
	}
	sort.Slice(refs, func(i, j int) bool {
		a, _ := strconv.Atoi(refs[i][1:])
		b, _ := strconv.Atoi(refs[j][1:])
		return a < b
	})
	return refs
}

// mergeRefs unions two sorted reference lists, preserving numeric order.
func mergeRefs(a, b []string) []string {
	if len(a) == 0 {
		return b
	}
	if len(b) == 0 {
		return a
	}
	seen := make(map[string]struct{}, len(a)+len(b))
	var out []string
	for _, refs := range [][]string{a, b} {
		for _, r := range refs {
			if _, dup := seen[r]; !dup {
				seen[r] = struct{}{}
				out = append(out, r)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		x, _ := strconv.Atoi(out[i][1:])
		y, _ := strconv.Atoi(out[j][1:])
		return x < y
	})
	return out
}
