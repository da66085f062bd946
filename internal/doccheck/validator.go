// Package doccheck validates eQMS documents: naming conventions, YAML front
// matter completeness, regulatory mapping whitelists, and markdown link
// relationships between documents.
package doccheck

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// Naming rules. Unicode dashes (non-breaking hyphen through em dash) are
// accepted anywhere a hyphen is, because controlled documents routinely
// round-trip through word processors that substitute them.
var (
	sopFilePattern = regexp.MustCompile(`^SOP[\x{2011}\x{2012}\x{2013}\x{2014}-]\d{3}_[A-Za-z0-9_\x{2011}\x{2012}\x{2013}\x{2014}-]+\.md$`)
	dhfDirPattern  = regexp.MustCompile(`^\d{2}_[A-Za-z0-9_\x{2011}\x{2012}\x{2013}\x{2014}-]+$`)
	mdLinkPattern  = regexp.MustCompile(`\[[^\]]*\]\(([^)]*?\.md)\)`)
)

// DefaultPaths are the document roots validated when none are configured.
var DefaultPaths = []string{"docs", "QMS", "DHF", "RMF"}

// DefaultRegulations is the whitelist of citable standards for
// regulatory_mapping entries.
var DefaultRegulations = []string{
	"FDA 21 CFR 820.30",
	"FDA 21 CFR 820.40",
	"FDA 21 CFR 820.181",
	"FDA 21 CFR 820.184",
	"FDA 21 CFR 11.200",
	"ISO 13485:2016",
	"ISO 14971",
}

// requiredFields lists front matter fields every controlled document needs.
// regulatory_mapping must be a list; the rest must be strings.
var requiredFields = []string{"title", "version", "author", "date", "regulatory_mapping"}

// Validator runs all document checks under a root directory.
type Validator struct {
	Root        string
	Paths       []string
	Regulations []string
	log         *zap.Logger

	Errors   []string
	Warnings []string
}

// New creates a validator for the given repository root. Empty paths or
// regulations fall back to the defaults.
func New(root string, paths, regulations []string, log *zap.Logger) *Validator {
	if len(paths) == 0 {
		paths = DefaultPaths
	}
	if len(regulations) == 0 {
		regulations = DefaultRegulations
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Validator{Root: root, Paths: paths, Regulations: regulations, log: log}
}

// Run executes every check. It returns true when no errors were recorded;
// warnings alone do not fail a run.
func (v *Validator) Run() bool {
	v.Errors = nil
	v.Warnings = nil

	checks := []struct {
		name string
		fn   func() error
	}{
		{"naming conventions", v.checkNaming},
		{"template completeness", v.checkTemplates},
		{"regulatory mapping", v.checkRegulatoryMapping},
		{"document relationships", v.checkRelationships},
	}
	for _, c := range checks {
		v.log.Info("validating", zap.String("check", c.name))
		if err := c.fn(); err != nil {
			v.Errors = append(v.Errors, fmt.Sprintf("validation error in %s: %v", c.name, err))
		}
	}
	return len(v.Errors) == 0
}

// checkNaming enforces SOP file naming under QMS and numbered directory
// naming under DHF.
func (v *Validator) checkNaming() error {
	qmsRoot := filepath.Join(v.Root, "QMS")
	if _, err := os.Stat(qmsRoot); err == nil {
		err := filepath.WalkDir(qmsRoot, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
				return nil
			}
			if !sopFilePattern.MatchString(d.Name()) {
				v.Errors = append(v.Errors, fmt.Sprintf("QMS file naming violation: %s", v.rel(path)))
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("walk QMS: %w", err)
		}
	}

	dhfRoot := filepath.Join(v.Root, "DHF")
	entries, err := os.ReadDir(dhfRoot)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read DHF: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() && !dhfDirPattern.MatchString(e.Name()) {
			v.Errors = append(v.Errors, fmt.Sprintf("DHF directory naming violation: DHF/%s", e.Name()))
		}
	}
	return nil
}

// checkTemplates verifies that every controlled markdown document carries
// complete, well-typed YAML front matter.
func (v *Validator) checkTemplates() error {
	return v.walkDocs(func(path, content string) {
		meta, err := parseFrontMatter(content)
		switch {
		case errors.Is(err, errNoFrontMatter):
			v.Errors = append(v.Errors, fmt.Sprintf("%s: missing YAML frontmatter", v.rel(path)))
			return
		case errors.Is(err, errUnterminatedFrontMatter):
			v.Errors = append(v.Errors, fmt.Sprintf("%s: incomplete YAML frontmatter", v.rel(path)))
			return
		case err != nil:
			v.Errors = append(v.Errors, fmt.Sprintf("%s: invalid YAML in frontmatter: %v", v.rel(path), err))
			return
		}
		if meta == nil {
			return
		}
		for _, field := range requiredFields {
			val, ok := meta[field]
			if !ok {
				v.Errors = append(v.Errors, fmt.Sprintf("%s: missing required field %q", v.rel(path), field))
				continue
			}
			if field == "regulatory_mapping" {
				if _, isList := val.([]any); !isList {
					v.Errors = append(v.Errors, fmt.Sprintf("%s: field %q has wrong type", v.rel(path), field))
				}
			} else if _, isStr := val.(string); !isStr {
				v.Errors = append(v.Errors, fmt.Sprintf("%s: field %q has wrong type", v.rel(path), field))
			}
		}
	})
}

// checkRegulatoryMapping verifies every cited standard is whitelisted.
// Parse failures are skipped here; checkTemplates already reported them.
func (v *Validator) checkRegulatoryMapping() error {
	allowed := make(map[string]struct{}, len(v.Regulations))
	for _, r := range v.Regulations {
		allowed[r] = struct{}{}
	}
	return v.walkDocs(func(path, content string) {
		meta, err := parseFrontMatter(content)
		if err != nil || meta == nil {
			return
		}
		mappings, ok := meta["regulatory_mapping"].([]any)
		if !ok {
			return
		}
		for _, m := range mappings {
			s, _ := m.(string)
			if _, ok := allowed[s]; !ok {
				v.Errors = append(v.Errors, fmt.Sprintf("%s: invalid regulatory mapping %q", v.rel(path), s))
			}
		}
	})
}

// checkRelationships flags documents under the configured roots that no
// other document links to. Always warnings; orphan detection is advisory.
func (v *Validator) checkRelationships() error {
	var allDocs []string
	err := filepath.WalkDir(v.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(d.Name(), ".md") && !strings.HasPrefix(d.Name(), "README") {
			allDocs = append(allDocs, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("walk repository: %w", err)
	}

	referenced := make(map[string]struct{})
	for _, doc := range allDocs {
		content, err := os.ReadFile(doc)
		if err != nil {
			continue
		}
		for _, m := range mdLinkPattern.FindAllStringSubmatch(string(content), -1) {
			link := m[1]
			if !filepath.IsAbs(link) {
				link = filepath.Clean(filepath.Join(filepath.Dir(doc), link))
			}
			referenced[link] = struct{}{}
		}
	}

	for _, doc := range allDocs {
		if _, ok := referenced[doc]; ok {
			continue
		}
		if v.underConfiguredPath(doc) {
			v.Warnings = append(v.Warnings, fmt.Sprintf("potentially orphaned document: %s", v.rel(doc)))
		}
	}
	return nil
}

// walkDocs visits every controlled markdown file under the configured
// paths, skipping samples and READMEs.
func (v *Validator) walkDocs(visit func(path, content string)) error {
	for _, p := range v.Paths {
		root := filepath.Join(v.Root, p)
		if _, err := os.Stat(root); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
				return nil
			}
			lower := strings.ToLower(path)
			if strings.Contains(lower, "sample") || strings.Contains(lower, "readme") {
				return nil
			}
			content, err := os.ReadFile(path)
			if err != nil {
				v.Errors = append(v.Errors, fmt.Sprintf("%s: error reading file: %v", v.rel(path), err))
				return nil
			}
			visit(path, string(content))
			return nil
		})
		if err != nil {
			return fmt.Errorf("walk %s: %w", p, err)
		}
	}
	return nil
}

func (v *Validator) underConfiguredPath(path string) bool {
	rel := v.rel(path)
	for _, p := range v.Paths {
		if rel == p || strings.HasPrefix(rel, p+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (v *Validator) rel(path string) string {
	rel, err := filepath.Rel(v.Root, path)
	if err != nil {
		return path
	}
	return rel
}
