package doccheck

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const validDoc = `---
title: Document Control
version: "1.0"
author: Quality Team
date: "2026-01-15"
regulatory_mapping:
  - FDA 21 CFR 820.40
  - ISO 13485:2016
---

# Document Control

Linked from [index](../index.md).
`

func writeDoc(t *testing.T, root string, rel string, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newTestValidator(t *testing.T, root string) *Validator {
	t.Helper()
	return New(root, nil, nil, zaptest.NewLogger(t))
}

func TestRun_CleanTree(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "QMS/SOP-001_Document_Control.md", validDoc)
	writeDoc(t, root, "docs/index.md", validDoc+"\nSee [SOP](../QMS/SOP-001_Document_Control.md).\n")

	v := newTestValidator(t, root)
	ok := v.Run()

	assert.True(t, ok, "errors: %v", v.Errors)
	assert.Empty(t, v.Errors)
}

func TestCheckNaming(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "QMS/SOP-001_Document_Control.md", validDoc)
	writeDoc(t, root, "QMS/random-notes.md", validDoc)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "DHF/01_Design_Plan"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "DHF/design-plan"), 0o755))

	v := newTestValidator(t, root)
	v.Run()

	assert.Contains(t, v.Errors, "QMS file naming violation: "+filepath.Join("QMS", "random-notes.md"))
	assert.Contains(t, v.Errors, "DHF directory naming violation: DHF/design-plan")
	for _, e := range v.Errors {
		assert.NotContains(t, e, "SOP-001")
		assert.NotContains(t, e, "01_Design_Plan")
	}
}

func TestCheckNaming_UnicodeDashes(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "QMS/SOP–002_Risk_Management.md", validDoc)

	v := newTestValidator(t, root)
	v.Run()
	for _, e := range v.Errors {
		assert.NotContains(t, e, "naming violation")
	}
}

func TestCheckTemplates(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "docs/no_frontmatter.md", "# Just a heading\n")
	writeDoc(t, root, "docs/unterminated.md", "---\ntitle: x\n")
	writeDoc(t, root, "docs/missing_fields.md", "---\ntitle: x\nregulatory_mapping: []\n---\nbody\n")
	writeDoc(t, root, "docs/wrong_types.md", "---\ntitle: x\nversion: 1.0\nauthor: a\ndate: 2026-01-01\nregulatory_mapping: not-a-list\n---\nbody\n")

	v := newTestValidator(t, root)
	v.Run()

	assert.Contains(t, v.Errors, filepath.Join("docs", "no_frontmatter.md")+": missing YAML frontmatter")
	assert.Contains(t, v.Errors, filepath.Join("docs", "unterminated.md")+": incomplete YAML frontmatter")
	assert.Contains(t, v.Errors, filepath.Join("docs", "missing_fields.md")+`: missing required field "version"`)
	assert.Contains(t, v.Errors, filepath.Join("docs", "wrong_types.md")+`: field "version" has wrong type`)
	assert.Contains(t, v.Errors, filepath.Join("docs", "wrong_types.md")+`: field "regulatory_mapping" has wrong type`)
}

func TestCheckTemplates_SkipsSamplesAndReadmes(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "docs/sample_template.md", "no frontmatter here")
	writeDoc(t, root, "docs/README.md", "no frontmatter here")

	v := newTestValidator(t, root)
	v.Run()
	assert.Empty(t, v.Errors)
}

func TestCheckRegulatoryMapping(t *testing.T) {
	root := t.TempDir()
	bad := `---
title: t
version: "1"
author: a
date: "2026-01-01"
regulatory_mapping:
  - ISO 13485:2016
  - FDA 21 CFR 999.99
---
body
`
	writeDoc(t, root, "docs/mapping.md", bad)

	v := newTestValidator(t, root)
	v.Run()

	assert.Contains(t, v.Errors, filepath.Join("docs", "mapping.md")+`: invalid regulatory mapping "FDA 21 CFR 999.99"`)
	for _, e := range v.Errors {
		assert.NotContains(t, e, "ISO 13485:2016")
	}
}

func TestCheckRelationships_OrphanWarning(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "docs/linked.md", validDoc)
	writeDoc(t, root, "docs/orphan.md", validDoc)
	writeDoc(t, root, "docs/index.md", "see [linked](linked.md)\n"+validDoc)

	v := newTestValidator(t, root)
	v.Run()

	assert.Contains(t, v.Warnings, "potentially orphaned document: "+filepath.Join("docs", "orphan.md"))
	for _, w := range v.Warnings {
		assert.NotContains(t, w, "linked.md")
	}
}

func TestCustomRegulations(t *testing.T) {
	root := t.TempDir()
	doc := `---
title: t
version: "1"
author: a
date: "2026-01-01"
regulatory_mapping:
  - EU MDR 2017/745
---
body
`
	writeDoc(t, root, "docs/eu.md", doc)

	v := New(root, nil, []string{"EU MDR 2017/745"}, zaptest.NewLogger(t))
	ok := v.Run()
	assert.True(t, ok, "errors: %v", v.Errors)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doccheck.yaml")
	require.NoError(t, os.WriteFile(path, []byte("paths:\n  - documentation\nregulations:\n  - ISO 14971\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"documentation"}, cfg.Paths)
	assert.Equal(t, []string{"ISO 14971"}, cfg.Regulations)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
