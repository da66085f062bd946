package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"qmskit/internal/gh"
	"qmskit/internal/report"
	"qmskit/internal/trace"
	"qmskit/internal/tracedb"
)

var traceOpts struct {
	repo      string
	token     string
	outputDir string
	format    string
	state     string
	issues    string
	pulls     string
	dbPath    string
	validate  bool
}

var traceCmd = &cobra.Command{
	Use:   "trace",
	Short: "Build a traceability matrix from issues and pull requests",
	Long: `Fetches issues and pull requests, classifies them into traceability item
types by label, extracts cross-references, and writes the resulting matrix
as JSON, CSV, HTML, and a queryable SQLite database.

Items can come from the GitHub API (--repo, --token) or from previously
exported JSON files (--issues, --pulls) for offline runs.`,
	RunE: runTrace,
}

func init() {
	f := traceCmd.Flags()
	f.StringVar(&traceOpts.repo, "repo", "", "repository in owner/name form")
	f.StringVar(&traceOpts.token, "token", "", "GitHub token (defaults to GITHUB_TOKEN)")
	f.StringVarP(&traceOpts.outputDir, "output-dir", "o", ".", "directory for generated reports")
	f.StringVar(&traceOpts.format, "format", "all", "report format: json, csv, html, or all")
	f.StringVar(&traceOpts.state, "state", "all", "issue/PR state filter: open, closed, or all")
	f.StringVar(&traceOpts.issues, "issues", "", "path to an exported issues JSON file (offline mode)")
	f.StringVar(&traceOpts.pulls, "pulls", "", "path to an exported pull requests JSON file (offline mode)")
	f.StringVar(&traceOpts.dbPath, "db", "", "write a SQLite trace database to this path")
	f.BoolVar(&traceOpts.validate, "validate", false, "run validation queries after the database write")
}

func runTrace(cmd *cobra.Command, args []string) error {
	offline := traceOpts.issues != "" || traceOpts.pulls != ""
	if !offline && traceOpts.repo == "" {
		return fmt.Errorf("either --repo or --issues/--pulls is required")
	}

	var items []trace.Item
	var err error
	if offline {
		logger.Info("loading items from files",
			zap.String("issues", traceOpts.issues), zap.String("pulls", traceOpts.pulls))
		items, err = trace.LoadItemsFromFiles(traceOpts.issues, traceOpts.pulls)
	} else {
		token := traceOpts.token
		if token == "" {
			token = os.Getenv("GITHUB_TOKEN")
		}
		client := gh.NewClient(token, traceOpts.repo)
		logger.Info("fetching items", zap.String("repo", traceOpts.repo), zap.String("state", traceOpts.state))
		items, err = trace.FetchItems(cmd.Context(), client, traceOpts.state)
	}
	if err != nil {
		return err
	}
	logger.Info("items collected", zap.Int("count", len(items)))

	m := trace.BuildMatrix(items, traceOpts.repo)
	logger.Info("matrix built",
		zap.Int("items", m.Metadata.TotalItems),
		zap.Int("relationships", len(m.Relationships)),
		zap.Float64("coverage_pct", m.Coverage.CoveragePercentage),
		zap.Int("orphans", len(m.Coverage.OrphanedItems)))

	if err := os.MkdirAll(traceOpts.outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if traceOpts.format == "json" || traceOpts.format == "all" {
		path := filepath.Join(traceOpts.outputDir, "traceability_matrix.json")
		if err := report.WriteJSON(path, &m); err != nil {
			return err
		}
		logger.Info("wrote report", zap.String("path", path))
	}
	if traceOpts.format == "csv" || traceOpts.format == "all" {
		if err := report.WriteCSV(traceOpts.outputDir, &m); err != nil {
			return err
		}
		logger.Info("wrote report", zap.String("path", filepath.Join(traceOpts.outputDir, "items.csv")))
	}
	if traceOpts.format == "html" || traceOpts.format == "all" {
		path := filepath.Join(traceOpts.outputDir, "traceability_matrix.html")
		if err := report.WriteHTML(path, &m); err != nil {
			return err
		}
		logger.Info("wrote report", zap.String("path", path))
	}

	if traceOpts.dbPath != "" {
		if err := tracedb.Write(traceOpts.dbPath, &m, traceOpts.validate, logger); err != nil {
			return fmt.Errorf("write trace database: %w", err)
		}
		logger.Info("wrote trace database", zap.String("path", traceOpts.dbPath))
	}
	return nil
}
