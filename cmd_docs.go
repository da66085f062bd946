package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"qmskit/internal/doccheck"
)

var docsOpts struct {
	root       string
	paths      []string
	configPath string
	watch      bool
}

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Validate controlled documents in the working tree",
	Long: `Checks naming conventions, YAML front matter completeness, regulatory
mapping whitelists, and cross-document links for every controlled markdown
document under the configured paths.

With --watch the validation re-runs whenever a document changes.`,
	RunE: runDocs,
}

func init() {
	f := docsCmd.Flags()
	f.StringVar(&docsOpts.root, "root", ".", "repository root to validate")
	f.StringSliceVar(&docsOpts.paths, "paths", nil, "document roots to validate (default docs,QMS,DHF,RMF)")
	f.StringVar(&docsOpts.configPath, "config", "", "YAML config overriding paths and regulations")
	f.BoolVar(&docsOpts.watch, "watch", false, "re-validate on file changes")
}

func runDocs(cmd *cobra.Command, args []string) error {
	paths := docsOpts.paths
	var regulations []string
	if docsOpts.configPath != "" {
		cfg, err := doccheck.LoadConfig(docsOpts.configPath)
		if err != nil {
			return err
		}
		if len(paths) == 0 {
			paths = cfg.Paths
		}
		regulations = cfg.Regulations
	}

	v := doccheck.New(docsOpts.root, paths, regulations, logger)

	printResult := func(ok bool) {
		for _, e := range v.Errors {
			fmt.Printf("ERROR: %s\n", e)
		}
		for _, w := range v.Warnings {
			fmt.Printf("WARNING: %s\n", w)
		}
		if ok {
			fmt.Printf("validation passed (%d warnings)\n", len(v.Warnings))
		} else {
			fmt.Printf("validation failed: %d errors, %d warnings\n", len(v.Errors), len(v.Warnings))
		}
		logger.Info("document validation complete",
			zap.Bool("passed", ok),
			zap.Int("errors", len(v.Errors)),
			zap.Int("warnings", len(v.Warnings)))
	}

	if docsOpts.watch {
		return doccheck.Watch(cmd.Context(), v, printResult)
	}

	ok := v.Run()
	printResult(ok)
	if !ok {
		os.Exit(1)
	}
	return nil
}
