package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sgx-labs/blog/internal/build"
	"github.com/sgx-labs/blog/internal/cli"
	"github.com/sgx-labs/blog/internal/logging"
)

func buildCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Write the static data bundle",
		Long: `Load every post and write posts.json, posts.js and index.json under
<out>/data, then copy images, public assets and .nojekyll.

The output directory is removed first.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if out != "" {
				cfg.Build.OutputDir = out
			}
			log := logging.New(cfg.Log.Level)

			report := newLoader(cfg, log).Load()
			res, err := build.Run(report.Collection, build.Options{
				Root:          cfg.Root,
				OutputDir:     cfg.OutputDir(),
				PostsDir:      cfg.PostsDir(),
				ImagesDir:     cfg.ImagesDir(),
				PublicDir:     cfg.PublicDir(),
				Sentinel:      cfg.Site.Uncategorized,
				KeywordCount:  cfg.Keywords.Count,
				KeywordMaxLen: cfg.Keywords.MaxLength,
				Logger:        log,
			})
			if err != nil {
				return fmt.Errorf("build: %w", err)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Built %s%s%s\n", cli.Bold, cli.ShortenHome(cfg.OutputDir()), cli.Reset)
			fmt.Fprintf(w, "  Posts:   %d\n", res.Posts)
			if len(report.Skipped) > 0 {
				fmt.Fprintf(w, "  Skipped: %s%d%s\n", cli.Red, len(report.Skipped), cli.Reset)
			}
			fmt.Fprintf(w, "  Images:  %d\n", res.Images)
			fmt.Fprintf(w, "  Public:  %d\n", res.PublicFiles)
			if res.NoJekyll {
				fmt.Fprintf(w, "  .nojekyll copied\n")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "Output directory (overrides config)")
	return cmd
}
