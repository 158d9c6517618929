// Package main is the entrypoint for the blog CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sgx-labs/blog/internal/config"
	"github.com/sgx-labs/blog/internal/logging"
	"github.com/sgx-labs/blog/internal/posts"
	"github.com/sgx-labs/blog/internal/store"
	"github.com/sgx-labs/blog/internal/visits"
)

// Version is set at build time via ldflags.
var Version = "dev"

// siteRoot is the --root flag shared by every command.
var siteRoot string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "blog",
		Short: "Markdown blog toolkit",
		Long:  "blog loads Markdown posts, builds the static data bundle, and serves a live-reloading dev API.",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newCmd())
	root.AddCommand(runCmd())
	root.AddCommand(buildCmd())
	root.AddCommand(searchCmd())
	root.AddCommand(archiveCmd())
	root.AddCommand(tagsCmd())
	root.AddCommand(categoriesCmd())
	root.AddCommand(keywordsCmd())
	root.AddCommand(heatCmd())
	root.AddCommand(configCmd())
	root.AddCommand(mcpCmd())
	root.AddCommand(versionCmd())

	root.PersistentFlags().StringVar(&siteRoot, "root", ".", "Site root containing content/ and .blog/")
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the blog version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "blog %s\n", Version)
			return nil
		},
	}
}

// ---------- shared setup ----------

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(siteRoot)
	if err != nil {
		if errors.Is(err, config.ErrInvalidConfig) {
			return nil, userError(err.Error(), "Check "+config.FilePath(siteRoot)+" or run 'blog config show'")
		}
		return nil, err
	}
	return cfg, nil
}

func newLoader(cfg *config.Config, log logging.Logger) *posts.Loader {
	return &posts.Loader{
		Dir:      cfg.PostsDir(),
		Renderer: posts.NewGoldmarkRenderer(),
		Logger:   log,
		Workers:  cfg.Build.Workers,
	}
}

// loadPosts reads every post once and prints a short note about skipped files.
func loadPosts(cmd *cobra.Command, cfg *config.Config) *posts.Collection {
	report := newLoader(cfg, logging.Nop()).Load()
	if n := len(report.Skipped); n > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: skipped %d file(s); run 'blog run' for details\n", n)
	}
	return report.Collection
}

// openTracker opens the visit store. The returned close func is never nil.
func openTracker(cfg *config.Config, log logging.Logger) (*visits.Tracker, func(), error) {
	db, err := store.OpenPath(cfg.DBPath())
	if err != nil {
		return nil, func() {}, fmt.Errorf("open visit store: %w", err)
	}
	var counter visits.SiteCounter
	if cfg.Visits.BadgeID != "" {
		counter = visits.NewBadgeClient(cfg.Visits.BadgeURL, cfg.BadgeTimeout())
	}
	return visits.NewTracker(db, counter, cfg.Visits.BadgeID, log), func() { db.Close() }, nil
}

// ---------- error helpers ----------

type blogError struct {
	message string
	hint    string
}

func (e *blogError) Error() string {
	return fmt.Sprintf("%s\n  Hint: %s", e.message, e.hint)
}

func userError(message, hint string) error {
	return &blogError{message: message, hint: hint}
}
