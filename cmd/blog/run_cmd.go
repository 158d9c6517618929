package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sgx-labs/blog/internal/cli"
	"github.com/sgx-labs/blog/internal/config"
	"github.com/sgx-labs/blog/internal/logging"
	"github.com/sgx-labs/blog/internal/posts"
	"github.com/sgx-labs/blog/internal/watcher"
	"github.com/sgx-labs/blog/internal/web"
)

func runCmd() *cobra.Command {
	var (
		addr    string
		static  string
		noWatch bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the dev server with live reload",
		Long: `Load every post, serve the JSON API and the built front-end, and reload
posts whenever a Markdown file changes.

Examples:
  blog run                        # http://localhost:5173
  blog run --addr 127.0.0.1:8080
  blog run --static web/dist      # serve a separately built front-end`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if static == "" {
				static = cfg.OutputDir()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, cmd, cfg, static, !noWatch)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides config)")
	cmd.Flags().StringVar(&static, "static", "", "Directory with the built front-end (default: build output dir)")
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "Disable live reload")
	return cmd
}

func runServer(ctx context.Context, cmd *cobra.Command, cfg *config.Config, static string, watch bool) error {
	log := logging.New(cfg.Log.Level)

	lib := posts.NewLibrary(newLoader(cfg, log))
	report := lib.Reload()
	cli.Header(cmd.OutOrStdout(), cfg.Site.Title)
	fmt.Fprintf(cmd.OutOrStdout(), "  Posts:   %s loaded from %s\n",
		cli.FormatNumber(int64(report.Collection.Len())), cli.ShortenHome(cfg.PostsDir()))
	if n := len(report.Skipped); n > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "  Skipped: %s%d%s\n", cli.Red, n, cli.Reset)
	}

	tracker, closeTracker, err := openTracker(cfg, log)
	if err != nil {
		return err
	}
	defer closeTracker()

	if watch {
		w := &watcher.Watcher{
			Dir:      cfg.PostsDir(),
			Debounce: cfg.WatchDebounce(),
			Logger:   log,
			OnChange: func() {
				r := lib.Reload()
				log.Infof("reloaded %d posts (%d skipped)", r.Collection.Len(), len(r.Skipped))
			},
		}
		go func() {
			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Warnf("live reload disabled: %v", err)
			}
		}()
	}

	srv := web.New(lib, tracker, web.Options{
		Addr:          cfg.Server.Addr,
		StaticDir:     static,
		LocalOnly:     cfg.Server.LocalOnly,
		CORSOrigins:   cfg.Server.CORSOrigins,
		Version:       Version,
		Title:         cfg.Site.Title,
		Welcome:       cfg.Site.Welcome,
		Sentinel:      cfg.Site.Uncategorized,
		KeywordCount:  cfg.Keywords.Count,
		KeywordMaxLen: cfg.Keywords.MaxLength,
		Logger:        log,
	})
	return srv.ListenAndServe(ctx)
}
