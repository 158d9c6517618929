package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sgx-labs/blog/internal/cli"
	"github.com/sgx-labs/blog/internal/index"
	"github.com/sgx-labs/blog/internal/store"
)

func searchCmd() *cobra.Command {
	var (
		limit   int
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search posts by title, body, date, tags or category",
		Long: `Case-insensitive substring search across every post field.

Examples:
  blog search golang
  blog search "2024-06" --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			if strings.TrimSpace(query) == "" {
				return userError("Empty search query", "Provide a search term: blog search \"your query\"")
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			results := index.Search(loadPosts(cmd, cfg).Posts, query)
			if limit > 0 && len(results) > limit {
				results = results[:limit]
			}
			if jsonOut {
				return printJSON(cmd, results)
			}
			cli.Posts(cmd.OutOrStdout(), results)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results (0 = all)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func archiveCmd() *cobra.Command {
	var (
		filter  string
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "List posts grouped by year and month",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			g := index.Grouper{Sentinel: cfg.Site.Uncategorized}
			groups := index.FilterTimeGroups(g.GroupByTime(loadPosts(cmd, cfg).Posts), filter)
			if jsonOut {
				return printJSON(cmd, groups)
			}
			cli.Archive(cmd.OutOrStdout(), groups)
			return nil
		},
	}
	cmd.Flags().StringVar(&filter, "filter", "", "Only posts whose title or date contains this text")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func tagsCmd() *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "tags [tag]",
		Short: "List tags, or the posts carrying one tag",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			list := loadPosts(cmd, cfg).Posts
			if len(args) == 1 {
				tagged := index.PostsWithTag(list, args[0])
				if jsonOut {
					return printJSON(cmd, tagged)
				}
				cli.Posts(cmd.OutOrStdout(), tagged)
				return nil
			}
			counts := index.TagCounts(list)
			if jsonOut {
				return printJSON(cmd, counts)
			}
			cli.Counts(cmd.OutOrStdout(), counts)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func categoriesCmd() *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "categories [category]",
		Short: "List categories, or the posts in one category",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			g := index.Grouper{Sentinel: cfg.Site.Uncategorized}
			list := loadPosts(cmd, cfg).Posts
			if len(args) == 1 {
				in := g.PostsInCategory(list, args[0])
				if jsonOut {
					return printJSON(cmd, in)
				}
				cli.Posts(cmd.OutOrStdout(), in)
				return nil
			}
			counts := g.CategoryCounts(list)
			if jsonOut {
				return printJSON(cmd, counts)
			}
			cli.Counts(cmd.OutOrStdout(), counts)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func keywordsCmd() *cobra.Command {
	var (
		n       int
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "keywords",
		Short: "Show the most frequent words and tags",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if n <= 0 {
				n = cfg.Keywords.Count
			}
			kws := index.ExtractKeywords(loadPosts(cmd, cfg).Posts, n, cfg.Keywords.MaxLength)
			if jsonOut {
				return printJSON(cmd, kws)
			}
			cli.Keywords(cmd.OutOrStdout(), kws)
			return nil
		},
	}
	cmd.Flags().IntVarP(&n, "number", "n", 0, "Number of keywords (default from config)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func heatCmd() *cobra.Command {
	var (
		tag     string
		limit   int
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "heat",
		Short: "Rank posts by recorded visits",
		Long: `Rank posts by the visit counts recorded by 'blog run'.

Examples:
  blog heat
  blog heat --tag go --limit 5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			counts, err := readVisits(cfg.DBPath())
			if err != nil {
				return err
			}
			ranking := index.HeatRanking(loadPosts(cmd, cfg).Posts, counts, tag)
			if limit > 0 && len(ranking) > limit {
				ranking = ranking[:limit]
			}
			if jsonOut {
				return printJSON(cmd, ranking)
			}
			cli.Heat(cmd.OutOrStdout(), ranking)
			return nil
		},
	}
	cmd.Flags().StringVar(&tag, "tag", "", "Only posts with this tag")
	cmd.Flags().IntVar(&limit, "limit", 15, "Maximum number of posts (0 = all)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

// readVisits returns per-post visit counts. A missing store means no visits yet.
func readVisits(dbPath string) (map[string]int64, error) {
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return map[string]int64{}, nil
	}
	db, err := store.OpenPath(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open visit store: %w", err)
	}
	defer db.Close()
	return db.PostVisits()
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

