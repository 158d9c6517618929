package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sgx-labs/blog/internal/cli"
	"github.com/sgx-labs/blog/internal/scaffold"
)

func newCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "new [title]",
		Short: "Create a new post with front matter",
		Long: `Create content/posts/YYYY-MM-DD-<slug>.md with a front matter template.

Examples:
  blog new "Hello World"
  blog new                 # titled "untitled"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			title := strings.TrimSpace(strings.Join(args, " "))
			path, err := scaffold.NewPost(cfg.PostsDir(), title, time.Now())
			if err != nil {
				if errors.Is(err, scaffold.ErrPostExists) {
					return userError(err.Error(), "Pick a different title or edit the existing file")
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s%s%s\n", cli.Green, cli.ShortenHome(path), cli.Reset)
			return nil
		},
	}
}
