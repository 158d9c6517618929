package main

import (
	"github.com/spf13/cobra"

	"github.com/sgx-labs/blog/internal/logging"
	mcpserver "github.com/sgx-labs/blog/internal/mcp"
	"github.com/sgx-labs/blog/internal/posts"
)

func mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start the AI tool integration server (MCP) on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			// stdout carries the protocol; the console logger would corrupt it.
			lib := posts.NewLibrary(newLoader(cfg, logging.Nop()))
			lib.Reload()

			srv := mcpserver.New(lib, mcpserver.Options{
				Version:       Version,
				PostsDir:      cfg.PostsDir(),
				Sentinel:      cfg.Site.Uncategorized,
				KeywordCount:  cfg.Keywords.Count,
				KeywordMaxLen: cfg.Keywords.MaxLength,
			})
			return srv.Serve(cmd.Context())
		},
	}
}
