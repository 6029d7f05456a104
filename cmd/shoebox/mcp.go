package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/unowned-ai/shoebox/pkg/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the shoebox MCP server (stdio)",
	Long: `Start a Model Context Protocol (MCP) server that exposes the photo library as MCP
tools over STDIO. Every tool takes a 'user' argument naming the account it acts as;
user management tools need the admin account.

Logs go to stderr so they do not mix with the JSON-RPC stream on stdout.

Example:
  shoebox mcp
  shoebox mcp --backend badger --db ~/photos/library.badger`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		log, err := newLogger()
		if err != nil {
			return err
		}
		cfg, err := storeConfig()
		if err != nil {
			return err
		}

		srv, err := mcp.NewShoeboxMCPServer(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer func() {
			err = multierr.Append(err, srv.Close())
		}()

		fmt.Fprintf(os.Stderr, "Shoebox MCP server started. Library: %s %s\n", cfg.Kind, cfg.Path)
		fmt.Fprintln(os.Stderr, "Listening for MCP JSON-RPC on STDIN/STDOUT ... (Ctrl+C to quit)")
		return srv.Start()
	},
}
