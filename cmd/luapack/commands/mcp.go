package commands

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/luapack/internal/mcp"
)

// NewMCPCommand creates the MCP server command.
func NewMCPCommand() *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for AI agent integration",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport.

The MCP server exposes luapack capabilities as tools that AI agents can
discover and invoke:
  - luapack_analyze: Resolve the require closure of a Lua entry script
  - luapack_bundle: Bundle an entry script into a single Lua file`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cobraCmd *cobra.Command, _ []string) error {
			// Stdout carries the protocol; logs go to stderr only.
			level := slog.LevelError
			if debug {
				level = slog.LevelDebug
			}

			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

			srv := mcp.NewServer(mcp.ServerDeps{Logger: logger})

			return srv.Run(cobraCmd.Context())
		},
	}

	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging to stderr")

	return cmd
}
