// Package main provides the entry point for the luapack CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/luapack/cmd/luapack/commands"
	"github.com/Sumatoshi-tech/luapack/pkg/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "luapack",
		Short: "Package Lua programs into standalone executables",
		Long: `Luapack resolves a Lua program's require closure, bundles it into a
single file, and drives a native packaging engine to produce a
standalone executable.

Commands:
  analyze   Resolve and print the dependency closure of an entry script
  bundle    Write the closure as one self-contained Lua file
  build     Produce a standalone executable via a packaging engine
  engines   List known packaging engines and their availability
  mcp       Start an MCP server exposing analyze/bundle tools`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(commands.NewAnalyzeCommand())
	rootCmd.AddCommand(commands.NewBundleCommand())
	rootCmd.AddCommand(commands.NewBuildCommand())
	rootCmd.AddCommand(commands.NewEnginesCommand())
	rootCmd.AddCommand(commands.NewMCPCommand())
	rootCmd.AddCommand(versionCmd())

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
