package commands

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/luapack/pkg/luapack"
)

// BundleCommand holds configuration for the bundle command.
type BundleCommand struct {
	output      string
	maxDeps     int
	searchRoots []string
	configPath  string
}

// NewBundleCommand creates the bundle command.
func NewBundleCommand() *cobra.Command {
	bc := &BundleCommand{}

	cmd := &cobra.Command{
		Use:           "bundle <entry>",
		Short:         "Write the require closure as one self-contained Lua file",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          bc.run,
	}

	cmd.Flags().StringVarP(&bc.output, "output", "o", "", "Bundle output path (default: <entry stem>.bundle.lua)")
	cmd.Flags().IntVar(&bc.maxDeps, "max-deps", 0, "Dependency budget including the entry (0 = config default)")
	cmd.Flags().StringSliceVar(&bc.searchRoots, "root", nil, "Extra module search roots after the entry directory")
	cmd.Flags().StringVar(&bc.configPath, "config", "", "Config file path (default: .luapack.yaml in cwd or $HOME)")

	return cmd
}

func (bc *BundleCommand) run(cmd *cobra.Command, args []string) error {
	entry := args[0]

	cfg, err := loadConfig(bc.configPath)
	if err != nil {
		return err
	}

	maxDeps := bc.maxDeps
	if maxDeps == 0 {
		maxDeps = cfg.Analysis.MaxDependencies
	}

	output := bc.output
	if output == "" {
		base := filepath.Base(entry)
		output = strings.TrimSuffix(base, filepath.Ext(base)) + ".bundle.lua"
	}

	roots := append(append([]string{}, cfg.Analysis.SearchRoots...), bc.searchRoots...)

	result, bundleErr := luapack.BundleEntry(entry, output,
		luapack.WithMaxDependencies(maxDeps),
		luapack.WithSearchRoots(roots...),
	)
	if bundleErr != nil {
		return bundleErr
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Bundled %d modules into %s\n", len(result.Manifest), output)

	return nil
}
