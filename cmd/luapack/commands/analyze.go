package commands

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/luapack/internal/plot"
	"github.com/Sumatoshi-tech/luapack/internal/report"
	"github.com/Sumatoshi-tech/luapack/pkg/luapack"
)

// AnalyzeCommand holds configuration for the analyze command.
type AnalyzeCommand struct {
	detail      bool
	bundlePath  string
	plotPath    string
	maxDeps     int
	searchRoots []string
	configPath  string
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand() *cobra.Command {
	ac := &AnalyzeCommand{}

	cmd := &cobra.Command{
		Use:   "analyze <entry>",
		Short: "Resolve the dependency closure of a Lua entry script",
		Long: "Resolve the transitive require closure of a Lua entry script and\n" +
			"print the dependency files in discovery order.",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          ac.run,
	}

	cmd.Flags().BoolVar(&ac.detail, "detail", false, "Show per-module size and language table")
	cmd.Flags().StringVar(&ac.bundlePath, "bundle", "", "Also write a single-file bundle to this path")
	cmd.Flags().StringVar(&ac.plotPath, "plot", "", "Also write an interactive dependency graph HTML page")
	cmd.Flags().IntVar(&ac.maxDeps, "max-deps", 0, "Dependency budget including the entry (0 = config default)")
	cmd.Flags().StringSliceVar(&ac.searchRoots, "root", nil, "Extra module search roots after the entry directory")
	cmd.Flags().StringVar(&ac.configPath, "config", "", "Config file path (default: .luapack.yaml in cwd or $HOME)")

	return cmd
}

func (ac *AnalyzeCommand) run(cmd *cobra.Command, args []string) error {
	entry := args[0]

	cfg, err := loadConfig(ac.configPath)
	if err != nil {
		return err
	}

	maxDeps := ac.maxDeps
	if maxDeps == 0 {
		maxDeps = cfg.Analysis.MaxDependencies
	}

	roots := append(append([]string{}, cfg.Analysis.SearchRoots...), ac.searchRoots...)

	opts := []luapack.Option{
		luapack.WithMaxDependencies(maxDeps),
		luapack.WithSearchRoots(roots...),
		luapack.WithLogger(newLogger(ac.detail)),
	}

	result, analyzeErr := luapack.AnalyzeGraph(entry, opts...)
	if analyzeErr != nil {
		return analyzeErr
	}

	out := report.New(cmd.OutOrStdout())
	out.Dependencies(result.EntryPath, result.Files)

	if ac.detail {
		allFiles := append(append([]string{}, result.Files...), result.EntryPath)

		detailErr := out.DependencyDetail(allFiles)
		if detailErr != nil {
			return detailErr
		}
	}

	if ac.bundlePath != "" {
		_, bundleErr := luapack.BundleEntry(entry, ac.bundlePath, opts...)
		if bundleErr != nil {
			return bundleErr
		}
	}

	if ac.plotPath != "" {
		plotErr := plot.RenderFile(ac.plotPath, result)
		if plotErr != nil {
			return plotErr
		}
	}

	return nil
}
