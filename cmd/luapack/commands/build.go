package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/luapack/internal/report"
	"github.com/Sumatoshi-tech/luapack/pkg/luapack"
)

// BuildCommand holds configuration for the build command.
type BuildCommand struct {
	engineName  string
	output      string
	requires    []string
	manual      bool
	detail      bool
	maxDeps     int
	searchRoots []string
	configPath  string
}

// NewBuildCommand creates the build command.
func NewBuildCommand() *cobra.Command {
	bc := &BuildCommand{}

	cmd := &cobra.Command{
		Use:   "build <entry>",
		Short: "Produce a standalone executable from a Lua entry script",
		Long: "Resolve the entry script's require closure and drive a packaging\n" +
			"engine to produce a standalone executable.",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          bc.run,
	}

	cmd.Flags().StringVarP(&bc.engineName, "engine", "e", "", "Packaging engine name (default: config build.engine)")
	cmd.Flags().StringVarP(&bc.output, "output", "o", "", "Output artifact path (default: entry stem in cwd)")
	cmd.Flags().StringSliceVarP(&bc.requires, "require", "r", nil, "Explicit dependency files to include")
	cmd.Flags().BoolVar(&bc.manual, "manual", false, "Skip analysis; bundle only the explicit requires")
	cmd.Flags().BoolVar(&bc.detail, "detail", false, "Verbose progress logging")
	cmd.Flags().IntVar(&bc.maxDeps, "max-deps", 0, "Dependency budget including the entry (0 = config default)")
	cmd.Flags().StringSliceVar(&bc.searchRoots, "root", nil, "Extra module search roots after the entry directory")
	cmd.Flags().StringVar(&bc.configPath, "config", "", "Config file path (default: .luapack.yaml in cwd or $HOME)")

	return cmd
}

func (bc *BuildCommand) run(cmd *cobra.Command, args []string) error {
	entry := args[0]

	cfg, err := loadConfig(bc.configPath)
	if err != nil {
		return err
	}

	reg, regErr := newRegistry(cfg)
	if regErr != nil {
		return regErr
	}

	engineName := bc.engineName
	if engineName == "" {
		engineName = cfg.Build.Engine
	}

	output := bc.output
	if output == "" {
		output = cfg.Build.Output
	}

	maxDeps := bc.maxDeps
	if maxDeps == 0 {
		maxDeps = cfg.Analysis.MaxDependencies
	}

	roots := append(append([]string{}, cfg.Analysis.SearchRoots...), bc.searchRoots...)

	buildOpts := []luapack.BuildOption{
		luapack.WithEngine(engineName),
		luapack.WithRegistry(reg),
		luapack.WithRequires(bc.requires...),
		luapack.WithBuildMaxDependencies(maxDeps),
		luapack.WithBuildSearchRoots(roots...),
		luapack.WithBuildLogger(newLogger(bc.detail)),
		luapack.WithContext(cmd.Context()),
	}

	if output != "" {
		buildOpts = append(buildOpts, luapack.WithOutput(output))
	}

	if bc.manual {
		buildOpts = append(buildOpts, luapack.WithManual())
	}

	produced, buildErr := luapack.Build(entry, buildOpts...)
	if buildErr != nil {
		return buildErr
	}

	info, statErr := os.Stat(produced)
	if statErr != nil {
		return statErr
	}

	report.New(cmd.OutOrStdout()).BuildResult(produced, info.Size())

	return nil
}
