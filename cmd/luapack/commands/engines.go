package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/luapack/internal/engine"
	"github.com/Sumatoshi-tech/luapack/internal/report"
)

// EnginesCommand holds configuration for the engines command.
type EnginesCommand struct {
	configPath string
}

// NewEnginesCommand creates the engines command.
func NewEnginesCommand() *cobra.Command {
	ec := &EnginesCommand{}

	cmd := &cobra.Command{
		Use:           "engines",
		Short:         "List known packaging engines and their availability",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          ec.run,
	}

	cmd.Flags().StringVar(&ec.configPath, "config", "", "Config file path (default: .luapack.yaml in cwd or $HOME)")

	return cmd
}

func (ec *EnginesCommand) run(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(ec.configPath)
	if err != nil {
		return err
	}

	reg, regErr := newRegistry(cfg)
	if regErr != nil {
		return regErr
	}

	descriptors := reg.All()
	rows := make([]report.EngineRow, 0, len(descriptors))

	for _, d := range descriptors {
		rows = append(rows, report.EngineRow{
			Name:      d.Name,
			Kind:      string(d.Kind),
			Platforms: strings.Join(d.Platforms, ","),
			Summary:   d.Summary,
			Available: engine.Probe(d),
		})
	}

	report.New(cmd.OutOrStdout()).Engines(rows)

	return nil
}
