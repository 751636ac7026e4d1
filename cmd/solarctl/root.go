package main

import (
	"io"
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/saaga0h/solarium/pkg/config"
)

var (
	titleColor = color.New(color.FgHiWhite, color.Bold)
	keyColor   = color.New(color.FgHiCyan)
	valueColor = color.New(color.FgHiYellow)
	mutedColor = color.New(color.FgHiBlack)
	okColor    = color.New(color.FgHiGreen, color.Bold)
	failColor  = color.New(color.FgHiRed, color.Bold)
)

// newRootCmd builds the command tree. Connection settings follow the
// appliance: defaults, then SOLARIUM_ variables, then flags.
func newRootCmd() *cobra.Command {
	cfg := config.NewConfig()
	cfg.LoadFromEnv()
	var noColor bool

	root := &cobra.Command{
		Use:           "solarctl",
		Short:         "Inspect and drive a solarium",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				color.NoColor = true
			}
		},
	}
	cfg.BindFlags(root.PersistentFlags())
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable coloured output")

	root.AddCommand(
		newScheduleCmd(cfg),
		newStatusCmd(cfg),
		newClimateCmd(cfg),
		newHistoryCmd(cfg),
		newSendCmd(cfg),
	)
	return root
}

// quietLogger keeps client connection logs out of the command output
func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
