package main

import (
	"github.com/spf13/cobra"

	"github.com/jbm9/baycat/pkg/logging"
)

// rootLogger is the process-wide Logger, built from --log-level once flags
// have been parsed. Every subcommand derives its loggers from this one via
// Sublogger, matching the hierarchy pkg/logging supports.
var rootLogger = logging.RootLogger

var rootCommand = &cobra.Command{
	Use:           "baycat",
	Short:         "baycat synchronizes a local directory against an object store",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
		level, ok := logging.NameToLevel(rootConfiguration.logLevel)
		if !ok {
			return errorf("invalid log level %q", rootConfiguration.logLevel)
		}
		rootLogger = logging.NewLogger(level, colorErrorWriter())
		return nil
	},
}

var rootConfiguration struct {
	// logLevel is the name of the minimum log.Level to emit.
	logLevel string
}

func init() {
	cobra.EnableCommandSorting = false

	flags := rootCommand.PersistentFlags()
	flags.StringVar(&rootConfiguration.logLevel, "log-level", "info", "Specify log level (disabled|error|warn|info|debug|trace)")

	rootCommand.AddCommand(
		syncCommand,
		manifestCommand,
	)
}
