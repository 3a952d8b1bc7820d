package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/go-rpki/rrdppub/pkg/logging"
	"github.com/go-rpki/rrdppub/pkg/version"
)

func rootMain(command *cobra.Command, arguments []string) {
	if rootConfiguration.version {
		fmt.Println(version.Version)
		return
	}
	command.Help()
}

var rootCommand = &cobra.Command{
	Use:   "rrdpd",
	Short: "rrdpd publishes an RPKI repository tree as an RRDP endpoint.",
	Run:   rootMain,
	// --debug forces verbose logging regardless of what the publish
	// configuration's logLevel says; publishMain only applies the
	// configured level when this override is not in effect.
	PersistentPreRun: func(command *cobra.Command, arguments []string) {
		if rootConfiguration.debug {
			logging.CurrentLevel = logging.LevelDebug
		}
	},
}

var rootConfiguration struct {
	help    bool
	version bool
	debug   bool
}

func init() {
	flags := rootCommand.Flags()
	flags.BoolVarP(&rootConfiguration.help, "help", "h", false, "Show help information")
	flags.BoolVarP(&rootConfiguration.version, "version", "V", false, "Show version information")
	rootCommand.PersistentFlags().BoolVar(&rootConfiguration.debug, "debug", false, "Enable debug logging")

	cobra.EnableCommandSorting = false

	rootCommand.AddCommand(publishCommand)
}

func main() {
	if err := rootCommand.Execute(); err != nil {
		os.Exit(1)
	}
}
