package main

import (
	"fmt"
	"os"

	"github.com/harunnryd/deskflow/internal/config"
	"github.com/harunnryd/deskflow/internal/formatter"
	"github.com/harunnryd/deskflow/internal/logger"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "deskflow",
	Short: "Deskflow service desk assistant",
	Long: `Deskflow turns free-text requests into validated, confirmed IT service requests.

Start a guided conversation with "deskflow chat", browse the service catalog
with "deskflow catalog ls" and inspect staged requests with "deskflow actions ls".`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if _, err := formatter.ParseOutputFormat(outputFlag(cmd)); err != nil {
			return err
		}

		var err error
		cfg, err = config.Load(cmd)
		if err != nil {
			return err
		}

		logger.Setup(cfg.Server.LogLevel)
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// outputFlag reads the persistent --output flag from any subcommand.
func outputFlag(cmd *cobra.Command) string {
	if f := cmd.Flag("output"); f != nil {
		return f.Value.String()
	}
	return string(formatter.OutputFormatTable)
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.deskflow/config.yaml)")
	flags.String("log-level", config.DefaultServerLogLevel, "log level (debug, info, warn, error)")
	flags.String("data-dir", "", "data directory holding the action snapshot, audit log and lock (default is $HOME/.deskflow/data)")
	flags.StringP("output", "o", string(formatter.OutputFormatTable), "output format for listings (table, json, yaml)")
}
