// Package cmd contains the ledger command line tool.
package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ardanlabs/ledgerview/business/core/ledger"
	"github.com/ardanlabs/ledgerview/foundation/logger"
	"github.com/joho/godotenv"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

var log *zap.SugaredLogger

// RootCmd is the base command of the tool.
var RootCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Inspect and extend a ledger service",
	Long:  `ledger reads the chain held by a ledger service and submits new transactions to it.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if !viper.GetBool("verbose") {
			log = zap.NewNop().Sugar()
			return nil
		}

		var err error
		log, err = logger.New("LEDGER", "stderr")
		if err != nil {
			return fmt.Errorf("constructing logger: %w", err)
		}

		return nil
	},
}

func init() {
	RootCmd.PersistentFlags().StringP("url", "u", "http://localhost:8080", "Url of the ledger service.")
	RootCmd.PersistentFlags().Duration("timeout", 0, "Timeout for calls against the ledger service, zero for none.")
	RootCmd.PersistentFlags().String("tz", "Local", "Time zone used to display block timestamps.")
	RootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log ledger calls to stderr.")
	if err := viper.BindPFlags(RootCmd.PersistentFlags()); err != nil {
		fmt.Fprintln(os.Stderr, "binding flags:", err)
	}

	RootCmd.SilenceUsage = true
	RootCmd.SilenceErrors = true

	viper.SetEnvPrefix("ledger")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	RootCmd.AddCommand(chainCmd)
	RootCmd.AddCommand(sendCmd)
	RootCmd.AddCommand(verifyCmd)
	RootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() {

	// Values from a .env file in the working directory are loaded into the
	// environment first. Variables already set are not overridden.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		pterm.Error.Println(err)
		os.Exit(1)
	}

	if err := RootCmd.Execute(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

// newClient constructs the ledger client from the configured url and timeout.
func newClient() *ledger.Client {
	return ledger.New(log, viper.GetString("url"), ledger.WithTimeout(viper.GetDuration("timeout")))
}

// location returns the configured time zone for timestamps.
func location() (*time.Location, error) {
	loc, err := time.LoadLocation(viper.GetString("tz"))
	if err != nil {
		return nil, fmt.Errorf("loading time zone: %w", err)
	}
	return loc, nil
}
