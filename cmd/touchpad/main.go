// Package main runs the touch pad client and receiver.
package main

import (
	"fmt"
	"os"

	"github.com/frudas24/touchpad/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var debug bool

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "touchpad",
	Short: "Touch pad remote control for large display controllers",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable verbose debug logging")
	rootCmd.AddCommand(newClientCmd(), newServeCmd())
}

// main is the entrypoint for the touchpad command.
func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// newLogger builds the process logger from the --debug flag.
func newLogger() (*zap.SugaredLogger, func(), error) {
	log, err := logging.New(debug)
	if err != nil {
		return nil, nil, err
	}
	return log, func() { _ = log.Sync() }, nil
}
