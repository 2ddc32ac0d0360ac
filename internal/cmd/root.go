// Package cmd implements the CLI (Command Line Interface) of the application.
//
// extract     - Parse a whois inetnum dump into a range store
// consolidate - Merge range stores into a minimal CIDR block list
// stats       - Summarize range stores per country
package cmd

import (
	"context"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/leighmacdonald/rirblock/internal/config"
	"github.com/leighmacdonald/rirblock/pkg/log"
	"github.com/spf13/cobra"
)

// BuildVersion is replaced at build time via ldflags.
var BuildVersion = "master"

var cfgFile string

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "rirblock",
	Short: "Convert RIR whois inetnum dumps into country CIDR block lists",
	Long: `rirblock parses whois database dumps published by the regional internet
registries (APNIC, RIPE) and consolidates the address ranges allocated to a
chosen set of countries into a minimal list of CIDR blocks suitable as
firewall block list input.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	setupCLI()

	if errExecute := rootCmd.Execute(); errExecute != nil {
		os.Exit(1)
	}
}

func setupCLI() {
	rootCmd.Version = BuildVersion
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
	rootCmd.AddCommand(extractCmd())
	rootCmd.AddCommand(consolidateCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/rirblock.yml)")
}

// setup reads the config and installs the global logger. The returned
// cleanup function flushes pending log output and must run before exit.
func setup(ctx context.Context) (config.Config, func(), error) {
	conf, errConfig := config.Read(cfgFile)
	if errConfig != nil {
		return config.Config{}, nil, errConfig
	}

	useSentry := false

	if conf.Log.SentryDSN != "" {
		if _, errSentry := log.NewSentryClient(conf.Log.SentryDSN, BuildVersion); errSentry == nil {
			useSentry = true
		}
	}

	closer := log.MustCreateLogger(ctx, conf.Log.File, conf.Log.Level, useSentry, BuildVersion)

	cleanup := func() {
		if useSentry {
			sentry.Flush(2 * time.Second)
		}

		closer()
	}

	return conf, cleanup, nil
}
