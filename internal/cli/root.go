// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-custody.

// Package cli implements the custody command line interface.
package cli

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "custody",
	Short: "go-custody - multi-party wallet custody and threshold signing",
	Long: `go-custody manages institutional custody wallets whose signing
authority is distributed across multiple parties. No single party ever
holds complete key material: spending requires a threshold of partial
signatures collected through the pending transaction workflow.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initViper)

	rootCmd.PersistentFlags().String("config", "",
		"config file (default is /etc/custody/config.yaml)")
	rootCmd.PersistentFlags().StringP("output", "o", "text",
		"output format (text, json)")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
}

// initViper wires environment variables into flag resolution, so
// CUSTODY_CONFIG and friends override defaults without a flag.
func initViper() {
	viper.SetEnvPrefix("CUSTODY")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()
}
