// Package cmd implements the matrix-engine CLI.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const (
	// Version is the current version.
	Version = "0.1.0"
	// Banner is printed on startup.
	Banner = `
   __  __       _        _        _____             _
  |  \/  | __ _| |_ _ __(_)_  __ | ____|_ __   __ _(_)_ __   ___
  | |\/| |/ _' | __| '__| \ \/ / |  _| | '_ \ / _' | | '_ \ / _ \
  | |  | | (_| | |_| |  | |>  <  | |___| | | | (_| | | | | |  __/
  |_|  |_|\__,_|\__|_|  |_/_/\_\ |_____|_| |_|\__, |_|_| |_|\___|
                                              |___/   %s
`
)

var (
	cfgFile string
	debug   bool
	quiet   bool
)

var rootCmd = &cobra.Command{
	Use:   "matrix-engine",
	Short: "Distributed matrix multiplication",
	Long: `matrix-engine multiplies integer matrices by splitting the product into
one dot product per output cell and distributing them over worker nodes.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "quiet mode")

	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetVersionTemplate(fmt.Sprintf(Banner, Version) + "\n")
}

// GetRootCmd returns the root command (for tests).
func GetRootCmd() *cobra.Command {
	return rootCmd
}
