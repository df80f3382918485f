package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "transitload",
	Short: "Load transit feed snapshots into the PostgreSQL warehouse",
	Long: `transitload reads the trip update and service alert snapshots written by the
feed client (<prefix>_<category>_<YYYYMMDD>_<HHMMSS>.parquet), reconciles every
file to the canonical warehouse schema and bulk-loads it into PostgreSQL.

Every load starts by dropping and recreating the destination tables.

Exit Codes:
  0  - Success
  1  - General error
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration
  11 - Database connection failed
  12 - Destructive reset not approved
  13 - Provisioning or batch write failed
  14 - Input column could not be coerced to its warehouse type
  15 - Snapshot file unreadable
  16 - Destination tables drifted from their definitions (provision --verify)`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		printVersionInfo()
		return nil
	}
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().Bool("help", false, "Help for transitload")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output for all commands")
	rootCmd.PersistentFlags().String("config", "",
		"Path to transitload.yaml (default: ./transitload.yaml when present)")
	rootCmd.PersistentFlags().String("log-format", "",
		"Log format: text|json (default: text, or output.log_format in transitload.yaml)")
}

// getVerboseFlag safely retrieves the verbose flag value
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to get verbose flag: %v\n", err)
		return false
	}
	return verbose
}

func getStringFlag(cmd *cobra.Command, name string) string {
	value, err := cmd.Flags().GetString(name)
	if err != nil {
		return ""
	}
	return value
}
