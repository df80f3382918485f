package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// OptionalRawDir accepts at most one raw_dir argument, which overrides
// RAW_DIR and load.raw_dir.
func OptionalRawDir(cmd *cobra.Command, args []string) error {
	if len(args) > 1 {
		return fmt.Errorf(`accepts at most 1 arg(s), received %d

Usage: %s

Example:
  %s ./data/raw`, len(args), cmd.UseLine(), cmd.CommandPath())
	}
	return nil
}
