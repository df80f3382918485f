package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/vvka-141/transitload/internal/config"
	"github.com/vvka-141/transitload/internal/files/scanner"
	"github.com/vvka-141/transitload/internal/ui"
	"github.com/vvka-141/transitload/pkg/transitload"
)

var discoverCmd = &cobra.Command{
	Use:   "discover [raw_dir]",
	Short: "List snapshot files in processing order",
	Long: `Discover lists, per category, the snapshot files a load would process and the
order it would process them in, with the instant embedded in each name.
It does not read the files or connect to the warehouse.

Examples:
  transitload discover
  transitload discover /srv/feeds/raw --file-prefix bart`,
	Args: OptionalRawDir,
	RunE: runDiscover,
}

var discoverFilePrefix string

func init() {
	rootCmd.AddCommand(discoverCmd)
	discoverCmd.Flags().StringVar(&discoverFilePrefix, "file-prefix", "",
		"Feed prefix of snapshot file names (default: $TRANSITLOAD_FILE_PREFIX or bart)")
}

func runDiscover(cmd *cobra.Command, args []string) error {
	projectCfg, err := loadProjectConfig(getStringFlag(cmd, "config"))
	if err != nil {
		return err
	}

	var rawDirArg string
	if len(args) == 1 {
		rawDirArg = args[0]
	}
	rawDir, prefix := discoveryTarget(rawDirArg, discoverFilePrefix, projectCfg)

	s := scanner.NewScanner()
	for _, category := range transitload.Categories() {
		snapshots, err := s.Discover(rawDir, prefix, category)
		if err != nil {
			return err
		}
		ui.RenderDiscovery(os.Stdout, category, scanner.Pattern(rawDir, prefix, category), snapshots)
	}
	return nil
}

func discoveryTarget(rawDirArg, prefixFlag string, projectCfg *config.ProjectConfig) (string, string) {
	rawDir := resolveString(rawDirArg, "RAW_DIR", projectCfg.Load.RawDir, transitload.DefaultRawDir)
	prefix := resolveString(prefixFlag, "TRANSITLOAD_FILE_PREFIX", projectCfg.Load.FilePrefix, transitload.DefaultFilePrefix)
	return rawDir, prefix
}
