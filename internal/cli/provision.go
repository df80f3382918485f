package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vvka-141/transitload/internal/services"
	"github.com/vvka-141/transitload/pkg/transitload"
)

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Reset or verify the destination tables without loading",
	Long: `Provision drops and recreates trip_updates and service_alerts with their
indexes in one transaction, after the same approval a load asks for.

With --verify nothing is changed: the live columns and indexes are compared
with their canonical definitions and any difference exits with code 16.

Examples:
  transitload provision --force
  transitload provision --verify -d bart_dw`,
	Args: cobra.NoArgs,
	RunE: runProvision,
}

type provisionCmdFlagValues struct {
	conn     connectionFlags
	approval approvalFlags
	load     loadFlags
	verify   bool
}

var provisionCmdFlags provisionCmdFlagValues

func init() {
	rootCmd.AddCommand(provisionCmd)

	addConnectionFlags(provisionCmd, &provisionCmdFlags.conn)
	addApprovalFlags(provisionCmd, &provisionCmdFlags.approval)
	provisionCmd.Flags().StringVar(&provisionCmdFlags.load.schema, "schema", "",
		"PostgreSQL schema of the destination tables (default: public)")
	provisionCmd.Flags().DurationVar(&provisionCmdFlags.load.timeout, "timeout", transitload.DefaultTimeout,
		"Catastrophic failure protection for the whole command")
	provisionCmd.Flags().BoolVar(&provisionCmdFlags.verify, "verify", false,
		"Compare the live tables with their definitions instead of resetting them")
}

func runProvision(cmd *cobra.Command, args []string) error {
	verbose := getVerboseFlag(cmd)

	projectCfg, err := loadProjectConfig(getStringFlag(cmd, "config"))
	if err != nil {
		return err
	}

	logger, flush, err := newLogger(cmd, projectCfg, verbose)
	if err != nil {
		return err
	}
	defer flush()

	connConfig, err := resolveConnection(provisionCmdFlags.conn, projectCfg, verbose)
	if err != nil {
		return err
	}

	cfg, err := buildLoadConfig(cmd, "", connConfig, provisionCmdFlags.load, projectCfg, verbose)
	if err != nil {
		return err
	}
	cfg.Force = provisionCmdFlags.approval.force

	svc := services.NewLoadService(
		newSessionManager(logger),
		selectApprover(provisionCmdFlags.approval, verbose),
		logger,
	)

	ctx, cancel := signalContext()
	defer cancel()

	if err := svc.Provision(ctx, cfg, provisionCmdFlags.verify); err != nil {
		if provisionCmdFlags.verify {
			return fmt.Errorf("verification failed: %w", err)
		}
		return fmt.Errorf("provisioning failed: %w", err)
	}
	return nil
}
