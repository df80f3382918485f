package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vvka-141/transitload/internal/config"
	"github.com/vvka-141/transitload/internal/db"
	"github.com/vvka-141/transitload/internal/logging"
	"github.com/vvka-141/transitload/internal/services"
	"github.com/vvka-141/transitload/internal/ui"
	"github.com/vvka-141/transitload/pkg/transitload"
)

// approvalFlags selects how the destructive reset is approved.
type approvalFlags struct {
	force     bool
	countdown time.Duration
}

func addApprovalFlags(cmd *cobra.Command, f *approvalFlags) {
	cmd.Flags().BoolVar(&f.force, "force", false,
		"Skip the interactive confirmation of the table reset.\n"+
			"Required when stdin is not a terminal (cron, CI).")
	cmd.Flags().DurationVar(&f.countdown, "force-countdown", transitload.DefaultForceApprovalCountdown,
		"Countdown shown before a forced reset proceeds (0 disables it)")
}

// newLogger selects the console logger or, for --log-format json, the zap
// logger. The returned flush function must be called before exit.
func newLogger(cmd *cobra.Command, projectCfg *config.ProjectConfig, verbose bool) (transitload.Logger, func(), error) {
	format := resolveOutput(getStringFlag(cmd, "log-format"), "TRANSITLOAD_LOG_FORMAT", projectCfg.Output.LogFormat)
	switch format {
	case "", "text":
		return logging.NewConsoleLogger(verbose), func() {}, nil
	case "json":
		zl, err := logging.NewZapLogger(verbose)
		if err != nil {
			return nil, nil, err
		}
		return zl, func() { _ = zl.Sync() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown log format %q (expected text or json): %w", format, transitload.ErrInvalidConfig)
	}
}

// selectApprover picks the approver for the destructive reset.
// Without --force an interactive terminal is required.
func selectApprover(f approvalFlags, verbose bool) transitload.Approver {
	if f.force {
		countdown := f.countdown
		if !ui.IsInteractive() {
			countdown = 0
		}
		return ui.NewForcedApprover(verbose, countdown)
	}
	if ui.IsInteractive() {
		return ui.NewInteractiveApprover(verbose)
	}
	return refusingApprover{out: os.Stderr}
}

// refusingApprover denies the reset when nobody can confirm it.
type refusingApprover struct {
	out io.Writer
}

func (a refusingApprover) RequestApproval(ctx context.Context, dbName string, tables []string) (bool, error) {
	fmt.Fprintf(a.out, "Refusing to reset tables in database '%s' without confirmation: stdin is not a terminal.\n", dbName)
	fmt.Fprintln(a.out, "Re-run with --force to approve the reset non-interactively.")
	return false, nil
}

func newSessionManager(logger transitload.Logger) *services.SessionManager {
	return services.NewSessionManager(func(c *transitload.ConnectionConfig) (transitload.Connector, error) {
		return db.NewConnector(c, logger)
	}, logger)
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-sigChan:
			fmt.Fprintln(os.Stderr, "\n[INTERRUPT] Received interrupt signal, cancelling load...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}
