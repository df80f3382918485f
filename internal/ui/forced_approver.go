package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/vvka-141/transitload/pkg/transitload"
)

// ForcedApprover implements the Approver interface for --force runs.
// It shows the reset warning, counts down and then approves, leaving a
// window to press Ctrl+C.
type ForcedApprover struct {
	verbose   bool
	countdown time.Duration
	output    io.Writer
	sleepFn   func(time.Duration)
}

// NewForcedApprover creates a ForcedApprover writing to stderr. A zero
// countdown approves immediately, which is what scheduled jobs want.
func NewForcedApprover(verbose bool, countdown time.Duration) transitload.Approver {
	return &ForcedApprover{
		verbose:   verbose,
		countdown: countdown,
		output:    os.Stderr,
		sleepFn:   time.Sleep,
	}
}

// RequestApproval displays the warning, counts down and approves.
func (a *ForcedApprover) RequestApproval(ctx context.Context, dbName string, tables []string) (bool, error) {
	fmt.Fprintln(a.output)
	fmt.Fprintln(a.output, resetWarning(dbName, tables))
	fmt.Fprintln(a.output)

	for i := int(a.countdown / time.Second); i > 0; i-- {
		if err := ctx.Err(); err != nil {
			fmt.Fprintln(a.output)
			return false, err
		}
		fmt.Fprintf(a.output, "\rDropping in: %d seconds... (Press Ctrl+C to cancel)", i)
		a.sleepFn(time.Second)
	}
	if err := ctx.Err(); err != nil {
		fmt.Fprintln(a.output)
		return false, err
	}

	fmt.Fprintf(a.output, "\r%s Proceeding with table reset...                              \n", symbolCheck)
	return true, nil
}

var _ transitload.Approver = (*ForcedApprover)(nil)
