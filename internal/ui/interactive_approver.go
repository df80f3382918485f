package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/vvka-141/transitload/pkg/transitload"
)

// InteractiveApprover implements the Approver interface for console-based
// confirmation. The operator must type the database name.
type InteractiveApprover struct {
	verbose bool
	input   io.Reader
	output  io.Writer
}

// NewInteractiveApprover creates an InteractiveApprover on stdin/stderr.
func NewInteractiveApprover(verbose bool) transitload.Approver {
	return &InteractiveApprover{
		verbose: verbose,
		input:   os.Stdin,
		output:  os.Stderr,
	}
}

// RequestApproval prompts for the database name and approves on an exact match.
func (a *InteractiveApprover) RequestApproval(ctx context.Context, dbName string, tables []string) (bool, error) {
	fmt.Fprintln(a.output)
	fmt.Fprintln(a.output, warningStyle.Render("WARNING: loading resets the destination tables."))
	fmt.Fprintln(a.output, resetWarning(dbName, tables))
	fmt.Fprintf(a.output, "\nTo confirm, type the database name '%s' and press Enter: ", dbName)

	// The read runs in a goroutine so ctx cancellation is observed; a
	// goroutine blocked on stdin is abandoned when the process exits.
	inputChan := make(chan string, 1)
	errChan := make(chan error, 1)

	go func() {
		line, err := bufio.NewReader(a.input).ReadString('\n')
		if err != nil {
			errChan <- err
			return
		}
		inputChan <- strings.TrimSpace(line)
	}()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case err := <-errChan:
		return false, fmt.Errorf("failed to read input: %w", err)
	case input := <-inputChan:
		if input == dbName {
			fmt.Fprintf(a.output, "%s Confirmed. Proceeding with table reset...\n", symbolCheck)
			return true, nil
		}
		fmt.Fprintf(a.output, "%s Input '%s' does not match database name '%s'. Load cancelled.\n", symbolCross, input, dbName)
		return false, nil
	}
}

var _ transitload.Approver = (*InteractiveApprover)(nil)
