package transitload

import "context"

// Loader runs one orchestration pass: reset the destination tables, then
// load every discovered snapshot file of both feeds.
type Loader interface {
	Run(ctx context.Context, cfg LoadConfig) (*RunSummary, error)
}

// Notifier announces a finished run to downstream consumers.
type Notifier interface {
	Notify(ctx context.Context, summary *RunSummary) error
}
