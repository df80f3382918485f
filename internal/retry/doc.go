// Package retry retries warehouse connection attempts with exponential backoff.
//
// A load run opens one session up front; a database that is still starting,
// briefly unreachable or out of connection slots should not fail the whole
// run. Errors are classified by PostgreSQLErrorClassifier and retried by an
// Executor following a Backoff schedule (ConnectBackoff for sessions).
//
//	executor := retry.NewConnectExecutor(logger)
//	err := executor.Execute(ctx, func(ctx context.Context) error {
//	    return pool.Ping(ctx)
//	})
//
// Writes are never retried here: a failed chunk is reported to the caller
// with the number of rows already committed.
//
// Executor instances are safe for concurrent use. WithOnRetry returns a
// new instance instead of mutating the receiver.
package retry
