// Package reconcile reshapes arbitrary snapshot records into the exact
// column set, order and types of a canonical destination table.
//
// For every canonical column, in order:
//   - ingestion_ts is taken from the input, else from the generic
//     "timestamp" column, else stamped with the reconciliation instant
//   - absent columns with a default are filled with the default
//   - absent nullable columns are filled with null
//   - present columns are coerced to the canonical type
//
// Extra input columns are dropped. Row count is always preserved.
// NOT NULL columns that arrive with null cells are filled the same way
// absent ones are, so every reconciled row satisfies the table constraints.
package reconcile
