// Package columnar reads parquet snapshot files into Arrow records.
//
// A snapshot is read fully into memory as a single record: the reconciler
// works column-at-a-time and the writer needs a row count up front. Column
// decoding within one file runs in parallel.
package columnar
