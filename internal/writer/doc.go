// Package writer appends canonical records to destination tables.
//
// Rows are sent in chunks of a configurable size. In insert mode each chunk
// becomes one pgx.Batch of multi-row INSERT statements, delivered in a single
// round-trip and executed by the server as one implicit transaction; each
// statement stays under the protocol's bind parameter limit. In copy mode
// each chunk is streamed with COPY. A chunk either commits or the append
// stops with a *transitload.BatchWriteError; there is no row-level retry.
package writer
