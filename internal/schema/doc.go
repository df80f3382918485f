// Package schema holds the canonical destination tables as typed column
// descriptors, their Arrow and SQL renderings, and the column-set diff used
// to compare an incoming snapshot against a canonical table.
package schema
