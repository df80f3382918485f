package schema

import "github.com/apache/arrow-go/v18/arrow"

// Diff describes how an input column set differs from a canonical table.
type Diff struct {
	// Present lists canonical columns found in the input under their own name.
	Present []string
	// Aliased is true when ingestion_ts is supplied by the generic timestamp column.
	Aliased bool
	// Defaulted lists absent canonical columns that will be filled with their default.
	Defaulted []string
	// Nulled lists absent nullable canonical columns that will be filled with null.
	Nulled []string
	// Synthesized is true when ingestion_ts is absent and has no alias.
	Synthesized bool
	// Extra lists input columns that are not part of the canonical table.
	Extra []string
}

// Compare computes the column-set diff between an input schema and a table.
// Only names are compared; types are the reconciler's concern.
func Compare(input *arrow.Schema, t Table) Diff {
	var d Diff

	hasInput := func(name string) bool {
		return len(input.FieldIndices(name)) > 0
	}
	aliasAvailable := !hasInput(IngestionTimestamp) && hasInput(TimestampAlias)

	for _, c := range t.Columns {
		switch {
		case hasInput(c.Name):
			d.Present = append(d.Present, c.Name)
		case c.Name == IngestionTimestamp && aliasAvailable:
			d.Aliased = true
		case c.Name == IngestionTimestamp:
			d.Synthesized = true
		case c.HasDefault():
			d.Defaulted = append(d.Defaulted, c.Name)
		default:
			d.Nulled = append(d.Nulled, c.Name)
		}
	}

	seen := make(map[string]bool, input.NumFields())
	for _, f := range input.Fields() {
		if seen[f.Name] {
			continue
		}
		seen[f.Name] = true
		if _, ok := t.Column(f.Name); ok {
			continue
		}
		if f.Name == TimestampAlias && d.Aliased {
			continue
		}
		d.Extra = append(d.Extra, f.Name)
	}

	return d
}

// IsExact reports whether the input already has exactly the canonical column names.
func (d Diff) IsExact() bool {
	return !d.Aliased && !d.Synthesized && len(d.Defaulted) == 0 && len(d.Nulled) == 0 && len(d.Extra) == 0
}
