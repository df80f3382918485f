package provision

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/vvka-141/transitload/internal/schema"
	"github.com/vvka-141/transitload/pkg/transitload"
)

// DriftError lists every difference between a live table and its canonical definition.
type DriftError struct {
	Table    string
	Problems []string
}

func (e *DriftError) Error() string {
	return fmt.Sprintf("table %s: %s", e.Table, strings.Join(e.Problems, "; "))
}

func (e *DriftError) Unwrap() error {
	return transitload.ErrSchemaDrift
}

// sqlTypeNames maps information_schema data_type spellings to canonical SQL types.
var sqlTypeNames = map[string]string{
	"timestamp with time zone": schema.TypeTimestamp.SQLType(),
	"integer":                  schema.TypeInteger.SQLType(),
	"text":                     schema.TypeText.SQLType(),
}

type liveColumn struct {
	name     string
	dataType string
	nullable bool
	def      *string
}

// Verify compares the live columns and indexes of t with its canonical
// definition. It returns a *DriftError wrapping ErrSchemaDrift when they differ.
func (p *Provisioner) Verify(ctx context.Context, conn Querier, t schema.Table) error {
	cols, err := p.liveColumns(ctx, conn, t.Name)
	if err != nil {
		return err
	}
	if len(cols) == 0 {
		return &DriftError{Table: t.Name, Problems: []string{"table does not exist"}}
	}

	indexes, err := p.liveIndexes(ctx, conn, t.Name)
	if err != nil {
		return err
	}

	problems := compareColumns(t, cols)
	problems = append(problems, compareIndexes(t, indexes)...)
	if len(problems) > 0 {
		return &DriftError{Table: t.Name, Problems: problems}
	}
	p.logger.Verbose("%s.%s matches its canonical definition", p.schema, t.Name)
	return nil
}

func (p *Provisioner) liveColumns(ctx context.Context, conn Querier, table string) ([]liveColumn, error) {
	rows, err := conn.Query(ctx, `
		SELECT column_name, data_type, is_nullable = 'YES', column_default
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position`, p.schema, table)
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", table, err)
	}
	defer rows.Close()

	var cols []liveColumn
	for rows.Next() {
		var c liveColumn
		if err := rows.Scan(&c.name, &c.dataType, &c.nullable, &c.def); err != nil {
			return nil, fmt.Errorf("failed to scan column of %s: %w", table, err)
		}
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

// liveIndexes maps index name to its definition.
func (p *Provisioner) liveIndexes(ctx context.Context, conn Querier, table string) (map[string]string, error) {
	rows, err := conn.Query(ctx, `
		SELECT indexname, indexdef
		FROM pg_indexes
		WHERE schemaname = $1 AND tablename = $2`, p.schema, table)
	if err != nil {
		return nil, fmt.Errorf("failed to read indexes of %s: %w", table, err)
	}
	defer rows.Close()

	indexes := make(map[string]string)
	for rows.Next() {
		var name, def string
		if err := rows.Scan(&name, &def); err != nil {
			return nil, fmt.Errorf("failed to scan index of %s: %w", table, err)
		}
		indexes[name] = def
	}
	return indexes, rows.Err()
}

func compareColumns(t schema.Table, live []liveColumn) []string {
	var problems []string
	if len(live) != len(t.Columns) {
		problems = append(problems, fmt.Sprintf("expected %d columns, found %d", len(t.Columns), len(live)))
	}

	for i, want := range t.Columns {
		if i >= len(live) {
			problems = append(problems, fmt.Sprintf("column %s missing", want.Name))
			continue
		}
		got := live[i]
		if got.name != want.Name {
			problems = append(problems, fmt.Sprintf("position %d: expected column %s, found %s", i+1, want.Name, got.name))
			continue
		}
		if sqlTypeNames[got.dataType] != want.Type.SQLType() {
			problems = append(problems, fmt.Sprintf("column %s: expected %s, found %s", want.Name, want.Type.SQLType(), got.dataType))
		}
		if got.nullable != want.Nullable {
			problems = append(problems, fmt.Sprintf("column %s: expected nullable=%t", want.Name, want.Nullable))
		}
		if want.HasDefault() {
			lit, _ := literal(want.Default)
			if got.def == nil || *got.def != lit {
				problems = append(problems, fmt.Sprintf("column %s: expected default %s", want.Name, lit))
			}
		}
	}

	for _, extra := range live[min(len(live), len(t.Columns)):] {
		problems = append(problems, fmt.Sprintf("unexpected column %s", extra.name))
	}
	return problems
}

// compareIndexes requires the live index set to equal the canonical one.
// The destination tables have no primary key, so its index is unexpected too.
func compareIndexes(t schema.Table, live map[string]string) []string {
	var problems []string
	canonical := make(map[string]bool, len(t.Indexes))
	for _, idx := range t.Indexes {
		canonical[idx.Name] = true
	}
	for _, idx := range t.Indexes {
		def, ok := live[idx.Name]
		if !ok {
			problems = append(problems, fmt.Sprintf("index %s missing", idx.Name))
			continue
		}
		if got := indexColumns(def); strings.Join(got, ",") != strings.Join(idx.Columns, ",") {
			problems = append(problems, fmt.Sprintf("index %s: expected columns (%s), found (%s)",
				idx.Name, strings.Join(idx.Columns, ", "), strings.Join(got, ", ")))
		}
	}

	var extra []string
	for name := range live {
		if !canonical[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		problems = append(problems, fmt.Sprintf("unexpected index %s", name))
	}
	return problems
}

// indexColumns extracts the key columns from a pg_indexes definition such as
// CREATE INDEX idx ON public.trip_updates USING btree (route_id).
func indexColumns(def string) []string {
	open := strings.LastIndexByte(def, '(')
	closing := strings.LastIndexByte(def, ')')
	if open < 0 || closing < open {
		return nil
	}
	parts := strings.Split(def[open+1:closing], ",")
	for i, part := range parts {
		parts[i] = strings.Trim(strings.TrimSpace(part), `"`)
	}
	return parts
}
