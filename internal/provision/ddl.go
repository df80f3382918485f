package provision

import (
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vvka-141/transitload/internal/schema"
)

// qualified returns the sanitized schema-qualified name of a table.
func qualified(schemaName, table string) string {
	return pgx.Identifier{schemaName, table}.Sanitize()
}

// CreateSchemaSQL makes sure the target schema exists.
func CreateSchemaSQL(schemaName string) string {
	return "CREATE SCHEMA IF NOT EXISTS " + pgx.Identifier{schemaName}.Sanitize()
}

// DropTableSQL drops a table and every object depending on it.
func DropTableSQL(schemaName string, t schema.Table) string {
	return "DROP TABLE IF EXISTS " + qualified(schemaName, t.Name) + " CASCADE"
}

// CreateTableSQL renders the canonical column list of t.
func CreateTableSQL(schemaName string, t schema.Table) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %s (\n", qualified(schemaName, t.Name))
	for i, c := range t.Columns {
		fmt.Fprintf(&b, "    %s %s", pgx.Identifier{c.Name}.Sanitize(), c.Type.SQLType())
		if !c.Nullable {
			b.WriteString(" NOT NULL")
		}
		if c.HasDefault() {
			lit, err := literal(c.Default)
			if err != nil {
				return "", fmt.Errorf("column %q: %w", c.Name, err)
			}
			b.WriteString(" DEFAULT " + lit)
		}
		if i < len(t.Columns)-1 {
			b.WriteByte(',')
		}
		b.WriteByte('\n')
	}
	b.WriteString(")")
	return b.String(), nil
}

// CreateIndexSQL renders one secondary index of t.
func CreateIndexSQL(schemaName string, t schema.Table, idx schema.Index) string {
	cols := make([]string, len(idx.Columns))
	for i, c := range idx.Columns {
		cols[i] = pgx.Identifier{c}.Sanitize()
	}
	return fmt.Sprintf("CREATE INDEX %s ON %s (%s)",
		pgx.Identifier{idx.Name}.Sanitize(), qualified(schemaName, t.Name), strings.Join(cols, ", "))
}

// ResetStatements lists, in execution order, every statement ResetSchema runs.
func ResetStatements(schemaName string, tables []schema.Table) ([]string, error) {
	stmts := []string{CreateSchemaSQL(schemaName)}
	for _, t := range tables {
		create, err := CreateTableSQL(schemaName, t)
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", t.Name, err)
		}
		stmts = append(stmts, DropTableSQL(schemaName, t), create)
		for _, idx := range t.Indexes {
			stmts = append(stmts, CreateIndexSQL(schemaName, t, idx))
		}
	}
	return stmts, nil
}

// literal renders a column default as SQL.
func literal(v any) (string, error) {
	switch x := v.(type) {
	case int32:
		return fmt.Sprintf("%d", x), nil
	case int:
		return fmt.Sprintf("%d", x), nil
	case int64:
		return fmt.Sprintf("%d", x), nil
	case string:
		return "'" + strings.ReplaceAll(x, "'", "''") + "'", nil
	case time.Time:
		return "'" + x.UTC().Format(time.RFC3339Nano) + "'::timestamptz", nil
	default:
		return "", fmt.Errorf("unsupported default %v (%T)", v, v)
	}
}
