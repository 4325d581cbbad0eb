// Package dbschema introspects a relational database into an immutable
// schema descriptor used to ground SQL generation. The descriptor is loaded
// once per process and refreshed only by explicit re-introspection.
package dbschema

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Column describes one table column.
type Column struct {
	Name string
	Type string
}

// Table describes one table and its columns, in ordinal order.
type Table struct {
	Name    string
	Columns []Column
}

// Descriptor is the read-only schema snapshot. Construct with Introspect and
// pass by value into the database agent; never share as a mutable global.
type Descriptor struct {
	Tables []Table
}

// Introspect reads table and column definitions from the database.
// Supported dialects: "sqlite" (sqlite_master + PRAGMA) and any dialect with
// an information_schema (postgres, mysql).
func Introspect(ctx context.Context, db *sql.DB, dialect string) (Descriptor, error) {
	switch dialect {
	case "sqlite", "sqlite3":
		return introspectSQLite(ctx, db)
	default:
		return introspectInformationSchema(ctx, db)
	}
}

func introspectSQLite(ctx context.Context, db *sql.DB) (Descriptor, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return Descriptor{}, fmt.Errorf("listing tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return Descriptor{}, fmt.Errorf("scanning table name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return Descriptor{}, err
	}

	var desc Descriptor
	for _, name := range names {
		table, err := sqliteTableInfo(ctx, db, name)
		if err != nil {
			return Descriptor{}, err
		}
		desc.Tables = append(desc.Tables, table)
	}
	return desc, nil
}

func sqliteTableInfo(ctx context.Context, db *sql.DB, name string) (Table, error) {
	// PRAGMA table_info does not accept bound parameters; the name comes
	// from sqlite_master, not from user input.
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%q)", name))
	if err != nil {
		return Table{}, fmt.Errorf("describing table %s: %w", name, err)
	}
	defer rows.Close()

	table := Table{Name: name}
	for rows.Next() {
		var (
			cid        int
			colName    string
			colType    string
			notNull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &colName, &colType, &notNull, &defaultVal, &pk); err != nil {
			return Table{}, fmt.Errorf("scanning column of %s: %w", name, err)
		}
		table.Columns = append(table.Columns, Column{Name: colName, Type: colType})
	}
	return table, rows.Err()
}

func introspectInformationSchema(ctx context.Context, db *sql.DB) (Descriptor, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT t.table_name, c.column_name, c.data_type
		FROM information_schema.tables t
		JOIN information_schema.columns c ON t.table_name = c.table_name
		WHERE t.table_type = 'BASE TABLE'
		  AND t.table_schema NOT IN ('pg_catalog', 'information_schema', 'mysql', 'performance_schema', 'sys')
		ORDER BY t.table_name, c.ordinal_position`)
	if err != nil {
		return Descriptor{}, fmt.Errorf("querying information_schema: %w", err)
	}
	defer rows.Close()

	var desc Descriptor
	var current *Table
	for rows.Next() {
		var tableName, colName, colType string
		if err := rows.Scan(&tableName, &colName, &colType); err != nil {
			return Descriptor{}, fmt.Errorf("scanning schema row: %w", err)
		}
		if current == nil || current.Name != tableName {
			desc.Tables = append(desc.Tables, Table{Name: tableName})
			current = &desc.Tables[len(desc.Tables)-1]
		}
		current.Columns = append(current.Columns, Column{Name: colName, Type: colType})
	}
	return desc, rows.Err()
}

// Empty reports whether the descriptor holds no tables.
func (d Descriptor) Empty() bool {
	return len(d.Tables) == 0
}

// Prompt renders the schema block handed to the LLM for SQL generation.
func (d Descriptor) Prompt() string {
	var b strings.Builder
	for i, t := range d.Tables {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "Table: %s\n", t.Name)
		for _, c := range t.Columns {
			fmt.Fprintf(&b, "  - %s (%s)\n", c.Name, c.Type)
		}
	}
	return b.String()
}
