package database

import (
	"context"
	"fmt"
	"strings"

	"form95/internal/fieldmap"
	"form95/internal/logger"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DialectSQLite   = "sqlite3"
	DialectPostgres = "postgres"
)

type ColumnKind string

const (
	ColumnID        ColumnKind = "id"
	ColumnText      ColumnKind = "text"
	ColumnMoney     ColumnKind = "money"
	ColumnBool      ColumnKind = "bool"
	ColumnTimestamp ColumnKind = "timestamp"
)

type Column struct {
	Name string
	Kind ColumnKind
}

type UniqueIndex struct {
	Name   string
	Column string
}

type Table struct {
	Name    string
	Columns []Column
	Unique  []UniqueIndex
}

const ClaimsDocumentFilenameIndex = "idx_claims_document_filename"

var claimBookkeeping = []Column{
	{Name: "id", Kind: ColumnID},
	{Name: "created_at", Kind: ColumnTimestamp},
	{Name: "updated_at", Kind: ColumnTimestamp},
	{Name: "document_filename", Kind: ColumnText},
	{Name: "name", Kind: ColumnText},
	{Name: "address", Kind: ColumnText},
	{Name: "city", Kind: ColumnText},
	{Name: "state", Kind: ColumnText},
	{Name: "zip", Kind: ColumnText},
	{Name: "email", Kind: ColumnText},
	{Name: "signed_at", Kind: ColumnTimestamp},
	{Name: "status", Kind: ColumnText},
	{Name: "document_error", Kind: ColumnText},
}

// ClaimsTable is the bookkeeping columns plus every column the field
// table persists to.
func ClaimsTable() Table {
	columns := append([]Column(nil), claimBookkeeping...)
	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		seen[c.Name] = true
	}

	for _, c := range fieldmap.RequiredColumns() {
		if seen[c.Name] {
			continue
		}
		seen[c.Name] = true
		columns = append(columns, Column{Name: c.Name, Kind: kindForField(c.Kind)})
	}

	return Table{
		Name:    "claims",
		Columns: columns,
		Unique:  []UniqueIndex{{Name: ClaimsDocumentFilenameIndex, Column: "document_filename"}},
	}
}

func kindForField(kind fieldmap.Kind) ColumnKind {
	switch kind {
	case fieldmap.KindCurrency:
		return ColumnMoney
	case fieldmap.KindCheckbox:
		return ColumnBool
	default:
		return ColumnText
	}
}

func columnType(dialect string, kind ColumnKind) string {
	postgres := dialect == DialectPostgres
	switch kind {
	case ColumnID:
		return "VARCHAR(64) PRIMARY KEY"
	case ColumnMoney:
		if postgres {
			return "DOUBLE PRECISION NOT NULL DEFAULT 0"
		}
		return "REAL NOT NULL DEFAULT 0"
	case ColumnBool:
		return "BOOLEAN NOT NULL DEFAULT FALSE"
	case ColumnTimestamp:
		if postgres {
			return "TIMESTAMPTZ"
		}
		return "TIMESTAMP"
	default:
		return "TEXT NOT NULL DEFAULT ''"
	}
}

// EnsureSchema creates the table when absent, otherwise adds any missing
// columns. Existing columns are never altered or dropped. It returns the
// names of columns it added.
func EnsureSchema(ctx context.Context, db *gorm.DB, dialect string, table Table) ([]string, error) {
	log := logger.New("database").File("schema").Function("EnsureSchema")
	tx := db.WithContext(ctx)
	migrator := tx.Migrator()

	var added []string
	if !migrator.HasTable(table.Name) {
		definitions := make([]string, 0, len(table.Columns))
		for _, c := range table.Columns {
			definitions = append(definitions, fmt.Sprintf("%s %s", quote(tx, c.Name), columnType(dialect, c.Kind)))
		}

		stmt := fmt.Sprintf("CREATE TABLE %s (%s)", quote(tx, table.Name), strings.Join(definitions, ", "))
		if err := tx.Exec(stmt).Error; err != nil {
			return nil, log.Err("failed to create table", err, "table", table.Name)
		}
		log.Info("Created table", "table", table.Name, "columns", len(table.Columns))
	} else {
		existing, err := existingColumns(tx, table.Name)
		if err != nil {
			return nil, log.Err("failed to read table columns", err, "table", table.Name)
		}

		for _, c := range table.Columns {
			if existing[strings.ToLower(c.Name)] {
				continue
			}
			if c.Kind == ColumnID {
				return nil, log.Error("table has no primary key column", "table", table.Name, "column", c.Name)
			}

			if err := tx.Exec("ALTER TABLE ? ADD COLUMN ? "+columnType(dialect, c.Kind),
				clause.Table{Name: table.Name}, clause.Column{Name: c.Name}).Error; err != nil {
				return added, log.Err("failed to add column", err, "table", table.Name, "column", c.Name)
			}
			added = append(added, c.Name)
		}
		if len(added) > 0 {
			log.Info("Added missing columns", "table", table.Name, "columns", added)
		}
	}

	for _, idx := range table.Unique {
		if err := tx.Exec("CREATE UNIQUE INDEX IF NOT EXISTS ? ON ? (?)",
			clause.Column{Name: idx.Name}, clause.Table{Name: table.Name}, clause.Column{Name: idx.Column}).Error; err != nil {
			return added, log.Err("failed to create unique index", err, "table", table.Name, "index", idx.Name)
		}
	}

	return added, nil
}

func existingColumns(db *gorm.DB, table string) (map[string]bool, error) {
	types, err := db.Migrator().ColumnTypes(table)
	if err != nil {
		return nil, err
	}

	columns := make(map[string]bool, len(types))
	for _, t := range types {
		columns[strings.ToLower(t.Name())] = true
	}
	return columns, nil
}

func quote(db *gorm.DB, name string) string {
	var b strings.Builder
	db.Dialector.QuoteTo(&b, name)
	return b.String()
}
