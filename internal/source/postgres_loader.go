package source

import (
	"context"
	"fmt"

	"github.com/wonny/retailpulse/internal/contracts"
	"github.com/wonny/retailpulse/pkg/database"
	"github.com/wonny/retailpulse/pkg/logger"
)

// TableReader reads whole tables; *database.DB implements it
type TableReader interface {
	SelectAll(ctx context.Context, table string) (*database.TableRows, error)
}

// PostgresLoader reads the eight tables from a PostgreSQL schema
type PostgresLoader struct {
	reader TableReader
	name   string
	logger *logger.Logger
}

// NewPostgresLoader creates a loader over reader. name labels the source
// in logs and cache keys.
func NewPostgresLoader(reader TableReader, name string, log *logger.Logger) *PostgresLoader {
	return &PostgresLoader{reader: reader, name: name, logger: log}
}

// Name identifies the source in logs and cache keys
func (l *PostgresLoader) Name() string {
	return "postgres:" + l.name
}

// Load reads every table, checks columns against the result descriptions
// and decodes the rows
func (l *PostgresLoader) Load(ctx context.Context) (*contracts.Dataset, error) {
	tables := make(map[string][]map[string]any)
	columns := make(map[string][]string)

	for _, table := range Tables() {
		res, err := l.reader.SelectAll(ctx, table)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", table, err)
		}
		tables[table] = res.Rows
		columns[table] = res.Columns
	}

	if err := CheckTables(columns); err != nil {
		return nil, err
	}

	ds, err := Decode(tables)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", l.name, err)
	}

	l.logger.WithFields(map[string]interface{}{
		"source":  l.name,
		"headers": len(ds.Headers),
		"lines":   len(ds.Lines),
	}).Info("Dataset loaded from PostgreSQL")

	return ds, nil
}
