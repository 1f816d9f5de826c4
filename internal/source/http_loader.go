package source

import (
	"context"
	"fmt"
	"net/url"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/retailpulse/internal/contracts"
	"github.com/wonny/retailpulse/pkg/httputil"
	"github.com/wonny/retailpulse/pkg/logger"
)

// JSONFetcher fetches and decodes one JSON document; *httputil.Client implements it
type JSONFetcher interface {
	GetJSON(ctx context.Context, url string, dest interface{}) error
}

// HTTPLoader reads <base>/<table>.json exports over HTTP.
// A 404 counts as a missing table, the same as a missing file.
type HTTPLoader struct {
	base    string
	fetcher JSONFetcher
	logger  *logger.Logger
}

// NewHTTPLoader creates a loader over base
func NewHTTPLoader(base string, fetcher JSONFetcher, log *logger.Logger) *HTTPLoader {
	return &HTTPLoader{base: base, fetcher: fetcher, logger: log}
}

// Name identifies the source in logs and cache keys
func (l *HTTPLoader) Name() string {
	return "http:" + l.base
}

// Load fetches the eight tables concurrently, then checks and decodes them
func (l *HTTPLoader) Load(ctx context.Context) (*contracts.Dataset, error) {
	tables := Tables()
	rows := make([][]map[string]any, len(tables))
	found := make([]bool, len(tables))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, table := range tables {
		g.Go(func() error {
			u, err := url.JoinPath(l.base, table+".json")
			if err != nil {
				return fmt.Errorf("table %s: %w", table, err)
			}
			err = l.fetcher.GetJSON(gctx, u, &rows[i])
			if httputil.IsNotFound(err) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("table %s: %w", table, err)
			}
			found[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byName := make(map[string][]map[string]any)
	columns := make(map[string][]string)
	for i, table := range tables {
		if !found[i] {
			continue
		}
		byName[table] = rows[i]
		if len(rows[i]) == 0 {
			columns[table] = RequiredColumns[table]
		} else {
			columns[table] = columnsOf(rows[i])
		}
	}

	if err := CheckTables(columns); err != nil {
		return nil, err
	}

	ds, err := Decode(byName)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", l.base, err)
	}

	l.logger.WithFields(map[string]interface{}{
		"url":     l.base,
		"headers": len(ds.Headers),
		"lines":   len(ds.Lines),
	}).Info("Dataset loaded over HTTP")

	return ds, nil
}
