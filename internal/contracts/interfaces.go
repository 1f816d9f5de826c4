package contracts

import "context"

// DatasetLoader supplies the eight input tables of a run
// ⭐ SSOT: every input source (json files, http exports, postgres, cache) implements this
type DatasetLoader interface {
	Load(ctx context.Context) (*Dataset, error)

	// Name identifies the source in logs and cache keys
	Name() string
}
