package jobs

import (
	"context"
	"fmt"
)

// Indexer creates the storage indexes a collection needs
type Indexer interface {
	EnsureIndexes(ctx context.Context) error
}

// EnsureIndexesJob creates every storage index. Takes no data.
type EnsureIndexesJob struct {
	// Ctx
	Ctx context.Context

	// Indexers to run, in order
	Indexers []Indexer
}

// Do job actions
func (j EnsureIndexesJob) Do(data []byte) error {
	for i, indexer := range j.Indexers {
		if err := indexer.EnsureIndexes(j.Ctx); err != nil {
			return fmt.Errorf("failed to ensure indexes of collection %d: %s", i, err.Error())
		}
	}

	return nil
}
