package storage

import (
	"context"
	"io"
)

// vectorSplitStore keeps files, chunks, folders, keywords, and history in
// the embedded SQLite store while routing every vector operation to an
// external backend.
type vectorSplitStore struct {
	*SQLiteStore
	vectors VectorStore
}

// WithVectorStore returns a Store whose vector operations go to vectors
// instead of the SQLite tables. Close also closes the external backend when
// it implements io.Closer.
func WithVectorStore(base *SQLiteStore, vectors VectorStore) Store {
	return &vectorSplitStore{SQLiteStore: base, vectors: vectors}
}

func (s *vectorSplitStore) CreateCollection(ctx context.Context, name string, dimension int, metric string) error {
	return s.vectors.CreateCollection(ctx, name, dimension, metric)
}

func (s *vectorSplitStore) InsertVector(ctx context.Context, collection, vectorID string, vector []float32, metadata map[string]string) error {
	return s.vectors.InsertVector(ctx, collection, vectorID, vector, metadata)
}

func (s *vectorSplitStore) InsertVectorBatch(ctx context.Context, collection string, vectorIDs []string, vectors [][]float32, metadatas []map[string]string) (int, error) {
	return s.vectors.InsertVectorBatch(ctx, collection, vectorIDs, vectors, metadatas)
}

func (s *vectorSplitStore) SearchVectors(ctx context.Context, collection string, query []float32, topK, offset int, filter map[string]string) ([]VectorHit, error) {
	return s.vectors.SearchVectors(ctx, collection, query, topK, offset, filter)
}

func (s *vectorSplitStore) DeleteVectors(ctx context.Context, collection string, vectorIDs []string) (int, error) {
	return s.vectors.DeleteVectors(ctx, collection, vectorIDs)
}

func (s *vectorSplitStore) CountVectors(ctx context.Context, collection string) (int, error) {
	return s.vectors.CountVectors(ctx, collection)
}

// GetStatus reports SQLite-side statistics with vector counts taken from
// the external backend
func (s *vectorSplitStore) GetStatus(ctx context.Context) (*Status, error) {
	status, err := s.SQLiteStore.GetStatus(ctx)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	total := 0
	for _, name := range []string{CollectionFileNames, CollectionFileContents} {
		n, err := s.vectors.CountVectors(ctx, name)
		if err != nil {
			// Collection not created yet on this backend
			continue
		}
		counts[name] = n
		total += n
	}
	status.VectorsByCollection = counts
	status.Health.VectorIndexBuilt = total > 0

	return status, nil
}

func (s *vectorSplitStore) Close() error {
	err := s.SQLiteStore.Close()
	if closer, ok := s.vectors.(io.Closer); ok {
		if cerr := closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
