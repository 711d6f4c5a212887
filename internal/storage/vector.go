package storage

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/dshills/filecontext-mcp/pkg/types"
)

// Collection names used by the indexing pipeline.
const (
	CollectionFileNames    = "file_names"
	CollectionFileContents = "file_contents"
)

// collectionInfo describes a registered vector collection
type collectionInfo struct {
	Name      string
	Dimension int
	Metric    string
}

// getCollectionWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) getCollectionWithQuerier(ctx context.Context, q querier, name string) (*collectionInfo, error) {
	var info collectionInfo
	err := q.QueryRowContext(ctx,
		"SELECT name, dimension, metric FROM collections WHERE name = ?", name).Scan(
		&info.Name, &info.Dimension, &info.Metric)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// createCollectionWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) createCollectionWithQuerier(ctx context.Context, q querier, name string, dimension int, metric string) error {
	if name == "" {
		return fmt.Errorf("collection name cannot be empty")
	}
	if dimension <= 0 {
		return fmt.Errorf("collection dimension must be positive, got %d", dimension)
	}
	if metric == "" {
		metric = "cosine"
	}

	existing, err := s.getCollectionWithQuerier(ctx, q, name)
	if err == nil {
		if existing.Dimension != dimension {
			return fmt.Errorf("collection %q already exists with dimension %d, requested %d",
				name, existing.Dimension, dimension)
		}
		return nil
	}
	if err != ErrNotFound {
		return err
	}

	_, err = q.ExecContext(ctx,
		"INSERT INTO collections (name, dimension, metric) VALUES (?, ?, ?)",
		name, dimension, metric)
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	return nil
}

func (s *SQLiteStore) CreateCollection(ctx context.Context, name string, dimension int, metric string) error {
	return s.createCollectionWithQuerier(ctx, s.querier(), name, dimension, metric)
}

// insertVectorWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) insertVectorWithQuerier(ctx context.Context, q querier, collection, vectorID string, vector []float32, metadata map[string]string) error {
	info, err := s.getCollectionWithQuerier(ctx, q, collection)
	if err == ErrNotFound {
		return fmt.Errorf("collection %q does not exist", collection)
	}
	if err != nil {
		return err
	}
	if len(vector) != info.Dimension {
		return fmt.Errorf("%w: collection %q expects dimension %d, got %d",
			types.ErrDimensionMismatch, collection, info.Dimension, len(vector))
	}

	metaJSON, err := marshalMetadata(metadata)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO vectors (collection, vector_id, embedding, metadata)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(collection, vector_id) DO UPDATE SET
			embedding = excluded.embedding,
			metadata = excluded.metadata
	`
	_, err = q.ExecContext(ctx, query, collection, vectorID, serializeVector(vector), metaJSON)
	if err != nil {
		return fmt.Errorf("failed to insert vector: %w", err)
	}
	return nil
}

func (s *SQLiteStore) InsertVector(ctx context.Context, collection, vectorID string, vector []float32, metadata map[string]string) error {
	return s.insertVectorWithQuerier(ctx, s.querier(), collection, vectorID, vector, metadata)
}

// insertVectorBatchWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) insertVectorBatchWithQuerier(ctx context.Context, q querier, collection string, vectorIDs []string, vectors [][]float32, metadatas []map[string]string) (int, error) {
	if len(vectorIDs) != len(vectors) {
		return 0, fmt.Errorf("vector ID count %d does not match vector count %d", len(vectorIDs), len(vectors))
	}
	if metadatas != nil && len(metadatas) != len(vectorIDs) {
		return 0, fmt.Errorf("metadata count %d does not match vector count %d", len(metadatas), len(vectorIDs))
	}
	for i, id := range vectorIDs {
		var meta map[string]string
		if metadatas != nil {
			meta = metadatas[i]
		}
		if err := s.insertVectorWithQuerier(ctx, q, collection, id, vectors[i], meta); err != nil {
			return 0, err
		}
	}
	return len(vectorIDs), nil
}

// InsertVectorBatch inserts all vectors inside a single transaction
func (s *SQLiteStore) InsertVectorBatch(ctx context.Context, collection string, vectorIDs []string, vectors [][]float32, metadatas []map[string]string) (int, error) {
	if len(vectorIDs) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	count, err := s.insertVectorBatchWithQuerier(ctx, tx, collection, vectorIDs, vectors, metadatas)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return count, nil
}

// searchVectorsWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) searchVectorsWithQuerier(ctx context.Context, q querier, collection string, query []float32, topK, offset int, filter map[string]string) ([]VectorHit, error) {
	info, err := s.getCollectionWithQuerier(ctx, q, collection)
	if err == ErrNotFound {
		return []VectorHit{}, nil
	}
	if err != nil {
		return nil, err
	}
	if len(query) != info.Dimension {
		return nil, fmt.Errorf("%w: collection %q expects dimension %d, got %d",
			types.ErrDimensionMismatch, collection, info.Dimension, len(query))
	}
	if topK <= 0 {
		return []VectorHit{}, nil
	}
	if offset < 0 {
		offset = 0
	}

	// The SQL path pushes ordering and paging into the vector extension.
	// Metadata filters require inspecting each row, so they always take
	// the scan path.
	if VectorExtensionAvailable && len(filter) == 0 {
		return s.searchVectorsOptimized(ctx, q, collection, query, topK, offset)
	}
	return s.searchVectorsScan(ctx, q, collection, query, topK, offset, filter)
}

func (s *SQLiteStore) SearchVectors(ctx context.Context, collection string, query []float32, topK, offset int, filter map[string]string) ([]VectorHit, error) {
	return s.searchVectorsWithQuerier(ctx, s.querier(), collection, query, topK, offset, filter)
}

// searchVectorsOptimized uses the sqlite-vec extension for distance computation
func (s *SQLiteStore) searchVectorsOptimized(ctx context.Context, q querier, collection string, query []float32, topK, offset int) ([]VectorHit, error) {
	sqlQuery := `
		SELECT vector_id, vec_distance_cosine(embedding, ?) AS distance, metadata
		FROM vectors
		WHERE collection = ?
		ORDER BY distance
		LIMIT ? OFFSET ?
	`
	rows, err := q.QueryContext(ctx, sqlQuery, serializeVector(query), collection, topK, offset)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	hits := make([]VectorHit, 0, topK)
	for rows.Next() {
		var hit VectorHit
		var metaJSON string
		if err := rows.Scan(&hit.VectorID, &hit.Distance, &metaJSON); err != nil {
			return nil, err
		}
		hit.Metadata, err = unmarshalMetadata(metaJSON)
		if err != nil {
			return nil, err
		}
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}

// searchVectorsScan computes cosine distances in Go. Used when the vector
// extension is unavailable or a metadata filter is present.
func (s *SQLiteStore) searchVectorsScan(ctx context.Context, q querier, collection string, query []float32, topK, offset int, filter map[string]string) ([]VectorHit, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT vector_id, embedding, metadata FROM vectors WHERE collection = ?", collection)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	hits := make([]VectorHit, 0)
	for rows.Next() {
		var vectorID string
		var blob []byte
		var metaJSON string
		if err := rows.Scan(&vectorID, &blob, &metaJSON); err != nil {
			return nil, err
		}

		vector, err := deserializeVector(blob)
		if err != nil {
			continue
		}
		if len(vector) != len(query) {
			// Skip vectors with mismatched dimensions
			continue
		}

		metadata, err := unmarshalMetadata(metaJSON)
		if err != nil {
			return nil, err
		}
		if !metadataMatches(metadata, filter) {
			continue
		}

		hits = append(hits, VectorHit{
			VectorID: vectorID,
			Distance: cosineDistance(query, vector),
			Metadata: metadata,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].VectorID < hits[j].VectorID
	})

	if offset >= len(hits) {
		return []VectorHit{}, nil
	}
	hits = hits[offset:]
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// deleteVectorsWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) deleteVectorsWithQuerier(ctx context.Context, q querier, collection string, vectorIDs []string) (int, error) {
	if len(vectorIDs) == 0 {
		return 0, nil
	}

	placeholders := make([]string, len(vectorIDs))
	args := make([]interface{}, 0, len(vectorIDs)+1)
	args = append(args, collection)
	for i, id := range vectorIDs {
		placeholders[i] = "?"
		args = append(args, id)
	}

	query := fmt.Sprintf("DELETE FROM vectors WHERE collection = ? AND vector_id IN (%s)",
		strings.Join(placeholders, ","))
	result, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete vectors: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

func (s *SQLiteStore) DeleteVectors(ctx context.Context, collection string, vectorIDs []string) (int, error) {
	return s.deleteVectorsWithQuerier(ctx, s.querier(), collection, vectorIDs)
}

// countVectorsWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) countVectorsWithQuerier(ctx context.Context, q querier, collection string) (int, error) {
	var count int
	err := q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM vectors WHERE collection = ?", collection).Scan(&count)
	return count, err
}

func (s *SQLiteStore) CountVectors(ctx context.Context, collection string) (int, error) {
	return s.countVectorsWithQuerier(ctx, s.querier(), collection)
}

// Helpers

// marshalMetadata encodes metadata as JSON, treating nil as empty
func marshalMetadata(metadata map[string]string) (string, error) {
	if metadata == nil {
		return "{}", nil
	}
	data, err := json.Marshal(metadata)
	if err != nil {
		return "", fmt.Errorf("failed to marshal metadata: %w", err)
	}
	return string(data), nil
}

// unmarshalMetadata decodes the stored JSON metadata
func unmarshalMetadata(metaJSON string) (map[string]string, error) {
	if metaJSON == "" || metaJSON == "{}" {
		return map[string]string{}, nil
	}
	var metadata map[string]string
	if err := json.Unmarshal([]byte(metaJSON), &metadata); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}
	return metadata, nil
}

// metadataMatches reports whether metadata contains every filter pair
func metadataMatches(metadata, filter map[string]string) bool {
	for key, want := range filter {
		if got, ok := metadata[key]; !ok || got != want {
			return false
		}
	}
	return true
}

// serializeVector converts a float32 slice to bytes for storage
func serializeVector(vector []float32) []byte {
	buf := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// deserializeVector converts bytes back to a float32 slice
func deserializeVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("invalid vector data length: %d", len(data))
	}
	vector := make([]float32, len(data)/4)
	for i := range vector {
		bits := binary.LittleEndian.Uint32(data[i*4:])
		vector[i] = math.Float32frombits(bits)
	}
	return vector, nil
}

// cosineDistance computes 1 minus the cosine similarity of two vectors.
// Vectors with zero magnitude are treated as maximally dissimilar in a
// neutral sense and get distance 1.0.
func cosineDistance(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1.0
	}
	return 1.0 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
