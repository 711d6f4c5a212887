// Package pgvector provides a PostgreSQL-backed vector store using the
// pgvector extension. It implements the same VectorStore interface as the
// SQLite store and can replace it for deployments with large indexes.
package pgvector

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/lib/pq"

	"github.com/dshills/filecontext-mcp/internal/storage"
	"github.com/dshills/filecontext-mcp/pkg/types"
)

// collectionNamePattern restricts collection names so they can be embedded
// in table identifiers safely.
var collectionNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Store implements storage.VectorStore on top of PostgreSQL with pgvector.
// Each collection gets its own vec_<name> table with a typed vector column.
type Store struct {
	db *sql.DB
}

var _ storage.VectorStore = (*Store)(nil)

// Open connects to PostgreSQL, verifies the pgvector extension, and creates
// the collection registry table.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	if _, err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable pgvector extension: %w", err)
	}
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS vector_collections (
			name TEXT PRIMARY KEY,
			dimension INTEGER NOT NULL,
			metric TEXT NOT NULL DEFAULT 'cosine',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create collection registry: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

func tableFor(collection string) string {
	return "vec_" + collection
}

// getDimension looks up a collection's registered dimension
func (s *Store) getDimension(ctx context.Context, collection string) (int, error) {
	var dim int
	err := s.db.QueryRowContext(ctx,
		"SELECT dimension FROM vector_collections WHERE name = $1", collection).Scan(&dim)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("collection %q does not exist", collection)
	}
	if err != nil {
		return 0, err
	}
	return dim, nil
}

// CreateCollection registers a collection and creates its table. Creating an
// existing collection with the same dimension is a no-op.
func (s *Store) CreateCollection(ctx context.Context, name string, dimension int, metric string) error {
	if !collectionNamePattern.MatchString(name) {
		return fmt.Errorf("invalid collection name %q", name)
	}
	if dimension <= 0 {
		return fmt.Errorf("collection dimension must be positive, got %d", dimension)
	}
	if metric == "" {
		metric = "cosine"
	}

	var existing int
	err := s.db.QueryRowContext(ctx,
		"SELECT dimension FROM vector_collections WHERE name = $1", name).Scan(&existing)
	if err == nil {
		if existing != dimension {
			return fmt.Errorf("collection %q already exists with dimension %d, requested %d",
				name, existing, dimension)
		}
		return nil
	}
	if err != sql.ErrNoRows {
		return err
	}

	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			vector_id TEXT PRIMARY KEY,
			embedding vector(%d) NOT NULL,
			metadata JSONB NOT NULL DEFAULT '{}'::jsonb
		)
	`, tableFor(name), dimension)
	if _, err := s.db.ExecContext(ctx, createTable); err != nil {
		return fmt.Errorf("failed to create collection table: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO vector_collections (name, dimension, metric) VALUES ($1, $2, $3)",
		name, dimension, metric)
	if err != nil {
		return fmt.Errorf("failed to register collection: %w", err)
	}
	return nil
}

// InsertVector upserts a single embedding
func (s *Store) InsertVector(ctx context.Context, collection, vectorID string, vector []float32, metadata map[string]string) error {
	dim, err := s.getDimension(ctx, collection)
	if err != nil {
		return err
	}
	if len(vector) != dim {
		return fmt.Errorf("%w: collection %q expects dimension %d, got %d",
			types.ErrDimensionMismatch, collection, dim, len(vector))
	}

	metaJSON, err := marshalMetadata(metadata)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (vector_id, embedding, metadata)
		VALUES ($1, $2::vector, $3::jsonb)
		ON CONFLICT (vector_id) DO UPDATE SET
			embedding = EXCLUDED.embedding,
			metadata = EXCLUDED.metadata
	`, tableFor(collection))
	_, err = s.db.ExecContext(ctx, query, vectorID, vectorLiteral(vector), metaJSON)
	if err != nil {
		return fmt.Errorf("failed to insert vector: %w", err)
	}
	return nil
}

// InsertVectorBatch upserts all vectors inside a single transaction
func (s *Store) InsertVectorBatch(ctx context.Context, collection string, vectorIDs []string, vectors [][]float32, metadatas []map[string]string) (int, error) {
	if len(vectorIDs) != len(vectors) {
		return 0, fmt.Errorf("vector ID count %d does not match vector count %d", len(vectorIDs), len(vectors))
	}
	if metadatas != nil && len(metadatas) != len(vectorIDs) {
		return 0, fmt.Errorf("metadata count %d does not match vector count %d", len(metadatas), len(vectorIDs))
	}
	if len(vectorIDs) == 0 {
		return 0, nil
	}

	dim, err := s.getDimension(ctx, collection)
	if err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	query := fmt.Sprintf(`
		INSERT INTO %s (vector_id, embedding, metadata)
		VALUES ($1, $2::vector, $3::jsonb)
		ON CONFLICT (vector_id) DO UPDATE SET
			embedding = EXCLUDED.embedding,
			metadata = EXCLUDED.metadata
	`, tableFor(collection))
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, err
	}
	defer func() { _ = stmt.Close() }()

	for i, id := range vectorIDs {
		if len(vectors[i]) != dim {
			return 0, fmt.Errorf("%w: collection %q expects dimension %d, got %d",
				types.ErrDimensionMismatch, collection, dim, len(vectors[i]))
		}
		var meta map[string]string
		if metadatas != nil {
			meta = metadatas[i]
		}
		metaJSON, err := marshalMetadata(meta)
		if err != nil {
			return 0, err
		}
		if _, err := stmt.ExecContext(ctx, id, vectorLiteral(vectors[i]), metaJSON); err != nil {
			return 0, fmt.Errorf("failed to insert vector %q: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(vectorIDs), nil
}

// SearchVectors returns the nearest vectors by cosine distance, lowest first
func (s *Store) SearchVectors(ctx context.Context, collection string, query []float32, topK, offset int, filter map[string]string) ([]storage.VectorHit, error) {
	dim, err := s.getDimension(ctx, collection)
	if err != nil {
		if strings.Contains(err.Error(), "does not exist") {
			return []storage.VectorHit{}, nil
		}
		return nil, err
	}
	if len(query) != dim {
		return nil, fmt.Errorf("%w: collection %q expects dimension %d, got %d",
			types.ErrDimensionMismatch, collection, dim, len(query))
	}
	if topK <= 0 {
		return []storage.VectorHit{}, nil
	}
	if offset < 0 {
		offset = 0
	}

	args := []interface{}{vectorLiteral(query)}
	where := ""
	if len(filter) > 0 {
		filterJSON, err := marshalMetadata(filter)
		if err != nil {
			return nil, err
		}
		args = append(args, filterJSON)
		where = fmt.Sprintf("WHERE metadata @> $%d::jsonb", len(args))
	}
	args = append(args, topK)
	limitPos := len(args)
	args = append(args, offset)
	offsetPos := len(args)

	sqlQuery := fmt.Sprintf(`
		SELECT vector_id, embedding <=> $1::vector AS distance, metadata
		FROM %s
		%s
		ORDER BY distance
		LIMIT $%d OFFSET $%d
	`, tableFor(collection), where, limitPos, offsetPos)

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	hits := make([]storage.VectorHit, 0, topK)
	for rows.Next() {
		var hit storage.VectorHit
		var metaJSON []byte
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

// DeleteVectors removes the given vector IDs and returns how many were deleted
func (s *Store) DeleteVectors(ctx context.Context, collection string, vectorIDs []string) (int, error) {
	if len(vectorIDs) == 0 {
		return 0, nil
	}
	if !collectionNamePattern.MatchString(collection) {
		return 0, fmt.Errorf("invalid collection name %q", collection)
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE vector_id = ANY($1)", tableFor(collection))
	result, err := s.db.ExecContext(ctx, query, pq.Array(vectorIDs))
	if err != nil {
		return 0, fmt.Errorf("failed to delete vectors: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

// CountVectors returns the number of vectors in a collection
func (s *Store) CountVectors(ctx context.Context, collection string) (int, error) {
	if !collectionNamePattern.MatchString(collection) {
		return 0, fmt.Errorf("invalid collection name %q", collection)
	}
	var count int
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM %s", tableFor(collection))).Scan(&count)
	if err != nil {
		// Collection table may not exist yet
		if strings.Contains(err.Error(), "does not exist") {
			return 0, nil
		}
		return 0, err
	}
	return count, nil
}

// vectorLiteral formats a float32 slice in pgvector's text format
func vectorLiteral(vector []float32) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, v := range vector {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatFloat(float64(v), 'f', -1, 32))
	}
	sb.WriteByte(']')
	return sb.String()
}

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

func unmarshalMetadata(data []byte) (map[string]string, error) {
	if len(data) == 0 {
		return map[string]string{}, nil
	}
	var metadata map[string]string
	if err := json.Unmarshal(data, &metadata); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}
	return metadata, nil
}
