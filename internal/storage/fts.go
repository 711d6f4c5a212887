package storage

import (
	"context"
	"fmt"
	"strings"
)

// Keyword index operations backed by the content_fts FTS5 table.

// indexContentWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) indexContentWithQuerier(ctx context.Context, q querier, docID, content, filePath string, chunkIndex int) error {
	// Delete-then-insert keeps the operation idempotent. FTS5 tables have
	// no unique constraints, so ON CONFLICT is not available here.
	if _, err := q.ExecContext(ctx, "DELETE FROM content_fts WHERE doc_id = ?", docID); err != nil {
		return fmt.Errorf("failed to clear existing document: %w", err)
	}
	_, err := q.ExecContext(ctx,
		"INSERT INTO content_fts (doc_id, content, file_path, chunk_index) VALUES (?, ?, ?, ?)",
		docID, content, filePath, chunkIndex)
	if err != nil {
		return fmt.Errorf("failed to index content: %w", err)
	}
	return nil
}

func (s *SQLiteStore) IndexContent(ctx context.Context, docID, content, filePath string, chunkIndex int) error {
	return s.indexContentWithQuerier(ctx, s.querier(), docID, content, filePath, chunkIndex)
}

// indexContentBatchWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) indexContentBatchWithQuerier(ctx context.Context, q querier, docs []KeywordDoc) (int, error) {
	for _, doc := range docs {
		if err := s.indexContentWithQuerier(ctx, q, doc.DocID, doc.Content, doc.FilePath, doc.ChunkIndex); err != nil {
			return 0, err
		}
	}
	return len(docs), nil
}

// IndexContentBatch indexes all documents inside a single transaction
func (s *SQLiteStore) IndexContentBatch(ctx context.Context, docs []KeywordDoc) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	count, err := s.indexContentBatchWithQuerier(ctx, tx, docs)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return count, nil
}

// searchKeywordWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) searchKeywordWithQuerier(ctx context.Context, q querier, searchQuery string, topK, offset int) ([]KeywordHit, error) {
	match := buildMatchQuery(searchQuery)
	if match == "" {
		return []KeywordHit{}, nil
	}
	if topK <= 0 {
		return []KeywordHit{}, nil
	}
	if offset < 0 {
		offset = 0
	}

	// bm25 returns lower-is-better values, so negate for a
	// higher-is-better score and order by the raw rank.
	query := `
		SELECT doc_id, file_path, chunk_index,
		       -bm25(content_fts) AS score,
		       snippet(content_fts, 1, '<mark>', '</mark>', '...', 16) AS snip
		FROM content_fts
		WHERE content_fts MATCH ?
		ORDER BY bm25(content_fts)
		LIMIT ? OFFSET ?
	`
	rows, err := q.QueryContext(ctx, query, match, topK, offset)
	if err != nil {
		return nil, fmt.Errorf("keyword search failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	hits := make([]KeywordHit, 0)
	for rows.Next() {
		var hit KeywordHit
		if err := rows.Scan(&hit.DocID, &hit.FilePath, &hit.ChunkIndex, &hit.Score, &hit.Snippet); err != nil {
			return nil, err
		}
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}

func (s *SQLiteStore) SearchKeyword(ctx context.Context, query string, topK, offset int) ([]KeywordHit, error) {
	return s.searchKeywordWithQuerier(ctx, s.querier(), query, topK, offset)
}

// deleteKeywordsByFilePathWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) deleteKeywordsByFilePathWithQuerier(ctx context.Context, q querier, filePath string) (int, error) {
	// Virtual tables don't report reliable RowsAffected, so count first.
	var count int
	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM content_fts WHERE file_path = ?", filePath).Scan(&count); err != nil {
		return 0, err
	}
	if count == 0 {
		return 0, nil
	}
	if _, err := q.ExecContext(ctx, "DELETE FROM content_fts WHERE file_path = ?", filePath); err != nil {
		return 0, err
	}
	return count, nil
}

func (s *SQLiteStore) DeleteKeywordsByFilePath(ctx context.Context, filePath string) (int, error) {
	return s.deleteKeywordsByFilePathWithQuerier(ctx, s.querier(), filePath)
}

// countKeywordDocsWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) countKeywordDocsWithQuerier(ctx context.Context, q querier) (int, error) {
	var count int
	err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM content_fts").Scan(&count)
	return count, err
}

func (s *SQLiteStore) CountKeywordDocs(ctx context.Context) (int, error) {
	return s.countKeywordDocsWithQuerier(ctx, s.querier())
}

// buildMatchQuery converts free-form user input into a safe FTS5 MATCH
// expression. Each term is quoted to neutralize FTS5 operators and given
// a prefix wildcard, then terms are joined with OR so a query matching
// any term still produces candidates for rank fusion.
func buildMatchQuery(input string) string {
	fields := strings.Fields(input)
	terms := make([]string, 0, len(fields))
	for _, field := range fields {
		term := strings.ReplaceAll(field, `"`, "")
		if term == "" {
			continue
		}
		terms = append(terms, `"`+term+`"*`)
	}
	return strings.Join(terms, " OR ")
}
