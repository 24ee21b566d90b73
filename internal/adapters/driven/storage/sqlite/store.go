package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/leaguelore/leaguelore-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/leaguelore/leaguelore-cli/internal/core/domain"
	"github.com/leaguelore/leaguelore-cli/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides access to
// all metadata store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.leaguelore/data/corpus.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".leaguelore", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "corpus.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// DocumentStore returns a DocumentStore interface backed by this store.
func (s *Store) DocumentStore() driven.DocumentStore {
	return &documentStore{store: s}
}

// CuratedStore returns a CuratedStore interface backed by this store.
func (s *Store) CuratedStore() driven.CuratedStore {
	return &curatedStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		// Read and execute migration
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Document Store ====================

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

// UpsertDocument stores or replaces a document and its chunks in one
// transaction: prior chunks for the id are deleted before the new set
// is inserted, so readers never observe a mixed chunk set.
func (s *documentStore) UpsertDocument(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) error {
	participantsJSON, entitiesJSON, tagsJSON, metadataJSON, err := marshalDocumentFields(doc)
	if err != nil {
		return err
	}

	if doc.IngestedAt.IsZero() {
		doc.IngestedAt = time.Now().UTC()
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (id, source, title, content, content_type, created_at,
			participants, entities, tags, season, metadata, ingested_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source = excluded.source,
			title = excluded.title,
			content = excluded.content,
			content_type = excluded.content_type,
			created_at = excluded.created_at,
			participants = excluded.participants,
			entities = excluded.entities,
			tags = excluded.tags,
			season = excluded.season,
			metadata = excluded.metadata,
			ingested_at = excluded.ingested_at
	`, doc.ID, string(doc.Source), doc.Title, doc.Content,
		nullContentType(doc.ContentType), nullTime(doc.CreatedAt),
		participantsJSON, entitiesJSON, tagsJSON,
		nullStringPtr(doc.Season), metadataJSON, doc.IngestedAt)
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE document_id = ?", doc.ID); err != nil {
		return fmt.Errorf("clearing chunks: %w", err)
	}

	if err := insertChunks(ctx, tx, chunks); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// UpsertChunks replaces stored chunk rows, used to persist embeddings
// after indexing.
func (s *documentStore) UpsertChunks(ctx context.Context, chunks []domain.Chunk) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := insertChunks(ctx, tx, chunks); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// insertChunks upserts chunk rows within a transaction.
func insertChunks(ctx context.Context, tx *sql.Tx, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, document_id, sequence_index, text, token_count, overlap_tokens, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			document_id = excluded.document_id,
			sequence_index = excluded.sequence_index,
			text = excluded.text,
			token_count = excluded.token_count,
			overlap_tokens = excluded.overlap_tokens,
			embedding = excluded.embedding
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		embeddingBlob := float32SliceToBytes(chunk.Embedding)
		if _, err := stmt.ExecContext(ctx, chunk.ID, chunk.DocumentID, chunk.SequenceIndex,
			chunk.Text, chunk.TokenCount, chunk.OverlapTokens, embeddingBlob); err != nil {
			return fmt.Errorf("saving chunk: %w", err)
		}
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *documentStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, source, title, content, content_type, created_at,
			participants, entities, tags, season, metadata, ingested_at
		FROM documents WHERE id = ?
	`, id)

	return scanDocument(row)
}

// GetChunks retrieves a document's chunks in sequence order.
func (s *documentStore) GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, document_id, sequence_index, text, token_count, overlap_tokens, embedding
		FROM chunks WHERE document_id = ?
		ORDER BY sequence_index
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, *chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return chunks, nil
}

// GetChunk retrieves a specific chunk by ID.
func (s *documentStore) GetChunk(ctx context.Context, id string) (*domain.Chunk, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, document_id, sequence_index, text, token_count, overlap_tokens, embedding
		FROM chunks WHERE id = ?
	`, id)

	return scanChunkRow(row)
}

// DeleteDocument removes a document; chunks cascade.
func (s *documentStore) DeleteDocument(ctx context.Context, id string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return nil
}

// Query returns documents matching the filter, ordered by id.
func (s *documentStore) Query(ctx context.Context, filter domain.DocumentFilter) ([]domain.Document, error) {
	query := `
		SELECT id, source, title, content, content_type, created_at,
			participants, entities, tags, season, metadata, ingested_at
		FROM documents`

	var conds []string
	var args []any
	if filter.Source != "" {
		conds = append(conds, "source = ?")
		args = append(args, string(filter.Source))
	}
	if filter.ContentType != nil {
		conds = append(conds, "content_type = ?")
		args = append(args, string(*filter.ContentType))
	}
	if filter.Season != nil {
		conds = append(conds, "season = ?")
		args = append(args, *filter.Season)
	}
	if filter.After != nil {
		conds = append(conds, "created_at IS NOT NULL AND created_at >= ?")
		args = append(args, filter.After.UTC())
	}
	if filter.Before != nil {
		conds = append(conds, "created_at IS NOT NULL AND created_at <= ?")
		args = append(args, filter.Before.UTC())
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY id"

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		doc, err := scanDocumentRows(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}

	return docs, nil
}

// ListChunks returns every stored chunk, for index builds.
func (s *documentStore) ListChunks(ctx context.Context) ([]domain.Chunk, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, document_id, sequence_index, text, token_count, overlap_tokens, embedding
		FROM chunks ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, *chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return chunks, nil
}

// ==================== Curated Store ====================

// curatedStore implements driven.CuratedStore.
type curatedStore struct {
	store *Store
}

var _ driven.CuratedStore = (*curatedStore)(nil)

// SaveCuratedExample stores a new example after validation.
func (s *curatedStore) SaveCuratedExample(ctx context.Context, example *domain.CuratedExample) error {
	if err := example.Validate(); err != nil {
		return err
	}

	participantsJSON, err := json.Marshal(example.Participants)
	if err != nil {
		return fmt.Errorf("marshalling participants: %w", err)
	}

	if example.CreatedAt.IsZero() {
		example.CreatedAt = time.Now().UTC()
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO curated_examples (id, category, content, context, participants, quality_score, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, example.ID, example.Category, example.Content, example.Context,
		string(participantsJSON), example.QualityScore, example.CreatedAt)
	if err != nil {
		return fmt.Errorf("saving curated example: %w", err)
	}
	return nil
}

// GetCuratedExample retrieves an example by ID.
func (s *curatedStore) GetCuratedExample(ctx context.Context, id string) (*domain.CuratedExample, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, category, content, context, participants, quality_score, created_at
		FROM curated_examples WHERE id = ?
	`, id)

	var example domain.CuratedExample
	var participantsJSON string
	if err := row.Scan(&example.ID, &example.Category, &example.Content, &example.Context,
		&participantsJSON, &example.QualityScore, &example.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning curated example: %w", err)
	}

	if err := json.Unmarshal([]byte(participantsJSON), &example.Participants); err != nil {
		return nil, fmt.Errorf("unmarshaling participants: %w", err)
	}

	return &example, nil
}

// ListCuratedExamples returns examples newest first, optionally
// filtered by category.
func (s *curatedStore) ListCuratedExamples(ctx context.Context, category string) ([]domain.CuratedExample, error) {
	query := `
		SELECT id, category, content, context, participants, quality_score, created_at
		FROM curated_examples`
	var args []any
	if category != "" {
		query += " WHERE category = ?"
		args = append(args, category)
	}
	query += " ORDER BY created_at DESC, id"

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying curated examples: %w", err)
	}
	defer rows.Close()

	var examples []domain.CuratedExample //nolint:prealloc // size unknown from query
	for rows.Next() {
		var example domain.CuratedExample
		var participantsJSON string
		if err := rows.Scan(&example.ID, &example.Category, &example.Content, &example.Context,
			&participantsJSON, &example.QualityScore, &example.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning curated example: %w", err)
		}
		if err := json.Unmarshal([]byte(participantsJSON), &example.Participants); err != nil {
			return nil, fmt.Errorf("unmarshaling participants: %w", err)
		}
		examples = append(examples, example)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating curated examples: %w", err)
	}

	return examples, nil
}

// UpdateCuratedScore edits an example's quality score.
func (s *curatedStore) UpdateCuratedScore(ctx context.Context, id string, score int) error {
	if score < domain.MinQualityScore || score > domain.MaxQualityScore {
		return domain.ErrInvalidInput
	}

	res, err := s.store.db.ExecContext(ctx,
		"UPDATE curated_examples SET quality_score = ? WHERE id = ?", score, id)
	if err != nil {
		return fmt.Errorf("updating curated score: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ==================== Helper Functions ====================

// marshalDocumentFields marshals the JSON-encoded document columns.
func marshalDocumentFields(doc *domain.Document) (participants, entities, tags, metadata string, err error) {
	p, err := json.Marshal(orEmptySlice(doc.Participants))
	if err != nil {
		return "", "", "", "", fmt.Errorf("marshalling participants: %w", err)
	}
	e, err := json.Marshal(orEmptyMap(doc.Entities))
	if err != nil {
		return "", "", "", "", fmt.Errorf("marshalling entities: %w", err)
	}
	tg, err := json.Marshal(orEmptySlice(doc.Tags))
	if err != nil {
		return "", "", "", "", fmt.Errorf("marshalling tags: %w", err)
	}
	m, err := json.Marshal(doc.Metadata)
	if err != nil {
		return "", "", "", "", fmt.Errorf("marshalling metadata: %w", err)
	}
	return string(p), string(e), string(tg), string(m), nil
}

func orEmptySlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func orEmptyMap(m map[string][]string) map[string][]string {
	if m == nil {
		return map[string][]string{}
	}
	return m
}

// nullContentType converts an optional content type for storage.
func nullContentType(ct *domain.ContentType) any {
	if ct == nil {
		return nil
	}
	return string(*ct)
}

// nullTime converts an optional time for storage.
func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

// nullStringPtr converts an optional string for storage.
func nullStringPtr(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

// documentScanner abstracts sql.Row and sql.Rows for document scans.
type documentScanner interface {
	Scan(dest ...any) error
}

// scanDocumentFields scans the shared document column set.
func scanDocumentFields(scanner documentScanner) (*domain.Document, error) {
	var doc domain.Document
	var contentType, season sql.NullString
	var createdAt sql.NullTime
	var participantsJSON, entitiesJSON, tagsJSON, metadataJSON string

	if err := scanner.Scan(&doc.ID, (*string)(&doc.Source), &doc.Title, &doc.Content,
		&contentType, &createdAt, &participantsJSON, &entitiesJSON, &tagsJSON,
		&season, &metadataJSON, &doc.IngestedAt); err != nil {
		return nil, err
	}

	if contentType.Valid {
		ct := domain.ContentType(contentType.String)
		doc.ContentType = &ct
	}
	if season.Valid {
		doc.Season = &season.String
	}
	if createdAt.Valid {
		at := createdAt.Time.UTC()
		doc.CreatedAt = &at
	}

	if err := json.Unmarshal([]byte(participantsJSON), &doc.Participants); err != nil {
		return nil, fmt.Errorf("unmarshaling participants: %w", err)
	}
	if err := json.Unmarshal([]byte(entitiesJSON), &doc.Entities); err != nil {
		return nil, fmt.Errorf("unmarshaling entities: %w", err)
	}
	if err := json.Unmarshal([]byte(tagsJSON), &doc.Tags); err != nil {
		return nil, fmt.Errorf("unmarshaling tags: %w", err)
	}
	if metadataJSON != "" {
		if err := json.Unmarshal([]byte(metadataJSON), &doc.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshaling metadata: %w", err)
		}
	}

	return &doc, nil
}

// scanDocument scans a single document row.
func scanDocument(row *sql.Row) (*domain.Document, error) {
	doc, err := scanDocumentFields(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}
	return doc, nil
}

// scanDocumentRows scans a document from *sql.Rows.
func scanDocumentRows(rows *sql.Rows) (*domain.Document, error) {
	doc, err := scanDocumentFields(rows)
	if err != nil {
		return nil, fmt.Errorf("scanning document: %w", err)
	}
	return doc, nil
}

// scanChunk scans a chunk from *sql.Rows.
func scanChunk(rows *sql.Rows) (*domain.Chunk, error) {
	var chunk domain.Chunk
	var embeddingBlob []byte

	if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.SequenceIndex,
		&chunk.Text, &chunk.TokenCount, &chunk.OverlapTokens, &embeddingBlob); err != nil {
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}

	chunk.Embedding = bytesToFloat32Slice(embeddingBlob)
	return &chunk, nil
}

// scanChunkRow scans a chunk from *sql.Row.
func scanChunkRow(row *sql.Row) (*domain.Chunk, error) {
	var chunk domain.Chunk
	var embeddingBlob []byte

	if err := row.Scan(&chunk.ID, &chunk.DocumentID, &chunk.SequenceIndex,
		&chunk.Text, &chunk.TokenCount, &chunk.OverlapTokens, &embeddingBlob); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}

	chunk.Embedding = bytesToFloat32Slice(embeddingBlob)
	return &chunk, nil
}
