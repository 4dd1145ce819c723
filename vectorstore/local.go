package vectorstore

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/krira-ai/ragcore"
)

func init() {
	sqlite_vec.Auto()
}

var collectionNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// LocalStore is a sqlite-vec backed persistence layer with a
// table-per-embedding-model collection scheme, standing in for the
// local Chroma-backed collections of a Python implementation.
type LocalStore struct {
	db *sql.DB
}

// NewLocalStore opens (or creates) the SQLite database backing the
// local vector store.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, ragcore.Wrap(ragcore.KindInternal, "failed to create local vector store directory", err)
	}
	dbPath := filepath.Join(dir, "vectors.db")

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=30000")
	if err != nil {
		return nil, ragcore.Wrap(ragcore.KindInternal, "failed to open local vector store", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, ragcore.Wrap(ragcore.KindInternal, "failed to ping local vector store", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	return &LocalStore{db: db}, nil
}

func (l *LocalStore) Close() error {
	return l.db.Close()
}

// ensureCollection creates the per-model metadata and vec0 tables if
// they don't already exist, matching the dimension of the first
// vector ever written under that collection name.
func (l *LocalStore) ensureCollection(collection string, dimension int) error {
	if !collectionNamePattern.MatchString(collection) {
		return ragcore.NewError(ragcore.KindValidation, fmt.Sprintf("invalid collection name %q", collection))
	}

	metaTable := collection + "_meta"
	vecTable := collection + "_vec"

	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id INTEGER PRIMARY KEY,
			dataset_id TEXT NOT NULL,
			dataset_label TEXT,
			dataset_type TEXT,
			chunk_order INTEGER NOT NULL,
			embedding_model TEXT,
			chunk_text TEXT
		)`, metaTable),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_dataset ON %s(dataset_id)`, metaTable, metaTable),
		fmt.Sprintf(`CREATE VIRTUAL TABLE IF NOT EXISTS %s USING vec0(
			id INTEGER PRIMARY KEY,
			embedding float[%d]
		)`, vecTable, dimension),
	}
	for _, stmt := range stmts {
		if _, err := l.db.Exec(stmt); err != nil {
			return ragcore.Wrap(ragcore.KindInternal, "failed to prepare local vector store schema", err)
		}
	}
	return nil
}

// Upsert replaces all existing vectors for the dataset, then inserts
// the new batch, matching original_source's _upsert_chroma
// replace-by-dataset semantics.
func (l *LocalStore) Upsert(ctx context.Context, dataset DatasetInfo, vectors []Vector, model string, cfg Config) (int, error) {
	if len(vectors) == 0 {
		return 0, nil
	}

	collection := collectionName(model)
	dimension := len(vectors[0].Values)
	if err := l.ensureCollection(collection, dimension); err != nil {
		return 0, err
	}
	metaTable := collection + "_meta"
	vecTable := collection + "_vec"

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, ragcore.Wrap(ragcore.KindInternal, "failed to begin local vector store transaction", err)
	}
	defer tx.Rollback()

	existingIDs, err := queryIDs(ctx, tx, fmt.Sprintf("SELECT id FROM %s WHERE dataset_id = ?", metaTable), dataset.ID)
	if err != nil {
		return 0, ragcore.Wrap(ragcore.KindInternal, "failed to look up existing vectors", err)
	}
	for _, id := range existingIDs {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = ?", vecTable), id); err != nil {
			return 0, ragcore.Wrap(ragcore.KindInternal, "failed to delete stale vector", err)
		}
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE dataset_id = ?", metaTable), dataset.ID); err != nil {
		return 0, ragcore.Wrap(ragcore.KindInternal, "failed to delete stale metadata", err)
	}

	insertMeta, err := tx.PrepareContext(ctx, fmt.Sprintf(
		`INSERT INTO %s (dataset_id, dataset_label, dataset_type, chunk_order, embedding_model, chunk_text) VALUES (?, ?, ?, ?, ?, ?)`,
		metaTable))
	if err != nil {
		return 0, ragcore.Wrap(ragcore.KindInternal, "failed to prepare metadata insert", err)
	}
	defer insertMeta.Close()

	insertVec, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %s (id, embedding) VALUES (?, ?)`, vecTable))
	if err != nil {
		return 0, ragcore.Wrap(ragcore.KindInternal, "failed to prepare vector insert", err)
	}
	defer insertVec.Close()

	written := 0
	for _, v := range vectors {
		if len(v.Values) != dimension {
			return written, ragcore.NewError(ragcore.KindValidation,
				fmt.Sprintf("embedding dimension %d does not match collection dimension %d", len(v.Values), dimension))
		}
		res, err := insertMeta.ExecContext(ctx, dataset.ID, dataset.Label, dataset.SourceType, v.ChunkOrder, model, truncateText(v.Text))
		if err != nil {
			return written, ragcore.Wrap(ragcore.KindInternal, "failed to insert vector metadata", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return written, ragcore.Wrap(ragcore.KindInternal, "failed to read inserted row id", err)
		}
		if _, err := insertVec.ExecContext(ctx, id, serializeFloat32(v.Values)); err != nil {
			return written, ragcore.Wrap(ragcore.KindInternal, "failed to insert vector", err)
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return 0, ragcore.Wrap(ragcore.KindInternal, "failed to commit local vector store transaction", err)
	}
	return written, nil
}

func queryIDs(ctx context.Context, tx *sql.Tx, query string, args ...interface{}) ([]int64, error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Query runs a KNN similarity search scoped to the model's
// collection, optionally intersected with a dataset id filter.
func (l *LocalStore) Query(ctx context.Context, queryVector []float32, model string, topK int, cfg Config, datasetIDs []string) ([]Hit, error) {
	collection := collectionName(model)
	metaTable := collection + "_meta"
	vecTable := collection + "_vec"

	if !tableExists(ctx, l.db, vecTable) {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT m.dataset_id, m.dataset_label, m.dataset_type, m.chunk_order, m.embedding_model, m.chunk_text, v.distance
		FROM %s v
		JOIN %s m ON m.id = v.id
		WHERE v.embedding MATCH ? AND k = ?
	`, vecTable, metaTable)
	args := []interface{}{serializeFloat32(queryVector), topK}

	if len(datasetIDs) > 0 {
		placeholders := ""
		for i, id := range datasetIDs {
			if i > 0 {
				placeholders += ", "
			}
			placeholders += "?"
			args = append(args, id)
		}
		query += " AND m.dataset_id IN (" + placeholders + ")"
	}
	query += " ORDER BY v.distance"

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, ragcore.Wrap(ragcore.KindInternal, "local vector store query failed", err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var datasetID, datasetLabel, datasetType, text string
		var chunkOrder int
		var embeddingModel string
		var distance float64
		if err := rows.Scan(&datasetID, &datasetLabel, &datasetType, &chunkOrder, &embeddingModel, &text, &distance); err != nil {
			return nil, ragcore.Wrap(ragcore.KindInternal, "failed to read local vector store result", err)
		}
		score := 1.0 - distance
		hits = append(hits, Hit{
			Text:  text,
			Score: &score,
			Metadata: map[string]string{
				"dataset_id":      datasetID,
				"dataset_label":   datasetLabel,
				"dataset_type":    datasetType,
				"chunk_order":     fmt.Sprintf("%d", chunkOrder),
				"embedding_model": embeddingModel,
			},
		})
	}
	return hits, rows.Err()
}

func tableExists(ctx context.Context, db *sql.DB, name string) bool {
	var count int
	err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sqlite_master WHERE type IN ('table','view') AND name = ?", name).Scan(&count)
	return err == nil && count > 0
}

// serializeFloat32 packs a float32 slice into little-endian bytes for
// sqlite-vec's vec0 MATCH operator.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}
