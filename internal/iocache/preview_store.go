package iocache

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/huangsam/ecgscope/internal/contract"
	"github.com/huangsam/ecgscope/schema"
)

// previewTable is the name of the table for persisted previews.
const previewTable = "ecg_previews"

// PreviewStoreImpl keeps the latest preview series per recording.
type PreviewStoreImpl struct {
	db        *sql.DB
	tableName string
	backend   schema.DatabaseBackend
	connStr   string
}

var _ contract.PreviewStore = &PreviewStoreImpl{} // Compile-time check

// NewPreviewStore initializes a preview store for the backend.
// The none backend returns a store that keeps nothing.
func NewPreviewStore(tableName string, backend schema.DatabaseBackend, connStr string) (*PreviewStoreImpl, error) {
	if err := validateTableName(tableName); err != nil {
		return nil, err
	}
	if backend == schema.NoneBackend {
		return &PreviewStoreImpl{tableName: tableName, backend: backend, connStr: connStr}, nil
	}

	db, err := openDB(backend, connStr, GetPreviewDBFilePath())
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(getCreatePreviewTableQuery(tableName, backend)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create table %s: %w", tableName, err)
	}

	return &PreviewStoreImpl{db: db, tableName: tableName, backend: backend, connStr: connStr}, nil
}

// getCreatePreviewTableQuery returns the CREATE TABLE query for the given backend.
func getCreatePreviewTableQuery(tableName string, backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(tableName, backend)
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				recording_id VARCHAR(255) PRIMARY KEY,
				series MEDIUMBLOB NOT NULL,
				series_version INT NOT NULL,
				updated_at BIGINT NOT NULL
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				recording_id TEXT PRIMARY KEY,
				series BYTEA NOT NULL,
				series_version INTEGER NOT NULL,
				updated_at BIGINT NOT NULL
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				recording_id TEXT PRIMARY KEY,
				series BLOB NOT NULL,
				series_version INTEGER NOT NULL,
				updated_at INTEGER NOT NULL
			);
		`, quotedTableName)
	}
}

func (ps *PreviewStoreImpl) disabled() bool {
	return ps.backend == schema.NoneBackend || ps.db == nil
}

// Get retrieves the encoded preview of a recording.
func (ps *PreviewStoreImpl) Get(recordingID string) ([]byte, int, int64, error) {
	if ps.disabled() {
		return nil, 0, 0, sql.ErrNoRows
	}

	var value []byte
	var version int
	var ts int64

	query := rebind(fmt.Sprintf(`SELECT series, series_version, updated_at FROM %s WHERE recording_id = ?`,
		quoteTableName(ps.tableName, ps.backend)), ps.backend)
	if err := ps.db.QueryRow(query, recordingID).Scan(&value, &version, &ts); err != nil {
		return nil, 0, 0, err
	}
	return value, version, ts, nil
}

// Set inserts or replaces the preview of a recording.
func (ps *PreviewStoreImpl) Set(recordingID string, value []byte, version int, timestamp int64) error {
	if ps.disabled() {
		return nil
	}
	_, err := ps.db.Exec(ps.getUpsertQuery(), recordingID, value, version, timestamp)
	return err
}

// getUpsertQuery returns the UPSERT query for the backend.
func (ps *PreviewStoreImpl) getUpsertQuery() string {
	quotedTableName := quoteTableName(ps.tableName, ps.backend)
	switch ps.backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`INSERT INTO %s (recording_id, series, series_version, updated_at) VALUES (?, ?, ?, ?) AS new
			ON DUPLICATE KEY UPDATE series = new.series, series_version = new.series_version, updated_at = new.updated_at`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`INSERT INTO %s (recording_id, series, series_version, updated_at) VALUES ($1, $2, $3, $4)
			ON CONFLICT (recording_id) DO UPDATE SET series = EXCLUDED.series, series_version = EXCLUDED.series_version, updated_at = EXCLUDED.updated_at`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`INSERT OR REPLACE INTO %s (recording_id, series, series_version, updated_at) VALUES (?, ?, ?, ?)`, quotedTableName)
	}
}

// Close closes the underlying DB connection.
func (ps *PreviewStoreImpl) Close() error {
	if ps.db != nil {
		return ps.db.Close()
	}
	return nil
}

// GetStatus returns status information about the preview store.
func (ps *PreviewStoreImpl) GetStatus() (schema.PreviewStatus, error) {
	status := schema.PreviewStatus{
		Backend:   string(ps.backend),
		Connected: ps.db != nil,
	}
	if ps.disabled() {
		return status, nil
	}

	quotedTableName := quoteTableName(ps.tableName, ps.backend)
	if err := ps.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quotedTableName)).Scan(&status.TotalEntries); err != nil {
		return status, fmt.Errorf("failed to get total entries: %w", err)
	}
	if status.TotalEntries == 0 {
		return status, nil
	}

	var lastTs, oldestTs int64
	row := ps.db.QueryRow(fmt.Sprintf("SELECT MAX(updated_at), MIN(updated_at) FROM %s", quotedTableName))
	if err := row.Scan(&lastTs, &oldestTs); err != nil {
		return status, fmt.Errorf("failed to get entry times: %w", err)
	}
	status.LastEntryTime = time.Unix(lastTs, 0)
	status.OldestEntryTime = time.Unix(oldestTs, 0)

	status.TableSizeBytes = tableSize(ps.db, ps.backend, ps.tableName, status.TotalEntries, databaseName(ps.backend, ps.connStr))
	return status, nil
}
