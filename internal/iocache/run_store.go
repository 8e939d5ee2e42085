package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/huangsam/ecgscope/internal/contract"
	"github.com/huangsam/ecgscope/schema"
)

// runsTable is the name of the table for run tracking.
const runsTable = "ecg_pipeline_runs"

// RunStoreImpl implements the RunStore interface.
type RunStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
	connStr string
}

var _ contract.RunStore = &RunStoreImpl{} // Compile-time check

// NewRunStore creates a run store with the specified backend.
// The none backend returns a store that tracks nothing.
func NewRunStore(backend schema.DatabaseBackend, connStr string) (*RunStoreImpl, error) {
	if backend == schema.NoneBackend {
		return &RunStoreImpl{backend: backend, connStr: connStr}, nil
	}

	db, err := openDB(backend, connStr, GetRunDBFilePath())
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(getCreateRunsQuery(backend)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create table %s: %w", runsTable, err)
	}

	return &RunStoreImpl{db: db, backend: backend, connStr: connStr}, nil
}

// getCreateRunsQuery returns the CREATE TABLE query for ecg_pipeline_runs.
// It matches the first embedded migration.
func getCreateRunsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(runsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT AUTO_INCREMENT PRIMARY KEY,
				recording_id VARCHAR(255) NOT NULL,
				profile VARCHAR(16) NOT NULL,
				start_time DATETIME(6) NOT NULL,
				end_time DATETIME(6),
				run_duration_ms INT,
				raw_samples INT NOT NULL DEFAULT 0,
				output_samples INT NOT NULL DEFAULT 0,
				peak_count INT NOT NULL DEFAULT 0,
				mean_rr_ms DOUBLE,
				partial BOOLEAN NOT NULL DEFAULT FALSE,
				status VARCHAR(16) NOT NULL,
				error_message TEXT,
				config_params TEXT
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGSERIAL PRIMARY KEY,
				recording_id TEXT NOT NULL,
				profile TEXT NOT NULL,
				start_time TIMESTAMPTZ NOT NULL,
				end_time TIMESTAMPTZ,
				run_duration_ms INT,
				raw_samples INT NOT NULL DEFAULT 0,
				output_samples INT NOT NULL DEFAULT 0,
				peak_count INT NOT NULL DEFAULT 0,
				mean_rr_ms DOUBLE PRECISION,
				partial BOOLEAN NOT NULL DEFAULT FALSE,
				status TEXT NOT NULL,
				error_message TEXT,
				config_params TEXT
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER PRIMARY KEY AUTOINCREMENT,
				recording_id TEXT NOT NULL,
				profile TEXT NOT NULL,
				start_time TEXT NOT NULL,
				end_time TEXT,
				run_duration_ms INTEGER,
				raw_samples INTEGER NOT NULL DEFAULT 0,
				output_samples INTEGER NOT NULL DEFAULT 0,
				peak_count INTEGER NOT NULL DEFAULT 0,
				mean_rr_ms REAL,
				partial INTEGER NOT NULL DEFAULT 0,
				status TEXT NOT NULL,
				error_message TEXT,
				config_params TEXT
			);
		`, quotedTableName)
	}
}

func (rs *RunStoreImpl) disabled() bool {
	return rs.backend == schema.NoneBackend || rs.db == nil
}

// BeginRun creates a new run row in the running state and returns its ID.
func (rs *RunStoreImpl) BeginRun(recordingID string, profile schema.Profile, startTime time.Time, configParams map[string]any) (int64, error) {
	if rs.disabled() {
		return 0, nil
	}

	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal config params: %w", err)
	}

	quotedTableName := quoteTableName(runsTable, rs.backend)
	args := []any{recordingID, string(profile), formatTime(startTime, rs.backend), schema.RunStatusRunning, string(configJSON)}

	var runID int64
	switch rs.backend {
	case schema.PostgreSQLBackend:
		query := fmt.Sprintf(`INSERT INTO %s (recording_id, profile, start_time, status, config_params) VALUES ($1, $2, $3, $4, $5) RETURNING run_id`, quotedTableName)
		err = rs.db.QueryRow(query, args...).Scan(&runID)
	default: // SQLite and MySQL
		query := fmt.Sprintf(`INSERT INTO %s (recording_id, profile, start_time, status, config_params) VALUES (?, ?, ?, ?, ?)`, quotedTableName)
		var result sql.Result
		result, err = rs.db.Exec(query, args...)
		if err == nil {
			runID, err = result.LastInsertId()
		}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert pipeline run: %w", err)
	}
	return runID, nil
}

// runDurationMs computes the run duration from the stored start time.
func (rs *RunStoreImpl) runDurationMs(runID int64, endTime time.Time) (int64, error) {
	query := rebind(fmt.Sprintf(`SELECT start_time FROM %s WHERE run_id = ?`, quoteTableName(runsTable, rs.backend)), rs.backend)
	ts := timeScanner{backend: rs.backend}
	if err := rs.db.QueryRow(query, runID).Scan(ts.dest()); err != nil {
		return 0, fmt.Errorf("failed to get start_time for run %d: %w", runID, err)
	}
	start, err := ts.value()
	if err != nil {
		return 0, err
	}
	if start == nil {
		return 0, fmt.Errorf("run %d has no start_time", runID)
	}
	return endTime.Sub(*start).Milliseconds(), nil
}

// EndRun records the outcome of a successful run.
func (rs *RunStoreImpl) EndRun(runID int64, endTime time.Time, result schema.PipelineResult) error {
	if rs.disabled() {
		return nil
	}

	durationMs, err := rs.runDurationMs(runID, endTime)
	if err != nil {
		return err
	}

	status := schema.RunStatusCompleted
	if result.Partial {
		status = schema.RunStatusPartial
	}
	var meanRR *float64
	if result.Interval != nil {
		meanRR = &result.Interval.MeanMs
	}

	query := rebind(fmt.Sprintf(`UPDATE %s SET end_time = ?, run_duration_ms = ?, raw_samples = ?, output_samples = ?,
		peak_count = ?, mean_rr_ms = ?, partial = ?, status = ? WHERE run_id = ?`, quoteTableName(runsTable, rs.backend)), rs.backend)
	_, err = rs.db.Exec(query,
		formatTime(endTime, rs.backend), durationMs, result.RawSamples, len(result.Series),
		len(result.Peaks), meanRR, result.Partial, status, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to update pipeline run: %w", err)
	}
	return nil
}

// FailRun marks the run as failed with the error message.
func (rs *RunStoreImpl) FailRun(runID int64, endTime time.Time, runErr error) error {
	if rs.disabled() {
		return nil
	}

	durationMs, err := rs.runDurationMs(runID, endTime)
	if err != nil {
		return err
	}

	message := "unknown error"
	if runErr != nil {
		message = runErr.Error()
	}

	query := rebind(fmt.Sprintf(`UPDATE %s SET end_time = ?, run_duration_ms = ?, status = ?, error_message = ? WHERE run_id = ?`,
		quoteTableName(runsTable, rs.backend)), rs.backend)
	if _, err := rs.db.Exec(query, formatTime(endTime, rs.backend), durationMs, schema.RunStatusFailed, message, runID); err != nil {
		return fmt.Errorf("failed to update pipeline run: %w", err)
	}
	return nil
}

// Close closes the underlying connection.
func (rs *RunStoreImpl) Close() error {
	if rs.db != nil {
		return rs.db.Close()
	}
	return nil
}

// GetStatus returns status information about the run store.
func (rs *RunStoreImpl) GetStatus() (schema.RunStatus, error) {
	status := schema.RunStatus{
		Backend:    string(rs.backend),
		Connected:  rs.db != nil,
		TableSizes: make(map[string]int64),
	}
	if rs.disabled() {
		return status, nil
	}

	quotedTableName := quoteTableName(runsTable, rs.backend)

	if err := rs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quotedTableName)).Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}
	status.TableSizes[runsTable] = int64(status.TotalRuns)
	if status.TotalRuns == 0 {
		return status, nil
	}

	failedQuery := rebind(fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE status = ?", quotedTableName), rs.backend)
	if err := rs.db.QueryRow(failedQuery, schema.RunStatusFailed).Scan(&status.FailedRuns); err != nil {
		return status, fmt.Errorf("failed to get failed runs: %w", err)
	}

	last := timeScanner{backend: rs.backend}
	lastQuery := fmt.Sprintf("SELECT run_id, start_time FROM %s ORDER BY run_id DESC LIMIT 1", quotedTableName)
	if err := rs.db.QueryRow(lastQuery).Scan(&status.LastRunID, last.dest()); err != nil {
		return status, fmt.Errorf("failed to get last run info: %w", err)
	}
	lastTime, err := last.value()
	if err != nil {
		return status, err
	}
	if lastTime != nil {
		status.LastRunTime = *lastTime
	}

	oldest := timeScanner{backend: rs.backend}
	oldestQuery := fmt.Sprintf("SELECT start_time FROM %s ORDER BY run_id ASC LIMIT 1", quotedTableName)
	if err := rs.db.QueryRow(oldestQuery).Scan(oldest.dest()); err != nil {
		return status, fmt.Errorf("failed to get oldest run time: %w", err)
	}
	oldestTime, err := oldest.value()
	if err != nil {
		return status, err
	}
	if oldestTime != nil {
		status.OldestRunTime = *oldestTime
	}

	samplesQuery := fmt.Sprintf("SELECT COALESCE(SUM(raw_samples), 0) FROM %s", quotedTableName)
	if err := rs.db.QueryRow(samplesQuery).Scan(&status.TotalSamples); err != nil {
		return status, fmt.Errorf("failed to get total samples: %w", err)
	}

	return status, nil
}

// GetAllRuns retrieves all tracked runs ordered by run ID.
func (rs *RunStoreImpl) GetAllRuns() ([]schema.RunRecord, error) {
	if rs.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, recording_id, profile, start_time, end_time, run_duration_ms,
		raw_samples, output_samples, peak_count, mean_rr_ms, partial, status, error_message, config_params
		FROM %s ORDER BY run_id`, quoteTableName(runsTable, rs.backend))

	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query pipeline runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.RunRecord
	for rows.Next() {
		var record schema.RunRecord
		start := timeScanner{backend: rs.backend}
		end := timeScanner{backend: rs.backend}
		if err := rows.Scan(&record.RunID, &record.RecordingID, &record.Profile, start.dest(), end.dest(),
			&record.RunDurationMs, &record.RawSamples, &record.OutputSamples, &record.PeakCount,
			&record.MeanRRMs, &record.Partial, &record.Status, &record.ErrorMessage, &record.ConfigParams); err != nil {
			return nil, fmt.Errorf("failed to scan pipeline run: %w", err)
		}

		startTime, err := start.value()
		if err != nil {
			return nil, err
		}
		if startTime != nil {
			record.StartTime = *startTime
		}
		if record.EndTime, err = end.value(); err != nil {
			return nil, err
		}
		results = append(results, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pipeline runs: %w", err)
	}
	return results, nil
}
