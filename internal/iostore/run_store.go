package iostore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/huangsam/stationqc/internal/contract"
	"github.com/huangsam/stationqc/schema"
)

// Table names for run tracking.
const (
	runsTable     = "qc_runs"
	runFillsTable = "qc_run_fills"
)

// RunStoreImpl implements the RunStore interface.
type RunStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.RunStore = &RunStoreImpl{} // Compile-time check

// NewRunStore creates a new RunStore with the specified backend.
func NewRunStore(backend schema.DatabaseBackend, connStr string) (contract.RunStore, error) {
	if backend == schema.NoneBackend {
		// Return a no-op store for disabled tracking
		return &RunStoreImpl{backend: backend}, nil
	}

	db, err := openDB(backend, connStr, contract.GetRunsDBFilePath())
	if err != nil {
		return nil, err
	}

	if err := createRunTables(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create run tables: %w", err)
	}

	return &RunStoreImpl{db: db, backend: backend}, nil
}

// createRunTables creates the run tracking tables.
func createRunTables(db *sql.DB, backend schema.DatabaseBackend) error {
	tables := []struct {
		name  string
		query string
	}{
		{runsTable, getCreateRunsQuery(backend)},
		{runFillsTable, getCreateRunFillsQuery(backend)},
	}

	for _, table := range tables {
		if _, err := db.Exec(table.query); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table.name, err)
		}
	}
	return nil
}

// getCreateRunsQuery returns the CREATE TABLE query for qc_runs.
func getCreateRunsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(runsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT AUTO_INCREMENT PRIMARY KEY,
				start_time DATETIME(6) NOT NULL,
				end_time DATETIME(6),
				run_duration_ms INT,
				total_jobs INT NOT NULL DEFAULT 0,
				skipped_jobs INT NOT NULL DEFAULT 0,
				good INT NOT NULL DEFAULT 0,
				bad INT NOT NULL DEFAULT 0,
				failed INT NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGSERIAL PRIMARY KEY,
				start_time TIMESTAMPTZ NOT NULL,
				end_time TIMESTAMPTZ,
				run_duration_ms INT,
				total_jobs INT NOT NULL DEFAULT 0,
				skipped_jobs INT NOT NULL DEFAULT 0,
				good INT NOT NULL DEFAULT 0,
				bad INT NOT NULL DEFAULT 0,
				failed INT NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER PRIMARY KEY AUTOINCREMENT,
				start_time TEXT NOT NULL,
				end_time TEXT,
				run_duration_ms INTEGER,
				total_jobs INTEGER NOT NULL DEFAULT 0,
				skipped_jobs INTEGER NOT NULL DEFAULT 0,
				good INTEGER NOT NULL DEFAULT 0,
				bad INTEGER NOT NULL DEFAULT 0,
				failed INTEGER NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`, quotedTableName)
	}
}

// getCreateRunFillsQuery returns the CREATE TABLE query for qc_run_fills.
func getCreateRunFillsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(runFillsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				station_id INT NOT NULL,
				param_id INT NOT NULL,
				obstime DATETIME NOT NULL,
				fill_value DOUBLE,
				quality VARCHAR(16) NOT NULL,
				source VARCHAR(16) NOT NULL,
				PRIMARY KEY (run_id, station_id, param_id, obstime)
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				station_id INT NOT NULL,
				param_id INT NOT NULL,
				obstime TIMESTAMPTZ NOT NULL,
				fill_value DOUBLE PRECISION,
				quality TEXT NOT NULL,
				source TEXT NOT NULL,
				PRIMARY KEY (run_id, station_id, param_id, obstime)
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER NOT NULL,
				station_id INTEGER NOT NULL,
				param_id INTEGER NOT NULL,
				obstime TEXT NOT NULL,
				fill_value REAL,
				quality TEXT NOT NULL,
				source TEXT NOT NULL,
				PRIMARY KEY (run_id, station_id, param_id, obstime)
			);
		`, quotedTableName)
	}
}

// disabled reports whether the store is the no-op backend.
func (rs *RunStoreImpl) disabled() bool {
	return rs.backend == schema.NoneBackend || rs.db == nil
}

// BeginRun creates a new run and returns its unique ID.
func (rs *RunStoreImpl) BeginRun(startTime time.Time, configParams map[string]any) (int64, error) {
	if rs.disabled() {
		return 0, nil
	}

	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal config params: %w", err)
	}

	quotedTableName := quoteTableName(runsTable, rs.backend)

	var runID int64
	switch rs.backend {
	case schema.PostgreSQLBackend:
		query := fmt.Sprintf(`INSERT INTO %s (start_time, config_params) VALUES ($1, $2) RETURNING run_id`, quotedTableName)
		err = rs.db.QueryRow(query, startTime.UTC(), string(configJSON)).Scan(&runID)
	default: // SQLite and MySQL
		query := fmt.Sprintf(`INSERT INTO %s (start_time, config_params) VALUES (?, ?)`, quotedTableName)
		var result sql.Result
		result, err = rs.db.Exec(query, formatTime(startTime, rs.backend), string(configJSON))
		if err != nil {
			return 0, fmt.Errorf("failed to insert run: %w", err)
		}
		runID, err = result.LastInsertId()
	}

	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	return runID, nil
}

// EndRun updates the run with completion data.
func (rs *RunStoreImpl) EndRun(runID int64, endTime time.Time, summary schema.RunSummary) error {
	if rs.disabled() {
		return nil
	}

	quotedTableName := quoteTableName(runsTable, rs.backend)

	// Read the start time back to compute the duration
	var startTime time.Time
	query := rebind(rs.backend, fmt.Sprintf(`SELECT start_time FROM %s WHERE run_id = ?`, quotedTableName))
	if err := rs.db.QueryRow(query, runID).Scan(timeValue{t: &startTime}); err != nil {
		return fmt.Errorf("failed to get start_time for run %d: %w", runID, err)
	}
	durationMs := endTime.Sub(startTime).Milliseconds()

	updateQuery := rebind(rs.backend, fmt.Sprintf(`UPDATE %s SET end_time = ?, run_duration_ms = ?,
		total_jobs = ?, skipped_jobs = ?, good = ?, bad = ?, failed = ? WHERE run_id = ?`, quotedTableName))
	_, err := rs.db.Exec(updateQuery, formatTime(endTime, rs.backend), durationMs,
		summary.Jobs, summary.Skipped, summary.Good, summary.Bad, summary.Failed, runID)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	return nil
}

// RecordFills stores the values written by a run in one transaction.
func (rs *RunStoreImpl) RecordFills(runID int64, fills []schema.FillRecord) error {
	if rs.disabled() || len(fills) == 0 {
		return nil
	}

	query := rebind(rs.backend, fmt.Sprintf(`INSERT INTO %s (run_id, station_id, param_id, obstime, fill_value, quality, source)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, quoteTableName(runFillsTable, rs.backend)))

	ctx := context.Background()
	tx, err := rs.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to prepare fill insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, f := range fills {
		var value any
		if f.Value != nil {
			value = *f.Value
		}
		if _, err := stmt.ExecContext(ctx, runID, f.StationID, f.ParamID, formatObsTime(f.ObsTime, rs.backend), value, f.Quality, f.Source); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to insert fill for station %d param %d: %w", f.StationID, f.ParamID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit fills: %w", err)
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

	quotedRuns := quoteTableName(runsTable, rs.backend)

	if err := rs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quotedRuns)).Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		lastRunQuery := fmt.Sprintf("SELECT run_id, start_time FROM %s ORDER BY run_id DESC LIMIT 1", quotedRuns)
		if err := rs.db.QueryRow(lastRunQuery).Scan(&status.LastRunID, timeValue{t: &status.LastRunTime}); err != nil {
			return status, fmt.Errorf("failed to get last run info: %w", err)
		}

		oldestRunQuery := fmt.Sprintf("SELECT start_time FROM %s ORDER BY run_id ASC LIMIT 1", quotedRuns)
		if err := rs.db.QueryRow(oldestRunQuery).Scan(timeValue{t: &status.OldestRunTime}); err != nil {
			return status, fmt.Errorf("failed to get oldest run time: %w", err)
		}
	}

	for _, table := range []string{runsTable, runFillsTable} {
		var count int64
		if err := rs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, rs.backend))).Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}
	status.TotalFills = status.TableSizes[runFillsTable]

	return status, nil
}

// GetAllRuns retrieves all runs from the store.
func (rs *RunStoreImpl) GetAllRuns() ([]schema.RunRecord, error) {
	if rs.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, start_time, end_time, run_duration_ms, total_jobs, skipped_jobs, good, bad, failed, config_params
		FROM %s ORDER BY run_id`, quoteTableName(runsTable, rs.backend))

	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.RunRecord
	for rows.Next() {
		var record schema.RunRecord
		if err := rows.Scan(&record.RunID, timeValue{t: &record.StartTime}, nullTimeValue{t: &record.EndTime},
			&record.RunDurationMs, &record.TotalJobs, &record.SkippedJobs,
			&record.Good, &record.Bad, &record.Failed, &record.ConfigParams); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return results, nil
}

// GetAllFills retrieves all recorded fills from the store.
func (rs *RunStoreImpl) GetAllFills() ([]schema.FillRecord, error) {
	if rs.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, station_id, param_id, obstime, fill_value, quality, source
		FROM %s ORDER BY run_id, station_id, param_id, obstime`, quoteTableName(runFillsTable, rs.backend))

	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query fills: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.FillRecord
	for rows.Next() {
		var record schema.FillRecord
		if err := rows.Scan(&record.RunID, &record.StationID, &record.ParamID, timeValue{t: &record.ObsTime},
			&record.Value, &record.Quality, &record.Source); err != nil {
			return nil, fmt.Errorf("failed to scan fill: %w", err)
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fills: %w", err)
	}
	return results, nil
}
