package iostore

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"

	"github.com/huangsam/stationqc/internal/contract"
	"github.com/huangsam/stationqc/schema"
)

// Table names for series data.
const (
	observationsTable = "qc_observations"
	modelTable        = "qc_model"
	neighborsTable    = "qc_neighbors"
)

// seriesTables lists the series tables in creation order.
var seriesTables = []string{observationsTable, modelTable, neighborsTable}

// SeriesStoreImpl implements the SeriesStore interface on a SQL database.
type SeriesStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.SeriesStore = &SeriesStoreImpl{} // Compile-time check

// NewSeriesStore creates a new SeriesStore with the specified backend.
func NewSeriesStore(backend schema.DatabaseBackend, connStr string) (contract.SeriesStore, error) {
	if backend == schema.NoneBackend {
		// Return a no-op store that holds no data
		return &SeriesStoreImpl{backend: backend}, nil
	}

	db, err := openDB(backend, connStr, contract.GetStoreDBFilePath())
	if err != nil {
		return nil, err
	}

	for _, table := range seriesTables {
		if _, err := db.Exec(getCreateSeriesTableQuery(table, backend)); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to create table %s: %w", table, err)
		}
	}

	return &SeriesStoreImpl{db: db, backend: backend}, nil
}

// getCreateSeriesTableQuery returns the CREATE TABLE query for a series table.
func getCreateSeriesTableQuery(table string, backend schema.DatabaseBackend) string {
	var timeType, floatType, textType string
	switch backend {
	case schema.MySQLBackend:
		timeType, floatType, textType = "DATETIME", "DOUBLE", "VARCHAR(16)"
	case schema.PostgreSQLBackend:
		timeType, floatType, textType = "TIMESTAMPTZ", "DOUBLE PRECISION", "TEXT"
	default: // SQLite
		timeType, floatType, textType = "TEXT", "REAL", "TEXT"
	}

	quoted := quoteTableName(table, backend)
	switch table {
	case observationsTable:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				station_id INTEGER NOT NULL,
				param_id INTEGER NOT NULL,
				obstime %s NOT NULL,
				original %s NOT NULL,
				corrected %s NOT NULL,
				status %s NOT NULL,
				PRIMARY KEY (station_id, param_id, obstime)
			);
		`, quoted, timeType, floatType, floatType, textType)

	case modelTable:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				station_id INTEGER NOT NULL,
				param_id INTEGER NOT NULL,
				obstime %s NOT NULL,
				model_value %s NOT NULL,
				PRIMARY KEY (station_id, param_id, obstime)
			);
		`, quoted, timeType, floatType)

	default: // neighbors
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				station_id INTEGER NOT NULL,
				param_id INTEGER NOT NULL,
				neighbor_id INTEGER NOT NULL,
				neighbor_rank INTEGER NOT NULL,
				corr_offset %s NOT NULL,
				corr_slope %s NOT NULL,
				corr_sigma %s NOT NULL,
				PRIMARY KEY (station_id, param_id, neighbor_id)
			);
		`, quoted, floatType, floatType, floatType)
	}
}

// disabled reports whether the store is the no-op backend.
func (ss *SeriesStoreImpl) disabled() bool {
	return ss.backend == schema.NoneBackend || ss.db == nil
}

// FindPending returns rows with a pending status inside window.
func (ss *SeriesStoreImpl) FindPending(ctx context.Context, window schema.TimeRange, stations, params []int) ([]schema.Observation, error) {
	if ss.disabled() {
		return nil, nil
	}

	where := []string{"obstime >= ?", "obstime <= ?", "status IN (" + placeholders(len(schema.PendingStatuses)) + ")"}
	args := []any{formatObsTime(window.Start, ss.backend), formatObsTime(window.End, ss.backend)}
	for _, st := range schema.PendingStatuses {
		args = append(args, string(st))
	}
	if len(stations) > 0 {
		where = append(where, "station_id IN ("+placeholders(len(stations))+")")
		args = append(args, intArgs(stations)...)
	}
	if len(params) > 0 {
		where = append(where, "param_id IN ("+placeholders(len(params))+")")
		args = append(args, intArgs(params)...)
	}

	query := fmt.Sprintf(`SELECT station_id, param_id, obstime, original, corrected, status FROM %s WHERE %s
		ORDER BY station_id, param_id, obstime`, quoteTableName(observationsTable, ss.backend), strings.Join(where, " AND "))
	return ss.queryObservations(ctx, query, args...)
}

// Observations returns one series inside r.
func (ss *SeriesStoreImpl) Observations(ctx context.Context, station, param int, r schema.TimeRange) ([]schema.Observation, error) {
	if ss.disabled() {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT station_id, param_id, obstime, original, corrected, status FROM %s
		WHERE station_id = ? AND param_id = ? AND obstime >= ? AND obstime <= ? ORDER BY obstime`,
		quoteTableName(observationsTable, ss.backend))
	return ss.queryObservations(ctx, query, station, param, formatObsTime(r.Start, ss.backend), formatObsTime(r.End, ss.backend))
}

func (ss *SeriesStoreImpl) queryObservations(ctx context.Context, query string, args ...any) ([]schema.Observation, error) {
	rows, err := ss.db.QueryContext(ctx, rebind(ss.backend, query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query observations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.Observation
	for rows.Next() {
		var obs schema.Observation
		var status string
		if err := rows.Scan(&obs.StationID, &obs.ParamID, timeValue{t: &obs.ObsTime}, &obs.Original, &obs.Corrected, &status); err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}
		obs.Status = schema.ObservationStatus(status)
		results = append(results, obs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating observations: %w", err)
	}
	return results, nil
}

// ModelValues returns the model series inside r.
func (ss *SeriesStoreImpl) ModelValues(ctx context.Context, station, param int, r schema.TimeRange) ([]schema.ModelValue, error) {
	if ss.disabled() {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT station_id, param_id, obstime, model_value FROM %s
		WHERE station_id = ? AND param_id = ? AND obstime >= ? AND obstime <= ? ORDER BY obstime`,
		quoteTableName(modelTable, ss.backend))

	rows, err := ss.db.QueryContext(ctx, rebind(ss.backend, query), station, param, formatObsTime(r.Start, ss.backend), formatObsTime(r.End, ss.backend))
	if err != nil {
		return nil, fmt.Errorf("failed to query model values: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.ModelValue
	for rows.Next() {
		var mv schema.ModelValue
		if err := rows.Scan(&mv.StationID, &mv.ParamID, timeValue{t: &mv.ObsTime}, &mv.Value); err != nil {
			return nil, fmt.Errorf("failed to scan model value: %w", err)
		}
		results = append(results, mv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating model values: %w", err)
	}
	return results, nil
}

// Neighbors returns the neighbor correlations of a series ordered by rank.
func (ss *SeriesStoreImpl) Neighbors(ctx context.Context, station, param int, maxSigma float64) ([]schema.NeighborCorrelation, error) {
	if ss.disabled() {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT station_id, param_id, neighbor_id, neighbor_rank, corr_offset, corr_slope, corr_sigma FROM %s
		WHERE station_id = ? AND param_id = ?`, quoteTableName(neighborsTable, ss.backend))
	args := []any{station, param}
	if maxSigma > 0 {
		query += " AND corr_sigma <= ?"
		args = append(args, maxSigma)
	}
	query += " ORDER BY neighbor_rank, neighbor_id"

	rows, err := ss.db.QueryContext(ctx, rebind(ss.backend, query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query neighbors: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.NeighborCorrelation
	for rows.Next() {
		var nc schema.NeighborCorrelation
		if err := rows.Scan(&nc.StationID, &nc.ParamID, &nc.NeighborID, &nc.Rank, &nc.Offset, &nc.Slope, &nc.Sigma); err != nil {
			return nil, fmt.Errorf("failed to scan neighbor: %w", err)
		}
		results = append(results, nc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating neighbors: %w", err)
	}
	return results, nil
}

// ApplyUpdates writes status transitions and corrected values in one transaction.
func (ss *SeriesStoreImpl) ApplyUpdates(ctx context.Context, updates []schema.ObservationUpdate) error {
	if ss.disabled() || len(updates) == 0 {
		return nil
	}

	table := quoteTableName(observationsTable, ss.backend)
	valueQuery := rebind(ss.backend, fmt.Sprintf(`UPDATE %s SET corrected = ?, status = ?
		WHERE station_id = ? AND param_id = ? AND obstime = ?`, table))
	statusQuery := rebind(ss.backend, fmt.Sprintf(`UPDATE %s SET status = ?
		WHERE station_id = ? AND param_id = ? AND obstime = ?`, table))

	return ss.inTx(ctx, func(tx *sql.Tx) error {
		for _, u := range updates {
			if _, ok := schema.ValidObservationStatuses[u.Status]; !ok {
				return fmt.Errorf("invalid status %q for station %d param %d", u.Status, u.StationID, u.ParamID)
			}
			obsTime := formatObsTime(u.ObsTime, ss.backend)
			var err error
			if u.Corrected != nil {
				_, err = tx.ExecContext(ctx, valueQuery, *u.Corrected, string(u.Status), u.StationID, u.ParamID, obsTime)
			} else {
				_, err = tx.ExecContext(ctx, statusQuery, string(u.Status), u.StationID, u.ParamID, obsTime)
			}
			if err != nil {
				return fmt.Errorf("failed to update station %d param %d at %s: %w", u.StationID, u.ParamID, u.ObsTime.Format(obsTimeLayout), err)
			}
		}
		return nil
	})
}

// PutObservations upserts observation rows.
func (ss *SeriesStoreImpl) PutObservations(ctx context.Context, rows []schema.Observation) error {
	if ss.disabled() || len(rows) == 0 {
		return nil
	}
	query := ss.getUpsertQuery(observationsTable,
		[]string{"station_id", "param_id", "obstime", "original", "corrected", "status"},
		[]string{"station_id", "param_id", "obstime"})

	return ss.inTx(ctx, func(tx *sql.Tx) error {
		for _, o := range rows {
			if _, ok := schema.ValidObservationStatuses[o.Status]; !ok {
				return fmt.Errorf("invalid status %q for station %d param %d", o.Status, o.StationID, o.ParamID)
			}
			if _, err := tx.ExecContext(ctx, query, o.StationID, o.ParamID, formatObsTime(o.ObsTime, ss.backend), o.Original, o.Corrected, string(o.Status)); err != nil {
				return fmt.Errorf("failed to store observation: %w", err)
			}
		}
		return nil
	})
}

// PutModelValues upserts model rows.
func (ss *SeriesStoreImpl) PutModelValues(ctx context.Context, rows []schema.ModelValue) error {
	if ss.disabled() || len(rows) == 0 {
		return nil
	}
	query := ss.getUpsertQuery(modelTable,
		[]string{"station_id", "param_id", "obstime", "model_value"},
		[]string{"station_id", "param_id", "obstime"})

	return ss.inTx(ctx, func(tx *sql.Tx) error {
		for _, m := range rows {
			if _, err := tx.ExecContext(ctx, query, m.StationID, m.ParamID, formatObsTime(m.ObsTime, ss.backend), m.Value); err != nil {
				return fmt.Errorf("failed to store model value: %w", err)
			}
		}
		return nil
	})
}

// PutNeighbors upserts neighbor correlations.
func (ss *SeriesStoreImpl) PutNeighbors(ctx context.Context, rows []schema.NeighborCorrelation) error {
	if ss.disabled() || len(rows) == 0 {
		return nil
	}
	query := ss.getUpsertQuery(neighborsTable,
		[]string{"station_id", "param_id", "neighbor_id", "neighbor_rank", "corr_offset", "corr_slope", "corr_sigma"},
		[]string{"station_id", "param_id", "neighbor_id"})

	return ss.inTx(ctx, func(tx *sql.Tx) error {
		for _, n := range rows {
			if _, err := tx.ExecContext(ctx, query, n.StationID, n.ParamID, n.NeighborID, n.Rank, n.Offset, n.Slope, n.Sigma); err != nil {
				return fmt.Errorf("failed to store neighbor: %w", err)
			}
		}
		return nil
	})
}

// getUpsertQuery returns the UPSERT query for the backend.
func (ss *SeriesStoreImpl) getUpsertQuery(table string, columns, keys []string) string {
	var updates []string
	for _, c := range columns {
		if !slices.Contains(keys, c) {
			updates = append(updates, c)
		}
	}

	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteTableName(table, ss.backend), strings.Join(columns, ", "), placeholders(len(columns)))

	set := make([]string, len(updates))
	switch ss.backend {
	case schema.MySQLBackend:
		for i, c := range updates {
			set[i] = fmt.Sprintf("%s = new.%s", c, c)
		}
		return insert + " AS new ON DUPLICATE KEY UPDATE " + strings.Join(set, ", ")

	default: // SQLite and PostgreSQL
		for i, c := range updates {
			set[i] = fmt.Sprintf("%s = excluded.%s", c, c)
		}
		return rebind(ss.backend, insert+fmt.Sprintf(" ON CONFLICT (%s) DO UPDATE SET %s", strings.Join(keys, ", "), strings.Join(set, ", ")))
	}
}

// inTx runs fn inside a transaction, rolling back on error.
func (ss *SeriesStoreImpl) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := ss.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Close closes the underlying connection.
func (ss *SeriesStoreImpl) Close() error {
	if ss.db != nil {
		return ss.db.Close()
	}
	return nil
}

// GetStatus returns status information about the series store.
func (ss *SeriesStoreImpl) GetStatus() (schema.SeriesStatus, error) {
	status := schema.SeriesStatus{
		Backend:      string(ss.backend),
		Connected:    ss.db != nil,
		StatusCounts: make(map[string]int64),
		TableSizes:   make(map[string]int64),
	}
	if ss.disabled() {
		return status, nil
	}

	obs := quoteTableName(observationsTable, ss.backend)

	row := ss.db.QueryRow(fmt.Sprintf("SELECT COUNT(DISTINCT station_id), MIN(obstime), MAX(obstime) FROM %s", obs))
	if err := row.Scan(&status.Stations, timeValue{t: &status.OldestObsTime}, timeValue{t: &status.NewestObsTime}); err != nil {
		return status, fmt.Errorf("failed to get observation range: %w", err)
	}

	rows, err := ss.db.Query(fmt.Sprintf("SELECT status, COUNT(*) FROM %s GROUP BY status", obs))
	if err != nil {
		return status, fmt.Errorf("failed to get status counts: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var st string
		var count int64
		if err := rows.Scan(&st, &count); err != nil {
			return status, fmt.Errorf("failed to scan status count: %w", err)
		}
		status.StatusCounts[st] = count
		if schema.ObservationStatus(st).Pending() {
			status.PendingFillRows += count
		}
	}
	if err := rows.Err(); err != nil {
		return status, fmt.Errorf("error iterating status counts: %w", err)
	}

	for _, table := range seriesTables {
		var count int64
		if err := ss.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, ss.backend))).Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}

	return status, nil
}
