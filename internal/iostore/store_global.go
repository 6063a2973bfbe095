package iostore

import (
	"database/sql"
	"fmt"
	"os"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/huangsam/stationqc/internal/contract"
	"github.com/huangsam/stationqc/schema"
)

// Global Manager instance for main logic.
var (
	Manager   = &StoreManager{}
	initOnce  sync.Once
	closeOnce sync.Once
)

// InitStores initializes the global manager with the series store and the run store.
// runsBackend can be empty to disable run tracking.
func InitStores(storeBackend schema.DatabaseBackend, storeConnStr string, runsBackend schema.DatabaseBackend, runsConnStr string) error {
	var initErr error

	initOnce.Do(func() {
		series, err := NewSeriesStore(storeBackend, storeConnStr)
		if err != nil {
			initErr = fmt.Errorf("failed to initialize series store: %w", err)
			return
		}

		var runs contract.RunStore
		if runsBackend != "" {
			runs, err = NewRunStore(runsBackend, runsConnStr)
			if err != nil {
				_ = series.Close()
				initErr = fmt.Errorf("failed to initialize run store: %w", err)
				return
			}
		}

		Manager.Lock()
		defer Manager.Unlock()
		Manager.series = series
		Manager.runs = runs
	})

	return initErr
}

// CloseStores should be called on application shutdown.
// It closes both stores and reports every close failure.
func CloseStores() error {
	var mErr *multierror.Error
	closeOnce.Do(func() {
		Manager.Lock()
		defer Manager.Unlock()
		if Manager.series != nil {
			if err := Manager.series.Close(); err != nil {
				mErr = multierror.Append(mErr, fmt.Errorf("unable to close series store: %w", err))
			}
		}
		if Manager.runs != nil {
			if err := Manager.runs.Close(); err != nil {
				mErr = multierror.Append(mErr, fmt.Errorf("unable to close run store: %w", err))
			}
		}
	})
	return mErr.ErrorOrNil()
}

// ClearSeries removes all series data for the specified backend.
// For SQLite, it deletes the database file.
// For SQL backends (MySQL/PostgreSQL), it drops the series tables.
// For NoneBackend, it does nothing.
func ClearSeries(backend schema.DatabaseBackend, dbFilePath, connStr string) error {
	return clearTables(backend, dbFilePath, connStr, seriesTables)
}

// ClearRuns removes all run tracking data for the specified backend.
// Migration bookkeeping is dropped along with the tables.
func ClearRuns(backend schema.DatabaseBackend, dbFilePath, connStr string) error {
	return clearTables(backend, dbFilePath, connStr, []string{runFillsTable, runsTable, "schema_migrations"})
}

func clearTables(backend schema.DatabaseBackend, dbFilePath, connStr string, tables []string) error {
	switch backend {
	case schema.SQLiteBackend:
		if dbFilePath == "" {
			return fmt.Errorf("dbFilePath cannot be empty for SQLite backend")
		}
		// Remove the file; ignore if it doesn't exist
		if err := os.Remove(dbFilePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove SQLite database file %s: %w", dbFilePath, err)
		}
		return nil

	case schema.MySQLBackend, schema.PostgreSQLBackend:
		driverName, _ := driverFor(backend)
		dsn := connStr
		if backend == schema.MySQLBackend {
			normalized, err := normalizeMySQLDSN(connStr)
			if err != nil {
				return fmt.Errorf("failed to parse MySQL connection string: %w", err)
			}
			dsn = normalized
		}
		for _, table := range tables {
			if err := clearSQLTable(driverName, dsn, quoteTableName(table, backend)); err != nil {
				return err
			}
		}
		return nil

	case schema.NoneBackend:
		return nil

	default:
		return fmt.Errorf("unsupported backend for clearing: %s", backend)
	}
}

// clearSQLTable connects to the SQL database and drops the table if it exists.
func clearSQLTable(driverName, connStr, tableName string) error {
	db, err := sql.Open(driverName, connStr)
	if err != nil {
		return fmt.Errorf("failed to connect to %s database: %w", driverName, err)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping %s database: %w", driverName, err)
	}

	query := fmt.Sprintf("DROP TABLE IF EXISTS %s", tableName)
	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("failed to drop table %s: %w", tableName, err)
	}
	return nil
}
