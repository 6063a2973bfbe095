//go:build database

package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestFillWithMySQL runs the fill flow with a MySQL backend.
func TestFillWithMySQL(t *testing.T) {
	ctx := context.Background()

	// Start MySQL container
	req := testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret123",
			"MYSQL_DATABASE":      "stationqc",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(60 * time.Second),
	}
	mysqlC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = mysqlC.Terminate(ctx) }()

	host, err := mysqlC.Host(ctx)
	require.NoError(t, err)
	port, err := mysqlC.MappedPort(ctx, "3306")
	require.NoError(t, err)

	connStr := fmt.Sprintf("root:secret123@tcp(%s:%s)/stationqc", host, port.Port())
	runDatabaseFlow(t, "mysql", connStr)
}

// TestFillWithPostgres runs the fill flow with a PostgreSQL backend.
func TestFillWithPostgres(t *testing.T) {
	ctx := context.Background()

	// Start Postgres container
	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = pgC.Terminate(ctx) }()

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connStr := fmt.Sprintf("host=%s port=%s user=postgres dbname=postgres sslmode=disable", host, port.Port())
	runDatabaseFlow(t, "postgresql", connStr)
}

// runDatabaseFlow points both stores at one server database and runs the scenario.
func runDatabaseFlow(t *testing.T, backend, connStr string) {
	t.Setenv("STATIONQC_STORE_BACKEND", backend)
	t.Setenv("STATIONQC_STORE_DB_CONNECT", connStr)
	t.Setenv("STATIONQC_RUNS_BACKEND", backend)
	t.Setenv("STATIONQC_RUNS_DB_CONNECT", connStr)

	_, err := runCommand(t, "runs", "migrate")
	require.NoError(t, err)

	runFillScenario(t)

	_, err = runCommand(t, "store", "status")
	require.NoError(t, err)
	_, err = runCommand(t, "runs", "status")
	require.NoError(t, err)

	_, err = runCommand(t, "runs", "clear")
	require.NoError(t, err)
	_, err = runCommand(t, "store", "clear")
	require.NoError(t, err)
}
