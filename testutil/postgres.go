// Package testutil provides shared test utilities for dbdelta.
package testutil

import (
	"context"
	"database/sql"
	"io"
	"log"
	"os"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

var suppressedLogger = log.New(io.Discard, "", 0)

// postgresVersion returns the PostgreSQL version to use for testing. It reads
// the DBDELTA_POSTGRES_VERSION environment variable, defaulting to "17".
func postgresVersion() string {
	if version := os.Getenv("DBDELTA_POSTGRES_VERSION"); version != "" {
		return version
	}
	return "17"
}

// PostgresContainer holds a running PostgreSQL test container and its
// connection details.
type PostgresContainer struct {
	Container testcontainers.Container
	Host      string
	Port      int
	Database  string
	User      string
	Password  string
	Conn      *sql.DB
}

// StartPostgres creates a new PostgreSQL test container. The caller owns the
// returned container and must Terminate it.
func StartPostgres(ctx context.Context, t *testing.T) *PostgresContainer {
	t.Helper()

	const (
		database = "testdb"
		user     = "testuser"
		password = "testpass"
	)

	container, err := postgres.Run(ctx,
		"postgres:"+postgresVersion()+"-alpine",
		postgres.WithDatabase(database),
		postgres.WithUsername(user),
		postgres.WithPassword(password),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
		testcontainers.WithLogger(suppressedLogger),
	)
	if err != nil {
		t.Fatalf("Failed to start container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("Failed to get connection string: %v", err)
	}
	conn, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	return &PostgresContainer{
		Container: container,
		Host:      host,
		Port:      port.Int(),
		Database:  database,
		User:      user,
		Password:  password,
		Conn:      conn,
	}
}

// MustExec runs each statement and fails the test on the first error.
func (pc *PostgresContainer) MustExec(ctx context.Context, t *testing.T, stmts ...string) {
	t.Helper()
	for _, stmt := range stmts {
		if _, err := pc.Conn.ExecContext(ctx, stmt); err != nil {
			t.Fatalf("exec %q: %v", stmt, err)
		}
	}
}

// Terminate cleans up the container and connection.
func (pc *PostgresContainer) Terminate(ctx context.Context, t *testing.T) {
	t.Helper()
	pc.Conn.Close()
	if err := pc.Container.Terminate(ctx); err != nil {
		t.Logf("Failed to terminate container: %v", err)
	}
}
