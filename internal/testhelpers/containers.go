//go:build integration

package testhelpers

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

const PostgresImage = "postgres:16-alpine"

// SeedSQL creates a small shop schema: users, orders referencing users,
// employees referencing themselves and a table with no relationships.
const SeedSQL = `
CREATE TABLE users (
	id SERIAL PRIMARY KEY,
	email TEXT NOT NULL,
	name TEXT
);
CREATE TABLE orders (
	id SERIAL PRIMARY KEY,
	user_id INTEGER REFERENCES users(id),
	status TEXT NOT NULL,
	total NUMERIC(10, 2),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE employees (
	id SERIAL PRIMARY KEY,
	manager_id INTEGER REFERENCES employees(id),
	name TEXT NOT NULL
);
CREATE TABLE settings (
	key TEXT PRIMARY KEY,
	value TEXT
);

INSERT INTO users (email, name) VALUES
	('ada@example.com', 'Ada'),
	('grace@example.com', 'Grace'),
	('linus@example.com', NULL);

INSERT INTO orders (user_id, status, total)
SELECT 1 + (g % 3), CASE WHEN g % 2 = 0 THEN 'open' ELSE 'shipped' END, g * 1.5
FROM generate_series(1, 25) AS g;

INSERT INTO employees (manager_id, name) VALUES (NULL, 'Boss'), (1, 'Worker');
`

// TestDB is a shared PostgreSQL container seeded with SeedSQL.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

var (
	sharedTestDB     *TestDB
	sharedTestDBOnce sync.Once
	sharedTestDBErr  error
)

// GetTestDB returns the shared container, starting it on first use.
func GetTestDB(t *testing.T) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	sharedTestDBOnce.Do(func() {
		sharedTestDB, sharedTestDBErr = setupTestDB()
	})

	if sharedTestDBErr != nil {
		t.Fatalf("Failed to setup test database: %v", sharedTestDBErr)
	}

	return sharedTestDB
}

func setupTestDB() (*TestDB, error) {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		PostgresImage,
		postgres.WithUsername("tester"),
		postgres.WithPassword("tester"),
		postgres.WithDatabase("shop"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start test container: %w", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = testcontainers.TerminateContainer(container)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		_ = testcontainers.TerminateContainer(container)
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = pool.Ping(ctx); err == nil {
			break
		}
		time.Sleep(500 * time.Millisecond)
	}
	if err != nil {
		pool.Close()
		_ = testcontainers.TerminateContainer(container)
		return nil, fmt.Errorf("database never became ready: %w", err)
	}

	if _, err := pool.Exec(ctx, SeedSQL); err != nil {
		pool.Close()
		_ = testcontainers.TerminateContainer(container)
		return nil, fmt.Errorf("failed to seed database: %w", err)
	}
	if _, err := pool.Exec(ctx, "ANALYZE"); err != nil {
		pool.Close()
		_ = testcontainers.TerminateContainer(container)
		return nil, fmt.Errorf("failed to analyze: %w", err)
	}

	return &TestDB{
		Container: container,
		Pool:      pool,
		ConnStr:   connStr,
	}, nil
}
