package postgres

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// testPool is shared by all tests in this package. It stays nil when no
// container runtime is available, and the tests skip.
var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	os.Exit(run(m))
}

func run(m *testing.M) int {
	ctx := context.Background()

	log.Println("Setting up PostgreSQL container...")
	pgContainer, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("timeline-test"),
		tcpostgres.WithUsername("user"),
		tcpostgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		log.Printf("postgres container unavailable, repository tests will be skipped: %v", err)
		return m.Run()
	}
	defer func() {
		if err := testcontainers.TerminateContainer(pgContainer); err != nil {
			log.Printf("could not terminate postgres container: %v", err)
		}
	}()

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		log.Printf("could not get connection string: %v", err)
		return 1
	}

	// postgres -> secondary -> adapters -> internal -> project root
	migrationsPath, err := filepath.Abs("../../../../migrations")
	if err != nil {
		log.Printf("could not find migrations directory: %v", err)
		return 1
	}
	if err := Migrate("file://"+migrationsPath, connStr); err != nil {
		log.Printf("%v", err)
		return 1
	}

	testPool, err = Connect(ctx, PoolConfig{URL: connStr, MaxConns: 5})
	if err != nil {
		log.Printf("could not create connection pool: %v", err)
		return 1
	}
	defer testPool.Close()

	return m.Run()
}

func requirePool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testPool == nil {
		t.Skip("postgres container not available")
	}
	return testPool
}

func truncate(t *testing.T, tables ...string) {
	t.Helper()
	for _, table := range tables {
		_, err := testPool.Exec(context.Background(), "TRUNCATE "+table+" RESTART IDENTITY CASCADE")
		if err != nil {
			t.Fatalf("truncate %s: %v", table, err)
		}
	}
}
