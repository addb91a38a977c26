package integration

import (
	"context"
	"net/http"
	"testing"
	"time"

	"veriscan/internal/archive"
	"veriscan/internal/config"
	"veriscan/internal/database"
	"veriscan/internal/handler"
	"veriscan/internal/identifier"
	"veriscan/internal/ledger"
	"veriscan/internal/model"
	"veriscan/internal/registry"
	"veriscan/internal/router"
	"veriscan/internal/scan"
	"veriscan/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const testAPIKey = "test-api-key"

var (
	adminAddr = model.MustParseAddress("0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359")
	mfrAddr   = model.MustParseAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
}

// SetupTestDB creates a PostgreSQL test container and connection pool.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := postgresContainer.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get container host: %v", err)
	}
	port, err := postgresContainer.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("failed to get container port: %v", err)
	}

	pool, err := database.NewPool(ctx, config.DatabaseConfig{
		Host:            host,
		Port:            port.Int(),
		User:            "testuser",
		Password:        "testpass",
		Database:        "testdb",
		MaxConnections:  10,
		MinConnections:  2,
		MaxConnLifetime: 300,
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}
	t.Cleanup(pool.Close)

	return &TestDB{Container: postgresContainer, Pool: pool}
}

// Stack is a running API over a PostgreSQL-backed ledger node.
type Stack struct {
	Handler      http.Handler
	Node         *ledger.Node
	Verification service.VerificationService
}

// NewStack starts a node over the shared database and wires the HTTP API in front of it.
// Several stacks over one database behave like independent API replicas.
func NewStack(t *testing.T, testDB *TestDB) *Stack {
	t.Helper()

	ctx := context.Background()
	logger := zerolog.Nop()

	store, err := ledger.NewPostgresStore(ctx, testDB.Pool, logger)
	if err != nil {
		t.Fatalf("failed to create ledger store: %v", err)
	}

	node := ledger.NewNode(store, ledger.NewRegistryContract(adminAddr), ledger.NodeConfig{}, logger)
	client := registry.NewClient(node, registry.DefaultConfig(), logger)

	verification := service.NewVerificationService(client, scan.NewScanner(5*time.Second, logger), 5*time.Second, logger)
	t.Cleanup(func() {
		verification.Wait()
		node.Close()
	})

	registration := service.NewRegistrationService(
		client,
		identifier.Default(),
		archive.NewFileArchive(t.TempDir(), logger),
		256,
		logger,
	)

	return &Stack{
		Handler: router.New(router.Handlers{
			Product:      handler.NewProductHandler(registration, logger),
			Manufacturer: handler.NewManufacturerHandler(service.NewManufacturerService(client, logger), logger),
			Verification: handler.NewVerificationHandler(verification, logger),
		}, testAPIKey, logger),
		Node:         node,
		Verification: verification,
	}
}

// CleanupDB removes all ledger state.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	if _, err := pool.Exec(context.Background(), "TRUNCATE ledger_state, ledger_blocks CASCADE"); err != nil {
		t.Logf("failed to clean ledger tables: %v", err)
	}
}
