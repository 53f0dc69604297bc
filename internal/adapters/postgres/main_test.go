package postgres

import (
	"context"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"testing"

	"github.com/rs/zerolog"

	"SidraStore/internal/adapters/security"
	"SidraStore/internal/core/ports"
)

var (
	testDB     *DB
	testSecSvc ports.SecurityPort
)

// TestMain sets up a connection to the test database. The whole package
// is skipped when DATABASE_URL is not set.
func TestMain(m *testing.M) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		fmt.Println("DATABASE_URL not set, skipping postgres integration tests")
		os.Exit(0)
	}

	// 1. Set up logger
	nopLogger := zerolog.Nop()

	// 2. Set up Security Service
	key := os.Getenv("ENCRYPTION_KEY")
	if key == "" {
		// Any valid key works for tests.
		key = "000102030405060708090a0b0c0d0e0f000102030405060708090a0b0c0d0e0f"
	}
	keyBytes, err := hex.DecodeString(key)
	if err != nil {
		log.Fatalf("TestMain: invalid ENCRYPTION_KEY: %v", err)
	}
	testSecSvc, err = security.NewAESService(keyBytes, &nopLogger)
	if err != nil {
		log.Fatalf("TestMain: Failed to create security service: %v", err)
	}

	// 3. Set up DB Connection
	ctx := context.Background()
	testDB, err = NewDB(ctx, dbURL, &nopLogger)
	if err != nil {
		log.Fatalf("TestMain: Failed to connect to test database: %v", err)
	}
	if err := testDB.EnsureSchema(ctx); err != nil {
		log.Fatalf("TestMain: Failed to ensure schema: %v", err)
	}

	// 4. Run tests
	code := m.Run()

	// 5. Teardown
	testDB.Close()
	os.Exit(code)
}

// Helper to clean up a product after tests
func cleanupTestProduct(t *testing.T, id int) {
	t.Helper()
	if _, err := testDB.pool.Exec(t.Context(), "DELETE FROM products WHERE id = $1", id); err != nil {
		t.Logf("Warning: Failed to cleanup product %d: %v", id, err)
	}
}

// Helper to clean up an order (items cascade)
func cleanupTestOrder(t *testing.T, id int) {
	t.Helper()
	if _, err := testDB.pool.Exec(t.Context(), "DELETE FROM orders WHERE id = $1", id); err != nil {
		t.Logf("Warning: Failed to cleanup order %d: %v", id, err)
	}
}

// Helper to clean up a checkout record
func cleanupTestRecord(t *testing.T, visitorID string) {
	t.Helper()
	if _, err := testDB.pool.Exec(t.Context(), "DELETE FROM checkout_records WHERE visitor_id = $1", visitorID); err != nil {
		t.Logf("Warning: Failed to cleanup checkout record %s: %v", visitorID, err)
	}
}
