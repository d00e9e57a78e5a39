//go:build integration

package integration

import (
	"context"
	"os"
	"testing"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/creatorgraph/internal/config"
	"github.com/agenthands/creatorgraph/internal/driver"
)

// connect opens Memgraph from MEMGRAPH_* variables or skips the test.
func connect(t *testing.T) (*driver.MemgraphDriver, *config.Config) {
	t.Helper()
	_ = godotenv.Load("../../.env")

	if os.Getenv("MEMGRAPH_URI") == "" {
		t.Skip("Skipping integration test: MEMGRAPH_URI not set")
	}

	cfg := config.Default()
	cfg.ApplyEnv()
	cfg.Vector.Dimension = 64

	d, err := driver.NewMemgraphDriver(context.Background(), cfg.Memgraph.URI, cfg.Memgraph.User, cfg.Memgraph.Password, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close(context.Background()) })

	require.NoError(t, d.BuildIndices(context.Background()))
	return d, cfg
}
