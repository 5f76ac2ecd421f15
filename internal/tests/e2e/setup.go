package e2e

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zaptest"

	"github.com/you/cookbookauth/internal/app"
	"github.com/you/cookbookauth/internal/config"
	testconfig "github.com/you/cookbookauth/internal/tests/config"
)

// TestSuite holds the E2E test infrastructure for one test
type TestSuite struct {
	Config    *config.Config
	Redis     *miniredis.Miniredis
	Container *app.Container
}

// NewTestSuite builds the full service over sqlite and miniredis.
// configure may adjust the config file before it is loaded.
func NewTestSuite(t *testing.T, configure func(f *config.ConfigFile)) *TestSuite {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	f := testconfig.TestConfigFile(t, mr.Addr())
	if configure != nil {
		configure(f)
	}
	cfg := testconfig.LoadTestConfig(t, f)

	c, err := app.NewContainer(context.Background(), cfg, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Failed to build container: %v", err)
	}
	t.Cleanup(func() { c.Close() })

	return &TestSuite{Config: cfg, Redis: mr, Container: c}
}
