package injector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/nodetree/internal/config"
	"github.com/zeusync/nodetree/internal/core/nodes"
	"github.com/zeusync/nodetree/internal/core/tree"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Log.Level = "error"
	cfg.Resources.Root = t.TempDir()
	return cfg
}

func TestInitializeApp(t *testing.T) {
	cfg := testConfig(t)
	cfg.Loop.FixedRate = 100

	app, cleanup, err := InitializeApp(cfg)
	require.NoError(t, err)

	assert.Nil(t, app.Inspector)
	assert.InDelta(t, 0.01, app.Tree.FixedStep(), 1e-9)
	assert.Same(t, app.Bus, app.Tree.Bus())
	_, ok := app.Catalog.Table(nodes.TagCamera)
	assert.True(t, ok)
	shared, err := nodes.Catalog()
	require.NoError(t, err)
	assert.Same(t, shared, app.Catalog)

	_, err = tree.Init()
	assert.ErrorIs(t, err, tree.ErrTreeExists)

	cleanup()

	// The tree is closed, so a second app can start.
	_, cleanup, err = InitializeApp(cfg)
	require.NoError(t, err)
	cleanup()
}

func TestInitializeAppWithInspector(t *testing.T) {
	cfg := testConfig(t)
	cfg.Inspector.Enabled = true

	app, cleanup, err := InitializeApp(cfg)
	require.NoError(t, err)
	defer cleanup()
	assert.NotNil(t, app.Inspector)
}

func TestInitializeAppRejectsBadLevel(t *testing.T) {
	cfg := testConfig(t)
	cfg.Log.Level = "loud"

	_, _, err := InitializeApp(cfg)
	assert.Error(t, err)
}
