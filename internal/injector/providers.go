// Package injector assembles the runtime from a Config.
package injector

import (
	"os"

	"github.com/google/wire"
	"github.com/zeusync/nodetree/internal/config"
	"github.com/zeusync/nodetree/internal/core/events/bus"
	"github.com/zeusync/nodetree/internal/core/loop"
	"github.com/zeusync/nodetree/internal/core/nodes"
	"github.com/zeusync/nodetree/internal/core/observability/log"
	"github.com/zeusync/nodetree/internal/core/props"
	"github.com/zeusync/nodetree/internal/core/resource"
	"github.com/zeusync/nodetree/internal/core/scene"
	"github.com/zeusync/nodetree/internal/core/tree"
	"github.com/zeusync/nodetree/internal/server"
)

// App is everything a process needs to run a tree.
type App struct {
	Config    config.Config
	Logger    log.Log
	Bus       bus.EventBus
	Tree      *tree.Tree
	Catalog   *props.Catalog
	Resources *resource.Manager
	Scenes    *scene.Handler
	Loop      *loop.Loop
	// Inspector is nil unless enabled in the config.
	Inspector *server.Inspector
}

var ProviderSet = wire.NewSet(
	ProvideLogger,
	ProvideBus,
	ProvideTree,
	ProvideCatalog,
	ProvideResources,
	scene.NewHandler,
	ProvideLoop,
	ProvideInspector,
	wire.Struct(new(App), "*"),
)

func ProvideLogger(cfg config.Config) (log.Log, func(), error) {
	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	logger, err := log.New(log.Config{Level: level, Encoding: cfg.Log.Encoding})
	if err != nil {
		return nil, nil, err
	}
	return logger, func() { _ = logger.Sync() }, nil
}

func ProvideBus() bus.EventBus {
	return bus.New()
}

func ProvideTree(cfg config.Config, logger log.Log, eb bus.EventBus) (*tree.Tree, func(), error) {
	t, err := tree.Init(
		tree.WithLogger(logger),
		tree.WithEventBus(eb),
		tree.WithFixedStep(cfg.Loop.FixedStep()),
	)
	if err != nil {
		return nil, nil, err
	}
	return t, func() {
		if err := t.Close(); err != nil {
			logger.Warn("tree close failed", log.Error(err))
		}
	}, nil
}

// ProvideCatalog returns the process-wide default catalog.
func ProvideCatalog() (*props.Catalog, error) {
	return nodes.Catalog()
}

func ProvideResources(cfg config.Config, logger log.Log) (*resource.Manager, error) {
	m := resource.NewManager(os.DirFS(cfg.Resources.Root), logger)
	if err := nodes.RegisterLoaders(m); err != nil {
		return nil, err
	}
	return m, nil
}

func ProvideLoop(cfg config.Config, t *tree.Tree, logger log.Log) *loop.Loop {
	return loop.New(t, loop.Config{FrameRate: cfg.Loop.FrameRate}, logger)
}

func ProvideInspector(cfg config.Config, l *loop.Loop, scenes *scene.Handler, catalog *props.Catalog, eb bus.EventBus, logger log.Log) (*server.Inspector, func(), error) {
	if !cfg.Inspector.Enabled {
		return nil, func() {}, nil
	}
	sc := server.DefaultConfig()
	sc.Addr = cfg.Inspector.Addr
	sc.Token = cfg.Inspector.Token
	insp, err := server.New(sc, l, scenes, catalog, eb, logger)
	if err != nil {
		return nil, nil, err
	}
	return insp, insp.Close, nil
}
