package app

import (
	"context"
	"fmt"
	"sort"

	"machpredict/internal/chart"
	"machpredict/internal/config"
	"machpredict/internal/form"
	"machpredict/internal/logger"
	"machpredict/internal/model"
	"machpredict/internal/schema"
	formhttp "machpredict/internal/transport/http/form"
)

type AppBuilder struct {
	cfg *config.Config

	tableFn    func(config.MaterialsConfig) (*schema.Table, error)
	registryFn func(context.Context, *schema.Table, config.ModelsConfig) (*model.Registry, map[string]error, error)
	httpFn     func(config.AppConfig, *form.Service, formhttp.StatusReporter) (*formhttp.Server, error)
}

type AppBuilderOption func(*AppBuilder)

// WithRegistryLoader replaces how the model registry is built and loaded.
func WithRegistryLoader(fn func(context.Context, *schema.Table, config.ModelsConfig) (*model.Registry, map[string]error, error)) AppBuilderOption {
	return func(b *AppBuilder) {
		if fn != nil {
			b.registryFn = fn
		}
	}
}

func NewAppBuilder(cfg *config.Config, opts ...AppBuilderOption) *AppBuilder {
	b := &AppBuilder{
		cfg:        cfg,
		tableFn:    buildTable,
		registryFn: loadRegistry,
		httpFn:     buildHTTPServer,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

func (b *AppBuilder) Build(ctx context.Context) (*App, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if b.cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	table, err := b.tableFn(b.cfg.Materials)
	if err != nil {
		return nil, fmt.Errorf("build tool table: %w", err)
	}
	registry, failures, err := b.registryFn(ctx, table, b.cfg.Models)
	if err != nil {
		return nil, fmt.Errorf("load models: %w", err)
	}
	if registry == nil {
		return nil, fmt.Errorf("load models: nil registry")
	}
	tools := make([]string, 0, len(failures))
	for tool := range failures {
		tools = append(tools, tool)
	}
	sort.Strings(tools)
	for _, tool := range tools {
		logger.Warnf("model for %s unavailable: %v", tool, failures[tool])
	}

	forms := form.NewService(table, registry)
	server, err := b.httpFn(b.cfg.App, forms, registry)
	if err != nil {
		return nil, fmt.Errorf("build http server: %w", err)
	}
	return &App{
		cfg:     b.cfg,
		table:   table,
		models:  registry,
		forms:   forms,
		http:    server,
		Summary: buildSummary(b.cfg, table, registry),
	}, nil
}

func buildTable(materials config.MaterialsConfig) (*schema.Table, error) {
	return schema.Default().WithMaterials(materials.Choices())
}

func loadRegistry(ctx context.Context, table *schema.Table, cfg config.ModelsConfig) (*model.Registry, map[string]error, error) {
	registry := model.NewRegistry(table, cfg.Dir, cfg.Files)
	failures, err := registry.LoadAll(ctx)
	if err != nil {
		return nil, nil, err
	}
	return registry, failures, nil
}

func buildHTTPServer(cfg config.AppConfig, forms *form.Service, models formhttp.StatusReporter) (*formhttp.Server, error) {
	return formhttp.NewServer(formhttp.ServerConfig{
		Addr:   cfg.HTTPAddr,
		Forms:  forms,
		Models: models,
		Charts: chart.RenderOutcome,
	})
}
