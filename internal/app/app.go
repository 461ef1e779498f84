package app

import (
	"context"
	"fmt"

	"machpredict/internal/config"
	"machpredict/internal/form"
	"machpredict/internal/logger"
	"machpredict/internal/model"
	"machpredict/internal/schema"
	formhttp "machpredict/internal/transport/http/form"

	"golang.org/x/sync/errgroup"
)

// App wires the schema table, the model registry and the HTTP form surface.
type App struct {
	cfg     *config.Config
	table   *schema.Table
	models  *model.Registry
	forms   *form.Service
	http    *formhttp.Server
	Summary *StartupSummary
}

// NewApp builds the application from cfg without starting it.
func NewApp(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)
	return buildAppWithWire(context.Background(), cfg)
}

// Run serves HTTP, and watches model artifacts when enabled, until ctx ends.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}
	if a.http == nil {
		return fmt.Errorf("http server not initialized")
	}
	if a.Summary != nil {
		a.Summary.Print()
	}

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := a.http.Start(ctx); err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})
	if a.cfg.Models.Watch && a.models != nil {
		group.Go(func() error {
			if err := a.models.Watch(ctx); err != nil {
				logger.Warnf("model hot reload disabled: %v", err)
			}
			return nil
		})
	}
	return group.Wait()
}

// Forms exposes the submission service, e.g. for scripted predictions.
func (a *App) Forms() *form.Service {
	if a == nil {
		return nil
	}
	return a.forms
}

// Models exposes the model registry.
func (a *App) Models() *model.Registry {
	if a == nil {
		return nil
	}
	return a.models
}
