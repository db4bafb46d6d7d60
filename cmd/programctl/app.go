package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/SeuMarco/program/internal/config"
	"github.com/SeuMarco/program/internal/core"
	"github.com/SeuMarco/program/internal/logging"
	"github.com/SeuMarco/program/internal/menus"
	"github.com/SeuMarco/program/internal/templates"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"go.uber.org/zap"
)

// app holds the resources shared by one command invocation.
type app struct {
	cfg     config.Config
	logger  *zap.Logger
	store   core.SnapshotStore
	service *core.Service
	metrics *prometheus.Registry
}

type openFunc func(ctx context.Context, envFile string) (*app, error)

func openApp(ctx context.Context, envFile string) (*app, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return nil, err
	}
	store, err := core.OpenPersistentStore(cfg.Storage, core.NewDefaultRulesEngine())
	if err != nil {
		return nil, errors.Wrapf(err, "open %s store", cfg.Storage.Driver)
	}
	a, err := newApp(ctx, cfg, logger, store)
	if err != nil {
		if c, ok := store.(io.Closer); ok {
			_ = c.Close()
		}
		return nil, err
	}
	return a, nil
}

// newApp wires the service over store with a fresh metrics registry.
func newApp(ctx context.Context, cfg config.Config, logger *zap.Logger, store core.SnapshotStore) (*app, error) {
	registry := prometheus.NewRegistry()
	service, err := core.NewService(ctx, store,
		core.WithLogger(logger),
		core.WithMetrics(menus.NewMetrics(registry)),
	)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, logger: logger, store: store, service: service, metrics: registry}, nil
}

func (a *app) close() error {
	metricsErr := a.exportMetrics()
	_ = a.logger.Sync()
	if c, ok := a.store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			return err
		}
	}
	return metricsErr
}

// exportMetrics writes the registry in the Prometheus text format to the
// configured metrics file.
func (a *app) exportMetrics() error {
	if a.cfg.MetricsFile == "" || a.metrics == nil {
		return nil
	}
	families, err := a.metrics.Gather()
	if err != nil {
		return errors.Wrap(err, "gather metrics")
	}
	var buf bytes.Buffer
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(&buf, mf); err != nil {
			return errors.Wrap(err, "encode metrics")
		}
	}
	return errors.Wrapf(os.WriteFile(a.cfg.MetricsFile, buf.Bytes(), 0o600), "write metrics %s", a.cfg.MetricsFile)
}

// catalog loads the configured template catalog, or the embedded default.
func (a *app) catalog(path string) (templates.Catalog, error) {
	if path == "" {
		path = a.cfg.TemplateCatalog
	}
	if path == "" {
		return templates.DefaultCatalog()
	}
	return templates.LoadCatalogFile(path)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
