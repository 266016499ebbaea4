package app

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/vk/runwire/internal/fsutil"
	"github.com/vk/runwire/manifest"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	registry *manifest.Registry
	docs     []*manifest.Document
}

// New is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and registry.
// When no modules are given, the built-in core modules register.
func New(outW io.Writer, cfg *Config, modules ...manifest.Module) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	logger.Debug("Logger configured successfully.")

	reg := manifest.NewRegistry()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All Go modules registered.", "count", len(modules))

	docs, err := loadDocuments(cfg.ManifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load manifests: %w", err)
	}
	logger.Debug("Manifests loaded.", "pipelines", len(docs))

	return &App{
		outW:     outW,
		logger:   logger,
		registry: reg,
		docs:     docs,
	}, nil
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *manifest.Registry {
	return a.registry
}

// loadDocuments reads every pipeline document under path: a single manifest
// file, or every .hcl/.yaml/.yml file below a directory.
func loadDocuments(path string) ([]*manifest.Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	files := []string{path}
	if info.IsDir() {
		files, err = fsutil.FindFilesByExtensions(path, ".hcl", ".yaml", ".yml")
		if err != nil {
			return nil, err
		}
	}

	var docs []*manifest.Document
	for _, file := range files {
		parsed, err := manifest.Load(file)
		if err != nil {
			return nil, err
		}
		docs = append(docs, parsed...)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("no pipeline documents found under %s", path)
	}
	return docs, nil
}

// selectDocument picks the pipeline to run. An empty name is allowed only
// when exactly one pipeline is loaded.
func (a *App) selectDocument(name string) (*manifest.Document, error) {
	if name == "" {
		if len(a.docs) == 1 {
			return a.docs[0], nil
		}
		return nil, fmt.Errorf("multiple pipelines loaded (%s); pick one with --pipeline", strings.Join(a.pipelineNames(), ", "))
	}
	for _, doc := range a.docs {
		if doc.Name == name {
			return doc, nil
		}
	}
	return nil, fmt.Errorf("no pipeline named %q (loaded: %s)", name, strings.Join(a.pipelineNames(), ", "))
}

func (a *App) pipelineNames() []string {
	names := make([]string, 0, len(a.docs))
	for _, doc := range a.docs {
		names = append(names, doc.Name)
	}
	sort.Strings(names)
	return names
}
