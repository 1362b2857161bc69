// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package core wires the engine together: configuration, time
// services and the resource pool everything else loads from.
package core

import (
	"context"
	"os"

	"github.com/devblok/korures/loaders"
	"github.com/devblok/korures/resource"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// NewLogger creates a logger as configured.
func NewLogger(cfg LogConfiguration) (*log.Logger, error) {
	logger := log.New()
	logger.SetOutput(os.Stderr)

	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	logger.SetLevel(level)

	switch cfg.Format {
	case "", "text":
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	case "json":
		logger.SetFormatter(&log.JSONFormatter{})
	default:
		return nil, errors.Errorf("unknown log format %q", cfg.Format)
	}
	return logger, nil
}

// NewEngine builds the resource pool and its loader chain from cfg.
// Locations listed for preloading are loaded and held until Close.
func NewEngine(cfg Configuration, fs afero.Fs) (*Engine, error) {
	logger, err := NewLogger(cfg.Log)
	if err != nil {
		return nil, errors.Wrap(err, "logger")
	}

	chain, err := loaders.FromConfiguration(cfg.Pool.Loaders, fs)
	if err != nil {
		return nil, err
	}
	if len(chain) == 0 {
		return nil, errors.Errorf("pool %s has no loaders configured", cfg.Pool.Name)
	}

	pool := resource.NewPool(cfg.Pool.Name)
	pool.SetLogger(logger)
	for _, l := range chain {
		pool.AddLoader(l)
	}

	engine := &Engine{
		cfg:  cfg,
		log:  logger,
		pool: pool,
	}

	for _, name := range cfg.Pool.Preload {
		idx := pool.AddFile(name)
		if _, err := pool.Get(idx, true); err != nil {
			engine.Close()
			return nil, errors.Wrapf(err, "preloading %s", name)
		}
		engine.preloaded = append(engine.preloaded, idx)
	}

	logger.WithFields(log.Fields{
		"pool":      pool.Name(),
		"loaders":   len(chain),
		"preloaded": len(engine.preloaded),
	}).Info("engine ready")
	return engine, nil
}

// Engine owns the resource pool of a running program.
type Engine struct {
	cfg  Configuration
	log  *log.Logger
	pool *resource.Pool

	preloaded []int
}

// Pool returns the resource pool of the engine.
func (e *Engine) Pool() *resource.Pool {
	return e.pool
}

// Logger returns the logger the engine and its pool report to.
func (e *Engine) Logger() *log.Logger {
	return e.log
}

// Run logs pool statistics periodically until ctx is done.
func (e *Engine) Run(ctx context.Context) error {
	t := NewTime(e.cfg.Time)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.Statistics():
			e.pool.LogStatistics()
		}
	}
}

// Close releases preloaded resources and closes the pool.
func (e *Engine) Close() error {
	var result error
	for _, idx := range e.preloaded {
		if err := e.pool.Release(idx, true); err != nil {
			result = multierror.Append(result, err)
		}
	}
	e.preloaded = nil

	if err := e.pool.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	return result
}
