package config

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// ReferenceWatcher re-applies reference.yaml whenever its modification time
// moves forward. An edit that fails validation is skipped and the last good
// data stays in effect.
type ReferenceWatcher struct {
	path     string
	interval time.Duration
	apply    func(*ReferenceData) error
	logger   *zerolog.Logger
	lastMod  time.Time
}

func NewReferenceWatcher(cfg ReferenceConfig, logger *zerolog.Logger, apply func(*ReferenceData) error) *ReferenceWatcher {
	path := cfg.Path
	if path == "" {
		path = "configs/reference.yaml"
	}
	interval := cfg.WatchInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	l := logger.With().Str("component", "reference").Str("path", path).Logger()
	return &ReferenceWatcher{path: path, interval: interval, apply: apply, logger: &l}
}

// Load reads and applies the file once. Callers treat an error as fatal at start-up.
func (w *ReferenceWatcher) Load() error {
	info, err := os.Stat(w.path)
	if err != nil {
		return fmt.Errorf("stat reference data: %w", err)
	}
	if err := w.reload(); err != nil {
		return err
	}
	w.lastMod = info.ModTime()
	return nil
}

// Run polls the file until ctx is done.
func (w *ReferenceWatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.poll()
		}
	}
}

func (w *ReferenceWatcher) poll() {
	info, err := os.Stat(w.path)
	if err != nil {
		w.logger.Warn().Err(err).Msg("Reference data unavailable")
		return
	}
	if !info.ModTime().After(w.lastMod) {
		return
	}
	// Remember the attempt either way so a broken file is reported once per edit.
	w.lastMod = info.ModTime()
	if err := w.reload(); err != nil {
		w.logger.Error().Err(err).Msg("Reference data change rejected")
		return
	}
	w.logger.Info().Msg("Reference data reloaded")
}

func (w *ReferenceWatcher) reload() error {
	ref, err := LoadReference(w.path)
	if err != nil {
		return err
	}
	if w.apply == nil {
		return nil
	}
	if err := w.apply(ref); err != nil {
		return fmt.Errorf("apply reference data: %w", err)
	}
	return nil
}
