/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/valpere/mojify/internal/engine"
	"github.com/valpere/mojify/internal/language"
	"github.com/valpere/mojify/internal/mojify"
	"github.com/valpere/mojify/internal/splitter"
	"github.com/valpere/mojify/internal/store"
	"github.com/valpere/mojify/internal/translation"
	"github.com/valpere/mojify/internal/translator"
)

var detector *language.Detector

// languageDetector builds the detector on first use.
func languageDetector() *language.Detector {
	if detector == nil {
		detector = language.NewDetector()
	}
	return detector
}

// resolveLang returns lang, or the language detected in text when lang is
// "auto".
func resolveLang(lang, text, label string) (string, error) {
	if lang != "auto" {
		return lang, nil
	}
	detected, ok := languageDetector().DetectISO(text)
	if !ok {
		return "", fmt.Errorf("could not detect the language of %s, pass it explicitly", label)
	}
	fmt.Fprintf(os.Stderr, "Detected language of %s: %s\n", label, detected)
	return detected, nil
}

func readText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

func writeText(path, text string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// splitMethods builds the split methods of both texts from the config.
func splitMethods() (splitter.Method, splitter.Method, error) {
	s := cfg.Split
	from, err := splitter.New(s.MethodFrom, splitter.Options{
		PeriodMarks: s.MarksFrom,
		Surrogate:   s.Surrogate,
		Trim:        s.Trim,
		ModelDir:    s.ModelDir,
	})
	if err != nil {
		return nil, nil, err
	}
	to, err := splitter.New(s.MethodTo, splitter.Options{
		PeriodMarks: s.MarksTo,
		Surrogate:   s.Surrogate,
		Trim:        s.Trim,
		ModelDir:    s.ModelDir,
	})
	if err != nil {
		return nil, nil, err
	}
	return from, to, nil
}

func openStore() (*store.Store, error) {
	db, err := store.New(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// buildAdapter constructs the translation adapter from the config. db may
// be nil to run without translation memory.
func buildAdapter(db *store.Store) (*translation.Adapter, error) {
	t := cfg.Translation
	scfg := translator.ServiceConfig{
		Credentials: t.Credentials,
		APIKey:      t.APIKey,
		Model:       t.Model,
		BaseURL:     t.BaseURL,
		Email:       t.Email,
		Timeout:     time.Duration(t.TimeoutSeconds) * time.Second,
		ProjectID:   t.ProjectID,
	}
	svc, err := translator.New(t.Service, scfg)
	if err != nil {
		return nil, err
	}

	a := &translation.Adapter{
		Service: svc,
		Config:  scfg,
		Workers: t.Workers,
		Logger:  logger,
	}
	if db != nil && t.Cache {
		a.Cache = store.Cache{DB: db}
	}
	if isatty.IsTerminal(os.Stderr.Fd()) {
		var bar *progressbar.ProgressBar
		a.Progress = func(done, total int) {
			if bar == nil {
				bar = progressbar.NewOptions(total,
					progressbar.OptionSetWriter(os.Stderr),
					progressbar.OptionSetDescription("Translating"),
					progressbar.OptionShowCount(),
					progressbar.OptionClearOnFinish())
			}
			_ = bar.Set(done)
		}
	}
	return a, nil
}

func openEngine() (engine.Engine, error) {
	a := cfg.Alignment
	return engine.Open(a.Engine, engine.Options{
		Python: a.Python,
		Script: a.Script,
		Logger: logger,
	})
}

// loadPalette reads the configured palette. An empty path, or the default
// path when no such file exists, selects the built-in one.
func loadPalette() (*mojify.Palette, error) {
	path := cfg.Emojis
	if path == mojify.DefaultPath {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			logger.Debug("palette file not found, using built-in palette", zap.String("path", path))
			path = ""
		}
	}
	p, err := mojify.LoadPalette(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load emoji palette: %w", err)
	}
	return p, nil
}

// cacheFor returns db unless the translation memory is disabled.
func cacheFor(db *store.Store) *store.Store {
	if noCache || !cfg.Translation.Cache {
		return nil
	}
	return db
}

// openAdapter builds the adapter with the translation memory unless noCache
// is set or the cache is disabled in the config. The returned func closes
// the database.
func openAdapter(noCache bool) (*translation.Adapter, func(), error) {
	var db *store.Store
	if !noCache && cfg.Translation.Cache {
		var err error
		if db, err = openStore(); err != nil {
			return nil, nil, err
		}
	}
	closeFn := func() {
		if db != nil {
			db.Close()
		}
	}

	a, err := buildAdapter(db)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return a, closeFn, nil
}
