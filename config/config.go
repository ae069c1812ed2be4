// Copyright (c) 2026, Prismap Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config loads show files: TOML descriptions of the cameras
// and windows of a mapping setup, their attribute values, and the
// camera-to-window links. A watcher reapplies the file when it
// changes on disk, so a show can be tuned live.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"

	"github.com/prismap/prismap/values"
)

// debounceDelay coalesces the event bursts editors produce when
// saving a file.
const debounceDelay = 250 * time.Millisecond

// Show is one parsed show file.
type Show struct {
	Cameras []Object `toml:"cameras"`
	Windows []Object `toml:"windows"`
	Links   []Link   `toml:"links"`
}

// Object describes one camera or window: its name and the attribute
// values to apply to it.
type Object struct {
	Name       string         `toml:"name"`
	Attributes map[string]any `toml:"attributes"`
}

// Link connects a camera's output texture to a window input.
type Link struct {
	Camera string `toml:"camera"`
	Window string `toml:"window"`
}

// Load reads and parses a show file.
func Load(path string) (*Show, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Show
	if err := toml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Show) validate() error {
	seen := map[string]bool{}
	var errs []error
	for _, o := range append(append([]Object{}, s.Cameras...), s.Windows...) {
		if o.Name == "" {
			errs = append(errs, errors.New("config: object without a name"))
			continue
		}
		if seen[o.Name] {
			errs = append(errs, fmt.Errorf("config: duplicate object name %q", o.Name))
		}
		seen[o.Name] = true
	}
	for _, l := range s.Links {
		if l.Camera == "" || l.Window == "" {
			errs = append(errs, fmt.Errorf("config: incomplete link %q -> %q", l.Camera, l.Window))
		}
	}
	return errors.Join(errs...)
}

// Attributed is anything exposing an attribute registry.
type Attributed interface {
	Attributes() *values.Registry
}

// Apply sets every configured attribute on the named objects, in
// sorted attribute order per object. Unknown objects are an error;
// rejected attributes are logged and skipped.
func (s *Show) Apply(objects map[string]Attributed) error {
	var errs []error
	for _, o := range append(append([]Object{}, s.Cameras...), s.Windows...) {
		target, ok := objects[o.Name]
		if !ok {
			errs = append(errs, fmt.Errorf("config: no object %q", o.Name))
			continue
		}
		applyAttributes(o, target.Attributes())
	}
	return errors.Join(errs...)
}

func applyAttributes(o Object, reg *values.Registry) {
	names := make([]string, 0, len(o.Attributes))
	for name := range o.Attributes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		args, err := toValues(o.Attributes[name])
		if err != nil {
			slog.Warn("config: bad attribute value",
				"object", o.Name, "attribute", name, "err", err)
			continue
		}
		if !reg.Set(name, args) {
			slog.Warn("config: attribute rejected",
				"object", o.Name, "attribute", name)
		}
	}
}

// toValues converts a decoded TOML value to an argument list. A
// scalar becomes a one-element list.
func toValues(v any) (values.Values, error) {
	if list, ok := v.([]any); ok {
		out := make(values.Values, len(list))
		for i, e := range list {
			val, err := toValue(e)
			if err != nil {
				return nil, err
			}
			out[i] = val
		}
		return out, nil
	}
	val, err := toValue(v)
	if err != nil {
		return nil, err
	}
	return values.Values{val}, nil
}

func toValue(v any) (values.Value, error) {
	switch x := v.(type) {
	case float64:
		return values.Float(x), nil
	case int64:
		return values.Float(float64(x)), nil
	case bool:
		return values.Bool(x), nil
	case string:
		return values.String(x), nil
	case []any:
		nested, err := toValues(x)
		if err != nil {
			return values.Value{}, err
		}
		return values.ListOf(nested), nil
	}
	return values.Value{}, fmt.Errorf("unsupported value %T", v)
}

// Watch reloads the show file whenever it changes and hands the
// parsed result to apply. It blocks until the context is canceled.
// Parse failures keep the previous state and are logged.
func Watch(ctx context.Context, path string, apply func(*Show)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	debounce := time.NewTimer(time.Hour)
	debounce.Stop()
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			evAbs, _ := filepath.Abs(ev.Name)
			if evAbs != abs {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			debounce.Reset(debounceDelay)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("config: watch error", "path", path, "err", err)
		case <-debounce.C:
			show, err := Load(path)
			if err != nil {
				slog.Warn("config: reload failed", "path", path, "err", err)
				continue
			}
			slog.Info("config: show reloaded", "path", path)
			apply(show)
		}
	}
}
