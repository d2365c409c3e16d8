// Copyright (c) 2026, the AppForge contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package registry discovers and loads add-on descriptors from a catalog
// directory. Every sub-directory of the catalog is one add-on, identified by
// its directory name, holding a required addon.yaml descriptor, an optional
// package.json manifest contribution, an optional README.md documentation
// fragment and an optional assets/ file tree.
//
// Descriptors are validated against an embedded JSON schema when loaded. A
// single malformed entry fails the whole load so a partial catalog can never
// silently hide add-ons from a selection prompt.
package registry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/appforge-io/appforge/manifest"
	"gopkg.in/yaml.v3"
)

// Phase is an add-on's ordering bucket. All setup phase add-ons are composed
// before any add-on phase add-on.
type Phase string

const (
	PhaseSetup Phase = "setup"
	PhaseAddOn Phase = "add-on"
)

const (
	descriptorFile   = "addon.yaml"
	contributionFile = "package.json"
	readmeFile       = "README.md"
	assetsDir        = "assets"
)

// Route is a route contribution an add-on declares for the generated app.
type Route struct {
	URL  string `yaml:"url" json:"url"`
	Name string `yaml:"name" json:"name"`
}

// AddOn is a loaded add-on descriptor. Instances are immutable once loaded.
type AddOn struct {
	Name             string   `yaml:"name" json:"name"`
	Description      string   `yaml:"description" json:"description"`
	Phase            Phase    `yaml:"phase" json:"phase"`
	Routes           []Route  `yaml:"routes" json:"routes"`
	Main             string   `yaml:"main,omitempty" json:"main,omitempty"`
	Layout           string   `yaml:"layout,omitempty" json:"layout,omitempty"`
	UserUI           string   `yaml:"userUi,omitempty" json:"userUi,omitempty"`
	ShadcnComponents []string `yaml:"shadcnComponents,omitempty" json:"shadcnComponents,omitempty"`
	Warning          string   `yaml:"warning,omitempty" json:"warning,omitempty"`
	Command          string   `yaml:"command,omitempty" json:"command,omitempty"`

	// ID is derived from the catalog directory name, unique within a run
	ID string `yaml:"-" json:"id"`
	// Directory is the absolute catalog entry directory
	Directory string `yaml:"-" json:"-"`
	// AssetsDirectory is the add-on file tree, empty when it has none
	AssetsDirectory string `yaml:"-" json:"-"`
	// Contribution is the optional manifest contribution, nil when absent
	Contribution *manifest.Fragment `yaml:"-" json:"-"`
	// Readme is the optional documentation fragment
	Readme string `yaml:"-" json:"-"`
}

// LoadError indicates a malformed catalog entry. The whole load fails on the
// first malformed entry, partial catalogs are not tolerated.
type LoadError struct {
	Entry string
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("invalid add-on %q: %v", e.Entry, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Registry reads add-ons from a catalog directory. It holds no state between
// calls, the catalog is re-read and re-validated on every load.
type Registry struct {
	dir string
}

// Open creates a registry for the catalog at dir.
func Open(dir string) (*Registry, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog %s: %v", dir, err)
	}

	_, err = os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("cannot read catalog: %w", err)
	}

	return &Registry{dir: abs}, nil
}

// AddOns loads every add-on in the catalog in directory order, which is
// stable across runs on the same catalog.
func (r *Registry) AddOns() ([]*AddOn, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("cannot read catalog: %w", err)
	}

	var addons []*AddOn
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		addon, err := r.load(entry.Name())
		if err != nil {
			return nil, err
		}
		addons = append(addons, addon)
	}

	return addons, nil
}

// AddOn loads a single add-on by id.
func (r *Registry) AddOn(id string) (*AddOn, error) {
	info, err := os.Stat(filepath.Join(r.dir, id))
	if err != nil || !info.IsDir() {
		return nil, &LoadError{Entry: id, Err: fmt.Errorf("not in catalog")}
	}

	return r.load(id)
}

func (r *Registry) load(id string) (*AddOn, error) {
	dir := filepath.Join(r.dir, id)

	data, err := os.ReadFile(filepath.Join(dir, descriptorFile))
	if err != nil {
		return nil, &LoadError{Entry: id, Err: fmt.Errorf("missing descriptor: %w", err)}
	}

	err = validateDescriptor(data)
	if err != nil {
		return nil, &LoadError{Entry: id, Err: err}
	}

	addon := &AddOn{}
	err = yaml.Unmarshal(data, addon)
	if err != nil {
		return nil, &LoadError{Entry: id, Err: err}
	}

	addon.ID = id
	addon.Directory = dir

	assets := filepath.Join(dir, assetsDir)
	if info, err := os.Stat(assets); err == nil && info.IsDir() {
		addon.AssetsDirectory = assets
	}

	// absent contribution and documentation files are not errors
	addon.Contribution, err = manifest.LoadFragment(filepath.Join(dir, contributionFile))
	if err != nil {
		return nil, &LoadError{Entry: id, Err: err}
	}

	readme, err := os.ReadFile(filepath.Join(dir, readmeFile))
	if err == nil {
		addon.Readme = string(readme)
	}

	return addon, nil
}
