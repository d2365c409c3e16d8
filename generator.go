// Copyright (c) 2026, the AppForge contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package appforge generates new application directories from a library of
// file templates. A generation run composes a base template tree, a language
// variant tree and a routing variant tree into the target directory, merges
// their manifest fragments into one deterministic package.json, and then
// composes the file assets and manifest contributions of any selected
// add-ons in two ordered phases.
package appforge

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/CloudyKit/jet/v6"
	"github.com/appforge-io/appforge/manifest"
	"github.com/appforge-io/appforge/registry"
	"github.com/kballard/go-shellquote"
)

// Language variants
const (
	LanguageTyped   = "typed"
	LanguageUntyped = "untyped"
)

// Routing modes
const (
	RouterCode = "code-router"
	RouterFile = "file-router"
)

// Names of the variant trees and fragment files under the template directory
const (
	baseTree     = "base"
	fragmentsDir = "fragments"
	baseManifest = "package.json"
	stylingName  = "styling"
	ignoreSource = "_gitignore"
	ignoreTarget = ".gitignore"
	readmeTarget = "README.md"
)

// Config configures one generation run. It is resolved and validated once at
// construction time and read-only thereafter.
type Config struct {
	// ProjectName names the generated project, it overrides the manifest name
	ProjectName string `yaml:"name"`
	// TargetDirectory is where the application is written, must not exist
	TargetDirectory string `yaml:"target"`
	// TemplateDirectory holds the base, variant and fragment sources
	TemplateDirectory string `yaml:"templates"`
	// CatalogDirectory holds the add-on catalog, required when AddOns is set
	CatalogDirectory string `yaml:"catalog"`
	// Language selects the typed or untyped language variant
	Language string `yaml:"language"`
	// Router selects the code-router or file-router routing mode
	Router string `yaml:"router"`
	// Styling enables the styling variant tree files and manifest fragment
	Styling bool `yaml:"styling"`
	// PackageManager is recorded in the template context, nothing more
	PackageManager string `yaml:"package_manager"`
	// AddOns are the selected add-on ids in selection order
	AddOns []string `yaml:"add_ons"`
	// Sets a custom template delimiter, useful for template-heavy targets
	CustomLeftDelimiter string `yaml:"left_delimiter"`
	// Sets a custom template delimiter, useful for template-heavy targets
	CustomRightDelimiter string `yaml:"right_delimiter"`
	// Formatter reformats rendered code files, nil disables the pass
	Formatter Formatter `yaml:"-"`
}

type Logger interface {
	Debugf(format string, v ...any)
	Infof(format string, v ...any)
}

// Generator performs one scaffold run.
type Generator struct {
	cfg      *Config
	engine   engineType
	funcs    template.FuncMap
	jetFuncs map[string]jet.Func
	log      Logger
	selected []*registry.AddOn
	warnings []string
	written  []string
}

// New creates a generator rendering templates with Go text/template.
func New(cfg Config, funcs template.FuncMap) (*Generator, error) {
	err := validateConfig(&cfg)
	if err != nil {
		return nil, err
	}

	return &Generator{cfg: &cfg, funcs: funcs}, nil
}

// NewJet creates a generator rendering templates with the Jet engine.
func NewJet(cfg Config, funcs map[string]jet.Func) (*Generator, error) {
	err := validateConfig(&cfg)
	if err != nil {
		return nil, err
	}

	return &Generator{cfg: &cfg, engine: engineJet, jetFuncs: funcs}, nil
}

func validateConfig(cfg *Config) error {
	if cfg.ProjectName == "" {
		return &ConfigurationError{Reason: "project name is required"}
	}

	if cfg.TargetDirectory == "" {
		return &ConfigurationError{Reason: "target is required"}
	}

	var err error
	cfg.TargetDirectory, err = filepath.Abs(cfg.TargetDirectory)
	if err != nil {
		return &ConfigurationError{Reason: fmt.Sprintf("invalid target %s: %v", cfg.TargetDirectory, err)}
	}

	if cfg.TemplateDirectory == "" {
		return &ConfigurationError{Reason: "template directory is required"}
	}

	cfg.TemplateDirectory, err = filepath.Abs(cfg.TemplateDirectory)
	if err != nil {
		return &ConfigurationError{Reason: fmt.Sprintf("invalid template directory: %v", err)}
	}

	_, err = os.Stat(filepath.Join(cfg.TemplateDirectory, baseTree))
	if err != nil {
		return &ConfigurationError{Reason: fmt.Sprintf("cannot read base template tree: %v", err)}
	}

	if cfg.Language == "" {
		cfg.Language = LanguageTyped
	}
	if cfg.Language != LanguageTyped && cfg.Language != LanguageUntyped {
		return &ConfigurationError{Reason: fmt.Sprintf("unknown language variant %q", cfg.Language)}
	}

	if cfg.Router == "" {
		cfg.Router = RouterCode
	}
	if cfg.Router != RouterCode && cfg.Router != RouterFile {
		return &ConfigurationError{Reason: fmt.Sprintf("unknown routing mode %q", cfg.Router)}
	}

	if len(cfg.AddOns) > 0 {
		if cfg.Router != RouterFile {
			return &ConfigurationError{Reason: "add-ons require the file-router routing mode"}
		}
		if cfg.CatalogDirectory == "" {
			return &ConfigurationError{Reason: "add-ons require a catalog directory"}
		}
	}

	return nil
}

// Logger configures a logger to use, no logging is done without this
func (g *Generator) Logger(log Logger) {
	g.log = log
}

// Warnings returns the advisory texts collected during the most recent run.
// Warnings never interrupt a run, they are surfaced once at the end.
func (g *Generator) Warnings() []string {
	return g.warnings
}

// WrittenFiles returns the files created or modified during the most recent
// run, relative to the target directory with forward slash separators.
func (g *Generator) WrittenFiles() []string {
	return g.written
}

// Generate performs the full scaffold run. The target directory must not
// exist. Any failure after the pre-flight check aborts the run immediately,
// leaving whatever was already written on disk.
func (g *Generator) Generate() error {
	g.warnings = nil
	g.written = nil
	g.selected = nil

	_, err := os.Stat(g.cfg.TargetDirectory)
	if err == nil {
		return &TargetExistsError{Path: g.cfg.TargetDirectory}
	}

	err = g.resolveAddOns()
	if err != nil {
		return err
	}

	data := g.templateData()

	err = os.MkdirAll(g.cfg.TargetDirectory, 0755)
	if err != nil {
		return err
	}

	for _, tree := range []string{baseTree, g.cfg.Language, g.cfg.Router} {
		err = g.composeTree(filepath.Join(g.cfg.TemplateDirectory, tree), data)
		if err != nil {
			return err
		}
	}

	err = g.writeManifest()
	if err != nil {
		return err
	}

	// setup phase add-ons materialize infrastructure the add-on phase may
	// append to, the order between the phases is load bearing
	for _, phase := range []registry.Phase{registry.PhaseSetup, registry.PhaseAddOn} {
		err = g.composeAddOns(phase, data)
		if err != nil {
			return err
		}
	}

	return g.finalize()
}

// resolveAddOns loads and validates the catalog and resolves the selected
// ids, in order, into descriptors. Selecting an unknown id is a
// configuration error.
func (g *Generator) resolveAddOns() error {
	if len(g.cfg.AddOns) == 0 {
		return nil
	}

	reg, err := registry.Open(g.cfg.CatalogDirectory)
	if err != nil {
		return err
	}

	available, err := reg.AddOns()
	if err != nil {
		return err
	}

	byID := make(map[string]*registry.AddOn, len(available))
	for _, a := range available {
		byID[a.ID] = a
	}

	for _, id := range g.cfg.AddOns {
		addon, ok := byID[id]
		if !ok {
			return &ConfigurationError{Reason: fmt.Sprintf("unknown add-on %q", id)}
		}
		g.selected = append(g.selected, addon)
	}

	return nil
}

// templateData builds the context exposed to every template in the run.
func (g *Generator) templateData() map[string]any {
	enabled := map[string]bool{}
	for _, addon := range g.selected {
		enabled[addon.ID] = true
	}

	return map[string]any{
		"ProjectName":    g.cfg.ProjectName,
		"TypeScript":     g.cfg.Language == LanguageTyped,
		"Styling":        g.cfg.Styling,
		"FileRouter":     g.cfg.Router == RouterFile,
		"CodeRouter":     g.cfg.Router == RouterCode,
		"PackageManager": g.cfg.PackageManager,
		"Enabled":        enabled,
		"AddOns":         g.selected,
	}
}

// writeManifest merges the base manifest with the variant fragments and the
// selected add-on contributions, in that order, and writes the result. The
// manifest name is always the project name.
func (g *Generator) writeManifest() error {
	base, err := manifest.Load(filepath.Join(g.cfg.TemplateDirectory, baseManifest))
	if err != nil {
		return err
	}

	names := []string{g.cfg.Language}
	if g.cfg.Styling {
		names = append(names, stylingName)
	}
	names = append(names, g.cfg.Router)

	var fragments []*manifest.Fragment
	for _, name := range names {
		f, err := manifest.LoadFragment(filepath.Join(g.cfg.TemplateDirectory, fragmentsDir, name+".json"))
		if err != nil {
			return err
		}
		fragments = append(fragments, f)
	}

	for _, addon := range g.selected {
		fragments = append(fragments, addon.Contribution)
	}

	merged := manifest.Merge(base, fragments...)
	merged.Name = g.cfg.ProjectName

	out, err := merged.Render()
	if err != nil {
		return err
	}

	err = g.saveFile(filepath.Join(g.cfg.TargetDirectory, baseManifest), out)
	if err != nil {
		return err
	}

	if g.log != nil {
		g.log.Infof("Wrote %s", baseManifest)
	}

	return nil
}

// composeAddOns composes the file assets of every selected add-on in the
// given phase, in selection order. An add-on's post-command runs after its
// own assets are composed and before the next add-on begins, so a command
// never observes a partially composed sibling.
func (g *Generator) composeAddOns(phase registry.Phase, data map[string]any) error {
	for _, addon := range g.selected {
		if addon.Phase != phase {
			continue
		}

		if g.log != nil {
			g.log.Infof("Composing add-on %s", addon.ID)
		}

		if addon.AssetsDirectory != "" {
			err := g.composeTree(addon.AssetsDirectory, data)
			if err != nil {
				return err
			}
		}

		if addon.Command != "" {
			err := g.runCommand(addon)
			if err != nil {
				return err
			}
		}

		if addon.Warning != "" {
			g.warnings = append(g.warnings, addon.Warning)
		}
	}

	return nil
}

func (g *Generator) runCommand(addon *registry.AddOn) error {
	parts, err := shellquote.Split(addon.Command)
	if err != nil {
		return fmt.Errorf("invalid command for add-on %s: %w", addon.ID, err)
	}
	if len(parts) == 0 {
		return fmt.Errorf("invalid command for add-on %s: empty command", addon.ID)
	}

	if g.log != nil {
		g.log.Infof("Running %s command: %s", addon.ID, addon.Command)
	}

	cmd := exec.Command(parts[0], parts[1:]...)
	cmd.Dir = g.cfg.TargetDirectory

	out, err := cmd.CombinedOutput()
	if len(out) > 0 && g.log != nil {
		g.log.Infof("%s", out)
	}
	if err != nil {
		return fmt.Errorf("add-on %s command failed\nerror: %w\noutput: %q", addon.ID, err, out)
	}

	return nil
}

// finalize performs the end of run bookkeeping: the ignore file rename and
// the README assembly from the selected add-ons' documentation fragments.
func (g *Generator) finalize() error {
	ignore := filepath.Join(g.cfg.TargetDirectory, ignoreSource)
	if _, err := os.Stat(ignore); err == nil {
		err = os.Rename(ignore, filepath.Join(g.cfg.TargetDirectory, ignoreTarget))
		if err != nil {
			return err
		}

		for i, f := range g.written {
			if f == ignoreSource {
				g.written[i] = ignoreTarget
			}
		}
	}

	var docs []string
	for _, addon := range g.selected {
		if addon.Readme != "" {
			docs = append(docs, strings.TrimRight(addon.Readme, "\n"))
		}
	}

	if len(docs) > 0 {
		readme := filepath.Join(g.cfg.TargetDirectory, readmeTarget)

		existing, err := os.ReadFile(readme)
		if err != nil && !os.IsNotExist(err) {
			return err
		}

		content := strings.TrimRight(string(existing), "\n")
		for _, d := range docs {
			if content != "" {
				content += "\n\n"
			}
			content += d
		}

		err = g.saveFile(readme, []byte(content+"\n"))
		if err != nil {
			return err
		}
	}

	if g.log != nil {
		for _, w := range g.warnings {
			g.log.Infof("Warning: %s", w)
		}
	}

	return nil
}
