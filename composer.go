// Copyright (c) 2026, the AppForge contributors
//
// SPDX-License-Identifier: Apache-2.0

package appforge

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Source file name qualifiers, the naming contract between the template
// catalog and the composer.
const (
	templateQualifier = ".tmpl"
	appendQualifier   = ".append"
	stylingQualifier  = ".styled"
	partialsDir       = "_partials"
)

type fileRule int

const (
	ruleCopy fileRule = iota
	ruleRender
	ruleAppend
	ruleSkip
)

// resolveEntry maps a source file name to its handling rule and final target
// name. Qualifiers are evaluated outermost first: .append takes the source
// bytes verbatim, .tmpl renders through the engine, and a .styled qualifier
// anywhere in the remaining name gates the file on the styling option.
func (g *Generator) resolveEntry(name string) (fileRule, string) {
	rule := ruleCopy

	switch {
	case strings.HasSuffix(name, appendQualifier):
		rule = ruleAppend
		name = strings.TrimSuffix(name, appendQualifier)
	case strings.HasSuffix(name, templateQualifier):
		rule = ruleRender
		name = strings.TrimSuffix(name, templateQualifier)
	}

	if strings.Contains(name, stylingQualifier+".") || strings.HasSuffix(name, stylingQualifier) {
		if !g.cfg.Styling {
			return ruleSkip, ""
		}
		name = strings.Replace(name, stylingQualifier, "", 1)
	}

	return rule, name
}

// composeTree recursively mirrors sourceRoot into the target directory,
// applying the per-file rules. A missing sourceRoot is treated as an empty
// contribution. Directories under _partials are never composed.
func (g *Generator) composeTree(sourceRoot string, data map[string]any) error {
	_, err := os.Stat(sourceRoot)
	if os.IsNotExist(err) {
		return nil
	}

	return filepath.WalkDir(sourceRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if path == sourceRoot {
			return nil
		}

		if d.Name() == partialsDir {
			return filepath.SkipDir
		}

		rel := strings.TrimPrefix(path, sourceRoot)

		switch {
		case d.IsDir():
			return os.MkdirAll(filepath.Join(g.cfg.TargetDirectory, rel), 0755)

		case d.Type().IsRegular():
			return g.composeFile(path, filepath.Dir(rel), d.Name(), data)

		default:
			return fmt.Errorf("invalid file in source: %v", d.Name())
		}
	})
}

func (g *Generator) composeFile(source string, relDir string, name string, data map[string]any) error {
	rule, target := g.resolveEntry(name)
	if rule == ruleSkip {
		if g.log != nil {
			g.log.Debugf("Skipping styling variant file %s", source)
		}
		return nil
	}

	out := filepath.Join(g.cfg.TargetDirectory, relDir, target)

	switch rule {
	case ruleAppend:
		return g.appendFile(source, out)

	case ruleRender:
		tmpl, err := os.ReadFile(source)
		if err != nil {
			return err
		}

		res, err := g.renderTemplate(source, out, tmpl, data)
		if err != nil {
			return err
		}

		err = g.saveFile(out, res)
		if err != nil {
			return err
		}

		if g.log != nil {
			g.log.Infof("Rendered %s", out)
		}

		return nil

	default:
		content, err := os.ReadFile(source)
		if err != nil {
			return err
		}

		err = g.saveFile(out, content)
		if err != nil {
			return err
		}

		if g.log != nil {
			g.log.Infof("Copied %s", out)
		}

		return nil
	}
}

// appendFile appends the source content to an already materialized target,
// the target must have been written by an earlier pass.
func (g *Generator) appendFile(source string, out string) error {
	info, err := os.Stat(out)
	if err != nil || info.IsDir() {
		return &MissingAppendTargetError{Source: source, Target: out}
	}

	content, err := os.ReadFile(source)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(out, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(content)
	if err != nil {
		return err
	}

	g.recordFile(out)

	if g.log != nil {
		g.log.Infof("Appended to %s", out)
	}

	return nil
}

// saveFile writes content to out, creating intermediate directories and
// refusing paths outside the target directory.
func (g *Generator) saveFile(out string, content []byte) error {
	absOut, err := filepath.Abs(out)
	if err != nil {
		return err
	}

	if !containedInDir(absOut, g.cfg.TargetDirectory) {
		return fmt.Errorf("%s is not in target directory %s", out, g.cfg.TargetDirectory)
	}

	err = os.MkdirAll(filepath.Dir(absOut), 0755)
	if err != nil {
		return err
	}

	err = os.WriteFile(absOut, content, 0644)
	if err != nil {
		return err
	}

	g.recordFile(absOut)

	return nil
}

func (g *Generator) recordFile(path string) {
	rel, err := filepath.Rel(g.cfg.TargetDirectory, path)
	if err != nil {
		return
	}

	entry := filepath.ToSlash(rel)
	if slices.Contains(g.written, entry) {
		return
	}
	g.written = append(g.written, entry)
}

func containedInDir(path string, dir string) bool {
	return path == dir || strings.HasPrefix(path, dir+string(filepath.Separator))
}
